package storage

import (
	"context"
	"sync"

	"github.com/Veraticus/expenses/internal/service"
)

// notifier fans committed changes out to subscribers. Each subscriber has a
// one-slot buffer; a change arriving while one is pending is merged into it,
// so slow readers see fewer but complete notifications.
type notifier struct {
	subs   map[chan service.Change]struct{}
	mu     sync.Mutex
	closed bool
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[chan service.Change]struct{})}
}

func (n *notifier) subscribe(ctx context.Context) <-chan service.Change {
	ch := make(chan service.Change, 1)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch
	}
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.unsubscribe(ch)
	}()

	return ch
}

func (n *notifier) unsubscribe(ch chan service.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.subs[ch]; ok {
		delete(n.subs, ch)
		close(ch)
	}
}

func (n *notifier) publish(change service.Change) {
	if len(change.Tables) == 0 {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs {
		select {
		case ch <- change:
		default:
			// Merge with the pending notification.
			select {
			case pending := <-ch:
				ch <- merge(pending, change)
			default:
				ch <- change
			}
		}
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for ch := range n.subs {
		delete(n.subs, ch)
		close(ch)
	}
}

func merge(a, b service.Change) service.Change {
	seen := make(map[string]bool, len(a.Tables)+len(b.Tables))
	out := service.Change{}
	for _, t := range append(append([]string{}, a.Tables...), b.Tables...) {
		if !seen[t] {
			seen[t] = true
			out.Tables = append(out.Tables, t)
		}
	}
	return out
}
