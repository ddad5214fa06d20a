package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

// Source provides the data reports are built from.
type Source interface {
	GetPurchases(ctx context.Context, filter service.PurchaseFilter) ([]model.Purchase, error)
	VendorsByID(ctx context.Context) (map[int64]model.Vendor, error)
	CategoriesByID(ctx context.Context) (map[int64]model.Category, error)
	Subscribe(ctx context.Context) <-chan service.Change
}

// Update carries a freshly built set of reports, keyed by currency.
type Update struct {
	Reports map[string]*Collection
	Err     error
}

// Watcher rebuilds reports whenever purchases, vendors or categories change.
type Watcher struct {
	source Source
	loc    *time.Location
}

// NewWatcher creates a watcher building reports in loc.
func NewWatcher(source Source, loc *time.Location) *Watcher {
	if loc == nil {
		loc = time.Local
	}
	return &Watcher{source: source, loc: loc}
}

// Load builds the current reports once.
func (w *Watcher) Load(ctx context.Context) (map[string]*Collection, error) {
	purchases, err := w.source.GetPurchases(ctx, service.PurchaseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}
	vendors, err := w.source.VendorsByID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendors: %w", err)
	}
	categories, err := w.source.CategoriesByID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return Build(purchases, vendors, categories, w.loc), nil
}

// Watch emits the current reports and then a new Update after every relevant
// change. Only the latest unread update is kept. The channel is closed when
// ctx is done or the source stops publishing.
func (w *Watcher) Watch(ctx context.Context) <-chan Update {
	out := make(chan Update, 1)
	changes := w.source.Subscribe(ctx)

	go func() {
		defer close(out)
		w.emit(ctx, out)

		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				if !affectsReports(change) {
					continue
				}
				slog.Debug("rebuilding reports", "tables", change.Tables)
				w.emit(ctx, out)
			}
		}
	}()

	return out
}

func (w *Watcher) emit(ctx context.Context, out chan Update) {
	reports, err := w.Load(ctx)
	if err != nil {
		slog.Warn("failed to rebuild reports", "error", err)
	}
	update := Update{Reports: reports, Err: err}

	select {
	case out <- update:
		return
	default:
	}
	// Replace the stale update nobody has read yet.
	select {
	case <-out:
	default:
	}
	select {
	case out <- update:
	case <-ctx.Done():
	}
}

func affectsReports(change service.Change) bool {
	return change.Touches(service.TablePurchase) ||
		change.Touches(service.TableVendor) ||
		change.Touches(service.TableCategory)
}
