package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Named capture groups every SMS rule pattern must define.
const (
	GroupAmount = "AMOUNT"
	GroupVendor = "VENDOR"
)

// ErrInvalidRule is returned for SMS rules that cannot be used for import.
var ErrInvalidRule = errors.New("invalid sms rule")

// SmsRule extracts a purchase from text messages sent by Sender.
type SmsRule struct {
	matcher  *regexp.Regexp
	Sender   string
	Regex    string
	Currency string
	ID       int64
}

// NewSmsRule validates regex and builds a rule from it.
func NewSmsRule(sender, regex, currency string) (SmsRule, error) {
	matcher, err := compileRulePattern(regex)
	if err != nil {
		return SmsRule{}, err
	}
	return SmsRule{
		matcher:  matcher,
		Sender:   sender,
		Regex:    regex,
		Currency: currency,
	}, nil
}

// compileRulePattern anchors the pattern so that it has to match the entire
// message body, and checks that it captures both the amount and the vendor.
func compileRulePattern(pattern string) (*regexp.Regexp, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	re := regexp.MustCompile(`^(?:` + pattern + `)$`)
	for _, group := range []string{GroupAmount, GroupVendor} {
		if re.SubexpIndex(group) < 0 {
			return nil, fmt.Errorf("%w: pattern %q has no %s group", ErrInvalidRule, pattern, group)
		}
	}
	return re, nil
}

// Match returns the amount and vendor text extracted from body.
func (r SmsRule) Match(body string) (amount, vendor string, ok bool) {
	if r.matcher == nil {
		return "", "", false
	}
	m := r.matcher.FindStringSubmatch(body)
	if m == nil {
		return "", "", false
	}
	amount = strings.TrimSpace(m[r.matcher.SubexpIndex(GroupAmount)])
	vendor = strings.TrimSpace(m[r.matcher.SubexpIndex(GroupVendor)])
	return amount, vendor, true
}

// Message is an inbound text message.
type Message struct {
	Sent   time.Time
	Sender string
	Body   string
}
