package importer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Veraticus/expenses/internal/common"
)

// NumberParser parses amounts written with a locale's separators.
type NumberParser struct {
	tag     language.Tag
	decimal rune
	group   rune
}

// NewNumberParser derives the decimal and grouping separators of tag from its
// number formatting.
func NewNumberParser(tag language.Tag) *NumberParser {
	p := &NumberParser{tag: tag, decimal: '.', group: ','}

	sample := message.NewPrinter(tag).Sprint(number.Decimal(1234567.5,
		number.MinFractionDigits(1),
		number.MaxFractionDigits(1)))
	var separators []rune
	for _, r := range sample {
		if !unicode.IsDigit(r) {
			separators = append(separators, r)
		}
	}
	switch {
	case len(separators) == 1:
		p.decimal = separators[0]
		if p.decimal == ',' {
			p.group = '.'
		}
	case len(separators) > 1:
		p.group, p.decimal = separators[0], separators[len(separators)-1]
	}
	return p
}

// Tag returns the locale the parser was built for.
func (p *NumberParser) Tag() language.Tag {
	return p.tag
}

// Parse reads the first number in s. Leading text such as a currency symbol is
// skipped and parsing stops at the first character that cannot be part of
// the number.
func (p *NumberParser) Parse(s string) (float64, error) {
	var (
		b        strings.Builder
		started  bool
		decimal  bool
		negative bool
	)
loop:
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			started = true
		case r == p.decimal && !decimal:
			b.WriteByte('.')
			started, decimal = true, true
		case started && p.isGroup(r):
		case !started && r == '-':
			negative = true
		case started:
			break loop
		}
	}

	digits := b.String()
	if !strings.ContainsAny(digits, "0123456789") {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidAmount, s)
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidAmount, s)
	}
	if negative {
		v = -v
	}
	return v, nil
}

func (p *NumberParser) isGroup(r rune) bool {
	if r == p.group {
		return true
	}
	// Locales grouping with a space use one of several space characters.
	return unicode.IsSpace(p.group) && unicode.IsSpace(r)
}
