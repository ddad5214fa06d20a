package report

import (
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Layouts used when rendering reports.
const (
	MonthHeaderLayout = "2006\nJanuary"
	MonthTitleLayout  = "January 2006"
)

// Formatter renders amounts and timestamps for a locale and time zone.
type Formatter struct {
	printer *message.Printer
	loc     *time.Location
	tag     language.Tag
}

// NewFormatter creates a formatter. A nil location means time.Local.
func NewFormatter(tag language.Tag, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		loc:     loc,
		tag:     tag,
	}
}

// Tag returns the formatter's locale.
func (f *Formatter) Tag() language.Tag {
	return f.tag
}

// Location returns the formatter's time zone.
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Amount formats amount in the given ISO 4217 currency using its symbol.
// Unknown codes fall back to a plain number followed by the code.
func (f *Formatter) Amount(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return f.Number(amount) + " " + code
	}
	return f.printer.Sprint(currency.Symbol(unit.Amount(amount)))
}

// Number formats amount with two fraction digits and locale separators.
func (f *Formatter) Number(amount float64) string {
	return f.printer.Sprint(number.Decimal(amount,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2)))
}

// MonthHeader renders the two-line header used above a month page.
func (f *Formatter) MonthHeader(month time.Time) string {
	return month.In(f.loc).Format(MonthHeaderLayout)
}

// MonthTitle renders a month on a single line.
func (f *Formatter) MonthTitle(month time.Time) string {
	return month.In(f.loc).Format(MonthTitleLayout)
}

// Timestamp renders a purchase time in RFC 1123 form.
func (f *Formatter) Timestamp(t time.Time) string {
	return t.In(f.loc).Format(time.RFC1123)
}
