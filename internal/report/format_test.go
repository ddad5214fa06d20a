package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFormatter_Timestamps(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	f := NewFormatter(language.AmericanEnglish, loc)

	month := time.Date(2023, 11, 1, 0, 0, 0, 0, loc)
	assert.Equal(t, "2023\nNovember", f.MonthHeader(month))
	assert.Equal(t, "November 2023", f.MonthTitle(month))

	ts := time.Date(2023, 11, 10, 18, 2, 3, 0, time.UTC)
	assert.Equal(t, "Sat, 11 Nov 2023 01:02:03 ICT", f.Timestamp(ts))
	assert.Equal(t, loc, f.Location())
	assert.Equal(t, language.AmericanEnglish, f.Tag())
}

func TestFormatter_Amount(t *testing.T) {
	f := NewFormatter(language.AmericanEnglish, time.UTC)

	assert.Contains(t, f.Amount(12.5, "USD"), "$")
	assert.Contains(t, f.Amount(12.5, "USD"), "12.5")
	assert.Equal(t, "1,234.50", f.Number(1234.5))
	assert.Equal(t, "3.00 QQQ", f.Amount(3, "QQQ"))
}

func TestFormatter_NumberUsesLocale(t *testing.T) {
	f := NewFormatter(language.German, time.UTC)
	assert.Equal(t, "1.234,50", f.Number(1234.5))
}

func TestNewFormatter_DefaultsToLocal(t *testing.T) {
	f := NewFormatter(language.English, nil)
	assert.Equal(t, time.Local, f.Location())
}
