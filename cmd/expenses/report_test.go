package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedPurchases(t *testing.T, env testEnv) {
	t.Helper()
	env.mustRun(t, "add", "--vendor", "Bakery", "--amount", "7", "--time", "2024-02-03 12:00")
	env.mustRun(t, "add", "--vendor", "Bakery", "--amount", "10", "--time", "2024-01-05")
	env.mustRun(t, "add", "--vendor", "Metro", "--amount", "30", "--time", "2024-01-06T08:00:00Z", "--category", "Transport")
	env.mustRun(t, "add", "--vendor", "Kiosk", "--amount", "1,234.50", "--currency", "eur", "--time", "2024-02-04")
}

func TestAddCmd(t *testing.T) {
	env := newTestEnv(t, "")

	out := env.mustRun(t, "add", "--vendor", "Bakery", "--amount", "12.50", "--time", "2024-02-03 12:00")
	assert.Contains(t, out, "Added")
	assert.Contains(t, out, "Bakery")
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "Sat, 03 Feb 2024 12:00:00 UTC")

	_, err := env.run(t, "add", "--vendor", "Bakery", "--amount", "abc")
	assert.ErrorContains(t, err, "cannot read amount")

	_, err = env.run(t, "add", "--vendor", "Bakery", "--amount", "1", "--currency", "XXXX")
	assert.ErrorContains(t, err, "invalid --currency")

	_, err = env.run(t, "add", "--vendor", "Bakery", "--amount", "1", "--category", "Nope")
	assert.ErrorContains(t, err, "unknown category")

	_, err = env.run(t, "add", "--vendor", "Bakery", "--amount", "1", "--time", "yesterday")
	assert.ErrorContains(t, err, "invalid --time")

	_, err = env.run(t, "add", "--amount", "1")
	assert.Error(t, err)
}

func TestReportCmd(t *testing.T) {
	env := newTestEnv(t, "")
	seedPurchases(t, env)

	out := env.mustRun(t, "report")
	assert.Contains(t, out, "February 2024 · EUR")
	assert.Contains(t, out, "1,234.50")
	assert.Contains(t, out, "February 2024 · USD")
	assert.Contains(t, out, "January 2024 · USD")
	assert.Contains(t, out, "Transport")
	assert.NotContains(t, out, "Bakery", "purchases are only listed with --details")

	out = env.mustRun(t, "report", "--currency", "USD", "--month", "2024-01", "--details")
	assert.Contains(t, out, "January 2024 · USD")
	assert.Contains(t, out, "40.00")
	assert.Contains(t, out, "Metro")
	assert.NotContains(t, out, "February")
	assert.NotContains(t, out, "EUR")

	out = env.mustRun(t, "report", "--month", "2023-06")
	assert.Contains(t, out, "No purchases found")

	_, err := env.run(t, "report", "--month", "June")
	assert.ErrorContains(t, err, "--month")
}

func TestReportCmd_XLSX(t *testing.T) {
	env := newTestEnv(t, "")
	seedPurchases(t, env)

	path := filepath.Join(env.dir, "report.xlsx")
	out := env.mustRun(t, "report", "--xlsx", path)
	assert.Contains(t, out, "EUR, USD")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"EUR", "USD"}, f.GetSheetList())

	rows, err := f.GetRows("USD")
	require.NoError(t, err)
	assert.Equal(t, "February 2024", rows[1][0])

	_, err = env.run(t, "report", "--currency", "GBP", "--xlsx", path)
	assert.ErrorContains(t, err, "no purchases")
}

func TestMonthsCmd(t *testing.T) {
	env := newTestEnv(t, "")
	seedPurchases(t, env)

	out := env.mustRun(t, "months", "--currency", "USD")
	assert.Equal(t, "February 2024\nJanuary 2024\n", out)

	out = env.mustRun(t, "months", "--currency", "GBP")
	assert.Contains(t, out, "No GBP purchases")
}

func TestVendorsCmd_SetCategory(t *testing.T) {
	env := newTestEnv(t, "")
	seedPurchases(t, env)

	out := env.mustRun(t, "vendors", "set-category", "Bakery", "groceries")
	assert.Contains(t, out, "Bakery is now in groceries")

	out = env.mustRun(t, "vendors", "list")
	assert.Regexp(t, `Bakery\s+Groceries`, out)
	assert.Regexp(t, `Kiosk\s+-`, out)

	out = env.mustRun(t, "report", "--currency", "USD", "--month", "2024-02")
	assert.Contains(t, out, "Groceries")
	assert.NotContains(t, out, "Other")

	out = env.mustRun(t, "vendors", "set-category", "Bakery", "none")
	assert.Contains(t, out, "Bakery is now in no category")

	out = env.mustRun(t, "report", "--currency", "USD", "--month", "2024-02")
	assert.Contains(t, out, "Other")

	_, err := env.run(t, "vendors", "set-category", "Nobody", "none")
	assert.ErrorContains(t, err, "unknown vendor")
}

func TestSampleCmd(t *testing.T) {
	env := newTestEnv(t, "")

	out := env.mustRun(t, "sample", "--vendors", "3", "--purchases", "12")
	assert.Contains(t, out, "Generated 3 vendors and 12 purchases")

	out = env.mustRun(t, "report", "--currency", "USD")
	assert.Contains(t, out, "2023")
}

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339", value: "2024-02-03T10:00:00Z", want: time.Date(2024, 2, 3, 12, 0, 0, 0, loc)},
		{name: "local minutes", value: "2024-02-03 10:00", want: time.Date(2024, 2, 3, 10, 0, 0, 0, loc)},
		{name: "local date", value: "2024-02-03", want: time.Date(2024, 2, 3, 0, 0, 0, 0, loc)},
		{name: "invalid", value: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.value, loc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}
