// Package report aggregates purchases into monthly per-currency reports.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/expenses/internal/model"
)

// Entry is a purchase together with the vendor it was made at.
type Entry struct {
	Vendor   model.Vendor
	Purchase model.Purchase
}

// CategorySummary holds the purchases of one effective category in a month.
type CategorySummary struct {
	Category  model.Category
	Purchases []Entry
	Total     float64
}

// MonthReport is the category breakdown of a calendar month.
type MonthReport struct {
	Month      time.Time
	Categories []CategorySummary
	Total      float64
}

// Collection is the report for a single currency, one page per month with
// the most recent month first.
type Collection struct {
	Currency string
	Months   []MonthReport
}

// Len returns the number of months in the collection.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Months)
}

// Page returns the i-th month, most recent first.
func (c *Collection) Page(i int) (MonthReport, bool) {
	if i < 0 || i >= c.Len() {
		return MonthReport{}, false
	}
	return c.Months[i], true
}

// MonthIndex returns the page holding the month that contains t, or -1.
func (c *Collection) MonthIndex(t time.Time) int {
	if c.Len() == 0 {
		return -1
	}
	want := MonthStart(t, c.Months[0].Month.Location())
	for i, m := range c.Months {
		if m.Month.Equal(want) {
			return i
		}
	}
	return -1
}

// MonthStart returns midnight of the first day of the month containing t in
// loc.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// Build groups purchases by currency, month and effective category. Purchases
// without a resolvable category are reported under model.OtherCategory.
// Purchases referencing an unknown vendor are kept with a placeholder vendor.
func Build(
	purchases []model.Purchase,
	vendorsByID map[int64]model.Vendor,
	categoriesByID map[int64]model.Category,
	loc *time.Location,
) map[string]*Collection {
	result := make(map[string]*Collection)
	if len(purchases) == 0 {
		return result
	}

	byCurrency := make(map[string][]model.Purchase)
	for _, p := range purchases {
		byCurrency[p.Currency] = append(byCurrency[p.Currency], p)
	}

	for code, group := range byCurrency {
		result[code] = buildCollection(code, group, vendorsByID, categoriesByID, loc)
	}
	return result
}

func buildCollection(
	code string,
	purchases []model.Purchase,
	vendorsByID map[int64]model.Vendor,
	categoriesByID map[int64]model.Category,
	loc *time.Location,
) *Collection {
	byMonth := make(map[time.Time][]model.Purchase)
	for _, p := range purchases {
		month := MonthStart(p.Timestamp, loc)
		byMonth[month] = append(byMonth[month], p)
	}

	collection := &Collection{
		Currency: code,
		Months:   make([]MonthReport, 0, len(byMonth)),
	}
	for month, group := range byMonth {
		collection.Months = append(collection.Months, buildMonth(month, group, vendorsByID, categoriesByID))
	}
	sort.Slice(collection.Months, func(i, j int) bool {
		return collection.Months[i].Month.After(collection.Months[j].Month)
	})
	return collection
}

func buildMonth(
	month time.Time,
	purchases []model.Purchase,
	vendorsByID map[int64]model.Vendor,
	categoriesByID map[int64]model.Category,
) MonthReport {
	summaries := make(map[int64]*CategorySummary)
	for _, p := range purchases {
		vendor, ok := vendorsByID[p.VendorID]
		if !ok {
			vendor = placeholderVendor(p.VendorID)
		}

		category := resolveCategory(p, &vendor, categoriesByID)
		summary, ok := summaries[category.ID]
		if !ok {
			summary = &CategorySummary{Category: category}
			summaries[category.ID] = summary
		}
		summary.Purchases = append(summary.Purchases, Entry{Purchase: p, Vendor: vendor})
	}

	report := MonthReport{
		Month:      month,
		Categories: make([]CategorySummary, 0, len(summaries)),
	}
	for _, summary := range summaries {
		sortEntries(summary.Purchases)
		for _, e := range summary.Purchases {
			summary.Total += e.Purchase.Amount
		}
		report.Categories = append(report.Categories, *summary)
	}

	sort.Slice(report.Categories, func(i, j int) bool {
		a, b := report.Categories[i], report.Categories[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Category.Name != b.Category.Name {
			return a.Category.Name < b.Category.Name
		}
		return a.Category.ID < b.Category.ID
	})
	for _, c := range report.Categories {
		report.Total += c.Total
	}
	return report
}

// resolveCategory returns the effective category of p. Ids missing from the
// lookup resolve to Other, like purchases without any category.
func resolveCategory(p model.Purchase, vendor *model.Vendor, categoriesByID map[int64]model.Category) model.Category {
	id, ok := p.EffectiveCategoryID(vendor)
	if !ok || id == model.OtherCategoryID {
		return model.OtherCategory
	}
	category, ok := categoriesByID[id]
	if !ok {
		return model.OtherCategory
	}
	return category
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Purchase, entries[j].Purchase
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID > b.ID
	})
}

func placeholderVendor(id int64) model.Vendor {
	return model.Vendor{ID: id, Name: fmt.Sprintf("vendor #%d", id)}
}

// Months lists the first day of every month touched by r, from the month of
// r.End back to the month of r.Start.
func Months(r model.TimeRange, loc *time.Location) []time.Time {
	start := MonthStart(r.Start, loc)
	end := MonthStart(r.End, loc)

	var months []time.Time
	for m := end; !m.Before(start); m = m.AddDate(0, -1, 0) {
		months = append(months, m)
	}
	return months
}
