package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expenses/internal/model"
)

var (
	groceries = model.Category{ID: 1, Name: "Groceries", Icon: model.IconShoppingCart.Ref()}
	bar       = model.Category{ID: 2, Name: "Bar", Icon: model.IconBar.Ref()}
	transport = model.Category{ID: 3, Name: "Transport", Icon: model.IconCar.Ref()}
)

func testCategories() map[int64]model.Category {
	return map[int64]model.Category{
		groceries.ID: groceries,
		bar.ID:       bar,
		transport.ID: transport,
	}
}

func testVendors() map[int64]model.Vendor {
	return map[int64]model.Vendor{
		10: {ID: 10, Name: "Market", CategoryID: model.Int64(groceries.ID)},
		11: {ID: 11, Name: "Pub", CategoryID: model.Int64(bar.ID)},
		12: {ID: 12, Name: "Taxi", CategoryID: model.Int64(transport.ID)},
		13: {ID: 13, Name: "Street vendor"},
	}
}

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func purchase(id, vendorID int64, ts time.Time, amount float64) model.Purchase {
	return model.Purchase{ID: id, VendorID: vendorID, Timestamp: ts, Amount: amount, Currency: "USD"}
}

func TestBuild_Empty(t *testing.T) {
	got := Build(nil, testVendors(), testCategories(), time.UTC)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = Build([]model.Purchase{}, nil, nil, time.UTC)
	assert.Empty(t, got)
}

func TestBuild_GroupsByCurrencyMonthAndCategory(t *testing.T) {
	eur := purchase(7, 10, at(2024, 2, 3, 9), 15)
	eur.Currency = "EUR"
	purchases := []model.Purchase{
		purchase(1, 10, at(2024, 1, 5, 10), 40),
		purchase(2, 10, at(2024, 1, 20, 10), 10),
		purchase(3, 11, at(2024, 1, 21, 22), 30),
		purchase(4, 12, at(2024, 1, 31, 23), 5),
		purchase(5, 11, at(2024, 2, 1, 0), 12),
		purchase(6, 13, at(2024, 2, 14, 12), 3),
		eur,
	}

	reports := Build(purchases, testVendors(), testCategories(), time.UTC)
	require.Len(t, reports, 2)

	usd := reports["USD"]
	require.NotNil(t, usd)
	assert.Equal(t, "USD", usd.Currency)
	require.Equal(t, 2, usd.Len())

	feb, ok := usd.Page(0)
	require.True(t, ok)
	assert.Equal(t, at(2024, 2, 1, 0), feb.Month)
	assert.InDelta(t, 15.0, feb.Total, 1e-9)
	require.Len(t, feb.Categories, 2)
	assert.Equal(t, bar, feb.Categories[0].Category)
	assert.Equal(t, model.OtherCategory, feb.Categories[1].Category)

	jan, ok := usd.Page(1)
	require.True(t, ok)
	assert.Equal(t, at(2024, 1, 1, 0), jan.Month)
	assert.InDelta(t, 85.0, jan.Total, 1e-9)
	require.Len(t, jan.Categories, 3)
	assert.Equal(t, groceries, jan.Categories[0].Category)
	assert.InDelta(t, 50.0, jan.Categories[0].Total, 1e-9)
	assert.Equal(t, bar, jan.Categories[1].Category)
	assert.Equal(t, transport, jan.Categories[2].Category)

	market := jan.Categories[0].Purchases
	require.Len(t, market, 2)
	assert.Equal(t, int64(2), market[0].Purchase.ID, "most recent purchase first")
	assert.Equal(t, "Market", market[0].Vendor.Name)

	euro := reports["EUR"]
	require.NotNil(t, euro)
	require.Equal(t, 1, euro.Len())
	assert.InDelta(t, 15.0, euro.Months[0].Total, 1e-9)

	_, ok = usd.Page(2)
	assert.False(t, ok)
	_, ok = usd.Page(-1)
	assert.False(t, ok)
}

func TestBuild_TotalsAreConsistent(t *testing.T) {
	var purchases []model.Purchase
	vendorIDs := []int64{10, 11, 12, 13}
	for i := 0; i < 200; i++ {
		ts := at(2023, time.Month(1+i%12), 1+i%28, i%24)
		purchases = append(purchases, purchase(int64(i+1), vendorIDs[i%len(vendorIDs)], ts, float64(i%37)*1.25))
	}

	reports := Build(purchases, testVendors(), testCategories(), time.UTC)
	usd := reports["USD"]
	require.NotNil(t, usd)
	require.Equal(t, 12, usd.Len())

	var count int
	for i, month := range usd.Months {
		if i > 0 {
			assert.True(t, usd.Months[i-1].Month.After(month.Month), "months strictly descending")
		}

		var categoryTotal, purchaseTotal float64
		for j, c := range month.Categories {
			if j > 0 {
				assert.GreaterOrEqual(t, month.Categories[j-1].Total, c.Total, "categories by descending total")
			}
			categoryTotal += c.Total

			var sum float64
			for k, e := range c.Purchases {
				if k > 0 {
					assert.False(t, e.Purchase.Timestamp.After(c.Purchases[k-1].Purchase.Timestamp), "purchases by descending time")
				}
				assert.Equal(t, month.Month, MonthStart(e.Purchase.Timestamp, time.UTC))
				sum += e.Purchase.Amount
				purchaseTotal += e.Purchase.Amount
				count++
			}
			assert.InDelta(t, sum, c.Total, 1e-9)
		}
		assert.InDelta(t, categoryTotal, month.Total, 1e-9)
		assert.InDelta(t, purchaseTotal, month.Total, 1e-9)
	}
	assert.Equal(t, len(purchases), count)
}

func TestBuild_EffectiveCategory(t *testing.T) {
	ts := at(2024, 3, 10, 12)
	override := purchase(1, 11, ts, 10)
	override.CategoryID = model.Int64(transport.ID)
	dangling := purchase(2, 10, ts, 1)
	dangling.CategoryID = model.Int64(99)
	purchases := []model.Purchase{
		override,
		purchase(3, 11, ts, 20),
		purchase(4, 13, ts, 2),
		dangling,
	}

	month := Build(purchases, testVendors(), testCategories(), time.UTC)["USD"].Months[0]
	byName := make(map[string]CategorySummary)
	for _, c := range month.Categories {
		byName[c.Category.Name] = c
	}

	require.Contains(t, byName, "Transport")
	assert.Equal(t, int64(1), byName["Transport"].Purchases[0].Purchase.ID)
	require.Contains(t, byName, "Bar")
	assert.Len(t, byName["Bar"].Purchases, 1)
	require.Contains(t, byName, "Other")
	assert.Len(t, byName["Other"].Purchases, 2, "no category and unknown category both fall back to Other")
	assert.InDelta(t, 3.0, byName["Other"].Total, 1e-9)
}

func TestBuild_RecategorizedVendor(t *testing.T) {
	ts := at(2024, 3, 10, 12)
	purchases := []model.Purchase{
		purchase(1, 13, ts, 4),
		purchase(2, 13, ts.Add(time.Hour), 6),
	}

	vendors := testVendors()
	before := Build(purchases, vendors, testCategories(), time.UTC)["USD"].Months[0]
	require.Len(t, before.Categories, 1)
	assert.True(t, before.Categories[0].Category.IsOther())

	v := vendors[13]
	v.CategoryID = model.Int64(groceries.ID)
	vendors[13] = v

	after := Build(purchases, vendors, testCategories(), time.UTC)["USD"].Months[0]
	require.Len(t, after.Categories, 1)
	assert.Equal(t, groceries, after.Categories[0].Category)
	assert.Len(t, after.Categories[0].Purchases, 2)
	assert.Equal(t, int64(13), after.Categories[0].Purchases[0].Vendor.ID)
}

func TestBuild_TieBreaks(t *testing.T) {
	ts := at(2024, 5, 5, 5)
	purchases := []model.Purchase{
		purchase(1, 12, ts, 10),
		purchase(2, 11, ts, 10),
		purchase(3, 10, ts, 10),
		purchase(4, 10, ts, 0),
	}

	month := Build(purchases, testVendors(), testCategories(), time.UTC)["USD"].Months[0]
	require.Len(t, month.Categories, 3)
	assert.Equal(t, "Bar", month.Categories[0].Category.Name)
	assert.Equal(t, "Groceries", month.Categories[1].Category.Name)
	assert.Equal(t, "Transport", month.Categories[2].Category.Name)

	entries := month.Categories[1].Purchases
	require.Len(t, entries, 2)
	assert.Equal(t, int64(4), entries[0].Purchase.ID, "equal timestamps ordered by id descending")
}

func TestBuild_UnknownVendor(t *testing.T) {
	purchases := []model.Purchase{purchase(1, 404, at(2024, 1, 1, 1), 7)}

	month := Build(purchases, testVendors(), testCategories(), time.UTC)["USD"].Months[0]
	require.Len(t, month.Categories, 1)
	assert.True(t, month.Categories[0].Category.IsOther())
	entry := month.Categories[0].Purchases[0]
	assert.Equal(t, int64(404), entry.Vendor.ID)
	assert.NotEmpty(t, entry.Vendor.Name)
}

func TestBuild_MonthUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	// 23:30 UTC on the last day of November is already December in UTC+7.
	ts := time.Date(2023, 11, 30, 23, 30, 0, 0, time.UTC)
	reports := Build([]model.Purchase{purchase(1, 10, ts, 1)}, testVendors(), testCategories(), loc)

	month := reports["USD"].Months[0].Month
	assert.Equal(t, time.December, month.Month())
	assert.Equal(t, 1, month.Day())
	assert.Equal(t, loc, month.Location())
}

func TestCollection_MonthIndex(t *testing.T) {
	purchases := []model.Purchase{
		purchase(1, 10, at(2024, 1, 15, 1), 1),
		purchase(2, 10, at(2024, 3, 15, 1), 1),
	}
	usd := Build(purchases, testVendors(), testCategories(), time.UTC)["USD"]

	assert.Equal(t, 0, usd.MonthIndex(at(2024, 3, 31, 23)))
	assert.Equal(t, 1, usd.MonthIndex(at(2024, 1, 1, 0)))
	assert.Equal(t, -1, usd.MonthIndex(at(2024, 2, 10, 0)))

	var empty *Collection
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, -1, empty.MonthIndex(at(2024, 1, 1, 0)))
}

func TestMonths(t *testing.T) {
	zone := time.FixedZone("", 7*60*60)
	end := time.Date(2023, 11, 11, 1, 2, 3, 456, zone)
	got := Months(model.TimeRange{Start: end.AddDate(0, -2, 0), End: end}, zone)

	want := []time.Time{
		time.Date(2023, 11, 1, 0, 0, 0, 0, zone),
		time.Date(2023, 10, 1, 0, 0, 0, 0, zone),
		time.Date(2023, 9, 1, 0, 0, 0, 0, zone),
	}
	assert.Equal(t, want, got)
}

func TestMonths_Edges(t *testing.T) {
	sameMonth := Months(model.TimeRange{Start: at(2024, 6, 2, 0), End: at(2024, 6, 29, 0)}, time.UTC)
	assert.Equal(t, []time.Time{at(2024, 6, 1, 0)}, sameMonth)

	yearBoundary := Months(model.TimeRange{Start: at(2023, 12, 31, 0), End: at(2024, 1, 1, 0)}, time.UTC)
	assert.Equal(t, []time.Time{at(2024, 1, 1, 0), at(2023, 12, 1, 0)}, yearBoundary)

	reversed := Months(model.TimeRange{Start: at(2024, 6, 2, 0), End: at(2024, 4, 2, 0)}, time.UTC)
	assert.Empty(t, reversed)
}
