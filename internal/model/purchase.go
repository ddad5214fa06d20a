package model

import "time"

// Purchase is a single spending record.
type Purchase struct {
	Timestamp  time.Time
	CategoryID *int64 // overrides the vendor category when set
	Currency   string // ISO 4217 code
	SourceID   string // external identifier for deduplicated imports
	Amount     float64
	ID         int64
	VendorID   int64
}

// TimeRange is an inclusive span of time.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// EffectiveCategoryID resolves the category used for reporting: the purchase
// override, else the vendor default. The second result is false when neither
// is set.
func (p Purchase) EffectiveCategoryID(vendor *Vendor) (int64, bool) {
	if p.CategoryID != nil {
		return *p.CategoryID, true
	}
	if vendor != nil && vendor.CategoryID != nil {
		return *vendor.CategoryID, true
	}
	return 0, false
}

// Int64 returns a pointer to v. Handy for optional ids.
func Int64(v int64) *int64 {
	return &v
}
