package model

// Vendor is a merchant that purchases are attributed to. CategoryID is the
// default category for all of its purchases and may be nil.
type Vendor struct {
	CategoryID *int64
	Name       string
	ID         int64
}
