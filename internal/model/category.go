package model

import "strings"

// BuiltinIcon identifies an icon shipped with the application.
type BuiltinIcon string

// Builtin icons. IconUnknown is used for references that don't resolve.
const (
	IconApartment     BuiltinIcon = "Apartment"
	IconBar           BuiltinIcon = "Bar"
	IconCar           BuiltinIcon = "Car"
	IconFastFood      BuiltinIcon = "FastFood"
	IconGames         BuiltinIcon = "Games"
	IconHealth        BuiltinIcon = "Health"
	IconShopping      BuiltinIcon = "Shopping"
	IconShoppingCart  BuiltinIcon = "ShoppingCart"
	IconSubscriptions BuiltinIcon = "Subscriptions"
	IconWork          BuiltinIcon = "Work"
	IconDefault       BuiltinIcon = "Default"
	IconUnknown       BuiltinIcon = "Unknown"
)

// BuiltinIconPrefix marks an icon reference as pointing at a builtin icon.
const BuiltinIconPrefix = "builtin:"

var builtinIcons = map[BuiltinIcon]bool{
	IconApartment:     true,
	IconBar:           true,
	IconCar:           true,
	IconFastFood:      true,
	IconGames:         true,
	IconHealth:        true,
	IconShopping:      true,
	IconShoppingCart:  true,
	IconSubscriptions: true,
	IconWork:          true,
	IconDefault:       true,
	IconUnknown:       true,
}

// Ref returns the reference that points at this builtin icon.
func (i BuiltinIcon) Ref() IconRef {
	return IconRef{URL: BuiltinIconPrefix + string(i), Builtin: i}
}

// IconRef is a category icon reference. URL is what gets persisted; Builtin is
// the resolved builtin icon, or IconUnknown for external references.
type IconRef struct {
	URL     string
	Builtin BuiltinIcon
}

// ParseIconRef resolves a persisted icon reference. The builtin prefix is
// optional and names are matched case-sensitively.
func ParseIconRef(value string) IconRef {
	name := BuiltinIcon(strings.TrimPrefix(value, BuiltinIconPrefix))
	if !builtinIcons[name] {
		name = IconUnknown
	}
	return IconRef{URL: value, Builtin: name}
}

// String returns the persisted form of the reference.
func (r IconRef) String() string {
	return r.URL
}

// Category groups purchases for reporting.
type Category struct {
	Name  string
	Icon  IconRef
	ID    int64
	Color uint32 // ARGB
}

// OtherCategoryID is the id of the fallback category. It is never persisted.
const OtherCategoryID int64 = 0

// OtherCategory is the fallback for purchases without an effective category.
var OtherCategory = Category{
	ID:    OtherCategoryID,
	Name:  "Other",
	Icon:  IconDefault.Ref(),
	Color: 0xFF888888,
}

// IsOther reports whether c is the fallback category.
func (c Category) IsOther() bool {
	return c.ID == OtherCategoryID
}

// RGB returns the color as a #rrggbb hex string, dropping alpha.
func (c Category) RGB() string {
	const hex = "0123456789abcdef"
	buf := []byte{'#', 0, 0, 0, 0, 0, 0}
	v := c.Color & 0xFFFFFF
	for i := 6; i >= 1; i-- {
		buf[i] = hex[v&0xF]
		v >>= 4
	}
	return string(buf)
}

// DefaultCategories returns the categories seeded into a fresh database. Their
// ids are fixed so seeding twice is a no-op.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Apartment", Icon: IconApartment.Ref(), Color: 0xFF00CED1},
		{ID: 2, Name: "Health", Icon: IconHealth.Ref(), Color: 0xFFFF6347},
		{ID: 3, Name: "Business", Icon: IconWork.Ref(), Color: 0xFFDEB887},
		{ID: 4, Name: "Transport", Icon: IconCar.Ref(), Color: 0xFFFFD700},
		{ID: 5, Name: "Shopping", Icon: IconShopping.Ref(), Color: 0xFF87CEEB},
		{ID: 6, Name: "Groceries", Icon: IconShoppingCart.Ref(), Color: 0xFF9ACD32},
		{ID: 7, Name: "Bar", Icon: IconBar.Ref(), Color: 0xFFFF69B4},
		{ID: 8, Name: "Fast food", Icon: IconFastFood.Ref(), Color: 0xFFFF8C00},
		{ID: 9, Name: "Subscriptions", Icon: IconSubscriptions.Ref(), Color: 0xFFB22222},
		{ID: 10, Name: "Games", Icon: IconGames.Ref(), Color: 0xFF9370DB},
	}
}
