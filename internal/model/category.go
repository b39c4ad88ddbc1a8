package model

// Category is an immutable label produced by a classifier.
type Category string

// Keyword and ASIN categories.
const (
	CategoryBrandKW    Category = "Brand KW"
	CategoryNonBrandKW Category = "Non-brand KW"
	CategoryCateKW     Category = "Cate KW"
	CategoryCompKW     Category = "CMP KW"
	CategoryBrandPAT   Category = "Brand PAT"
	CategoryCompPAT    Category = "CMP PAT"
	CategoryAutoKW     Category = "Auto KW"
	CategoryAutoPAT    Category = "Auto PAT"
)

// Search insight categories.
const (
	CategoryBranded    Category = "Branded KWs"
	CategoryNonBranded Category = "Non-Branded KWs"
)

// Pack form categories.
const (
	CategoryCapsule     Category = "Capsule"
	CategoryTablet      Category = "Tablet"
	CategoryPowder      Category = "Powder"
	CategoryGummy       Category = "Gummy"
	CategoryDrop        Category = "Drop"
	CategorySoftgel     Category = "Softgel"
	CategoryLiquid      Category = "Liquid"
	CategoryCream       Category = "Cream"
	CategorySpray       Category = "Spray"
	CategoryLotion      Category = "Lotion"
	CategoryPatch       Category = "Patch"
	CategorySuppository Category = "Suppository"
	CategoryOil         Category = "Oil"
	CategoryBundle      Category = "Bundle"
	CategoryOthers      Category = "Others"
)

func (c Category) String() string {
	return string(c)
}

// IsZero reports whether the category is unset.
func (c Category) IsZero() bool {
	return c == ""
}
