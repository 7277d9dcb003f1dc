package enums

import "fmt"

// SweetCategory classifies catalog items.
type SweetCategory string

const (
	SweetCategoryChocolate SweetCategory = "chocolate"
	SweetCategoryCandy     SweetCategory = "candy"
	SweetCategoryGummy     SweetCategory = "gummy"
	SweetCategoryPastry    SweetCategory = "pastry"
	SweetCategoryBeverage  SweetCategory = "beverage"
	SweetCategoryOther     SweetCategory = "other"
)

var validSweetCategories = []SweetCategory{
	SweetCategoryChocolate,
	SweetCategoryCandy,
	SweetCategoryGummy,
	SweetCategoryPastry,
	SweetCategoryBeverage,
	SweetCategoryOther,
}

// String implements fmt.Stringer.
func (c SweetCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known SweetCategory.
func (c SweetCategory) IsValid() bool {
	for _, candidate := range validSweetCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseSweetCategory converts raw input into a SweetCategory.
func ParseSweetCategory(value string) (SweetCategory, error) {
	for _, candidate := range validSweetCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sweet category %q", value)
}
