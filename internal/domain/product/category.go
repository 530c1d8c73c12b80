package product

import "fmt"

// Category is one of the fixed menu sections.
type Category string

const (
	CategorySandwiches Category = "sandwiches"
	CategoryCroissants Category = "croissants"
	CategoryCoffee     Category = "coffee"
)

// DefaultCategory is the section shown when none is selected.
const DefaultCategory = CategorySandwiches

// Categories lists the menu sections in display order.
var Categories = []Category{CategorySandwiches, CategoryCroissants, CategoryCoffee}

// UnknownCategoryError is returned for a category outside the fixed set.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

// ParseCategory validates s against the fixed set. Empty input selects
// DefaultCategory.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return DefaultCategory, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", &UnknownCategoryError{Category: s}
	}
	return c, nil
}

// Valid reports whether c is in the fixed set.
func (c Category) Valid() bool {
	switch c {
	case CategorySandwiches, CategoryCroissants, CategoryCoffee:
		return true
	}
	return false
}

// Title is the admin section heading.
func (c Category) Title() string {
	switch c {
	case CategorySandwiches:
		return "Sandwiches/Wraps"
	case CategoryCroissants:
		return "Croissants/Muffins"
	case CategoryCoffee:
		return "Starbucks Coffee"
	}
	return string(c)
}

// Label is the short tag shown next to a product.
func (c Category) Label() string {
	switch c {
	case CategorySandwiches:
		return "Sandwich"
	case CategoryCroissants:
		return "Pastry"
	case CategoryCoffee:
		return "Coffee"
	}
	return string(c)
}
