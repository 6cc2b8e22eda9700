package enums

import "fmt"

// ClothType is the garment category an item belongs to.
type ClothType string

const (
	ClothTypeShirt  ClothType = "shirt"
	ClothTypePant   ClothType = "pant"
	ClothTypeKurta  ClothType = "kurta"
	ClothTypeSafari ClothType = "safari"
)

var validClothTypes = []ClothType{
	ClothTypeShirt,
	ClothTypePant,
	ClothTypeKurta,
	ClothTypeSafari,
}

// String implements fmt.Stringer.
func (c ClothType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClothType.
func (c ClothType) IsValid() bool {
	for _, candidate := range validClothTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClothType converts raw input into a ClothType.
func ParseClothType(value string) (ClothType, error) {
	for _, candidate := range validClothTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cloth type %q", value)
}
