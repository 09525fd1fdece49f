package domain

import "fmt"

// Gender is the audience a product is made for.
type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
	GenderKid    Gender = "kid"
)

// Genders lists every valid gender in display order.
func Genders() []Gender {
	return []Gender{GenderMen, GenderWomen, GenderUnisex, GenderKid}
}

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderUnisex, GenderKid:
		return true
	default:
		return false
	}
}

// ParseGender converts s into a Gender.
func ParseGender(s string) (Gender, error) {
	g := Gender(s)
	if !g.Valid() {
		return "", fmt.Errorf("unknown gender %q", s)
	}
	return g, nil
}
