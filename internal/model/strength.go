package model

import "fmt"

// Strength is an ordinal tier of relationship coupling. Lower values are stronger.
type Strength int

const (
	StrengthStrong Strength = iota
	StrengthMedium
	StrengthWeak
)

func (s Strength) String() string {
	switch s {
	case StrengthStrong:
		return "strong"
	case StrengthMedium:
		return "medium"
	default:
		return "weak"
	}
}

// ParseStrength converts a tier name into a Strength.
func ParseStrength(name string) (Strength, error) {
	switch name {
	case "strong":
		return StrengthStrong, nil
	case "medium":
		return StrengthMedium, nil
	case "weak":
		return StrengthWeak, nil
	}
	return StrengthWeak, fmt.Errorf("unknown strength tier %q", name)
}

// StrengthOf returns the tier of a relationship kind. Kinds outside the
// table, such as "creates", count as weak.
func StrengthOf(t RelationshipType) Strength {
	switch t {
	case Extends, Implements:
		return StrengthStrong
	case Composition, Aggregation, Association:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}
