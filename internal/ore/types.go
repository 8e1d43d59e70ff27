// Package ore defines the ore categories and amount vectors used by the
// OreQuest engine. Amounts are bounded uint8 values to match the external
// claim format.
package ore

import (
	"fmt"
	"strings"
)

// Type identifies one of the five fixed ore categories
type Type uint8

const (
	// Gold is ore type 0
	Gold Type = iota
	// Emerald is ore type 1
	Emerald
	// Ruby is ore type 2
	Ruby
	// Sapphire is ore type 3
	Sapphire
	// Diamond is ore type 4
	Diamond

	numTypes
)

// NumTypes is the number of ore categories
const NumTypes = int(numTypes)

// MaxAmount is the upper bound for any single ore amount
const MaxAmount = 255

// Valid reports whether t is one of the five known ore types
func (t Type) Valid() bool {
	return t < numTypes
}

// String returns the lowercase name of the ore type
func (t Type) String() string {
	switch t {
	case Gold:
		return "gold"
	case Emerald:
		return "emerald"
	case Ruby:
		return "ruby"
	case Sapphire:
		return "sapphire"
	case Diamond:
		return "diamond"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseType parses an ore type name (case-insensitive)
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "gold":
		return Gold, nil
	case "emerald":
		return Emerald, nil
	case "ruby":
		return Ruby, nil
	case "sapphire":
		return Sapphire, nil
	case "diamond":
		return Diamond, nil
	default:
		return 0, fmt.Errorf("unknown ore type %q", s)
	}
}

// Types returns all ore types in canonical order
func Types() [NumTypes]Type {
	return [NumTypes]Type{Gold, Emerald, Ruby, Sapphire, Diamond}
}

// Amounts is a per-type ore amount vector, indexed by Type
type Amounts [NumTypes]uint8

// weights is the fixed per-type value weighting applied by the
// total-value function. Deterministic and identical for every claim.
var weights = [NumTypes]int{
	Gold:     1,
	Emerald:  2,
	Ruby:     3,
	Sapphire: 4,
	Diamond:  5,
}

// Weight returns the fixed value weight for an ore type
func Weight(t Type) int {
	if !t.Valid() {
		return 0
	}
	return weights[t]
}

// Get returns the amount for a single ore type
func (a Amounts) Get(t Type) uint8 {
	if !t.Valid() {
		return 0
	}
	return a[t]
}

// Count returns the total number of ores across all categories
func (a Amounts) Count() int {
	total := 0
	for _, amt := range a {
		total += int(amt)
	}
	return total
}

// Value returns the weighted total value of the amounts. This is the
// deterministic function a claim's totalValue must satisfy.
func (a Amounts) Value() int {
	total := 0
	for t, amt := range a {
		total += weights[t] * int(amt)
	}
	return total
}

// String renders the vector as "gold=2 emerald=0 ruby=3 sapphire=1 diamond=1"
func (a Amounts) String() string {
	parts := make([]string, 0, NumTypes)
	for t, amt := range a {
		parts = append(parts, fmt.Sprintf("%s=%d", Type(t), amt))
	}
	return strings.Join(parts, " ")
}
