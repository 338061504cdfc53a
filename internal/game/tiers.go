package game

import (
	"errors"
	"fmt"
)

var ErrUnknownTier = errors.New("unknown tier")

// Tier is one size class of droppable ball.
type Tier struct {
	Radius     float64 `json:"radius"`
	ScoreValue int     `json:"score_value"`
}

// TopTierRule decides what a merge of two top-tier balls produces.
type TopTierRule string

const (
	// TopTierWrap recycles two top-tier balls into one tier-0 ball.
	TopTierWrap TopTierRule = "wrap"
	// TopTierSuppress leaves top-tier pairs alone.
	TopTierSuppress TopTierRule = "suppress"
)

// ParseTopTierRule maps a config value onto a rule, defaulting to wrap.
func ParseTopTierRule(s string) TopTierRule {
	if TopTierRule(s) == TopTierSuppress {
		return TopTierSuppress
	}
	return TopTierWrap
}

// TierTable is the ordered, read-only list of tiers for a session.
type TierTable struct {
	tiers []Tier
}

// NewTierTable copies tiers into a table. Radii must be positive.
func NewTierTable(tiers []Tier) (*TierTable, error) {
	if len(tiers) == 0 {
		return nil, errors.New("tier table is empty")
	}
	cp := make([]Tier, len(tiers))
	for i, t := range tiers {
		if t.Radius <= 0 {
			return nil, fmt.Errorf("tier %d: radius must be positive, got %v", i, t.Radius)
		}
		cp[i] = t
	}
	return &TierTable{tiers: cp}, nil
}

// DefaultTierTable returns the standard twelve ball sizes.
func DefaultTierTable() *TierTable {
	t, _ := NewTierTable(DefaultTiers)
	return t
}

func (t *TierTable) Len() int {
	return len(t.tiers)
}

// Top is the index of the largest tier.
func (t *TierTable) Top() int {
	return len(t.tiers) - 1
}

func (t *TierTable) Valid(tier int) bool {
	return tier >= 0 && tier < len(t.tiers)
}

func (t *TierTable) Tier(tier int) (Tier, error) {
	if !t.Valid(tier) {
		return Tier{}, fmt.Errorf("tier %d: %w", tier, ErrUnknownTier)
	}
	return t.tiers[tier], nil
}

// Radius returns 0 for unknown tiers.
func (t *TierTable) Radius(tier int) float64 {
	if !t.Valid(tier) {
		return 0
	}
	return t.tiers[tier].Radius
}

// Value returns 0 for unknown tiers.
func (t *TierTable) Value(tier int) int {
	if !t.Valid(tier) {
		return 0
	}
	return t.tiers[tier].ScoreValue
}

// Successor returns the tier produced by merging two balls of the given tier.
// ok is false when the rule forbids the merge.
func (t *TierTable) Successor(tier int, rule TopTierRule) (next int, ok bool) {
	if !t.Valid(tier) {
		return 0, false
	}
	if tier == t.Top() {
		if rule == TopTierSuppress {
			return 0, false
		}
		return 0, true
	}
	return tier + 1, true
}
