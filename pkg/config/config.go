// Package config defines the Gambit Chess ruleset configuration and the
// named profiles ("standard", "beginner", ...) games are created from.
package config

// TacticFormula is an enable flag, a pkg/formula expression string over the
// variable set documented for its pattern in spec.md §4.4, and a
// human-readable description surfaced to clients.
type TacticFormula struct {
	Enabled     bool   `toml:"enabled"`
	Formula     string `toml:"formula"`
	Description string `toml:"description"`
}

// Regeneration configures the BP Regenerator (spec.md §4.4).
type Regeneration struct {
	BaseTurn  int                      `toml:"base_turn"`
	PerTactic map[string]TacticFormula `toml:"per_tactic"`
}

// RetreatCost configures tactical retreat pricing (spec.md §4.3).
type RetreatCost struct {
	BaseReturn          float64 `toml:"base_return"`
	DistanceMultiplier  float64 `toml:"distance_multiplier"`
	KnightCustomEnabled bool    `toml:"knight_custom_enabled"`
	UseKnightLookup     bool    `toml:"use_knight_lookup"`
}

// TacticalRetreat configures whether and how attackers may retreat after a
// lost duel (spec.md §4.3).
type TacticalRetreat struct {
	Enabled          bool        `toml:"enabled"`
	LongRangeEnabled bool        `toml:"long_range_enabled"`
	KnightsEnabled   bool        `toml:"knights_enabled"`
	Cost             RetreatCost `toml:"cost"`
}

// DuelResolution configures duel tie-breaking and spend semantics
// (spec.md §4.2, §9 D-1, D-3).
type DuelResolution struct {
	DefenderWinsTies bool `toml:"defender_wins_ties"`

	// SpendsEffectiveAllocation resolves open question D-1: when true, the
	// capacity-scaled effective bid is debited from the player's BP;
	// when false (default), the nominal allocation is debited and the
	// scaling only affects the bid comparison.
	SpendsEffectiveAllocation bool `toml:"spends_effective_allocation"`
}

// RetreatPayment configures whether retreat costs flow to the defender
// (spec.md §4.3 "Retreat payment").
type RetreatPayment struct {
	Enabled                  bool    `toml:"enabled"`
	OriginalSquareCost       int     `toml:"original_square_cost"`
	CostToDefenderEnabled    bool    `toml:"cost_to_defender_enabled"`
	CostToDefenderPercentage float64 `toml:"cost_to_defender_percentage"`
}

// PieceLossRules configures whether a losing attacker is removed instead of
// retreating, and the retreat-payment split (spec.md §4.3).
type PieceLossRules struct {
	AttackerCanLosePiece bool           `toml:"attacker_can_lose_piece"`
	RetreatPayment       RetreatPayment `toml:"retreat_payment"`
}

// InformationHiding configures what a View Filter strips for non-mover
// viewers (spec.md §4.7).
type InformationHiding struct {
	HideBattlePoints      bool `toml:"hide_battle_points"`
	HideAllocationHistory bool `toml:"hide_allocation_history"`
}

// Config is the complete, immutable-per-game ruleset (spec.md §3 Config).
// A Config is loaded once at game creation from a named profile and never
// mutated afterward (spec.md §5 "Configuration: immutable per game").
type Config struct {
	RulesetType string `toml:"ruleset_type"`

	InitialBattlePoints int `toml:"initial_battle_points"`
	MaxPieceBattlePoints int `toml:"max_piece_battle_points"`

	// MaxPlayerBattlePoints resolves D-2: zero means unbounded.
	MaxPlayerBattlePoints int `toml:"max_player_battle_points"`

	PieceValues       map[string]int `toml:"piece_values"`
	PieceBPCapacities map[string]int `toml:"piece_bp_capacities"`

	Regeneration      Regeneration      `toml:"regeneration"`
	TacticalRetreat   TacticalRetreat   `toml:"tactical_retreat"`
	DuelResolution    DuelResolution    `toml:"duel_resolution"`
	PieceLossRules    PieceLossRules    `toml:"piece_loss_rules"`
	InformationHiding InformationHiding `toml:"information_hiding"`
}

// CapacityFor returns the piece's configured BP capacity, keyed by its
// single-letter code (p, n, b, r, q, k).
func (c Config) CapacityFor(letter string) int {
	if v, ok := c.PieceBPCapacities[letter]; ok {
		return v
	}
	return c.PieceValues[letter]
}
