package tactics

import (
	"fmt"
	"sort"

	"github.com/gambit-chess/engine/pkg/board"
	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/formula"
)

// Contribution is one pattern's evaluated regeneration amount, as delivered
// to the mover in a BPCalculationReport.
type Contribution struct {
	Pattern      string
	TargetSquare board.Square
	Amount       int
}

// BPCalculationReport is emitted after every move's tactics are scored
// (spec.md §4.4): the base turn regeneration, every contributing pattern,
// and the total added to the mover's BP pool.
type BPCalculationReport struct {
	BaseTurnRegeneration int
	Contributions        []Contribution
	Total                int
}

// Regenerate evaluates cfg's formulas over findings and produces the
// mover's BPCalculationReport. Per spec.md §4.4, patterns are hierarchical:
// when more than one finding targets the same square, only the
// highest-value one counts.
func Regenerate(cfg config.Config, findings []Finding) (BPCalculationReport, error) {
	best := make(map[board.Square]Contribution)

	for _, f := range findings {
		tf, ok := cfg.Regeneration.PerTactic[f.Pattern]
		if !ok || !tf.Enabled {
			continue
		}

		vars := formula.Vars{}
		for k, v := range f.Vars {
			vars[k] = v
		}

		amount, err := formula.EvalInt(tf.Formula, vars)
		if err != nil {
			return BPCalculationReport{}, fmt.Errorf("tactics: pattern %q: %w", f.Pattern, err)
		}

		if cur, exists := best[f.TargetSquare]; !exists || amount > cur.Amount {
			best[f.TargetSquare] = Contribution{
				Pattern:      f.Pattern,
				TargetSquare: f.TargetSquare,
				Amount:       amount,
			}
		}
	}

	report := BPCalculationReport{BaseTurnRegeneration: cfg.Regeneration.BaseTurn}
	total := report.BaseTurnRegeneration
	for _, c := range best {
		report.Contributions = append(report.Contributions, c)
		total += c.Amount
	}
	// Reports must be byte-identical across engines given identical inputs;
	// map iteration order is not.
	sort.Slice(report.Contributions, func(i, j int) bool {
		a, b := report.Contributions[i], report.Contributions[j]
		if a.TargetSquare != b.TargetSquare {
			return a.TargetSquare < b.TargetSquare
		}
		return a.Pattern < b.Pattern
	})
	report.Total = total
	return report, nil
}
