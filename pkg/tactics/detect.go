// Package tactics implements the post-move tactics detector and BP
// regenerator (spec.md §4.4): after a move (and any duel/retreat it
// triggered) is fully applied, the position the mover produced is scanned
// for check, double check, discovered attack, pin, skewer, fork and direct
// defense, and each detected pattern's configured formula contributes to
// the mover's battle-point regeneration.
package tactics

import "github.com/gambit-chess/engine/pkg/board"

// Pattern names line up with the config keys under Regeneration.PerTactic.
const (
	PatternCheck            = "check"
	PatternDoubleCheck      = "double_check"
	PatternDiscoveredAttack = "discovered_attack"
	PatternPin              = "pin"
	PatternSkewer           = "skewer"
	PatternFork             = "fork"
	PatternDirectDefense    = "direct_defense"
)

// Finding is one detected tactical pattern, with the named variables its
// configured formula may reference (spec.md §4.4).
type Finding struct {
	Pattern      string
	TargetSquare board.Square
	Vars         map[string]float64
}

// Detect scans the position the mover produced (after a move, and any duel
// and retreat it triggered) for every tactical pattern the regenerator
// scores. before is the position immediately prior to the move: it is used
// to recognize discovered attacks, and to suppress pins, skewers, forks and
// defenses that already existed before the move — only tactics the move
// itself created regenerate BP.
func Detect(before, after *board.Position, mover board.Color, move board.Move) []Finding {
	var findings []Finding

	findings = append(findings, detectChecks(after, mover)...)
	findings = append(findings, detectDiscovered(before, after, mover, move)...)

	fresh := staticFindings(after, mover)
	if before != after {
		prior := make(map[findingKey]bool)
		for _, f := range staticFindings(before, mover) {
			prior[findingKey{f.Pattern, f.TargetSquare}] = true
		}
		kept := fresh[:0]
		for _, f := range fresh {
			if !prior[findingKey{f.Pattern, f.TargetSquare}] {
				kept = append(kept, f)
			}
		}
		fresh = kept
	}
	findings = append(findings, fresh...)

	return findings
}

type findingKey struct {
	pattern string
	target  board.Square
}

// patternValue is the standard material value fed to regeneration formulas.
// The king carries no formula value: threatening it is scored by the check
// patterns, not by material.
func patternValue(k board.Kind) float64 {
	if k == board.King {
		return 0
	}
	return float64(k.Value())
}

// staticFindings collects the patterns that can persist across plies and
// must therefore be compared against the prior position.
func staticFindings(pos *board.Position, mover board.Color) []Finding {
	var findings []Finding
	findings = append(findings, detectPinsAndSkewers(pos, mover)...)
	findings = append(findings, detectForks(pos, mover)...)
	findings = append(findings, detectDirectDefense(pos, mover)...)
	return findings
}

func detectChecks(pos *board.Position, mover board.Color) []Finding {
	opponent := mover.Opponent()
	kingSq, ok := pos.KingSquare(opponent)
	if !ok {
		return nil
	}
	attackers := attackersOf(pos, kingSq, mover)
	if len(attackers) == 0 {
		return nil
	}
	pattern := PatternCheck
	if len(attackers) >= 2 {
		pattern = PatternDoubleCheck
	}
	return []Finding{{Pattern: pattern, TargetSquare: kingSq, Vars: nil}}
}

func detectDiscovered(before, after *board.Position, mover board.Color, move board.Move) []Finding {
	var findings []Finding

	for s := board.Square(0); s < board.NumSquares; s++ {
		if s == move.To {
			continue
		}
		piece, ok := after.At(s)
		if !ok || piece.Color != mover {
			continue
		}
		if piece.Kind != board.Bishop && piece.Kind != board.Rook && piece.Kind != board.Queen {
			continue
		}

		df, dr, aligned := direction(s, move.From)
		if !aligned || !dirSupportsKind(piece.Kind, df, dr) {
			continue
		}

		beforeSq, _, hasBefore := firstOccupied(before, s, df, dr)
		if !hasBefore || beforeSq != move.From {
			// The ray wasn't blocked by the piece that just moved away, so
			// nothing was unmasked.
			continue
		}

		afterSq, afterPiece, hasAfter := firstOccupied(after, s, df, dr)
		if !hasAfter || afterPiece.Color == mover {
			continue
		}

		findings = append(findings, Finding{
			Pattern:      PatternDiscoveredAttack,
			TargetSquare: afterSq,
			Vars:         map[string]float64{"attackedPieceValue": patternValue(afterPiece.Kind)},
		})
	}

	return findings
}

func detectPinsAndSkewers(pos *board.Position, mover board.Color) []Finding {
	var findings []Finding
	enemy := mover.Opponent()

	for s := board.Square(0); s < board.NumSquares; s++ {
		piece, ok := pos.At(s)
		if !ok || piece.Color != mover {
			continue
		}
		if piece.Kind != board.Bishop && piece.Kind != board.Rook && piece.Kind != board.Queen {
			continue
		}

		for _, d := range slidingDirs(piece.Kind) {
			nearSq, near, ok := firstOccupied(pos, s, d[0], d[1])
			if !ok || near.Color != enemy || near.Kind == board.King {
				// A king in front is a check, scored by the check patterns.
				continue
			}
			_, far, ok := firstOccupied(pos, nearSq, d[0], d[1])
			if !ok || far.Color != enemy {
				continue
			}

			nearValue := near.Kind.Value()
			farValue := far.Kind.Value()

			switch {
			case far.Kind == board.King:
				findings = append(findings, Finding{
					Pattern:      PatternPin,
					TargetSquare: nearSq,
					Vars: map[string]float64{
						"pinnedPieceValue": patternValue(near.Kind),
						"isPinnedToKing":   1,
					},
				})
			case farValue > nearValue:
				findings = append(findings, Finding{
					Pattern:      PatternPin,
					TargetSquare: nearSq,
					Vars: map[string]float64{
						"pinnedPieceValue": patternValue(near.Kind),
						"isPinnedToKing":   0,
					},
				})
			case nearValue > farValue:
				findings = append(findings, Finding{
					Pattern:      PatternSkewer,
					TargetSquare: nearSq,
					Vars: map[string]float64{
						"attackedPieceValue": patternValue(near.Kind),
					},
				})
			}
		}
	}

	return findings
}

func detectForks(pos *board.Position, mover board.Color) []Finding {
	var findings []Finding

	for s := board.Square(0); s < board.NumSquares; s++ {
		piece, ok := pos.At(s)
		if !ok || piece.Color != mover {
			continue
		}

		var total int
		var count int
		for _, t := range attacksFrom(pos, s, piece) {
			target, ok := pos.At(t)
			if !ok || target.Color == mover {
				continue
			}
			// A defended piece of equal or lesser value is not meaningfully
			// forked: attacking it wins nothing. Count only targets the fork
			// actually threatens.
			if target.Kind != board.King &&
				target.Kind.Value() <= piece.Kind.Value() &&
				pos.IsAttacked(t, target.Color) {
				continue
			}
			count++
			total += int(patternValue(target.Kind))
		}
		if count >= 2 {
			findings = append(findings, Finding{
				Pattern:      PatternFork,
				TargetSquare: s,
				Vars:         map[string]float64{"forkedPiecesValues": float64(total)},
			})
		}
	}

	return findings
}

func detectDirectDefense(pos *board.Position, mover board.Color) []Finding {
	var findings []Finding

	for s := board.Square(0); s < board.NumSquares; s++ {
		piece, ok := pos.At(s)
		if !ok || piece.Color != mover {
			continue
		}
		for _, t := range attacksFrom(pos, s, piece) {
			defended, ok := pos.At(t)
			if !ok || defended.Color != mover || t == s {
				continue
			}
			findings = append(findings, Finding{
				Pattern:      PatternDirectDefense,
				TargetSquare: t,
				Vars:         map[string]float64{"defendedPieceValue": patternValue(defended.Kind)},
			})
		}
	}

	return findings
}
