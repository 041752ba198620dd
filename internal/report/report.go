// Package report formats batch outcomes for people.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"offtank-sim/internal/trace"
)

// Percent returns survived/trials as a percentage. Zero trials yields 0.
func Percent(survived, trials int) float64 {
	if trials <= 0 {
		return 0
	}
	return float64(survived) / float64(trials) * 100
}

// FormatPercent renders p with the shortest exact decimal form, keeping a
// trailing ".0" on whole numbers (50 -> "50.0", 33.33... -> "33.33...").
// Values below 1e-4 switch to exponent form (5e-05).
func FormatPercent(p float64) string {
	format := byte('f')
	if p != 0 && math.Abs(p) < 1e-4 {
		format = 'e'
	}
	s := strconv.FormatFloat(p, format, -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// SurvivalLine is the one-line outcome printed after a batch.
func SurvivalLine(survived, trials int) string {
	return fmt.Sprintf("Number of times tank survived: %d (%s%%)", survived, FormatPercent(Percent(survived, trials)))
}

// Summary renders a multi-line description of a finished batch.
func Summary(s trace.SummaryRow) string {
	var b strings.Builder
	if s.Scenario != "" {
		fmt.Fprintf(&b, "Scenario: %s\n", s.Scenario)
	}
	b.WriteString(SurvivalLine(s.Survived, s.Trials))
	b.WriteString("\n")
	if deaths := s.Trials - s.Survived; deaths > 0 {
		fmt.Fprintf(&b, "Mean time of death: %.1fs\n", s.MeanDeathTime)
		for i, d := range s.DeathsByTank {
			if d == 0 {
				continue
			}
			fmt.Fprintf(&b, "  tank %d died %d times (%s%%)\n", i, d, FormatPercent(Percent(d, deaths)))
		}
	}
	fmt.Fprintf(&b, "Seed %d, %d workers, %s", s.Seed, s.Workers, s.Elapsed.Round(1e6))
	return b.String()
}
