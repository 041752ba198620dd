// ColorStdoutWriter prints a human-friendly, colorized trace to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"offtank-sim/internal/config"
	"offtank-sim/internal/report"
	"offtank-sim/internal/trace"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var tankPalette = []string{colorRed, colorYellow, colorBlue, colorMagenta, colorCyan, colorGreen}

func tankColor(i int) string {
	if i < 0 {
		return colorGray
	}
	return tankPalette[i%len(tankPalette)]
}

// ColorStdoutWriter prints trace rows and summaries using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.Config
	out  io.Writer
	once sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.Config) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	c := w.cfg
	fmt.Fprintln(w.out, "Encounter Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tanks:\t%d x %.0f hp\n", c.Tanks, c.MaxHealth)
	fmt.Fprintf(tw, "Fight Length (s):\t%.0f\n", c.FightLength)
	fmt.Fprintf(tw, "Hateful Strike:\t%.0f-%.0f (%.0f%% mitigated, %.0f%% miss)\n",
		c.DamageMin, c.DamageMax, c.Mitigation*100, c.MissChance*100)
	switch c.AttackInterval.Mode {
	case config.IntervalFixed:
		fmt.Fprintf(tw, "Strike Interval (s):\t%.2f\n", c.AttackInterval.Fixed)
	default:
		fmt.Fprintf(tw, "Strike Interval (s):\t%.2f-%.4f\n", c.AttackInterval.Min, c.AttackInterval.Max)
	}
	fmt.Fprintf(tw, "Healers:\t%d (%d per tank)\n", c.Healers, c.HealersPerTank)
	fmt.Fprintf(tw, "Spell:\t%s %.1f + %.0f plus-heal, %.1fs cast\n",
		c.Spell.Name, c.Spell.BaseHeal, c.TotalPlusHeal(), c.Spell.CastTime)
	fmt.Fprintf(tw, "Crit:\t%.0f%% x%.2f\n", c.CritChance*100, c.CritMultiplier)
	tw.Flush()
	fmt.Fprintln(w.out)
}

// WriteTrace prints one dispatched event.
func (w *ColorStdoutWriter) WriteTrace(row trace.EventRow) error {
	w.once.Do(w.printOverview)
	maxHP := 0.0
	if w.cfg != nil {
		maxHP = w.cfg.MaxHealth
	}
	tc := tankColor(row.Tank)
	prefix := fmt.Sprintf("%s[trial %d %6.1fs]%s ", colorGray, row.Trial, row.Time, colorReset)
	var err error
	switch row.Kind {
	case trace.KindStrike:
		_, err = fmt.Fprintf(w.out, "%sHateful strike hits %stank %d%s for %.0f; Health - %.1f/%.0f\n",
			prefix, tc, row.Tank, colorReset, row.Amount, row.Health, maxHP)
	case trace.KindMiss:
		_, err = fmt.Fprintf(w.out, "%s%sPatchwerk misses%s %stank %d%s\n", prefix, colorGreen, colorReset, tc, row.Tank, colorReset)
	case trace.KindDeath:
		_, err = fmt.Fprintf(w.out, "%s%sTANK %d DIES%s after %.0f damage (%.1f overkill)\n",
			prefix, colorRed, row.Tank, colorReset, row.Amount, -row.Health)
	case trace.KindHeal:
		crit := ""
		if row.Crit {
			crit = fmt.Sprintf(" %scrit%s", colorYellow, colorReset)
		}
		_, err = fmt.Fprintf(w.out, "%s%sHealer %d%s healed %stank %d%s for %.1f%s; Health - %.1f/%.0f\n",
			prefix, colorCyan, row.Healer, colorReset, tc, row.Tank, colorReset, row.Amount, crit, row.Health, maxHP)
	case trace.KindSurvive:
		_, err = fmt.Fprintf(w.out, "%s%sTANKS SURVIVE%s\n", prefix, colorGreen, colorReset)
	}
	return err
}

// WriteTraces prints a trial's events.
func (w *ColorStdoutWriter) WriteTraces(rows []trace.EventRow) error {
	for _, r := range rows {
		if err := w.WriteTrace(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult prints a one-line trial outcome.
func (w *ColorStdoutWriter) WriteResult(row trace.RunRow) error {
	w.once.Do(w.printOverview)
	if row.Survived {
		_, err := fmt.Fprintf(w.out, "%strial %d%s %ssurvived%s strikes=%d misses=%d heals=%d overheal=%.0f\n",
			colorGray, row.Trial, colorReset, colorGreen, colorReset, row.Strikes, row.Misses, row.Heals, row.Overheal)
		return err
	}
	_, err := fmt.Fprintf(w.out, "%strial %d%s %sdied%s %stank %d%s at %.1fs strikes=%d misses=%d heals=%d\n",
		colorGray, row.Trial, colorReset, colorRed, colorReset, tankColor(row.DeadTank), row.DeadTank, colorReset,
		row.EndTime, row.Strikes, row.Misses, row.Heals)
	return err
}

// WriteSummary prints the batch report.
func (w *ColorStdoutWriter) WriteSummary(s trace.SummaryRow) error {
	w.once.Do(w.printOverview)
	col := colorGreen
	if s.Trials > 0 && s.Percent < 50 {
		col = colorRed
	}
	_, err := fmt.Fprintf(w.out, "%s%s%s\n", col, report.Summary(s), colorReset)
	return err
}
