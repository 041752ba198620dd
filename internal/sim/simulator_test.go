package sim

import (
	"math"
	"math/rand"
	"testing"

	"offtank-sim/internal/config"
	"offtank-sim/internal/dist"
	"offtank-sim/internal/trace"
)

// collectTracer records trace rows for validation
type collectTracer struct {
	rows []trace.EventRow
}

func (c *collectTracer) TraceEvent(r trace.EventRow) { c.rows = append(c.rows, r) }

func soloTank() config.Config {
	cfg := config.Default()
	cfg.Tanks = 1
	cfg.Healers = 0
	cfg.MissChance = 0
	cfg.AttackInterval = config.AttackInterval{Mode: config.IntervalFixed, Fixed: 1.2}
	return cfg
}

func TestScheduler_FixedDamageDiesOnSecondHit(t *testing.T) {
	cfg := soloTank()
	cfg.Mitigation = 0
	cfg.DamageMin, cfg.DamageMax = 5000, 5000

	tr := &collectTracer{}
	res := NewScheduler(cfg, rand.New(rand.NewSource(1)), tr).Run()

	if res.Survived {
		t.Fatalf("expected tank to die")
	}
	if res.Strikes != 2 || res.DeadTank != 0 {
		t.Fatalf("expected death on second hit of tank 0, got %+v", res)
	}
	if res.EndTime != 1.2 {
		t.Errorf("death time = %v, want 1.2", res.EndTime)
	}
	if len(tr.rows) != 2 || tr.rows[0].Health != 5000 || tr.rows[1].Health != 0 {
		t.Fatalf("unexpected trace: %+v", tr.rows)
	}
	if tr.rows[1].Kind != trace.KindDeath {
		t.Errorf("last row kind = %s, want death", tr.rows[1].Kind)
	}
}

func TestScheduler_AlwaysMissNeverDies(t *testing.T) {
	cfg := soloTank()
	cfg.MissChance = 1
	s := NewScheduler(cfg, rand.New(rand.NewSource(2)), nil)
	res := s.Run()
	if !res.Survived {
		t.Fatalf("tank died with miss chance 1")
	}
	if res.Strikes != 0 || res.Misses == 0 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if h := s.Pool().Health(0); h != cfg.MaxHealth {
		t.Fatalf("health changed to %v", h)
	}
	if res.EndTime < cfg.FightLength {
		t.Fatalf("run ended before the fight: %v", res.EndTime)
	}
}

func TestScheduler_NoHealingDiesQuickly(t *testing.T) {
	cfg := config.Default()
	cfg.Tanks = 1
	cfg.Healers = 3
	cfg.MissChance = 0
	cfg.Spell.BaseHeal = 0
	cfg.PlusHeal = 0
	cfg.AmplifyMagic = false
	cfg.MagicAttunement = false

	for seed := int64(1); seed <= 20; seed++ {
		tr := &collectTracer{}
		res := NewScheduler(cfg, rand.New(rand.NewSource(seed)), tr).Run()
		if res.Survived {
			t.Fatalf("seed %d: tank survived without healing", seed)
		}
		if res.Strikes > 2 {
			t.Fatalf("seed %d: took %d strikes to die", seed, res.Strikes)
		}
		last := cfg.MaxHealth
		for _, r := range tr.rows {
			if r.Kind != trace.KindStrike && r.Kind != trace.KindDeath {
				continue
			}
			if r.Health >= last {
				t.Fatalf("seed %d: health did not decrease: %v -> %v", seed, last, r.Health)
			}
			last = r.Health
		}
	}
}

func TestScheduler_OverwhelmingHealingSurvives(t *testing.T) {
	cfg := soloTank()
	cfg.Mitigation = 0
	cfg.DamageMin, cfg.DamageMax = 1000, 1000
	cfg.Healers = 1
	cfg.HealersPerTank = 1
	cfg.Spell.BaseHeal = 2000
	cfg.Spell.CastTime = 1
	cfg.PlusHeal = 0
	cfg.AmplifyMagic = false
	cfg.MagicAttunement = false

	for seed := int64(0); seed < 200; seed++ {
		if !Survives(cfg, rand.New(rand.NewSource(seed))) {
			t.Fatalf("seed %d: tank died under overwhelming healing", seed)
		}
	}
}

func TestScheduler_Terminates(t *testing.T) {
	cfg := config.Default()
	// an actor's next event is delayed from the previous pop, so it can
	// fire at most twice per minimum delay
	bound := 2*(int(cfg.FightLength/cfg.AttackInterval.Min)+1) + 1 +
		cfg.Healers*2*(int(cfg.FightLength/cfg.Spell.CastTime)+1)
	for seed := int64(0); seed < 50; seed++ {
		res := NewScheduler(cfg, rand.New(rand.NewSource(seed)), nil).Run()
		if res.Steps > bound {
			t.Fatalf("seed %d: %d steps exceeds bound %d", seed, res.Steps, bound)
		}
	}
}

func TestScheduler_MonotonicElapsed(t *testing.T) {
	cfg := config.Default()
	cfg.MissChance = 1 // run to the end of the fight
	tr := &collectTracer{}
	s := NewScheduler(cfg, rand.New(rand.NewSource(11)), tr)
	prev := s.Elapsed()
	for s.State() == StateRunning {
		s.step()
		if s.Elapsed() < prev {
			t.Fatalf("elapsed went backwards: %v -> %v", prev, s.Elapsed())
		}
		prev = s.Elapsed()
	}
	if s.State() != StateSuccess {
		t.Fatalf("state = %v, want success", s.State())
	}
	for i := 1; i < len(tr.rows); i++ {
		if tr.rows[i].Time < tr.rows[i-1].Time {
			t.Fatalf("event %d at %v before previous %v", i, tr.rows[i].Time, tr.rows[i-1].Time)
		}
	}
	if last := tr.rows[len(tr.rows)-1]; last.Kind != trace.KindSurvive {
		t.Fatalf("last trace row = %s, want survive", last.Kind)
	}
}

func TestScheduler_HealsGoToBoundTank(t *testing.T) {
	cfg := config.Default()
	cfg.MissChance = 1
	tr := &collectTracer{}
	NewScheduler(cfg, rand.New(rand.NewSource(4)), tr).Run()
	heals := 0
	for _, r := range tr.rows {
		if r.Kind != trace.KindHeal {
			continue
		}
		heals++
		if want := (r.Healer - 1) / cfg.HealersPerTank; r.Tank != want {
			t.Fatalf("healer %d healed tank %d, want %d", r.Healer, r.Tank, want)
		}
		if r.Health > cfg.MaxHealth {
			t.Fatalf("health %v above max", r.Health)
		}
	}
	if heals == 0 {
		t.Fatalf("no heals traced")
	}
}

func TestScheduler_ScriptedOpening(t *testing.T) {
	cfg := soloTank()
	cfg.Healers = 1
	cfg.HealersPerTank = 1
	cfg.AttackInterval.Fixed = 2
	// healer start roll, boss damage roll, miss roll, heal crit roll, jitter roll
	src := &dist.Sequence{Values: []float64{0.5, 0, 0.9, 0.9, 0}}
	tr := &collectTracer{}
	s := NewScheduler(cfg, src, tr)
	s.step() // boss at 0
	s.step() // healer at 1.3
	if len(tr.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tr.rows))
	}
	if tr.rows[0].Kind != trace.KindStrike || tr.rows[0].Amount != 6600 {
		t.Fatalf("unexpected strike: %+v", tr.rows[0])
	}
	heal := tr.rows[1]
	if heal.Kind != trace.KindHeal || heal.Time != 1.3 || heal.Crit {
		t.Fatalf("unexpected heal: %+v", heal)
	}
	if h := s.Pool().Health(0); math.Abs(h-5229.5) > 1e-6 {
		t.Fatalf("health after strike and heal = %v, want 5229.5", h)
	}
	next, _ := s.queue.Pop()
	if next.Actor != Boss || next.Time != 2 {
		t.Fatalf("next event = %v, want boss at 2", next)
	}
	// healer rescheduled from the boss event at 0, not from its own cast
	next, _ = s.queue.Pop()
	if next.Actor != HealerActor(1) || next.Time != 2.5 {
		t.Fatalf("next event = %v, want healer at 2.5", next)
	}
}

func TestScheduler_RescheduleFromPreviousEvent(t *testing.T) {
	cfg := soloTank()
	cfg.MissChance = 1
	cfg.Healers = 1
	cfg.HealersPerTank = 1
	cfg.AttackInterval.Fixed = 2
	cfg.ReactionTime = 0
	cfg.FightLength = 6

	// 0.4 starts the healer at 1.0, always misses and never crits
	tr := &collectTracer{}
	res := NewScheduler(cfg, dist.Constant(0.4), tr).Run()
	if !res.Survived || res.EndTime != 6.5 {
		t.Fatalf("unexpected result: %+v", res)
	}

	var heals, misses []float64
	for _, r := range tr.rows {
		switch r.Kind {
		case trace.KindHeal:
			heals = append(heals, r.Time)
		case trace.KindMiss:
			misses = append(misses, r.Time)
		}
	}
	wantHeals := []float64{1, 2.5, 4.5, 5.5}
	wantMisses := []float64{0, 2, 3, 4.5, 6.5}
	if !equalTimes(heals, wantHeals) {
		t.Errorf("heal times = %v, want %v", heals, wantHeals)
	}
	if !equalTimes(misses, wantMisses) {
		t.Errorf("strike times = %v, want %v", misses, wantMisses)
	}
}

func TestScheduler_RescheduleNeverPrecedesCurrentEvent(t *testing.T) {
	cfg := soloTank()
	cfg.MissChance = 1
	cfg.AttackInterval = config.AttackInterval{Mode: config.IntervalUniform, Min: 1.2, Max: 2}
	// per strike: damage roll, miss roll, interval roll
	src := &dist.Sequence{Values: []float64{
		0.5, 0.5, 1, // 0 -> 2.0
		0.5, 0.5, 0, // 0 + 1.2 is before 2.0, held at 2.0
		0.5, 0.5, 0, // 2.0 + 1.2
	}}
	tr := &collectTracer{}
	s := NewScheduler(cfg, src, tr)
	for i := 0; i < 3; i++ {
		s.step()
	}
	got := []float64{tr.rows[0].Time, tr.rows[1].Time, tr.rows[2].Time}
	if want := []float64{0, 2, 2}; !equalTimes(got, want) {
		t.Fatalf("strike times = %v, want %v", got, want)
	}
	if next, _ := s.queue.Peek(); next.Time != 3.2 {
		t.Fatalf("next strike at %v, want 3.2", next.Time)
	}
}

func equalTimes(got, want []float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			return false
		}
	}
	return true
}
