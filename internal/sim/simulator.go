// Discrete-event scheduler for one offtank encounter
package sim

import (
	"offtank-sim/internal/config"
	"offtank-sim/internal/dist"
	"offtank-sim/internal/tank"
	"offtank-sim/internal/trace"
)

// State is the lifecycle of a single run.
type State int

const (
	StateRunning State = iota
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	}
	return "running"
}

// Tracer receives a row for every dispatched event. It is a side channel
// and cannot influence the run.
type Tracer interface {
	TraceEvent(trace.EventRow)
}

// Result describes how a run ended.
type Result struct {
	Survived bool
	EndTime  float64
	// DeadTank is the index of the tank that died, or -1.
	DeadTank int
	Strikes  int
	Misses   int
	Heals    int
	Overheal float64
	Steps    int
}

// Scheduler runs one encounter: it pops the earliest event, resolves it
// against the tank pool and reschedules the same actor.
type Scheduler struct {
	cfg     config.Config
	dist    *dist.Provider
	pool    *tank.Pool
	queue   eventQueue
	elapsed float64
	state   State
	tracer  Tracer
	res     Result
}

// NewScheduler seeds the queue with the boss's first attack at time 0 and
// one staggered opening cast per healer. tracer may be nil.
func NewScheduler(cfg config.Config, src dist.Source, tracer Tracer) *Scheduler {
	s := &Scheduler{
		cfg:    cfg,
		dist:   dist.NewProvider(cfg, src),
		pool:   tank.NewPool(cfg.Tanks, cfg.MaxHealth),
		tracer: tracer,
		res:    Result{DeadTank: -1},
	}
	s.queue.Push(Boss, 0)
	for id := 1; id <= cfg.Healers; id++ {
		s.queue.Push(HealerActor(id), s.dist.HealerStart())
	}
	return s
}

// Run steps until the fight is over and returns the outcome.
func (s *Scheduler) Run() Result {
	for s.state == StateRunning {
		s.step()
	}
	return s.res
}

// Survives is a convenience wrapper returning only whether the tanks lived.
func Survives(cfg config.Config, src dist.Source) bool {
	return NewScheduler(cfg, src, nil).Run().Survived
}

// Elapsed is the time of the last processed event.
func (s *Scheduler) Elapsed() float64 { return s.elapsed }

// State returns the current run state.
func (s *Scheduler) State() State { return s.state }

// Pool exposes the tank pool for inspection.
func (s *Scheduler) Pool() *tank.Pool { return s.pool }

func (s *Scheduler) step() {
	ev, ok := s.queue.Pop()
	if !ok {
		// only reachable with no boss in the queue
		s.finish(StateSuccess, s.cfg.FightLength)
		return
	}
	s.res.Steps++

	if ev.Actor.IsBoss() {
		s.strike(ev)
	} else {
		s.heal(ev)
	}
	if s.state != StateRunning {
		return
	}

	s.elapsed = ev.Time
	if s.elapsed >= s.cfg.FightLength {
		s.finish(StateSuccess, s.elapsed)
		s.emit(trace.EventRow{Time: s.elapsed, Kind: trace.KindSurvive, Tank: -1})
	}
}

func (s *Scheduler) strike(ev Event) {
	target := s.pool.DamageTarget()
	damage := s.dist.Damage()
	if s.dist.Misses() {
		s.res.Misses++
		s.emit(trace.EventRow{Time: ev.Time, Kind: trace.KindMiss, Tank: target, Health: s.pool.Health(target)})
	} else {
		s.res.Strikes++
		died := s.pool.ApplyDamage(target, damage)
		row := trace.EventRow{Time: ev.Time, Kind: trace.KindStrike, Tank: target, Amount: damage, Health: s.pool.Health(target)}
		if died {
			row.Kind = trace.KindDeath
			s.res.DeadTank = target
			s.emit(row)
			s.finish(StateFailure, ev.Time)
			return
		}
		s.emit(row)
	}
	s.reschedule(ev, s.dist.AttackInterval())
}

func (s *Scheduler) heal(ev Event) {
	healer := ev.Actor.Healer()
	target := tank.HealTarget(healer, s.cfg.HealersPerTank)
	h := s.dist.Heal()
	over := s.pool.ApplyHeal(target, h.Amount)
	s.res.Heals++
	s.res.Overheal += over
	s.emit(trace.EventRow{
		Time:     ev.Time,
		Kind:     trace.KindHeal,
		Healer:   healer,
		Tank:     target,
		Amount:   h.Amount - over,
		Overheal: over,
		Crit:     h.Crit,
		Mana:     h.ManaCost,
		Health:   s.pool.Health(target),
	})
	s.reschedule(ev, h.CastTime+s.dist.ReactionJitter())
}

// reschedule queues the actor's next event delay seconds after the
// previously processed event. The result never precedes ev, so elapsed
// time cannot run backwards.
func (s *Scheduler) reschedule(ev Event, delay float64) {
	next := s.dist.Round(s.elapsed + delay)
	if next < ev.Time {
		next = ev.Time
	}
	s.queue.Push(ev.Actor, next)
}

func (s *Scheduler) finish(state State, at float64) {
	s.state = state
	s.elapsed = at
	s.res.Survived = state == StateSuccess
	s.res.EndTime = at
}

func (s *Scheduler) emit(row trace.EventRow) {
	if s.tracer != nil {
		s.tracer.TraceEvent(row)
	}
}
