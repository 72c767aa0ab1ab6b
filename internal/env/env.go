// Package env implements the deterministic Flappy Bird simulation used for
// imitation learning. It has no rendering or I/O dependencies: drivers call
// Reset, then Step once per tick, and read observations and snapshots.
package env

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/flappy-lab/internal/core"
)

// Reward constants.
const (
	SurvivalReward = 0.1
	PassReward     = 1.0
	CrashPenalty   = -1.0
)

// Initial obstacle placement relative to the right screen edge.
const (
	firstSpawnOffset = 80
	spawnOffset      = 40
)

var (
	// ErrNotReset is returned by Step before the first Reset.
	ErrNotReset = errors.New("env: step called before reset")
	// ErrEpisodeDone is returned by Step after the episode terminated.
	ErrEpisodeDone = errors.New("env: step called on a finished episode")
	// ErrInvalidAction is returned for actions other than Glide and Flap.
	ErrInvalidAction = errors.New("env: invalid action")
)

// Action is the binary control input.
type Action int

const (
	Glide Action = 0
	Flap  Action = 1
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case Glide:
		return "glide"
	case Flap:
		return "flap"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Termination records why an episode ended.
type Termination int

const (
	NotTerminated Termination = iota
	OutOfBounds
	HitObstacle
	StepCap
)

// String returns the identifier used in logs and storage.
func (t Termination) String() string {
	switch t {
	case NotTerminated:
		return "none"
	case OutOfBounds:
		return "out_of_bounds"
	case HitObstacle:
		return "obstacle"
	case StepCap:
		return "step_cap"
	default:
		return "unknown"
	}
}

// Penalized reports whether the termination carried the crash penalty.
func (t Termination) Penalized() bool {
	return t == OutOfBounds || t == HitObstacle
}

// Info is the auxiliary record returned with every observation.
type Info struct {
	Score  int
	Steps  int
	Reason Termination
}

// StepResult is returned by Step after each tick.
type StepResult struct {
	Obs    Observation
	Reward float64
	Done   bool
	Info   Info
}

// Snapshot is a read-only copy of the simulation state for renderers.
type Snapshot struct {
	Y         float64
	VY        float64
	Obstacles []Obstacle
	Score     int
	Steps     int
	Done      bool
	Reason    Termination
}

// Env is a single simulation instance. It is not safe for concurrent use;
// run one Env per goroutine.
type Env struct {
	cfg       Config
	y         float64
	vy        float64
	obstacles *obstacleQueue
	score     int
	steps     int
	started   bool
	done      bool
	reason    Termination
}

// New creates an environment after validating cfg. The gap-center
// generator is seeded from cfg.Seed.
func New(cfg Config) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Env{cfg: cfg}
	e.obstacles = newObstacleQueue(&e.cfg)
	return e, nil
}

// Config returns the environment's configuration.
func (e *Env) Config() Config {
	return e.cfg
}

// Seed restarts the gap-center stream. Seed followed by Reset always
// reproduces the same episode for the same action sequence.
func (e *Env) Seed(seed int64) {
	e.cfg.Seed = seed
	e.obstacles.reseed(seed)
}

// Reset starts a new episode. Successive resets continue the random stream,
// so consecutive episodes differ unless Seed is called in between.
func (e *Env) Reset() (Observation, Info) {
	e.y = e.cfg.Height * 0.5
	e.vy = 0
	e.score = 0
	e.steps = 0
	e.started = true
	e.done = false
	e.reason = NotTerminated

	e.obstacles.clear()
	e.obstacles.spawn(e.cfg.Width + firstSpawnOffset)
	e.obstacles.spawn(e.cfg.Width + firstSpawnOffset + e.cfg.PipeSpacing)

	return e.Observation(), e.info()
}

// Step advances the simulation by one tick.
func (e *Env) Step(a Action) (StepResult, error) {
	switch {
	case !e.started:
		return StepResult{}, ErrNotReset
	case e.done:
		return StepResult{}, ErrEpisodeDone
	case a != Glide && a != Flap:
		return StepResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
	}

	// Flap overwrites velocity, then gravity, clamp, integrate.
	if a == Flap {
		e.vy = e.cfg.FlapImpulse
	}
	e.vy += e.cfg.Gravity
	e.vy = core.ClampF(e.vy, e.cfg.VYMin, e.cfg.VYMax)
	e.y += e.vy

	passed := e.obstacles.advance(e.cfg.PlayerX)
	e.score += passed

	if e.obstacles.needsSpawn() {
		e.obstacles.spawn(e.cfg.Width + spawnOffset)
	}

	reward := SurvivalReward + PassReward*float64(passed)

	if reason := e.collision(); reason != NotTerminated {
		reward += CrashPenalty
		e.done = true
		e.reason = reason
	}

	e.steps++
	if !e.done && e.steps >= e.cfg.MaxSteps {
		e.done = true
		e.reason = StepCap
	}

	return StepResult{
		Obs:    e.Observation(),
		Reward: reward,
		Done:   e.done,
		Info:   e.info(),
	}, nil
}

// collision checks bounds first, then the first obstacle overlapping the
// agent horizontally.
func (e *Env) collision() Termination {
	if e.y < 0 || e.y > e.cfg.Height {
		return OutOfBounds
	}

	o, ok := e.obstacles.overlapping(e.cfg.PlayerX, e.cfg.PlayerX+e.cfg.PlayerSize)
	if !ok {
		return NotTerminated
	}

	half := e.cfg.PlayerSize / 2
	agent := core.NewSpan(e.y-half, e.y+half)
	gap := core.NewSpan(o.GapY-e.cfg.PipeGap/2, o.GapY+e.cfg.PipeGap/2)
	if !gap.ContainsSpan(agent) {
		return HitObstacle
	}
	return NotTerminated
}

// Observation encodes the current state.
func (e *Env) Observation() Observation {
	return encode(&e.cfg, e.y, e.vy, e.obstacles)
}

// Done reports whether the current episode has terminated.
func (e *Env) Done() bool {
	return e.done
}

// Snapshot returns a copy of the current state.
func (e *Env) Snapshot() Snapshot {
	return Snapshot{
		Y:         e.y,
		VY:        e.vy,
		Obstacles: e.obstacles.snapshot(),
		Score:     e.score,
		Steps:     e.steps,
		Done:      e.done,
		Reason:    e.reason,
	}
}

func (e *Env) info() Info {
	return Info{Score: e.score, Steps: e.steps, Reason: e.reason}
}
