package env

import (
	"math"
	"math/rand"

	"github.com/vovakirdan/flappy-lab/internal/core"
)

// Obstacle is a pipe pair with a passable gap.
type Obstacle struct {
	X    float64 // Horizontal position (left edge)
	GapY float64 // Vertical center of the gap
}

// Right returns the x-coordinate of the trailing edge.
func (o Obstacle) Right(pipeWidth float64) float64 {
	return o.X + pipeWidth
}

// obstacleQueue handles spawning, movement, and removal of obstacles.
// Order of the slice is spawn order, which is also left-to-right.
type obstacleQueue struct {
	items []Obstacle
	rng   *rand.Rand
	cfg   *Config
}

func newObstacleQueue(cfg *Config) *obstacleQueue {
	return &obstacleQueue{
		items: make([]Obstacle, 0, 8),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		cfg:   cfg,
	}
}

// reseed restarts the gap-center stream.
func (q *obstacleQueue) reseed(seed int64) {
	q.rng = rand.New(rand.NewSource(seed))
}

// clear drops all obstacles without touching the random stream.
func (q *obstacleQueue) clear() {
	q.items = q.items[:0]
}

// spawn appends an obstacle at x with a freshly drawn gap center.
func (q *obstacleQueue) spawn(x float64) {
	lo := q.cfg.SpawnMargin
	hi := int(q.cfg.Height) - q.cfg.SpawnMargin
	gapY := lo
	if hi > lo {
		gapY = lo + q.rng.Intn(hi-lo+1)
	}
	q.items = append(q.items, Obstacle{X: x, GapY: float64(gapY)})
}

// advance moves obstacles left, counts the ones whose trailing edge crossed
// playerX this tick, and drops the ones fully off-screen.
// Returns the number of obstacles passed.
func (q *obstacleQueue) advance(playerX float64) int {
	passed := 0
	w := q.cfg.PipeWidth

	kept := q.items[:0]
	for _, o := range q.items {
		before := o.Right(w)
		o.X -= q.cfg.PipeSpeed
		after := o.Right(w)

		if before >= playerX && after < playerX {
			passed++
		}
		if after > 0 {
			kept = append(kept, o)
		}
	}
	q.items = kept

	return passed
}

// needsSpawn reports whether the spawn slot is open.
func (q *obstacleQueue) needsSpawn() bool {
	if len(q.items) == 0 {
		return true
	}
	return q.items[len(q.items)-1].X < q.cfg.Width-q.cfg.PipeSpacing
}

// nearest returns the leftmost obstacle whose trailing edge has not yet
// gone behind playerX (one unit of tolerance).
func (q *obstacleQueue) nearest(playerX float64) (Obstacle, bool) {
	best := Obstacle{X: math.Inf(1)}
	found := false
	for _, o := range q.items {
		if o.Right(q.cfg.PipeWidth) < playerX-1 {
			continue
		}
		if o.X < best.X {
			best = o
			found = true
		}
	}
	return best, found
}

// overlapping returns the first obstacle, in sequence order, whose
// horizontal span intersects [left, right).
func (q *obstacleQueue) overlapping(left, right float64) (Obstacle, bool) {
	agent := core.NewSpan(left, right)
	for _, o := range q.items {
		if agent.Overlaps(core.NewSpan(o.X, o.Right(q.cfg.PipeWidth))) {
			return o, true
		}
	}
	return Obstacle{}, false
}

// snapshot returns a copy of the current obstacles.
func (q *obstacleQueue) snapshot() []Obstacle {
	out := make([]Obstacle, len(q.items))
	copy(out, q.items)
	return out
}
