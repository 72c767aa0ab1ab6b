package env

import (
	"math"
	"testing"
)

func TestObservationDistance(t *testing.T) {
	cfg := DefaultConfig()
	e := newTestEnv(t, cfg)
	e.Reset()

	tests := []struct {
		name     string
		x        float64
		expected float64
	}{
		{"ahead", 200, (200 + 50 - 80) / 400.0},
		{"clamped to one", 480, 1},
		{"overlapping agent", 60, (60 + 50 - 80) / 400.0},
		{"trailing edge within tolerance", 29.5, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parkObstacles(e, Obstacle{X: tc.x, GapY: 300})
			got := e.Observation().DistNorm()
			if math.Abs(got-tc.expected) > 1e-6 {
				t.Errorf("dist_norm = %f, expected %f", got, tc.expected)
			}
		})
	}
}

func TestObservationNearestSkipsPassed(t *testing.T) {
	cfg := DefaultConfig()
	e := newTestEnv(t, cfg)
	e.Reset()

	// First obstacle trails more than one unit behind the agent.
	parkObstacles(e,
		Obstacle{X: 20, GapY: 100},
		Obstacle{X: 240, GapY: 450},
	)

	obs := e.Observation()

	wantDist := (240 + 50 - 80) / 400.0
	if math.Abs(obs.DistNorm()-wantDist) > 1e-6 {
		t.Errorf("dist_norm = %f, expected %f", obs.DistNorm(), wantDist)
	}
	wantDelta := (450 - 300) / 600.0
	if math.Abs(obs.DeltaGapNorm()-wantDelta) > 1e-6 {
		t.Errorf("delta_gap_norm = %f, expected %f", obs.DeltaGapNorm(), wantDelta)
	}
}

func TestObservationNoObstacles(t *testing.T) {
	e := newTestEnv(t, DefaultConfig())
	e.Reset()
	parkObstacles(e)
	e.y = 150

	obs := e.Observation()

	if obs.DistNorm() != 1 {
		t.Errorf("dist_norm = %f, expected 1 with no obstacles", obs.DistNorm())
	}
	// Gap center defaults to mid-screen.
	if math.Abs(obs.DeltaGapNorm()-0.25) > 1e-6 {
		t.Errorf("delta_gap_norm = %f, expected 0.25", obs.DeltaGapNorm())
	}
}

func TestObservationVelocityClamp(t *testing.T) {
	e := newTestEnv(t, DefaultConfig())
	e.Reset()

	e.vy = 30
	if got := e.Observation().VYNorm(); got != 1 {
		t.Errorf("vy_norm = %f, expected 1", got)
	}
	e.vy = -30
	if got := e.Observation().VYNorm(); got != -1 {
		t.Errorf("vy_norm = %f, expected -1", got)
	}
}

func TestObservationDeltaSign(t *testing.T) {
	e := newTestEnv(t, DefaultConfig())
	e.Reset()
	parkObstacles(e, Obstacle{X: 300, GapY: 500})

	if e.Observation().DeltaGapNorm() <= 0 {
		t.Error("Gap below the agent should give a positive delta_gap_norm")
	}

	parkObstacles(e, Obstacle{X: 300, GapY: 100})
	if e.Observation().DeltaGapNorm() >= 0 {
		t.Error("Gap above the agent should give a negative delta_gap_norm")
	}
}

func TestObservationFloat64s(t *testing.T) {
	obs := Observation{0.5, -0.25, 1, 0}
	got := obs.Float64s()

	if len(got) != NumFeatures {
		t.Fatalf("len = %d, expected %d", len(got), NumFeatures)
	}
	for i := range got {
		if got[i] != float64(obs[i]) {
			t.Errorf("feature %d = %f, expected %f", i, got[i], obs[i])
		}
	}
}

func TestFeatureNamesOrder(t *testing.T) {
	want := [NumFeatures]string{"y_norm", "vy_norm", "dist_norm", "delta_gap_norm"}
	if FeatureNames != want {
		t.Errorf("FeatureNames = %v, expected %v", FeatureNames, want)
	}
}
