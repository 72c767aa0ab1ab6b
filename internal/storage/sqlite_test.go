package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := store.SaveEpisode(Episode{Policy: "safe", Score: 3, Steps: 300, Reason: "obstacle"}); err != nil {
		t.Fatalf("SaveEpisode() failed: %v", err)
	}
	store.Close()

	// Migrations must be idempotent and data must survive
	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer store.Close()

	high, err := store.HighScore("safe")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 3 {
		t.Errorf("Expected high score 3 after reopen, got %d", high)
	}
}

func TestStoreSaveAndRetrieveEpisodes(t *testing.T) {
	store := openTestStore(t)

	episodes := []Episode{
		{Policy: "safe", Score: 4, Steps: 500, Return: 53.9, Reason: "obstacle", Seed: 1},
		{Policy: "safe", Score: 1, Steps: 140, Return: 14.9, Reason: "obstacle", Seed: 2},
		{Policy: "safe", Score: 4, Steps: 420, Return: 45.9, Reason: "obstacle", Seed: 3},
		{Policy: "aggressive", Score: 9, Steps: 900, Reason: "out_of_bounds", Source: SourcePlay},
	}
	for _, ep := range episodes {
		if _, err := store.SaveEpisode(ep); err != nil {
			t.Fatalf("SaveEpisode() failed: %v", err)
		}
	}

	top, err := store.TopEpisodes("safe", 10)
	if err != nil {
		t.Fatalf("TopEpisodes() failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("Expected 3 episodes, got %d", len(top))
	}

	// Score descending, fewer steps first on ties
	if top[0].Score != 4 || top[0].Steps != 420 {
		t.Errorf("Expected best episode 4/420, got %d/%d", top[0].Score, top[0].Steps)
	}
	if top[1].Steps != 500 {
		t.Errorf("Expected second episode to have 500 steps, got %d", top[1].Steps)
	}
	if top[2].Score != 1 {
		t.Errorf("Expected last score 1, got %d", top[2].Score)
	}
	if top[0].Source != SourceEval {
		t.Errorf("Empty source should default to %q, got %q", SourceEval, top[0].Source)
	}
	if top[0].Return != 45.9 {
		t.Errorf("Return not preserved: %f", top[0].Return)
	}

	agg, err := store.TopEpisodes("aggressive", 10)
	if err != nil {
		t.Fatalf("TopEpisodes() failed: %v", err)
	}
	if len(agg) != 1 || agg[0].Source != SourcePlay {
		t.Errorf("Expected one play episode for aggressive, got %+v", agg)
	}
}

func TestStoreTopEpisodesLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 20; i++ {
		store.SaveEpisode(Episode{Policy: "safe", Score: i, Steps: i * 100, Reason: "obstacle"})
	}

	top, err := store.TopEpisodes("safe", 5)
	if err != nil {
		t.Fatalf("TopEpisodes() failed: %v", err)
	}
	if len(top) != 5 {
		t.Errorf("Expected 5 episodes, got %d", len(top))
	}
	if top[0].Score != 19 {
		t.Errorf("Expected top score 19, got %d", top[0].Score)
	}
}

func TestStoreHighScoreEmpty(t *testing.T) {
	store := openTestStore(t)

	high, err := store.HighScore("nobody")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected 0 for unknown policy, got %d", high)
	}
}

func TestStoreClearEpisodes(t *testing.T) {
	store := openTestStore(t)

	store.SaveEpisode(Episode{Policy: "safe", Score: 2, Reason: "obstacle"})
	store.SaveEpisode(Episode{Policy: "model", Score: 5, Reason: "obstacle"})

	if err := store.ClearEpisodes("safe"); err != nil {
		t.Fatalf("ClearEpisodes() failed: %v", err)
	}

	top, _ := store.TopEpisodes("safe", 10)
	if len(top) != 0 {
		t.Errorf("Expected no safe episodes after clear, got %d", len(top))
	}
	high, _ := store.HighScore("model")
	if high != 5 {
		t.Errorf("Clearing one policy should keep others, got high %d", high)
	}
}

func TestStorePolicyStats(t *testing.T) {
	store := openTestStore(t)

	store.SaveEpisode(Episode{Policy: "safe", Score: 0, Steps: 100, Reason: "obstacle"})
	store.SaveEpisode(Episode{Policy: "safe", Score: 2, Steps: 300, Reason: "obstacle"})
	store.SaveEpisode(Episode{Policy: "safe", Score: 4, Steps: 500, Reason: "step_cap"})
	store.SaveEpisode(Episode{Policy: "aggressive", Score: 1, Steps: 50, Reason: "obstacle"})

	stats, err := store.PolicyStats("safe")
	if err != nil {
		t.Fatalf("PolicyStats() failed: %v", err)
	}
	if stats.Episodes != 3 {
		t.Errorf("Expected 3 episodes, got %d", stats.Episodes)
	}
	if stats.HighScore != 4 {
		t.Errorf("Expected high score 4, got %d", stats.HighScore)
	}
	if stats.AvgScore != 2 {
		t.Errorf("Expected avg score 2, got %f", stats.AvgScore)
	}
	if stats.AvgSteps != 300 {
		t.Errorf("Expected avg steps 300, got %f", stats.AvgSteps)
	}
	if d := stats.SuccessRate - 2.0/3.0; d > 1e-9 || d < -1e-9 {
		t.Errorf("Expected success rate 2/3, got %f", stats.SuccessRate)
	}

	empty, err := store.PolicyStats("nobody")
	if err != nil {
		t.Fatalf("PolicyStats() failed: %v", err)
	}
	if empty.Episodes != 0 || empty.HighScore != 0 {
		t.Errorf("Expected empty stats, got %+v", empty)
	}

	all, err := store.AllPolicyStats()
	if err != nil {
		t.Fatalf("AllPolicyStats() failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected stats for 2 policies, got %d", len(all))
	}
	if all["aggressive"].HighScore != 1 {
		t.Errorf("Expected aggressive high score 1, got %d", all["aggressive"].HighScore)
	}
}

func TestStoreRuns(t *testing.T) {
	store := openTestStore(t)

	best, err := store.BestRun()
	if err != nil {
		t.Fatalf("BestRun() on empty store failed: %v", err)
	}
	if best != nil {
		t.Errorf("Expected no best run on empty store, got %+v", best)
	}

	runs := []Run{
		{RunID: "a", Experiment: "exp", Index: 1, Episodes: 60, Gap: 150, Epsilon: 0.05, LearningRate: 0.1, Epochs: 60, Degree: 1, ValAcc: 0.91, WeightsPath: "runs/run_1.yaml"},
		{RunID: "b", Experiment: "exp", Index: 2, Episodes: 60, Gap: 150, Epsilon: 0.05, LearningRate: 0.1, Epochs: 60, Degree: 2, ValAcc: 0.95, WeightsPath: "runs/run_2.yaml"},
		{RunID: "c", Experiment: "exp", Index: 3, Episodes: 60, Gap: 130, Epsilon: 0.15, LearningRate: 0.05, Epochs: 100, Degree: 2, ValAcc: 0.95, WeightsPath: "runs/run_3.yaml"},
	}
	for _, r := range runs {
		if _, err := store.SaveRun(r); err != nil {
			t.Fatalf("SaveRun() failed: %v", err)
		}
	}

	got, err := store.Runs(10)
	if err != nil {
		t.Fatalf("Runs() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(got))
	}
	if got[0].RunID != "c" {
		t.Errorf("Expected newest run first, got %q", got[0].RunID)
	}
	if got[2].Degree != 1 || got[2].WeightsPath != "runs/run_1.yaml" {
		t.Errorf("Run fields not preserved: %+v", got[2])
	}

	best, err = store.BestRun()
	if err != nil {
		t.Fatalf("BestRun() failed: %v", err)
	}
	if best == nil || best.RunID != "b" {
		t.Errorf("Expected earliest top run b, got %+v", best)
	}

	// run ids are unique
	if _, err := store.SaveRun(runs[0]); err == nil {
		t.Error("Expected error saving duplicate run id")
	}
}
