package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/flappy-lab/internal/storage"
)

type fakeSource struct {
	runs  []storage.Run
	stats map[string]*storage.PolicyStats
	err   error
}

func (f fakeSource) Runs(int) ([]storage.Run, error) { return f.runs, f.err }
func (f fakeSource) AllPolicyStats() (map[string]*storage.PolicyStats, error) {
	return f.stats, f.err
}

func TestRunBoardEmpty(t *testing.T) {
	m := NewRunBoard(fakeSource{}, 100, 30)
	if !strings.Contains(m.View(), "No runs recorded yet") {
		t.Error("Expected empty runs message")
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(RunBoard)
	if !strings.Contains(m.View(), "No episodes recorded yet") {
		t.Error("Expected empty policies message after switching tab")
	}
}

func TestRunBoardRows(t *testing.T) {
	src := fakeSource{
		runs: []storage.Run{
			{RunID: "0123456789abcdef", Index: 2, Episodes: 20, Gap: 150, ValAcc: 0.9},
			{RunID: "fedcba", Index: 1, Episodes: 5, Gap: 170, ValAcc: 0.8},
		},
		stats: map[string]*storage.PolicyStats{
			"safe":       {Policy: "safe", Episodes: 3, HighScore: 4},
			"aggressive": {Policy: "aggressive", Episodes: 3, HighScore: 9},
		},
	}
	m := NewRunBoard(src, 120, 30)

	if got := len(m.table.Rows()); got != 2 {
		t.Fatalf("Expected 2 run rows, got %d", got)
	}
	if id := m.table.Rows()[0][1]; id != "01234567" {
		t.Errorf("Run id should be shortened, got %q", id)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(RunBoard)
	rows := m.table.Rows()
	if len(rows) != 2 || rows[0][0] != "aggressive" {
		t.Errorf("Policies should be sorted by best score, got %v", rows)
	}
}

func TestRunBoardError(t *testing.T) {
	m := NewRunBoard(fakeSource{err: errors.New("disk on fire")}, 100, 30)
	if !strings.Contains(m.View(), "disk on fire") {
		t.Error("Expected load error in view")
	}
}

func TestRunBoardQuit(t *testing.T) {
	m := NewRunBoard(fakeSource{}, 100, 30)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("Expected quit command")
	}
	if next.(RunBoard).View() != "" {
		t.Error("View should be empty after quit")
	}
}
