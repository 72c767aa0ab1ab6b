package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/flappy-lab/internal/logreg"
)

func saveTestModel(t *testing.T, dir string) string {
	t.Helper()
	m := &logreg.Model{
		Degree:   1,
		Features: logreg.FeatureNames(1),
		Weights:  []float64{0.1, -0.2, 0.3, -4.5},
		Bias:     0.75,
		Mean:     []float64{0.5, 0, 0.5, 0},
		Std:      []float64{0.25, 0.5, 0.25, 0.5},
	}
	path := filepath.Join(dir, "weights.yaml")
	require.NoError(t, m.Save(path))
	return path
}

func TestInspectArtifactsValidAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	good := saveTestModel(t, dir)

	bad := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("degree: 1\nw: [[1, 2], [3, 4]]\nb: 0\n"), 0o644))

	var out bytes.Buffer
	err := inspectArtifacts(&out, []string{good, bad}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, err.Error(), bad)
	assert.NotContains(t, err.Error(), good)

	text := out.String()
	assert.Contains(t, text, "degree:   1")
	assert.Contains(t, text, "b:        0.750000")
	assert.Contains(t, text, "w 4x1, mean/std 1x4")
	assert.Contains(t, text, "delta_gap_norm")
	assert.Contains(t, text, "-4.500000")
	assert.Contains(t, text, "invalid:")
	assert.Contains(t, text, "shape mismatch")
}

func TestInspectArtifactsMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	var out bytes.Buffer
	assert.NoError(t, inspectArtifacts(&out, []string{missing}, false))
	assert.Contains(t, out.String(), "not found")

	out.Reset()
	assert.Error(t, inspectArtifacts(&out, []string{missing}, true), "named files must exist")
}
