package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_IsDeterministic(t *testing.T) {
	a := Synthesize()
	b := Synthesize()
	assert.Equal(t, a, b)
}

func TestSynthesize_SeparatesBootstrapLabels(t *testing.T) {
	a := Synthesize()

	// The high-risk bootstrap student must score a higher probability than
	// either low-risk one.
	low1 := a.Classifier.PredictProba(a.Scaler.Transform([]float64{80, 75, 10, 30}))
	high := a.Classifier.PredictProba(a.Scaler.Transform([]float64{60, 50, 5, 20}))
	low2 := a.Classifier.PredictProba(a.Scaler.Transform([]float64{90, 85, 15, 40}))

	assert.Greater(t, high, low1)
	assert.Greater(t, high, low2)
	assert.Greater(t, high, 0.5)
	assert.Less(t, low1, 0.5)
	assert.Less(t, low2, 0.5)
}

func TestScalerTransform_ZeroMean(t *testing.T) {
	a := Synthesize()

	sums := make([]float64, 4)
	for _, f := range bootstrapFeatures {
		for d, v := range a.Scaler.Transform(f) {
			sums[d] += v
		}
	}
	for _, sum := range sums {
		assert.InDelta(t, 0, sum, 1e-9)
	}
}

func TestStore_LoadSynthesizesWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropout_model.json")
	s := NewStore(path, nil)

	assert.False(t, s.Ready())
	require.NoError(t, s.Load(context.Background()))
	assert.True(t, s.Ready())
	assert.Equal(t, Synthesize(), s.Artifact())

	// Nothing written to disk until Save is called.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "dropout_model.json")
	s := NewStore(path, nil)
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.Save(context.Background()))

	reloaded := NewStore(path, nil)
	require.NoError(t, reloaded.Load(context.Background()))
	assert.Equal(t, s.Artifact(), reloaded.Artifact())
}

func TestStore_LoadFallsBackOnCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropout_model.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(path, nil)
	require.NoError(t, s.Load(context.Background()))
	assert.True(t, s.Ready())
	assert.Equal(t, Synthesize(), s.Artifact())
}

func TestStore_SaveWithoutLoadFails(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "m.json"), nil)
	assert.Error(t, s.Save(context.Background()))
}
