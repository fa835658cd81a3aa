package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fauxpas/pipeline"
	"fauxpas/vocab"
)

func testPrediction(odor string, class vocab.Class, confidence float64) *pipeline.Prediction {
	return &pipeline.Prediction{
		Label:         pipeline.FormatLabel(class, confidence),
		Class:         class,
		Confidence:    confidence,
		LowConfidence: pipeline.IsLowConfidence(class, confidence),
		Selection: vocab.Selection{
			Odor: odor, CapShape: "convex", CapColor: "white", GillSize: "broad",
			GillColor: "white", Habitat: "woods", Bruises: "no",
		},
	}
}

func TestSaveAndQueryPredictions(t *testing.T) {
	require.NoError(t, InitDB(filepath.Join(t.TempDir(), "history.db")))
	t.Cleanup(func() { Close() })
	assert.True(t, Enabled())

	require.NoError(t, SavePrediction(testPrediction("none", vocab.Edible, 0.73)))
	require.NoError(t, SavePrediction(testPrediction("foul", vocab.Poisonous, 0.97)))

	records, err := QueryPredictions(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	newest := records[0]
	assert.Equal(t, "foul", newest.Selection.Odor)
	assert.Equal(t, "poisonous", newest.Class)
	assert.InDelta(t, 0.97, newest.Confidence, 1e-12)
	assert.False(t, newest.LowConfidence)
	assert.False(t, newest.CreatedAt.IsZero())

	oldest := records[1]
	assert.True(t, oldest.LowConfidence)
	assert.Contains(t, oldest.Label, "Low confidence")
	assert.Equal(t, "woods", oldest.Selection.Habitat)

	limited, err := QueryPredictions(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestHistoryDisabled(t *testing.T) {
	require.NoError(t, Close())
	assert.False(t, Enabled())

	assert.ErrorIs(t, SavePrediction(testPrediction("none", vocab.Edible, 0.9)), ErrNotInitialized)
	_, err := QueryPredictions(5)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSaveNilPrediction(t *testing.T) {
	require.NoError(t, InitDB(filepath.Join(t.TempDir(), "history.db")))
	t.Cleanup(func() { Close() })
	assert.Error(t, SavePrediction(nil))
}

func TestInitDBUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "history.db")
	err := InitDB(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.False(t, Enabled())
}
