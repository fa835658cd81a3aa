package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBundle = "../../ml/testdata/mushroom_bundle.json"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--bundle", testBundle}, args...))
	err := root.Execute()
	return out.String(), err
}

var baselineFlags = []string{
	"predict",
	"--odor", "none", "--cap-shape", "convex", "--cap-color", "white",
	"--gill-size", "broad", "--gill-color", "white", "--habitat", "woods", "--bruises", "no",
}

func TestPredictCommand(t *testing.T) {
	out, err := execute(t, baselineFlags...)
	require.NoError(t, err)
	assert.Contains(t, out, "Edible 🍽️ (Confidence: 0.73) ⚠️ Low confidence—please verify!")
	assert.Contains(t, out, "Feature importance:")
	assert.Contains(t, out, "Odor")
}

func TestPredictCommandJSON(t *testing.T) {
	out, err := execute(t, append(baselineFlags, "--json")...)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "edible", payload["class"])
	assert.Equal(t, true, payload["low_confidence"])
}

func TestPredictCommandUnknownCategory(t *testing.T) {
	args := append([]string(nil), baselineFlags...)
	args[2] = "rotten"
	_, err := execute(t, args...)
	require.Error(t, err)

	var exit *exitError
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 2, exit.code)
	assert.Contains(t, err.Error(), "rotten")
}

func TestPredictCommandMissingBundle(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs(append([]string{"--bundle", "/nonexistent/bundle.json"}, baselineFlags...))
	err := root.Execute()
	require.Error(t, err)

	var exit *exitError
	assert.False(t, errors.As(err, &exit))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestVocabCommand(t *testing.T) {
	out, err := execute(t, "vocab")
	require.NoError(t, err)
	assert.Contains(t, out, "Cap Shape (--cap-shape)")
	assert.Contains(t, out, "almond")
}

func TestImportancesCommand(t *testing.T) {
	out, err := execute(t, "importances")
	require.NoError(t, err)
	assert.Contains(t, out, "0.4500")
	assert.Contains(t, out, "Gill Size")
}

func TestInspectCommand(t *testing.T) {
	out, err := execute(t, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "Classes:  poisonous, edible")
	assert.Contains(t, out, "random forest, 3 trees")
	assert.Contains(t, out, "odor, cap-shape")
}
