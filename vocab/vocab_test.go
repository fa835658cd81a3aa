package vocab

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSelection() Selection {
	return Selection{
		Odor:      "none",
		CapShape:  "convex",
		CapColor:  "white",
		GillSize:  "broad",
		GillColor: "white",
		Habitat:   "woods",
		Bruises:   "no",
	}
}

func TestEncode(t *testing.T) {
	row, err := Encode(sampleSelection())
	require.NoError(t, err)
	assert.Equal(t, EncodedRow{
		Odor:      "n",
		CapShape:  "x",
		CapColor:  "w",
		GillSize:  "b",
		GillColor: "w",
		Habitat:   "d",
		Bruises:   "f",
	}, row)
}

func TestEncodeUnknownCategory(t *testing.T) {
	sel := sampleSelection()
	sel.Odor = "rotten"

	row, err := Encode(sel)
	require.Error(t, err)
	assert.Nil(t, row)

	var unknown *UnknownCategoryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, Odor, unknown.Field)
	assert.Equal(t, "rotten", unknown.Value)
	assert.Contains(t, err.Error(), "odor")
}

func TestEncodeReportsFirstFieldInFormOrder(t *testing.T) {
	sel := sampleSelection()
	sel.Bruises = ""
	sel.CapColor = "blue"

	_, err := Encode(sel)
	var unknown *UnknownCategoryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, CapColor, unknown.Field)
}

func TestEncodeRejectsCodesAsLabels(t *testing.T) {
	sel := sampleSelection()
	sel.Habitat = "d"
	_, err := Encode(sel)
	require.Error(t, err)
}

func TestFeaturesCoverEveryName(t *testing.T) {
	feats := Features()
	require.Len(t, feats, 7)
	for i, f := range feats {
		assert.Equal(t, Names()[i], f.Name)
		assert.NotEmpty(t, f.Options)
		for j := 1; j < len(f.Options); j++ {
			assert.Less(t, f.Options[j-1].Label, f.Options[j].Label)
		}
	}
	assert.Equal(t, "Gill Color", feats[4].DisplayName)
}

func TestFeaturesReturnsCopy(t *testing.T) {
	feats := Features()
	feats[0].Options[0].Code = "zz"
	code, ok := Lookup(feats[0].Name, feats[0].Options[0].Label)
	require.True(t, ok)
	assert.NotEqual(t, "zz", code)
}

func TestCodes(t *testing.T) {
	assert.Equal(t, []string{"f", "t"}, Codes(Bruises))
	assert.Len(t, Codes(Odor), 9)
	assert.Empty(t, Codes("veil-type"))
}

func TestEncodedRowKeyIsStable(t *testing.T) {
	a, err := Encode(sampleSelection())
	require.NoError(t, err)
	b, err := Encode(sampleSelection())
	require.NoError(t, err)
	assert.Equal(t, a.Key(), b.Key())

	sel := sampleSelection()
	sel.Bruises = "bruises"
	c, err := Encode(sel)
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestSelectionRoundTripThroughValues(t *testing.T) {
	sel := sampleSelection()
	assert.Equal(t, sel, SelectionFromValues(sel.Values()))
}

func TestParseClass(t *testing.T) {
	for in, want := range map[string]Class{
		"edible":    Edible,
		"e":         Edible,
		" Edible ":  Edible,
		"poisonous": Poisonous,
		"p":         Poisonous,
	} {
		got, err := ParseClass(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseClass("1")
	assert.Error(t, err)

	assert.Equal(t, "e", Edible.Code())
	assert.Equal(t, "poisonous", Poisonous.String())
}

func TestClassJSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		Class Class `json:"class"`
	}{Edible})
	require.NoError(t, err)
	assert.JSONEq(t, `{"class":"edible"}`, string(payload))

	var decoded struct {
		Class Class `json:"class"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"class":"p"}`), &decoded))
	assert.Equal(t, Poisonous, decoded.Class)
	assert.Error(t, json.Unmarshal([]byte(`{"class":"maybe"}`), &decoded))
}
