package ml

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncoder(t *testing.T) *OrdinalEncoder {
	t.Helper()
	enc, err := NewOrdinalEncoder(
		[]string{"odor", "bruises"},
		[][]string{{"a", "f", "n"}, {"f", "t"}},
	)
	require.NoError(t, err)
	return enc
}

func TestOrdinalEncoderTransform(t *testing.T) {
	enc := newTestEncoder(t)

	row, err := enc.Transform(map[string]string{"bruises": "t", "odor": "n"})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, row)
	assert.Equal(t, []string{"odor", "bruises"}, enc.FeatureNames())

	cats, ok := enc.Categories("odor")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "f", "n"}, cats)
	_, ok = enc.Categories("habitat")
	assert.False(t, ok)
}

func TestOrdinalEncoderSchemaMismatch(t *testing.T) {
	enc := newTestEncoder(t)

	cases := []struct {
		name   string
		row    map[string]string
		column string
	}{
		{"missing column", map[string]string{"odor": "a"}, "bruises"},
		{"extra column", map[string]string{"odor": "a", "bruises": "f", "habitat": "d"}, "habitat"},
		{"unfitted code", map[string]string{"odor": "z", "bruises": "f"}, "odor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := enc.Transform(tc.row)
			var mismatch *SchemaMismatchError
			require.True(t, errors.As(err, &mismatch))
			assert.Equal(t, tc.column, mismatch.Column)
		})
	}
}

func TestNewOrdinalEncoderValidation(t *testing.T) {
	_, err := NewOrdinalEncoder(nil, nil)
	assert.Error(t, err)
	_, err = NewOrdinalEncoder([]string{"a"}, [][]string{{"x"}, {"y"}})
	assert.Error(t, err)
	_, err = NewOrdinalEncoder([]string{"a", "a"}, [][]string{{"x"}, {"y"}})
	assert.Error(t, err)
	_, err = NewOrdinalEncoder([]string{"a"}, [][]string{{}})
	assert.Error(t, err)
	_, err = NewOrdinalEncoder([]string{"a"}, [][]string{{"x", "x"}})
	assert.Error(t, err)
}
