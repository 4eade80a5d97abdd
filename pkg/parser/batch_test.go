package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlassian/gmetricd"
)

func TestParseBatchObject(t *testing.T) {
	t.Parallel()
	tests := map[string]gmetricd.Sample{
		`{"counter":"foo.bar","value":3}`:                   {Name: "foo_bar", Value: 3, Type: gmetricd.COUNTER},
		`{"counter":"foo","value":3,"sample_rate":0.5}`:     {Name: "foo", Value: 3, Rate: 0.5, Type: gmetricd.COUNTER},
		`{"counter":"foo"}`:                                 {Name: "foo", Value: 1, Type: gmetricd.COUNTER},
		`{"counter":"foo","value":"7","sample_rate":"0.1"}`: {Name: "foo", Value: 7, Rate: 0.1, Type: gmetricd.COUNTER},
		`{"timer":"t","value":12.5}`:                        {Name: "t", Value: 12.5, Type: gmetricd.TIMER},
		`{"timer":"t","value":12.5,"sample_rate":0.5}`:      {Name: "t", Value: 12.5, Type: gmetricd.TIMER},
		`{"gauge":"g","value":-4}`:                          {Name: "g", Value: -4, Type: gmetricd.GAUGE},
		`{"counter":"a","value":"1e3"}`:                     {Name: "a", Value: 1000, Type: gmetricd.COUNTER},
		`{"counter":"a","value":" -2.5 "}`:                  {Name: "a", Value: -2.5, Type: gmetricd.COUNTER},
	}
	for input, expected := range tests {
		input := input
		expected := expected
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			samples, bad, err := ParseBatch([]byte(input))
			require.NoError(t, err)
			assert.Empty(t, bad)
			assert.Equal(t, []gmetricd.Sample{expected}, samples)
		})
	}
}

func TestParseBatchRejectsEntries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected error
	}{
		{input: `{"counter":"foo","timer":"foo","value":1}`, expected: ErrConflictingType},
		{input: `{"gauge":"foo","timer":"foo","value":1}`, expected: ErrConflictingType},
		{input: `{"value":1}`, expected: ErrMissingType},
		{input: `{"counter":"!!","value":1}`, expected: ErrEmptyKey},
		{input: `{"timer":"t"}`, expected: ErrInvalidValue},
		{input: `{"counter":"c","value":1e308,"sample_rate":0.1}`, expected: ErrInvalidValue},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			samples, bad, err := ParseBatch([]byte(tt.input))
			require.NoError(t, err)
			require.Len(t, bad, 1)
			assert.Equal(t, tt.expected, bad[0])
			assert.Empty(t, samples)
		})
	}
}

func TestParseBatchRejectsNonNumericStrings(t *testing.T) {
	t.Parallel()
	for _, value := range []string{`"1x"`, `"NaN"`, `"Inf"`, `"1e400"`, `""`} {
		samples, bad, err := ParseBatch([]byte(`{"counter":"c","value":` + value + `}`))
		require.NoError(t, err, value)
		assert.Len(t, bad, 1, value)
		assert.Empty(t, samples, value)
	}
}

func TestParseBatchArrayPartialFailure(t *testing.T) {
	t.Parallel()
	input := `[{"counter":"a","value":1},{"counter":"b","timer":"b","value":2},{"timer":"c","value":3},42]`
	samples, bad, err := ParseBatch([]byte(input))
	require.NoError(t, err)
	assert.Len(t, bad, 2)
	assert.Equal(t, ErrConflictingType, bad[0])
	assert.Equal(t, []gmetricd.Sample{
		{Name: "a", Value: 1, Type: gmetricd.COUNTER},
		{Name: "c", Value: 3, Type: gmetricd.TIMER},
	}, samples)
}

func TestParseBatchInvalidDocument(t *testing.T) {
	t.Parallel()
	for _, input := range []string{`{"counter":`, `[{"counter":"a"}`, `{]`} {
		samples, bad, err := ParseBatch([]byte(input))
		assert.Error(t, err, input)
		assert.Nil(t, samples)
		assert.Nil(t, bad)
	}
}
