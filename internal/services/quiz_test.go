package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAnswer(t *testing.T) {
	cases := map[string]int{
		"":    0,
		"  ":  0,
		"0":   0,
		"1":   1,
		" 4 ": 4,
	}
	for input, want := range cases {
		got, err := NormalizeAnswer(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestNormalizeAnswerRejectsOutOfRange(t *testing.T) {
	for _, input := range []string{"5", "-1", "a", "2.5"} {
		_, err := NormalizeAnswer(input)
		assert.ErrorIs(t, err, ErrInvalidInput, input)
	}
}
