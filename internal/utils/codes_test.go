package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestGenerateReferenceCode(t *testing.T) {
	code := GenerateReferenceCode()
	assert.Regexp(t, `^SDP[0-9A-F]{8}$`, code)
	assert.NotEqual(t, code, GenerateReferenceCode())
}
