package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchPattern(t *testing.T) {
	assert.Equal(t, "%math%", SearchPattern("Math"))
	assert.Equal(t, "%math%", SearchPattern("  MATH "))
	assert.Equal(t, `%100\% pass%`, SearchPattern("100% pass"))
	assert.Equal(t, `%a\_b%`, SearchPattern("a_b"))
	assert.Equal(t, `%c:\\dir%`, SearchPattern(`C:\dir`))
}
