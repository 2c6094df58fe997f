package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortUUID(t *testing.T) {
	a, b := ShortUUID(), ShortUUID()
	assert.Len(t, a, 22)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}
