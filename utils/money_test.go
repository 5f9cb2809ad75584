package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "0.50", FormatCents(50))
	assert.Equal(t, "1.00", FormatCents(100))
	assert.Equal(t, "12.34", FormatCents(1234))
	assert.Equal(t, "-0.05", FormatCents(-5))
	assert.Equal(t, "-12.34", FormatCents(-1234))
}
