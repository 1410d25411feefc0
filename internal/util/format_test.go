package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "—", FormatDuration(0))
	assert.Equal(t, "—", FormatDuration(-time.Second))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond+200*time.Microsecond))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "2.5 MiB", FormatBytes(2621440))
}
