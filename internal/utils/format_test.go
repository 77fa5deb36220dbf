package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-8191:    "-8,191",
		65536000: "65,536,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, Number(in), "input %d", in)
	}
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "512 B", Bytes(512))
	assert.Equal(t, "8.0 KiB", Bytes(8192))
	assert.Equal(t, "1.50 MiB", Bytes(3<<19))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, "-", Ratio(10, 0))
	assert.Equal(t, "25.0%", Ratio(4, 16))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "0s", Duration(500*time.Millisecond))
	assert.Equal(t, "5.2s", Duration(5200*time.Millisecond))
	assert.Equal(t, "3m5.0s", Duration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h15m", Duration(2*time.Hour+15*time.Minute))
}

func TestRate(t *testing.T) {
	assert.Equal(t, "123.45", Rate(123.45))
	assert.Equal(t, "12.34K", Rate(12340))
	assert.Equal(t, "12.34M", Rate(12340000))
}
