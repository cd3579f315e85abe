package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "integer seconds", value: "30", want: 30 * time.Second},
		{name: "fractional seconds", value: "1.5", want: 1500 * time.Millisecond},
		{name: "zero", value: "0", want: 0},
		{name: "duration with units", value: "6m0s", want: 6 * time.Minute},
		{name: "milliseconds", value: "250ms", want: 250 * time.Millisecond},
		{name: "surrounding whitespace", value: "  12  ", want: 12 * time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRetryAfter(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseRetryAfterRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "   ", "soon", "-5", "-1s"} {
		t.Run(value, func(t *testing.T) {
			got, err := ParseRetryAfter(value)
			assert.Error(t, err)
			assert.Zero(t, got)
		})
	}
}
