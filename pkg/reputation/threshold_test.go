package reputation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdFor(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  Threshold
	}{
		{"minimum score", -100, Hostile},
		{"hostile boundary", -80, Hostile},
		{"just above hostile", -79, Unfriendly},
		{"unfriendly boundary", -40, Unfriendly},
		{"just above unfriendly", -39, Neutral},
		{"zero", 0, Neutral},
		{"just below friendly", 39, Neutral},
		{"friendly boundary", 40, Friendly},
		{"just below beloved", 79, Friendly},
		{"beloved boundary", 80, Beloved},
		{"maximum score", 100, Beloved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ThresholdFor(tt.score))
		})
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 100, clampScore(140))
	assert.Equal(t, -100, clampScore(-130))
	assert.Equal(t, 55, clampScore(55))
}
