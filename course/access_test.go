package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateLocked(t *testing.T) {
	g := Gate{FreeWeeks: 1}
	tests := []struct {
		week   int
		isPro  bool
		locked bool
	}{
		{week: 1, locked: false},
		{week: 2, locked: true},
		{week: 10, locked: true},
		{week: 2, isPro: true, locked: false},
		{week: 10, isPro: true, locked: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.locked, g.Locked(tt.week, tt.isPro), "week %d pro %v", tt.week, tt.isPro)
	}
}
