package staircase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snellenLadder(t *testing.T) *Ladder {
	t.Helper()
	labels := []string{"20/200", "20/100", "20/70", "20/50", "20/40", "20/30", "20/25", "20/20"}
	steps := make([]Step, len(labels))
	for i, l := range labels {
		steps[i] = Step{Label: l, Presentation: Presentation{Size: float64(len(labels) - i)}}
	}
	l, err := NewLadder(steps...)
	require.NoError(t, err)
	return l
}

func TestLadder_LevelAtMatchesRank(t *testing.T) {
	l := snellenLadder(t)
	require.Equal(t, 8, l.Len())

	prev := -1
	for r := 0; r < l.Len(); r++ {
		level, err := l.LevelAt(r)
		require.NoError(t, err)
		assert.Equal(t, r, level.Rank)
		assert.Greater(t, level.Rank, prev)
		prev = level.Rank
	}
}

func TestLadder_OutOfRange(t *testing.T) {
	l := snellenLadder(t)

	for _, rank := range []int{-1, 8, 100} {
		_, err := l.LevelAt(rank)
		var oor *OutOfRangeError
		require.True(t, errors.As(err, &oor), "rank %d", rank)
		assert.Equal(t, rank, oor.Rank)
		assert.Equal(t, 8, oor.Len)
	}
}

func TestNewLadder_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
	}{
		{"empty", nil},
		{"blank label", []Step{{Label: "a"}, {Label: ""}}},
		{"duplicate label", []Step{{Label: "a"}, {Label: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLadder(tt.steps...)
			assert.Error(t, err)
		})
	}
}

func TestLadder_LevelsIsACopy(t *testing.T) {
	l := snellenLadder(t)
	levels := l.Levels()
	levels[0].Label = "changed"

	first, err := l.LevelAt(0)
	require.NoError(t, err)
	assert.Equal(t, "20/200", first.Label)
}

func TestMustLadder_PanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { MustLadder() })
}
