package visiontest

import (
	"testing"

	"eyecare_backend/pkg/staircase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, kind := range []Kind{KindVisualAcuity, KindTumblingE, KindContrast, KindNearVision} {
		t.Run(string(kind), func(t *testing.T) {
			d, err := Lookup(kind)
			require.NoError(t, err)
			assert.Equal(t, kind, d.Kind)
			require.NotNil(t, d.Machine())
			assert.Equal(t, len(d.Levels), d.Machine().Ladder().Len())
		})
	}

	_, err := Lookup("ishihara")
	assert.ErrorIs(t, err, ErrUnknownTest)
}

func TestVisualAcuityLadder(t *testing.T) {
	d, err := Lookup(KindVisualAcuity)
	require.NoError(t, err)

	require.Len(t, d.Levels, 8)
	assert.Equal(t, "20/200", d.Levels[0].Label)
	assert.Equal(t, "20/20", d.Levels[7].Label)
	for i := 1; i < len(d.Levels); i++ {
		assert.Less(t, d.Levels[i].Presentation.Size, d.Levels[i-1].Presentation.Size)
	}
}

func TestContrastLadderDecreasesContrast(t *testing.T) {
	d, err := Lookup(KindContrast)
	require.NoError(t, err)
	for i := 1; i < len(d.Levels); i++ {
		assert.Less(t, d.Levels[i].Presentation.Contrast, d.Levels[i-1].Presentation.Contrast)
	}
}

func TestTumblingE_RotatesWithDirection(t *testing.T) {
	d, err := Lookup(KindTumblingE)
	require.NoError(t, err)

	s, err := d.Machine().Transition(staircase.NewState(17), staircase.Start{})
	require.NoError(t, err)
	require.NotNil(t, s.Stimulus)
	assert.Equal(t, []string{"up", "right", "down", "left"}, s.Stimulus.Options)
	assert.Equal(t, d.Alphabet.Rotation[s.Stimulus.Expected], s.Stimulus.Presentation.Rotation)
}

func TestAll_IsACopy(t *testing.T) {
	all := All()
	require.Len(t, all, 4)
	all[0] = nil
	assert.NotNil(t, All()[0])
}

func TestAll_MutatingCopiesLeavesCatalogIntact(t *testing.T) {
	all := All()
	all[0].Levels[0].Label = "changed"
	all[0].Alphabet.Symbols[0] = "X"

	fresh := All()[0]
	assert.Equal(t, "20/200", fresh.Levels[0].Label)
	assert.Equal(t, "C", fresh.Alphabet.Symbols[0])
	assert.Equal(t, "C", fresh.Machine().Alphabet().Symbols[0])

	e, err := Lookup(KindTumblingE)
	require.NoError(t, err)
	e.Alphabet.Rotation["up"] = 1
	again, err := Lookup(KindTumblingE)
	require.NoError(t, err)
	assert.Equal(t, 270.0, again.Alphabet.Rotation["up"])
}
