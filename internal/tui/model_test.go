package tui

import (
	"testing"

	"eyecare_backend/pkg/staircase"
	"eyecare_backend/pkg/visiontest"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T, kind visiontest.Kind) Model {
	t.Helper()
	def, err := visiontest.Lookup(kind)
	require.NoError(t, err)
	return New(def, 7, Options{Eye: "left", NoColor: true})
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// pick moves the cursor onto value and confirms it.
func pick(t *testing.T, m Model, value string) Model {
	t.Helper()
	for i := 0; i < len(m.state.Stimulus.Options); i++ {
		if m.state.Stimulus.Options[m.cursor] == value {
			break
		}
		m, _ = press(t, m, "right")
	}
	require.Equal(t, value, m.state.Stimulus.Options[m.cursor])
	m, _ = press(t, m, "enter")
	return m
}

func TestModel_InstructionsThenStart(t *testing.T) {
	m := newModel(t, visiontest.KindVisualAcuity)
	assert.Nil(t, m.Init())
	assert.Contains(t, m.View(), "left eye")
	assert.Contains(t, m.View(), "enter: start")

	m, _ = press(t, m, "enter")
	require.Equal(t, staircase.PhaseRunning, m.State().Phase)
	assert.Contains(t, m.View(), "Round 1")
	assert.Contains(t, m.View(), "20/200")
}

func TestModel_PerfectRunThenRetake(t *testing.T) {
	m := newModel(t, visiontest.KindTumblingE)
	m, _ = press(t, m, "enter")

	for m.State().Phase == staircase.PhaseRunning {
		m = pick(t, m, m.State().Stimulus.Expected)
	}
	require.Len(t, m.Results(), 1)
	assert.True(t, m.Results()[0].Completed)
	assert.Contains(t, m.View(), "Passed every level")

	m, _ = press(t, m, "r")
	assert.Equal(t, staircase.PhaseInstructions, m.State().Phase)
	m, _ = press(t, m, "enter")
	assert.Equal(t, 2, m.State().Run)
}

func TestModel_NumberKeysAnswer(t *testing.T) {
	m := newModel(t, visiontest.KindVisualAcuity)
	m, _ = press(t, m, "enter")

	stim := m.State().Stimulus
	wrong := 0
	for i, o := range stim.Options {
		if o != stim.Expected {
			wrong = i
			break
		}
	}
	m, _ = press(t, m, string(rune('1'+wrong)))

	require.Equal(t, staircase.PhaseFinished, m.State().Phase)
	assert.True(t, m.State().Result.BelowMinimum)
	assert.Contains(t, m.View(), "Below the easiest level")
}

func TestModel_CursorWraps(t *testing.T) {
	m := newModel(t, visiontest.KindContrast)
	m, _ = press(t, m, "enter")
	m, _ = press(t, m, "left")
	assert.Equal(t, len(m.State().Stimulus.Options)-1, m.cursor)
	m, _ = press(t, m, "right")
	assert.Equal(t, 0, m.cursor)
}

func TestModel_OutOfRangeNumberIgnored(t *testing.T) {
	m := newModel(t, visiontest.KindVisualAcuity)
	m, _ = press(t, m, "enter")
	before := m.State()
	m, _ = press(t, m, "9")
	assert.Equal(t, before, m.State())
}

func TestModel_QuitKeys(t *testing.T) {
	m := newModel(t, visiontest.KindNearVision)
	for _, key := range []string{"q", "ctrl+c"} {
		_, cmd := press(t, m, key)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestModel_IgnoresOtherMessages(t *testing.T) {
	m := newModel(t, visiontest.KindVisualAcuity)
	next, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, cmd)
	assert.Equal(t, m.State(), next.(Model).State())
}
