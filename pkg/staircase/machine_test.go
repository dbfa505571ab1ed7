package staircase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine(snellenLadder(t), sloan)
	require.NoError(t, err)
	return m
}

func started(t *testing.T, m *Machine, seed uint64) State {
	t.Helper()
	s, err := m.Transition(NewState(seed), Start{})
	require.NoError(t, err)
	require.Equal(t, PhaseRunning, s.Phase)
	require.NotNil(t, s.Stimulus)
	return s
}

func wrongAnswer(s State) string {
	for _, o := range s.Stimulus.Options {
		if o != s.Stimulus.Expected {
			return o
		}
	}
	return ""
}

func answer(t *testing.T, m *Machine, s State, value string) State {
	t.Helper()
	next, err := m.Transition(s, Answer{Value: value})
	require.NoError(t, err)
	return next
}

func TestMachine_AllCorrectReachesTopLevel(t *testing.T) {
	m := newMachine(t)
	s := started(t, m, 11)

	for i := 0; i < 8; i++ {
		require.Equal(t, PhaseRunning, s.Phase, "round %d", i)
		assert.Equal(t, i, s.CurrentRank)
		s = answer(t, m, s, s.Stimulus.Expected)
	}

	require.Equal(t, PhaseFinished, s.Phase)
	require.NotNil(t, s.Result)
	top, _ := m.Ladder().LevelAt(7)
	assert.Equal(t, top.Label, s.Result.FinalLabel)
	assert.Equal(t, 7, s.Result.FinalRank)
	assert.True(t, s.Result.Completed)
	assert.False(t, s.Result.BelowMinimum)
	assert.Len(t, s.Result.History, 8)
	assert.Nil(t, s.Stimulus)
}

func TestMachine_FirstAnswerWrongIsBelowMinimum(t *testing.T) {
	m := newMachine(t)
	s := started(t, m, 5)

	s, err := m.Transition(s, Answer{Value: wrongAnswer(s)})
	require.NoError(t, err)
	var oor *OutOfRangeError
	assert.False(t, errors.As(err, &oor))

	require.Equal(t, PhaseFinished, s.Phase)
	assert.Equal(t, BelowMinimumLabel, s.Result.FinalLabel)
	assert.True(t, s.Result.BelowMinimum)
	assert.Equal(t, -1, s.Result.FinalRank)
	assert.False(t, s.Result.Completed)
}

func TestMachine_FailMidLadderReportsLastPassedLevel(t *testing.T) {
	m := newMachine(t)
	s := started(t, m, 99)

	for i := 0; i <= 3; i++ {
		s = answer(t, m, s, s.Stimulus.Expected)
	}
	require.Equal(t, 4, s.CurrentRank)
	s = answer(t, m, s, wrongAnswer(s))

	require.Equal(t, PhaseFinished, s.Phase)
	level3, _ := m.Ladder().LevelAt(3)
	assert.Equal(t, level3.Label, s.Result.FinalLabel)
	assert.Equal(t, 3, s.Result.FinalRank)
	require.Len(t, s.Result.History, 5)
	assert.False(t, s.Result.History[4].Correct)
	assert.Equal(t, 4, s.Result.History[4].LevelRank)
}

func TestMachine_RestartClearsHistory(t *testing.T) {
	m := newMachine(t)
	s := started(t, m, 3)
	s = answer(t, m, s, s.Stimulus.Expected)
	s = answer(t, m, s, s.Stimulus.Expected)
	s = answer(t, m, s, wrongAnswer(s))
	require.Equal(t, PhaseFinished, s.Phase)

	s, err := m.Transition(s, Restart{})
	require.NoError(t, err)
	assert.Equal(t, PhaseInstructions, s.Phase)
	assert.Empty(t, s.History)
	assert.Nil(t, s.Result)

	s, err = m.Transition(s, Start{})
	require.NoError(t, err)
	assert.Equal(t, PhaseRunning, s.Phase)
	assert.Empty(t, s.History)
	assert.Equal(t, 0, s.CurrentRank)
	assert.Equal(t, 2, s.Run)
}

func TestMachine_InvalidAnswerLeavesStateUnchanged(t *testing.T) {
	m := newMachine(t)
	s := started(t, m, 8)
	s = answer(t, m, s, s.Stimulus.Expected)

	next, err := m.Transition(s, Answer{Value: "not-a-letter"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	var iae *InvalidAnswerError
	require.True(t, errors.As(err, &iae))
	assert.Equal(t, s.Stimulus.Options, iae.Options)

	assert.Equal(t, s.CurrentRank, next.CurrentRank)
	assert.Len(t, next.History, len(s.History))
	assert.Equal(t, s, next)
}

func TestMachine_RejectsInvalidTransitions(t *testing.T) {
	m := newMachine(t)
	fresh := NewState(1)
	running := started(t, m, 1)
	finished := answer(t, m, running, wrongAnswer(running))

	tests := []struct {
		name  string
		state State
		event Event
	}{
		{"answer before start", fresh, Answer{Value: "C"}},
		{"restart before start", fresh, Restart{}},
		{"start while running", running, Start{}},
		{"restart while running", running, Restart{}},
		{"start when finished", finished, Start{}},
		{"answer when finished", finished, Answer{Value: "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := m.Transition(tt.state, tt.event)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.state, next)
		})
	}
}

func TestMachine_TransitionDoesNotMutateInput(t *testing.T) {
	m := newMachine(t)
	s := started(t, m, 21)
	s = answer(t, m, s, s.Stimulus.Expected)
	snapshot := s
	historyLen := len(s.History)

	_ = answer(t, m, s, s.Stimulus.Expected)

	assert.Len(t, s.History, historyLen)
	assert.Equal(t, snapshot, s)
}

func TestMachine_SeedReplaysSameStimuli(t *testing.T) {
	m := newMachine(t)
	a := started(t, m, 1234)
	b := started(t, m, 1234)

	for i := 0; i < 5; i++ {
		require.Equal(t, *a.Stimulus, *b.Stimulus)
		a = answer(t, m, a, a.Stimulus.Expected)
		b = answer(t, m, b, b.Stimulus.Expected)
	}
}

func TestMachine_RunningWithoutStimulus(t *testing.T) {
	m := newMachine(t)
	_, err := m.Evaluate(State{Phase: PhaseRunning}, "C")
	assert.ErrorIs(t, err, ErrNoStimulus)
}

func TestNewMachine_Validation(t *testing.T) {
	_, err := NewMachine(nil, sloan)
	assert.ErrorIs(t, err, ErrEmptyLadder)

	_, err = NewMachine(snellenLadder(t), Alphabet{Mode: ModeMultipleChoice, Symbols: []string{"A"}})
	assert.ErrorIs(t, err, ErrInvalidAlphabet)
}

func TestMachine_RankPastLadderReturnsInputState(t *testing.T) {
	m := newMachine(t)
	s := State{
		Phase:       PhaseRunning,
		Seed:        4,
		Run:         1,
		CurrentRank: 20,
		History:     []Attempt{{LevelRank: 19, Expected: "C", Answer: "C", Correct: true}},
		Stimulus: &Stimulus{
			LevelRank: 20,
			Expected:  "C",
			Options:   []string{"C", "D", "H", "K"},
		},
	}

	for _, value := range []string{"D", "C"} {
		next, err := m.Transition(s, Answer{Value: value})
		var oor *OutOfRangeError
		require.True(t, errors.As(err, &oor), "answer %s", value)
		assert.Equal(t, s, next)
		assert.Len(t, s.History, 1)
	}
}
