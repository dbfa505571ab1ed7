package staircase

import (
	"fmt"
	"slices"
)

// Phase is the lifecycle position of a test session.
type Phase string

const (
	PhaseInstructions Phase = "instructions"
	PhaseRunning      Phase = "running"
	PhaseFinished     Phase = "finished"
)

// Attempt records one evaluated answer.
type Attempt struct {
	LevelRank int    `json:"levelRank"`
	Expected  string `json:"expected"`
	Answer    string `json:"answer"`
	Correct   bool   `json:"correct"`
}

// Result is produced once, when a session finishes.
type Result struct {
	FinalLabel string `json:"finalLabel"`
	// FinalRank is the highest level passed, -1 when the easiest level was failed.
	FinalRank    int       `json:"finalRank"`
	BelowMinimum bool      `json:"belowMinimum"`
	Completed    bool      `json:"completed"`
	History      []Attempt `json:"history"`
}

// State is a session snapshot. Transitions return a new State and leave the
// input untouched, so snapshots can be stored and replayed freely.
type State struct {
	Phase       Phase     `json:"phase"`
	Seed        uint64    `json:"seed"`
	Run         int       `json:"run"`
	CurrentRank int       `json:"currentRank"`
	History     []Attempt `json:"history"`
	Stimulus    *Stimulus `json:"stimulus,omitempty"`
	Result      *Result   `json:"result,omitempty"`
}

// NewState returns a session waiting on the instructions screen.
func NewState(seed uint64) State {
	return State{Phase: PhaseInstructions, Seed: seed}
}

// Event is a user action fed to Machine.Transition.
type Event interface {
	event()
}

// Start leaves the instructions screen.
type Start struct{}

// Answer submits the user's choice for the open stimulus.
type Answer struct {
	Value string
}

// Restart returns a finished session to the instructions screen.
type Restart struct{}

func (Start) event()   {}
func (Answer) event()  {}
func (Restart) event() {}

// Machine runs the one-up-to-failure staircase over a ladder and alphabet.
type Machine struct {
	ladder   *Ladder
	alphabet Alphabet
}

func NewMachine(ladder *Ladder, alphabet Alphabet) (*Machine, error) {
	if ladder == nil || ladder.Len() == 0 {
		return nil, ErrEmptyLadder
	}
	if err := alphabet.Validate(); err != nil {
		return nil, err
	}
	return &Machine{ladder: ladder, alphabet: alphabet.Clone()}, nil
}

func (m *Machine) Ladder() *Ladder {
	return m.ladder
}

// Alphabet returns a copy of the machine's alphabet.
func (m *Machine) Alphabet() Alphabet {
	return m.alphabet.Clone()
}

// Transition applies ev to s.
//
//	instructions --Start-->   running
//	running      --Answer-->  running | finished
//	finished     --Restart--> instructions
//
// Anything else fails with ErrInvalidTransition and s is returned unchanged.
func (m *Machine) Transition(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case Start:
		if s.Phase != PhaseInstructions {
			return s, fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.Phase)
		}
		return m.start(s)
	case Answer:
		if s.Phase != PhaseRunning {
			return s, fmt.Errorf("%w: answer in %s", ErrInvalidTransition, s.Phase)
		}
		return m.Evaluate(s, e.Value)
	case Restart:
		if s.Phase != PhaseFinished {
			return s, fmt.Errorf("%w: restart from %s", ErrInvalidTransition, s.Phase)
		}
		return State{Phase: PhaseInstructions, Seed: s.Seed, Run: s.Run}, nil
	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}
}

func (m *Machine) start(s State) (State, error) {
	next := State{
		Phase:       PhaseRunning,
		Seed:        s.Seed,
		Run:         s.Run + 1,
		CurrentRank: 0,
	}
	stim, err := m.stimulusFor(next, 0)
	if err != nil {
		return s, err
	}
	next.Stimulus = &stim
	return next, nil
}

// Evaluate scores answer against the open stimulus of a running session.
// Correct answers climb one level; the first wrong answer, or a correct answer
// on the last level, finishes the session.
func (m *Machine) Evaluate(s State, answer string) (State, error) {
	if s.Phase != PhaseRunning {
		return s, fmt.Errorf("%w: evaluate in %s", ErrInvalidTransition, s.Phase)
	}
	if s.Stimulus == nil {
		return s, ErrNoStimulus
	}
	stim := *s.Stimulus
	if !stim.Accepts(answer) {
		return s, &InvalidAnswerError{Answer: answer, Options: slices.Clone(stim.Options)}
	}

	correct := stim.IsCorrect(answer)
	history := append(slices.Clone(s.History), Attempt{
		LevelRank: s.CurrentRank,
		Expected:  stim.Expected,
		Answer:    answer,
		Correct:   correct,
	})

	next := State{
		Phase:       PhaseRunning,
		Seed:        s.Seed,
		Run:         s.Run,
		CurrentRank: s.CurrentRank,
		History:     history,
	}

	switch {
	case correct && s.CurrentRank == m.ladder.LastRank():
		return m.finish(s, next, s.CurrentRank)
	case correct:
		next.CurrentRank++
		stim, err := m.stimulusFor(next, next.CurrentRank)
		if err != nil {
			return s, err
		}
		next.Stimulus = &stim
		return next, nil
	default:
		return m.finish(s, next, s.CurrentRank-1)
	}
}

// finish closes next with its result. On error prev is returned unchanged.
func (m *Machine) finish(prev, next State, passedRank int) (State, error) {
	result := &Result{
		FinalRank: passedRank,
		History:   slices.Clone(next.History),
	}
	if passedRank < 0 {
		result.FinalLabel = BelowMinimumLabel
		result.BelowMinimum = true
		result.FinalRank = -1
	} else {
		level, err := m.ladder.LevelAt(passedRank)
		if err != nil {
			return prev, err
		}
		result.FinalLabel = level.Label
		result.Completed = passedRank == m.ladder.LastRank()
	}
	next.Phase = PhaseFinished
	next.Stimulus = nil
	next.Result = result
	return next, nil
}

func (m *Machine) stimulusFor(s State, rank int) (Stimulus, error) {
	level, err := m.ladder.LevelAt(rank)
	if err != nil {
		return Stimulus{}, err
	}
	gen, err := NewGenerator(m.alphabet, RoundSource(s.Seed, s.Run, len(s.History)))
	if err != nil {
		return Stimulus{}, err
	}
	return gen.Next(level), nil
}
