package staircase

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
)

// Mode selects how answer options are built.
type Mode string

const (
	// ModeMultipleChoice shows the expected symbol among randomly drawn distractors.
	ModeMultipleChoice Mode = "multiple_choice"
	// ModeOrientation always offers the whole direction set in alphabet order.
	ModeOrientation Mode = "orientation"
)

// MultipleChoiceOptions is the number of answer buttons in a multiple-choice round.
const MultipleChoiceOptions = 4

// Alphabet is the set of symbols a test draws stimuli from.
type Alphabet struct {
	Mode    Mode     `json:"mode" yaml:"mode"`
	Symbols []string `json:"symbols" yaml:"symbols"`
	// Rotation maps an orientation symbol to the angle the optotype is drawn at.
	Rotation map[string]float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// Clone returns a copy that shares no slices or maps with a.
func (a Alphabet) Clone() Alphabet {
	return Alphabet{Mode: a.Mode, Symbols: slices.Clone(a.Symbols), Rotation: maps.Clone(a.Rotation)}
}

// Validate checks that the alphabet can produce stimuli for its mode.
func (a Alphabet) Validate() error {
	seen := make(map[string]bool, len(a.Symbols))
	for _, s := range a.Symbols {
		if s == "" || seen[s] {
			return fmt.Errorf("%w: empty or duplicate symbol %q", ErrInvalidAlphabet, s)
		}
		seen[s] = true
	}
	switch a.Mode {
	case ModeMultipleChoice:
		if len(a.Symbols) < MultipleChoiceOptions {
			return fmt.Errorf("%w: multiple choice needs at least %d symbols, got %d",
				ErrInvalidAlphabet, MultipleChoiceOptions, len(a.Symbols))
		}
	case ModeOrientation:
		if len(a.Symbols) < 2 || len(a.Symbols) > 4 {
			return fmt.Errorf("%w: orientation needs 2 to 4 directions, got %d",
				ErrInvalidAlphabet, len(a.Symbols))
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidAlphabet, a.Mode)
	}
	return nil
}

func (a Alphabet) distractorCount() int {
	if a.Mode == ModeOrientation {
		return len(a.Symbols) - 1
	}
	return MultipleChoiceOptions - 1
}

// Stimulus is a single round's question. It is never mutated once built.
type Stimulus struct {
	LevelRank    int          `json:"levelRank"`
	Expected     string       `json:"expected"`
	Distractors  []string     `json:"distractors"`
	Options      []string     `json:"options"`
	Presentation Presentation `json:"presentation"`
}

// Accepts reports whether answer is one of the offered options.
func (s Stimulus) Accepts(answer string) bool {
	return slices.Contains(s.Options, answer)
}

func (s Stimulus) IsCorrect(answer string) bool {
	return answer == s.Expected
}

// Generator draws stimuli from an alphabet using an explicit random source.
type Generator struct {
	alphabet Alphabet
	rng      *rand.Rand
}

// NewGenerator validates the alphabet and binds it to rng.
func NewGenerator(alphabet Alphabet, rng *rand.Rand) (*Generator, error) {
	if err := alphabet.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("staircase: nil random source")
	}
	return &Generator{alphabet: alphabet, rng: rng}, nil
}

// RoundSource returns the deterministic random source for one round of one run
// of a seeded session.
func RoundSource(seed uint64, run, round int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(run)<<32|uint64(uint32(round))))
}

// Next builds a fresh stimulus for level.
func (g *Generator) Next(level Level) Stimulus {
	symbols := g.alphabet.Symbols
	expected := symbols[g.rng.IntN(len(symbols))]

	pool := make([]string, 0, len(symbols)-1)
	for _, s := range symbols {
		if s != expected {
			pool = append(pool, s)
		}
	}
	distractors := g.draw(pool, g.alphabet.distractorCount())

	var options []string
	if g.alphabet.Mode == ModeOrientation {
		options = slices.Clone(symbols)
	} else {
		all := append([]string{expected}, distractors...)
		options = g.draw(all, len(all))
	}

	presentation := level.Presentation
	if rot, ok := g.alphabet.Rotation[expected]; ok {
		presentation.Rotation = rot
	}

	return Stimulus{
		LevelRank:    level.Rank,
		Expected:     expected,
		Distractors:  distractors,
		Options:      options,
		Presentation: presentation,
	}
}

// draw picks n items without replacement, removing each pick from a shrinking pool.
func (g *Generator) draw(items []string, n int) []string {
	pool := slices.Clone(items)
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := g.rng.IntN(len(pool))
		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return out
}
