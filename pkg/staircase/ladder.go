package staircase

import "fmt"

// Presentation holds the rendering parameters of a level. The engine never
// interprets them; they are handed to whatever draws the stimulus.
type Presentation struct {
	Size     float64 `json:"size,omitempty" yaml:"size,omitempty"`
	Contrast float64 `json:"contrast,omitempty" yaml:"contrast,omitempty"`
	Rotation float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// Level is one rung of a ladder. Rank 0 is the easiest.
type Level struct {
	Rank         int          `json:"rank" yaml:"rank"`
	Label        string       `json:"label" yaml:"label"`
	Presentation Presentation `json:"presentation" yaml:"presentation"`
}

// Step describes a level before it is ranked.
type Step struct {
	Label        string
	Presentation Presentation
}

// Ladder is an immutable, ordered list of difficulty levels.
type Ladder struct {
	levels []Level
}

// NewLadder ranks the steps in the order given, easiest first.
func NewLadder(steps ...Step) (*Ladder, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyLadder
	}
	seen := make(map[string]bool, len(steps))
	levels := make([]Level, len(steps))
	for i, st := range steps {
		if st.Label == "" {
			return nil, fmt.Errorf("step %d: empty label", i)
		}
		if seen[st.Label] {
			return nil, fmt.Errorf("step %d: duplicate label %q", i, st.Label)
		}
		seen[st.Label] = true
		levels[i] = Level{Rank: i, Label: st.Label, Presentation: st.Presentation}
	}
	return &Ladder{levels: levels}, nil
}

// MustLadder is NewLadder for statically defined ladders.
func MustLadder(steps ...Step) *Ladder {
	l, err := NewLadder(steps...)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Ladder) Len() int {
	return len(l.levels)
}

func (l *Ladder) LastRank() int {
	return len(l.levels) - 1
}

// LevelAt returns the level with the given rank or an *OutOfRangeError.
func (l *Ladder) LevelAt(rank int) (Level, error) {
	if rank < 0 || rank >= len(l.levels) {
		return Level{}, &OutOfRangeError{Rank: rank, Len: len(l.levels)}
	}
	return l.levels[rank], nil
}

// Levels returns a copy of all levels in rank order.
func (l *Ladder) Levels() []Level {
	out := make([]Level, len(l.levels))
	copy(out, l.levels)
	return out
}
