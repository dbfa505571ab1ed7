// Package visiontest defines the staircase eye tests offered by the app.
package visiontest

import (
	"errors"
	"fmt"
	"slices"

	"eyecare_backend/pkg/staircase"
)

// Kind identifies a test type.
type Kind string

const (
	KindVisualAcuity Kind = "visual_acuity"
	KindTumblingE    Kind = "tumbling_e"
	KindContrast     Kind = "contrast"
	KindNearVision   Kind = "near_vision"
)

var ErrUnknownTest = errors.New("unknown vision test")

// Definition is everything a test type supplies to the staircase engine.
type Definition struct {
	Kind         Kind               `json:"kind" yaml:"kind"`
	Name         string             `json:"name" yaml:"name"`
	Instructions string             `json:"instructions" yaml:"instructions"`
	Alphabet     staircase.Alphabet `json:"alphabet" yaml:"alphabet"`
	Levels       []staircase.Level  `json:"levels" yaml:"levels"`

	machine *staircase.Machine
}

// Machine returns the staircase machine bound to this definition's ladder.
func (d *Definition) Machine() *staircase.Machine {
	return d.machine
}

var sloanLetters = []string{"C", "D", "H", "K", "N", "O", "R", "S", "V", "Z"}

// Snellen denominators at 20 ft; optotype height is 5 arc-minutes at 20/20.
var snellen = []struct {
	label string
	size  float64
}{
	{"20/200", 50}, {"20/100", 25}, {"20/70", 17.5}, {"20/50", 12.5},
	{"20/40", 10}, {"20/30", 7.5}, {"20/25", 6.25}, {"20/20", 5},
}

func snellenSteps() []staircase.Step {
	steps := make([]staircase.Step, len(snellen))
	for i, s := range snellen {
		steps[i] = staircase.Step{Label: s.label, Presentation: staircase.Presentation{Size: s.size, Contrast: 1}}
	}
	return steps
}

func contrastSteps() []staircase.Step {
	levels := []struct {
		label    string
		contrast float64
	}{
		{"100%", 1}, {"50%", 0.5}, {"25%", 0.25}, {"12.5%", 0.125},
		{"6%", 0.06}, {"3%", 0.03}, {"1.5%", 0.015}, {"0.8%", 0.008},
	}
	steps := make([]staircase.Step, len(levels))
	for i, l := range levels {
		// letters stay at 20/200 size so only contrast varies
		steps[i] = staircase.Step{Label: l.label, Presentation: staircase.Presentation{Size: 50, Contrast: l.contrast}}
	}
	return steps
}

func nearVisionSteps() []staircase.Step {
	points := []float64{36, 24, 18, 14, 12, 10, 8, 6, 5}
	steps := make([]staircase.Step, len(points))
	for i, p := range points {
		steps[i] = staircase.Step{Label: fmt.Sprintf("N%g", p), Presentation: staircase.Presentation{Size: p, Contrast: 1}}
	}
	return steps
}

var catalog = []*Definition{
	mustDefine(KindVisualAcuity, "Visual acuity",
		"Cover one eye and sit at arm's length. Pick the letter you see.",
		staircase.Alphabet{Mode: staircase.ModeMultipleChoice, Symbols: sloanLetters},
		snellenSteps()),
	mustDefine(KindTumblingE, "Tumbling E",
		"Cover one eye. Choose the direction the open side of the E points to.",
		staircase.Alphabet{
			Mode:     staircase.ModeOrientation,
			Symbols:  []string{"up", "right", "down", "left"},
			Rotation: map[string]float64{"right": 0, "down": 90, "left": 180, "up": 270},
		},
		snellenSteps()),
	mustDefine(KindContrast, "Contrast sensitivity",
		"Cover one eye. Letters fade a little each round; pick the one you see.",
		staircase.Alphabet{Mode: staircase.ModeMultipleChoice, Symbols: sloanLetters},
		contrastSteps()),
	mustDefine(KindNearVision, "Near vision",
		"Hold the screen at reading distance and pick the digit shown.",
		staircase.Alphabet{Mode: staircase.ModeMultipleChoice, Symbols: []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}},
		nearVisionSteps()),
}

func mustDefine(kind Kind, name, instructions string, alphabet staircase.Alphabet, steps []staircase.Step) *Definition {
	ladder := staircase.MustLadder(steps...)
	m, err := staircase.NewMachine(ladder, alphabet)
	if err != nil {
		panic(fmt.Sprintf("visiontest %s: %v", kind, err))
	}
	return &Definition{
		Kind:         kind,
		Name:         name,
		Instructions: instructions,
		Alphabet:     alphabet,
		Levels:       ladder.Levels(),
		machine:      m,
	}
}

// clone copies d so callers cannot reach the catalog's slices. The machine
// is shared; it exposes no mutators.
func (d *Definition) clone() *Definition {
	c := *d
	c.Alphabet = d.Alphabet.Clone()
	c.Levels = slices.Clone(d.Levels)
	return &c
}

// All returns copies of the definitions in display order.
func All() []*Definition {
	out := make([]*Definition, len(catalog))
	for i, d := range catalog {
		out[i] = d.clone()
	}
	return out
}

// Lookup returns a copy of the definition for kind.
func Lookup(kind Kind) (*Definition, error) {
	for _, d := range catalog {
		if d.Kind == kind {
			return d.clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTest, kind)
}
