// Package plate renders Ishihara-style colour-vision plates: a disc of
// non-overlapping dots where the dots inside a seven-segment digit use a
// figure palette and the rest a ground palette.
package plate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

var ErrInvalidDigit = errors.New("plate digit must be between 0 and 9")

const (
	size      = 400.0
	radius    = 190.0
	thickness = 0.22

	minDot       = 3.0
	maxDot       = 9.0
	targetDots   = 900
	maxPlacement = 20000
)

var (
	figurePalette = []string{"#d9553b", "#e07b39", "#c9463d", "#e8a33d"}
	groundPalette = []string{"#7fa650", "#9bbf6a", "#5e8c3a", "#b5c77a"}
)

// digit box inside the plate
var box = struct{ x0, y0, x1, y1 float64 }{130, 90, 270, 310}

type rect struct{ x0, y0, x1, y1 float64 }

// segments in unit box coordinates
var segments = map[byte]rect{
	'a': {0, 0, 1, thickness},
	'b': {1 - thickness, 0, 1, 0.5},
	'c': {1 - thickness, 0.5, 1, 1},
	'd': {0, 1 - thickness, 1, 1},
	'e': {0, 0.5, thickness, 1},
	'f': {0, 0, thickness, 0.5},
	'g': {0, 0.5 - thickness/2, 1, 0.5 + thickness/2},
}

var digitSegments = [10]string{
	"abcdef", "bc", "abged", "abgcd", "fgbc", "afgcd", "afgecd", "abc", "abcdefg", "abcdfg",
}

type dot struct {
	x, y, r float64
	fill    string
}

// InDigit reports whether plate coordinate (x, y) lies on a lit segment of digit.
func InDigit(digit int, x, y float64) bool {
	if digit < 0 || digit > 9 {
		return false
	}
	u := (x - box.x0) / (box.x1 - box.x0)
	v := (y - box.y0) / (box.y1 - box.y0)
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return false
	}
	for _, s := range []byte(digitSegments[digit]) {
		seg := segments[s]
		if u >= seg.x0 && u <= seg.x1 && v >= seg.y0 && v <= seg.y1 {
			return true
		}
	}
	return false
}

// Render draws digit as an SVG document. The same digit and seed always give
// the same bytes.
func Render(digit int, seed uint64) ([]byte, error) {
	if digit < 0 || digit > 9 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDigit, digit)
	}
	rng := rand.New(rand.NewPCG(seed, uint64(digit)))
	dots := scatter(rng, digit)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`, size, size, size, size)
	fmt.Fprintf(&b, `<circle cx="%g" cy="%g" r="%g" fill="#fbf8f0"/>`, size/2, size/2, radius)
	for _, d := range dots {
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`, d.x, d.y, d.r, d.fill)
	}
	b.WriteString(`</svg>`)
	return []byte(b.String()), nil
}

func scatter(rng *rand.Rand, digit int) []dot {
	dots := make([]dot, 0, targetDots)
	c := size / 2
	for attempt := 0; attempt < maxPlacement && len(dots) < targetDots; attempt++ {
		r := minDot + rng.Float64()*(maxDot-minDot)
		x := c + (rng.Float64()*2-1)*radius
		y := c + (rng.Float64()*2-1)*radius
		if math.Hypot(x-c, y-c)+r > radius {
			continue
		}
		if overlaps(dots, x, y, r) {
			continue
		}
		palette := groundPalette
		if InDigit(digit, x, y) {
			palette = figurePalette
		}
		dots = append(dots, dot{x: x, y: y, r: r, fill: palette[rng.IntN(len(palette))]})
	}
	return dots
}

func overlaps(dots []dot, x, y, r float64) bool {
	for _, d := range dots {
		if math.Hypot(d.x-x, d.y-y) < d.r+r+1 {
			return true
		}
	}
	return false
}
