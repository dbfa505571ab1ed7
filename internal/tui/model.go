// Package tui runs a staircase vision test in the terminal.
package tui

import (
	"fmt"
	"strings"

	"eyecare_backend/pkg/staircase"
	"eyecare_backend/pkg/visiontest"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// glyphs draws the tumbling E for each direction its open side faces.
var glyphs = map[string]string{
	"right": "E",
	"left":  "Ǝ",
	"up":    "Ш",
	"down":  "M",
}

type Options struct {
	Eye     string
	NoColor bool
}

// Model is a bubbletea model over one staircase session.
type Model struct {
	def     *visiontest.Definition
	state   staircase.State
	opts    Options
	cursor  int
	notice  string
	results []staircase.Result
}

func New(def *visiontest.Definition, seed uint64, opts Options) Model {
	return Model{def: def, state: staircase.NewState(seed), opts: opts}
}

// State returns the current session snapshot.
func (m Model) State() staircase.State {
	return m.state
}

// Results returns every finished run, oldest first.
func (m Model) Results() []staircase.Result {
	return m.results
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	}

	switch m.state.Phase {
	case staircase.PhaseInstructions:
		if key.String() == "enter" || key.String() == " " {
			m = m.apply(staircase.Start{})
		}
	case staircase.PhaseRunning:
		return m.updateRunning(key), nil
	case staircase.PhaseFinished:
		switch key.String() {
		case "r":
			m = m.apply(staircase.Restart{})
		case "enter":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) updateRunning(key tea.KeyMsg) Model {
	options := m.state.Stimulus.Options
	switch s := key.String(); s {
	case "left", "h", "up", "k", "shift+tab":
		m.cursor = (m.cursor + len(options) - 1) % len(options)
	case "right", "l", "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(options)
	case "enter", " ":
		m = m.answer(options[m.cursor])
	default:
		if len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(options) {
			m = m.answer(options[s[0]-'1'])
		}
	}
	return m
}

func (m Model) answer(value string) Model {
	before := len(m.state.History)
	m = m.apply(staircase.Answer{Value: value})
	if len(m.state.History) > before {
		if m.state.History[before].Correct {
			m.notice = "Correct"
		} else {
			m.notice = "Missed"
		}
	}
	return m
}

func (m Model) apply(ev staircase.Event) Model {
	next, err := m.def.Machine().Transition(m.state, ev)
	if err != nil {
		m.notice = err.Error()
		return m
	}
	m.state = next
	m.cursor = 0
	m.notice = ""
	if next.Phase == staircase.PhaseFinished && next.Result != nil {
		m.results = append(m.results, *next.Result)
	}
	return m
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	optionStyle = lipgloss.NewStyle().Padding(0, 1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 4)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m Model) View() string {
	var b strings.Builder
	title := m.def.Name
	if m.opts.Eye != "" {
		title += " (" + m.opts.Eye + " eye)"
	}
	b.WriteString(m.style(titleStyle).Render(title))
	b.WriteString("\n\n")

	switch m.state.Phase {
	case staircase.PhaseInstructions:
		b.WriteString(m.def.Instructions)
		b.WriteString("\n\n")
		b.WriteString(m.style(mutedStyle).Render("enter: start  q: quit"))
	case staircase.PhaseRunning:
		b.WriteString(m.viewRound())
	case staircase.PhaseFinished:
		b.WriteString(m.viewResult())
	}

	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(m.notice)
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewRound() string {
	stim := m.state.Stimulus
	level, _ := m.def.Machine().Ladder().LevelAt(stim.LevelRank)

	header := fmt.Sprintf("Round %d  level %s  %s", len(m.state.History)+1, level.Label, m.trail())
	optotype := m.style(boxStyle).Render(m.renderOptotype(stim))

	opts := make([]string, len(stim.Options))
	for i, o := range stim.Options {
		label := fmt.Sprintf("%d %s", i+1, o)
		if i == m.cursor {
			opts[i] = m.style(cursorStyle).Render(label)
		} else {
			opts[i] = m.style(optionStyle).Render(label)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.style(mutedStyle).Render(header),
		optotype,
		lipgloss.JoinHorizontal(lipgloss.Top, opts...),
		"",
		m.style(mutedStyle).Render("arrows: move  enter or 1-4: answer  q: quit"),
	)
}

// renderOptotype draws the symbol with its contrast applied as grey on white.
func (m Model) renderOptotype(stim *staircase.Stimulus) string {
	symbol := stim.Expected
	if m.def.Alphabet.Mode == staircase.ModeOrientation {
		symbol = glyphs[stim.Expected]
	}
	contrast := stim.Presentation.Contrast
	if contrast <= 0 || contrast > 1 {
		contrast = 1
	}
	grey := int(255 * (1 - contrast))
	style := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", grey, grey, grey))).
		Background(lipgloss.Color("#ffffff")).
		Padding(0, 1)
	return m.style(style).Render(symbol)
}

func (m Model) trail() string {
	var b strings.Builder
	for _, a := range m.state.History {
		if a.Correct {
			b.WriteString(m.style(passStyle).Render("+"))
		} else {
			b.WriteString(m.style(failStyle).Render("x"))
		}
	}
	return b.String()
}

func (m Model) viewResult() string {
	res := m.state.Result
	var line string
	switch {
	case res.BelowMinimum:
		line = "Below the easiest level. Consider seeing an eye care professional."
	case res.Completed:
		line = fmt.Sprintf("Passed every level, finishing at %s.", res.FinalLabel)
	default:
		line = fmt.Sprintf("Last level passed: %s.", res.FinalLabel)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.style(boxStyle).Render(fmt.Sprintf("Result: %s", res.FinalLabel)),
		line,
		fmt.Sprintf("%d rounds  %s", len(res.History), m.trail()),
		"",
		m.style(mutedStyle).Render("r: retake  enter or q: quit"),
	)
}

func (m Model) style(s lipgloss.Style) lipgloss.Style {
	if m.opts.NoColor {
		return lipgloss.NewStyle()
	}
	return s
}
