// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/keymaster/internal/model"
	"github.com/verte-zerg/keymaster/internal/session"
	"github.com/verte-zerg/keymaster/internal/stats"
)

type screen int

const (
	screenSetup screen = iota
	screenTyping
	screenResults
)

const (
	timeStep   = 10
	plotHeight = 6
)

// tickMsg drives the countdown of one timed session.
type tickMsg struct {
	at      time.Time
	session string
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	engine *session.Engine
	log    zerolog.Logger

	difficulty model.Difficulty
	mode       model.Mode
	timeLimit  int

	screen screen
	input  textinput.Model
	keys   keyMap
	help   help.Model
	errMsg string

	width  int
	height int
}

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")).Bold(true)
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F44336"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F44336"))
	resultsStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFC107")).
			Padding(1, 2)
)

// NewModel constructs a typing TUI model over engine. cfg preselects the setup screen.
func NewModel(engine *session.Engine, cfg model.Config, log zerolog.Logger) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "type the word"
	input.CharLimit = 64

	timeLimit := cfg.TimeLimit
	if timeLimit < model.MinTimeLimit || timeLimit > model.MaxTimeLimit {
		timeLimit = model.DefaultTimeLimit
	}
	difficulty := cfg.Difficulty
	if !difficulty.Valid() {
		difficulty = model.DifficultyMedium
	}
	mode := cfg.Mode
	if !mode.Valid() {
		mode = model.ModeTimed
	}

	return &Model{
		engine:     engine,
		log:        log,
		difficulty: difficulty,
		mode:       mode,
		timeLimit:  timeLimit,
		screen:     screenSetup,
		input:      input,
		keys:       newKeyMap(),
		help:       help.New(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.screen {
		case screenSetup:
			return m, m.updateSetup(msg)
		case screenTyping:
			return m, m.updateTyping(msg)
		case screenResults:
			return m, m.updateResults(msg)
		}
	}
	if m.screen == screenTyping {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateSetup(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Difficulty):
		m.difficulty = m.difficulty.Next()
	case key.Matches(msg, m.keys.Mode):
		if m.mode == model.ModeTimed {
			m.mode = model.ModeFreestyle
		} else {
			m.mode = model.ModeTimed
		}
	case key.Matches(msg, m.keys.More):
		if m.mode == model.ModeTimed {
			m.timeLimit = min(model.MaxTimeLimit, m.timeLimit+timeStep)
		}
	case key.Matches(msg, m.keys.Less):
		if m.mode == model.ModeTimed {
			m.timeLimit = max(model.MinTimeLimit, m.timeLimit-timeStep)
		}
	case key.Matches(msg, m.keys.Start):
		return m.start()
	}
	return nil
}

func (m *Model) start() tea.Cmd {
	if err := m.engine.Configure(m.difficulty, m.mode, m.timeLimit); err != nil {
		m.log.Warn().Err(err).Msg("configuration rejected")
		m.errMsg = err.Error()
		return nil
	}
	if err := m.engine.Start(); err != nil {
		m.log.Warn().Err(err).Msg("failed to start session")
		m.errMsg = err.Error()
		return nil
	}
	m.errMsg = ""
	m.screen = screenTyping
	m.input.Reset()
	cmds := []tea.Cmd{m.input.Focus(), textinput.Blink}
	if m.mode == model.ModeTimed {
		cmds = append(cmds, tickCmd(m.engine.Snapshot().SessionID))
	}
	return tea.Batch(cmds...)
}

func (m *Model) updateTyping(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Stop) {
		if err := m.engine.End(); err != nil {
			m.log.Warn().Err(err).Msg("failed to end session")
		}
		m.showResults()
		return nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	value := m.input.Value()
	if value == before {
		return cmd
	}
	if err := m.engine.SubmitInput(value); err != nil {
		m.log.Debug().Err(err).Msg("input ignored")
		return cmd
	}
	// A completed word clears the engine's input; mirror it in the field.
	if snap := m.engine.Snapshot(); snap.UserInput != value {
		m.input.SetValue(snap.UserInput)
	}
	return cmd
}

func (m *Model) updateResults(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Again) {
		m.engine.Reset()
		m.input.Reset()
		m.screen = screenSetup
	}
	return nil
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	snap := m.engine.Snapshot()
	if snap.State != model.StateRunning || snap.SessionID != msg.session {
		return nil
	}
	if err := m.engine.Tick(msg.at); err != nil {
		m.log.Warn().Err(err).Msg("tick rejected")
		return nil
	}
	if m.engine.Snapshot().State == model.StateEnded {
		m.showResults()
		return nil
	}
	return tickCmd(msg.session)
}

func (m *Model) showResults() {
	m.input.Blur()
	m.screen = screenResults
}

func tickCmd(sessionID string) tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{at: t, session: sessionID}
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.screen {
	case screenTyping:
		content = m.viewTyping()
	case screenResults:
		content = m.viewResults()
	default:
		content = m.viewSetup()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) viewSetup() string {
	lines := []string{
		titleStyle.Render("Keyboard Master"),
		"",
		option("Difficulty", string(m.difficulty)),
		option("Mode", string(m.mode)),
	}
	if m.mode == model.ModeTimed {
		lines = append(lines, option("Time limit", fmt.Sprintf("%d seconds", m.timeLimit)))
	}
	lines = append(lines, "", statusStyle.Render("Press enter to begin"))
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	lines = append(lines, "", m.help.ShortHelpView(m.keys.setupHelp()))
	return strings.Join(lines, "\n")
}

func (m *Model) viewTyping() string {
	snap := m.engine.Snapshot()
	lines := []string{
		renderWord(snap.CurrentWord, snap.UserInput, snap.Tags),
		"",
		m.input.View(),
		"",
		statusStyle.Render(renderStatus(snap)),
		"",
		m.help.ShortHelpView(m.keys.typingHelp()),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewResults() string {
	snap := m.engine.Snapshot()
	lines := []string{
		titleStyle.Render("Game Over!"),
		"",
		stats.Summary(snap.Result()),
	}
	if chart := renderTimeline(snap.Timeline, m.width); chart != "" {
		lines = append(lines, "", chart)
	}
	body := resultsStyle.Render(strings.Join(lines, "\n"))
	return body + "\n\n" + m.help.ShortHelpView(m.keys.resultsHelp())
}

func option(label, value string) string {
	return labelStyle.Render(label+": ") + valueStyle.Render(value)
}

// renderStatus formats the live metrics line shown under the word.
func renderStatus(snap session.Snapshot) string {
	timeLeft := "Practice Mode"
	if snap.RemainingSeconds != nil {
		timeLeft = fmt.Sprintf("Time Left: %ds", *snap.RemainingSeconds)
	}
	segments := []string{
		fmt.Sprintf("WPM: %d", snap.WPM),
		fmt.Sprintf("Accuracy: %d%%", snap.AccuracyPercent),
		timeLeft,
		fmt.Sprintf("Words: %d", snap.CompletedWords),
	}
	return strings.Join(segments, "  ")
}

func renderTimeline(samples []model.Sample, width int) string {
	values := stats.TimelineValues(samples)
	if len(values) < 2 {
		return ""
	}
	if width <= 0 {
		width = 60
	}
	plotWidth := min(stats.PlotWidthFor(width-8), len(values)*4)
	var buf bytes.Buffer
	if err := stats.PlotSeries(&buf, "WPM over time", []stats.Series{{Name: "WPM", Values: values}}, plotWidth, plotHeight); err != nil {
		return stats.Sparkline(values)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n" + stats.Sparkline(values)
}
