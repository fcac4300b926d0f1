package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-renderer/runtime"
	"github.com/wippyai/wasm-renderer/schema"
)

const defaultTick = 100 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err       error
	ctx       context.Context
	player    *runtime.Player
	filename  string
	output    string
	schema    schema.Schema
	inputs    []textinput.Model
	indices   []int
	overrides []*override
	interval  time.Duration
	frames    uint64
	focusIdx  int
	failed    bool
}

type tickMsg time.Time

type loadedMsg struct {
	err    error
	schema schema.Schema
}

type frameMsg struct {
	err    error
	output string
	frames uint64
	failed bool
}

func newInteractiveModel(ctx context.Context, player *runtime.Player, filename string, interval time.Duration, overrides []*override) *interactiveModel {
	if interval <= 0 {
		interval = defaultTick
	}
	return &interactiveModel{
		ctx:       ctx,
		player:    player,
		filename:  filename,
		interval:  interval,
		overrides: overrides,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.frame, m.tick())
}

func (m *interactiveModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// load reads the guest file and swaps it into the player. On failure the
// previous guest keeps running.
func (m *interactiveModel) load() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	sess, err := m.player.Load(m.ctx, data)
	if err != nil {
		return loadedMsg{err: err}
	}
	s := sess.Schema()
	if err := applyOverrides(m.player, s, m.overrides); err != nil {
		return loadedMsg{err: err, schema: s}
	}
	return loadedMsg{schema: s}
}

func (m *interactiveModel) frame() tea.Msg {
	out, err := m.player.Frame(m.ctx)
	if err != nil {
		return frameMsg{err: err}
	}
	frames, failed, _ := m.player.Status()
	return frameMsg{output: out, frames: frames, failed: failed}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab":
			if len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}
			return m, nil

		case "enter":
			m.err = m.applyInputs()
			return m, nil

		case "ctrl+r":
			if err := m.player.ResetOverrides(); err != nil {
				m.err = err
			}
			m.prepareInputs()
			return m, nil

		case "ctrl+l":
			return m, m.load
		}

	case tickMsg:
		return m, tea.Batch(m.frame, m.tick())

	case loadedMsg:
		m.err = msg.err
		if msg.schema != nil || msg.err == nil {
			m.schema = msg.schema
			m.prepareInputs()
		}
		return m, nil

	case frameMsg:
		if msg.err != nil {
			return m, nil
		}
		m.output = msg.output
		m.frames = msg.frames
		m.failed = msg.failed
		return m, nil
	}

	var cmds []tea.Cmd
	for i := range m.inputs {
		var cmd tea.Cmd
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// prepareInputs creates one input per overridable parameter. Time is
// driven by the clock and gets no input.
func (m *interactiveModel) prepareInputs() {
	m.inputs = nil
	m.indices = nil
	for i, p := range m.schema {
		if _, ok := p.(schema.Time); ok {
			continue
		}
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("p%d: ", i)
		ti.Placeholder = schema.Describe(p)
		ti.Width = 40
		m.inputs = append(m.inputs, ti)
		m.indices = append(m.indices, i)
	}
	m.focusIdx = 0
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

func (m *interactiveModel) applyInputs() error {
	for k, input := range m.inputs {
		value := strings.TrimSpace(input.Value())
		if value == "" {
			continue
		}
		idx := m.indices[k]
		if err := setArg(m.player, idx, value, schema.WitType(m.schema[idx])); err != nil {
			return fmt.Errorf("p%d: %w", idx, err)
		}
	}
	return nil
}

// setArg parses value as the parameter's WIT type and overrides it.
func setArg(target overrideSetter, index int, value string, t wit.Type) error {
	switch t.(type) {
	case wit.F32:
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return err
		}
		return target.SetF32(index, float32(v))
	case wit.S32:
		v, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return err
		}
		return target.SetI32(index, int32(v))
	default:
		return fmt.Errorf("%s parameters cannot be overridden", schema.WitTypeName(t))
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("WASM Renderer"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	if m.schema == nil && m.err == nil {
		b.WriteString("Loading guest...")
		return b.String()
	}

	b.WriteString(funcStyle.Render(schema.Signature(runtime.CallbackName, m.schema)))
	b.WriteString("\n\n")

	b.WriteString(frameStyle.Render(m.output))
	b.WriteString("\n")
	status := fmt.Sprintf("frame %d", m.frames)
	if m.failed {
		status += errorStyle.Render(" (guest failed, output frozen)")
	}
	b.WriteString(typeStyle.Render(status))
	b.WriteString("\n\n")

	for k, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString(" ")
		b.WriteString(typeStyle.Render(schema.WitTypeName(schema.WitType(m.schema[m.indices[k]]))))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab next field • enter apply • ctrl+r reset • ctrl+l reload • esc quit"))
	return b.String()
}

func runInteractive(ctx context.Context, rt *runtime.Runtime, cfg Config, data []byte, overrides []*override) error {
	player := runtime.NewPlayer(rt)
	defer player.Close(ctx)

	// Fail fast on an invalid guest before taking over the terminal.
	sess, err := player.Load(ctx, data)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.WasmFile, err)
	}
	if err := applyOverrides(player, sess.Schema(), overrides); err != nil {
		return err
	}

	m := newInteractiveModel(ctx, player, cfg.WasmFile, cfg.Interval, overrides)
	m.schema = sess.Schema()
	m.prepareInputs()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
