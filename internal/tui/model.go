package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/shellwin/layershell"
)

type field int

const (
	fieldLayer field = iota
	fieldAnchor
	fieldExclusiveZone
	fieldMarginTop
	fieldMarginRight
	fieldMarginBottom
	fieldMarginLeft
	fieldKeyboard
	fieldCount
)

func (f field) String() string {
	switch f {
	case fieldLayer:
		return "Layer"
	case fieldAnchor:
		return "Anchor"
	case fieldExclusiveZone:
		return "Exclusive zone"
	case fieldMarginTop:
		return "Margin top"
	case fieldMarginRight:
		return "Margin right"
	case fieldMarginBottom:
		return "Margin bottom"
	case fieldMarginLeft:
		return "Margin left"
	case fieldKeyboard:
		return "Keyboard"
	default:
		return "?"
	}
}

// stateMsg carries a GET_STATE result.
type stateMsg struct {
	layered bool
	state   layershell.Config
	err     error
}

// model is the root bubbletea model for the tuner.
type model struct {
	daemon Daemon

	connected bool
	backend   string
	layered   bool
	state     layershell.Config

	cursor  field
	lastErr string

	width  int
	height int
}

func newModel(daemon Daemon) model {
	m := model{daemon: daemon}
	if status, err := daemon.GetStatus(); err == nil {
		m.connected = true
		m.backend = status.Backend
	} else {
		m.lastErr = err.Error()
	}
	return m
}

func (m model) refresh() tea.Msg {
	data, err := m.daemon.GetState()
	if err != nil {
		return stateMsg{err: err}
	}
	msg := stateMsg{layered: data.LayerSurface}
	if data.State != nil {
		msg.state = *data.State
	}
	return msg
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return m.refresh
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.connected = true
		m.layered = msg.layered
		m.state = msg.state
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			m.cursor = (m.cursor - 1 + fieldCount) % fieldCount
			return m, nil
		case "down", "j", "tab":
			m.cursor = (m.cursor + 1) % fieldCount
			return m, nil
		case "g":
			return m, m.refresh
		case "left", "h":
			return m.adjust(-1)
		case "right", "l":
			return m.adjust(1)
		case "T":
			return m.toggleEdge(layershell.AnchorTop)
		case "B":
			return m.toggleEdge(layershell.AnchorBottom)
		case "L":
			return m.toggleEdge(layershell.AnchorLeft)
		case "R":
			return m.toggleEdge(layershell.AnchorRight)
		case "n":
			if m.cursor == fieldExclusiveZone {
				return m.apply(func() error { return m.daemon.SetExclusiveZone(layershell.ExclusiveZoneNone) })
			}
		case "i":
			if m.cursor == fieldExclusiveZone {
				return m.apply(func() error { return m.daemon.SetExclusiveZone(layershell.ExclusiveZoneIgnoreOthers) })
			}
		}
	}
	return m, nil
}

// adjust moves the value under the cursor by delta.
func (m model) adjust(delta int32) (tea.Model, tea.Cmd) {
	st := m.state
	switch m.cursor {
	case fieldLayer:
		next := layershell.Layer((int32(st.Layer) + delta + 4) % 4)
		return m.apply(func() error { return m.daemon.SetLayer(next) })
	case fieldAnchor:
		m.lastErr = "use T/B/L/R to toggle edges"
		return m, nil
	case fieldExclusiveZone:
		raw := max(st.ExclusiveZone.Raw()+delta, -1)
		return m.apply(func() error { return m.daemon.SetExclusiveZone(layershell.ExclusiveZoneFromRaw(raw)) })
	case fieldMarginTop:
		st.Margin.Top += delta
	case fieldMarginRight:
		st.Margin.Right += delta
	case fieldMarginBottom:
		st.Margin.Bottom += delta
	case fieldMarginLeft:
		st.Margin.Left += delta
	case fieldKeyboard:
		next := layershell.KeyboardInteractivity((int32(st.KeyboardInteractivity) + delta + 3) % 3)
		return m.apply(func() error { return m.daemon.SetKeyboardInteractivity(next) })
	}
	margin := st.Margin
	return m.apply(func() error { return m.daemon.SetMargin(margin) })
}

func (m model) toggleEdge(edge layershell.Anchor) (tea.Model, tea.Cmd) {
	if m.state.Anchor.Has(edge) {
		return m.apply(func() error { return m.daemon.ClearAnchor(edge) })
	}
	return m.apply(func() error { return m.daemon.SetAnchor(edge) })
}

// apply sends one setter and re-reads the state once it went through.
func (m model) apply(send func() error) (tea.Model, tea.Cmd) {
	if !m.layered {
		m.lastErr = "surface is not a layer surface"
		return m, nil
	}
	if err := send(); err != nil {
		m.lastErr = err.Error()
		m.connected = false
		return m, nil
	}
	m.lastErr = ""
	return m, m.refresh
}

func (m model) value(f field) string {
	st := m.state
	switch f {
	case fieldLayer:
		return st.Layer.String()
	case fieldAnchor:
		return st.Anchor.String()
	case fieldExclusiveZone:
		return st.ExclusiveZone.String()
	case fieldMarginTop:
		return fmt.Sprint(st.Margin.Top)
	case fieldMarginRight:
		return fmt.Sprint(st.Margin.Right)
	case fieldMarginBottom:
		return fmt.Sprint(st.Margin.Bottom)
	case fieldMarginLeft:
		return fmt.Sprint(st.Margin.Left)
	case fieldKeyboard:
		eff := st.KeyboardInteractivity.Effective(st.Layer)
		if eff != st.KeyboardInteractivity {
			return fmt.Sprintf("%s (acts as %s)", st.KeyboardInteractivity, eff)
		}
		return st.KeyboardInteractivity.String()
	}
	return ""
}

// View implements tea.Model.
func (m model) View() string {
	width := m.width
	if width == 0 {
		width = 60
	}

	rows := make([]string, 0, fieldCount)
	if m.layered {
		for f := field(0); f < fieldCount; f++ {
			label := labelStyle.Render(f.String())
			value := m.value(f)
			if f == m.cursor {
				rows = append(rows, selectedStyle.Render("> "+label+value))
			} else {
				rows = append(rows, rowStyle.Render("  "+label+value))
			}
		}
	} else {
		rows = append(rows, mutedStyle.Render("The daemon window is not a layer surface."))
	}

	parts := []string{renderStatusBar(m.connected, m.backend, width), lipgloss.JoinVertical(lipgloss.Left, rows...)}
	if m.lastErr != "" {
		parts = append(parts, errorStyle.Render(m.lastErr))
	}
	parts = append(parts, renderHelpBar(width))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
