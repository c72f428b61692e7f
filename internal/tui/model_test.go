package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/shellwin/internal/ipc"
	"github.com/1broseidon/shellwin/layershell"
)

type fakeDaemon struct {
	state     layershell.Config
	layered   bool
	statusErr error
	calls     []string
}

func (f *fakeDaemon) SetLayer(l layershell.Layer) error {
	f.calls = append(f.calls, "layer "+l.String())
	f.state.Layer = l
	return nil
}

func (f *fakeDaemon) SetAnchor(a layershell.Anchor) error {
	f.calls = append(f.calls, "anchor+ "+a.String())
	f.state.Anchor = f.state.Anchor.With(a)
	return nil
}

func (f *fakeDaemon) ClearAnchor(a layershell.Anchor) error {
	f.calls = append(f.calls, "anchor- "+a.String())
	f.state.Anchor = f.state.Anchor.Without(a)
	return nil
}

func (f *fakeDaemon) SetExclusiveZone(z layershell.ExclusiveZone) error {
	f.calls = append(f.calls, "zone "+z.String())
	f.state.ExclusiveZone = z
	return nil
}

func (f *fakeDaemon) SetMargin(m layershell.Margin) error {
	f.calls = append(f.calls, "margin "+m.String())
	f.state.Margin = m
	return nil
}

func (f *fakeDaemon) SetKeyboardInteractivity(k layershell.KeyboardInteractivity) error {
	f.calls = append(f.calls, "keyboard "+k.String())
	f.state.KeyboardInteractivity = k
	return nil
}

func (f *fakeDaemon) GetState() (*ipc.StateData, error) {
	if !f.layered {
		return &ipc.StateData{}, nil
	}
	st := f.state
	return &ipc.StateData{LayerSurface: true, State: &st}, nil
}

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &ipc.StatusData{Backend: "wayland", DaemonRunning: true}, nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds keys to m, running any resulting command synchronously.
func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = next.(model)
		if cmd != nil {
			if msg, ok := cmd().(stateMsg); ok {
				next, _ = m.Update(msg)
				m = next.(model)
			}
		}
	}
	return m
}

func loaded(t *testing.T, d *fakeDaemon) model {
	t.Helper()
	m := newModel(d)
	next, _ := m.Update(m.Init()())
	return next.(model)
}

func TestTunerAdjustsFields(t *testing.T) {
	d := &fakeDaemon{layered: true, state: layershell.DefaultConfig(layershell.LayerBottom)}
	m := loaded(t, d)
	if !m.connected || m.backend != "wayland" {
		t.Fatalf("model not connected: %+v", m)
	}

	m = press(t, m, "right")
	m = press(t, m, "down", "T", "L", "T")
	m = press(t, m, "down", "right", "right")
	m = press(t, m, "down", "right", "down", "down", "down", "left")
	m = press(t, m, "down", "right")

	want := []string{
		"layer top",
		"anchor+ top",
		"anchor+ left",
		"anchor- top",
		"zone 1",
		"zone 2",
		"margin 1,0,0,0",
		"margin 1,0,0,-1",
		"keyboard exclusive",
	}
	if got := strings.Join(d.calls, ","); got != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", d.calls, want)
	}
	if m.state != d.state {
		t.Fatalf("model state %s, daemon state %s", m.state, d.state)
	}
}

func TestTunerZoneShortcuts(t *testing.T) {
	d := &fakeDaemon{layered: true}
	m := loaded(t, d)
	m = press(t, m, "down", "down", "i", "n", "left")

	want := "zone ignore,zone none,zone ignore"
	if got := strings.Join(d.calls, ","); got != want {
		t.Fatalf("calls = %q, want %q", got, want)
	}
}

func TestTunerOnToplevelSendsNothing(t *testing.T) {
	d := &fakeDaemon{}
	m := loaded(t, d)
	m = press(t, m, "right", "T")
	if len(d.calls) != 0 {
		t.Fatalf("calls = %v, want none", d.calls)
	}
	if !strings.Contains(m.View(), "not a layer surface") {
		t.Fatalf("view does not explain the toplevel:\n%s", m.View())
	}
}

func TestTunerWithoutDaemon(t *testing.T) {
	m := newModel(&fakeDaemon{statusErr: errors.New("failed to connect to daemon")})
	if m.connected {
		t.Fatal("model should not be connected")
	}
	if !strings.Contains(m.View(), "daemon not running") {
		t.Fatalf("view missing status:\n%s", m.View())
	}
}

func TestTunerQuit(t *testing.T) {
	m := newModel(&fakeDaemon{})
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
