// Package tui is an interactive tuner for the daemon's layer surface.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/shellwin/internal/ipc"
	"github.com/1broseidon/shellwin/layershell"
)

// Daemon is the subset of the IPC client the tuner drives.
type Daemon interface {
	SetLayer(layershell.Layer) error
	SetAnchor(layershell.Anchor) error
	ClearAnchor(layershell.Anchor) error
	SetExclusiveZone(layershell.ExclusiveZone) error
	SetMargin(layershell.Margin) error
	SetKeyboardInteractivity(layershell.KeyboardInteractivity) error
	GetState() (*ipc.StateData, error)
	GetStatus() (*ipc.StatusData, error)
}

// Run starts the tuner and blocks until the user quits.
func Run(daemon Daemon) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	_, err := tea.NewProgram(newModel(daemon), tea.WithAltScreen()).Run()
	return err
}
