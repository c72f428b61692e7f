package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/shellwin/internal/ipc"
	"github.com/1broseidon/shellwin/layershell"
)

func printSetUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: shellwin set <property> <value>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Properties:")
	fmt.Fprintln(w, "  layer <background|bottom|top|overlay>")
	fmt.Fprintln(w, "  anchor <edges>              e.g. top|left (adds to current edges)")
	fmt.Fprintln(w, "  clear-anchor <edges>")
	fmt.Fprintln(w, "  zone <none|ignore|PIXELS>")
	fmt.Fprintln(w, "  margin TOP RIGHT BOTTOM LEFT (or TOP,RIGHT,BOTTOM,LEFT)")
	fmt.Fprintln(w, "  keyboard <none|exclusive|on_demand>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Requests are queued on the daemon's event loop; use 'shellwin state' to read them back.")
}

// setter is the daemon side of runSet.
type setter interface {
	SetLayer(layershell.Layer) error
	SetAnchor(layershell.Anchor) error
	ClearAnchor(layershell.Anchor) error
	SetExclusiveZone(layershell.ExclusiveZone) error
	SetMargin(layershell.Margin) error
	SetKeyboardInteractivity(layershell.KeyboardInteractivity) error
}

func runSet(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printSetUsage(os.Stdout)
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	if err := applySet(ipc.NewClient(), args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func applySet(d setter, prop string, values []string) error {
	if prop != "margin" && len(values) != 1 {
		return fmt.Errorf("set %s takes exactly one value", prop)
	}
	switch prop {
	case "layer":
		l, err := layershell.ParseLayer(values[0])
		if err != nil {
			return err
		}
		return d.SetLayer(l)
	case "anchor", "clear-anchor":
		a, err := layershell.ParseAnchor(values[0])
		if err != nil {
			return err
		}
		if prop == "anchor" {
			return d.SetAnchor(a)
		}
		return d.ClearAnchor(a)
	case "zone":
		z, err := layershell.ParseExclusiveZone(values[0])
		if err != nil {
			return err
		}
		return d.SetExclusiveZone(z)
	case "margin":
		m, err := parseMargin(values)
		if err != nil {
			return err
		}
		return d.SetMargin(m)
	case "keyboard":
		k, err := layershell.ParseKeyboardInteractivity(values[0])
		if err != nil {
			return err
		}
		return d.SetKeyboardInteractivity(k)
	default:
		return fmt.Errorf("unknown property %q", prop)
	}
}

// parseMargin accepts four values, either as separate arguments or as one
// comma-separated argument, in top, right, bottom, left order.
func parseMargin(values []string) (layershell.Margin, error) {
	if len(values) == 1 {
		values = strings.Split(values[0], ",")
	}
	if len(values) != 4 {
		return layershell.Margin{}, fmt.Errorf("margin needs 4 values (top right bottom left), got %d", len(values))
	}
	var side [4]int32
	for i, v := range values {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return layershell.Margin{}, fmt.Errorf("invalid margin %q: %w", v, err)
		}
		side[i] = int32(n)
	}
	return layershell.NewMargin(side[0], side[1], side[2], side[3]), nil
}

func runState(args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: shellwin state")
		if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
			return 0
		}
		return 2
	}
	data, err := ipc.NewClient().GetState()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !data.LayerSurface || data.State == nil {
		fmt.Println("layer_surface: false")
		return 0
	}
	st := data.State
	fmt.Println("layer_surface:          true")
	fmt.Printf("layer:                  %s\n", st.Layer)
	fmt.Printf("anchor:                 %s\n", st.Anchor)
	fmt.Printf("exclusive_zone:         %s\n", st.ExclusiveZone)
	fmt.Printf("margin:                 %s\n", st.Margin)
	fmt.Printf("size:                   %s\n", st.Size)
	fmt.Printf("keyboard_interactivity: %s\n", st.KeyboardInteractivity)
	return 0
}
