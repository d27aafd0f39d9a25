// Package clipboard copies generated BibTeX to the system clipboard through
// the platform's clipboard utility.
package clipboard

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard utility is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// tool is a command that reads the text to copy from stdin.
type tool struct {
	name string
	args []string
}

// toolsByOS lists candidate utilities in order of preference.
var toolsByOS = map[string][]tool{
	"darwin": {{name: "pbcopy"}},
	"linux": {
		{name: "wl-copy"},
		{name: "xclip", args: []string{"-selection", "clipboard"}},
		{name: "xsel", args: []string{"--clipboard", "--input"}},
	},
	"windows": {{name: "clip"}},
}

var lookPath = exec.LookPath

// findTool returns the first installed utility for goos.
func findTool(goos string) (tool, bool) {
	for _, t := range toolsByOS[goos] {
		if _, err := lookPath(t.name); err == nil {
			return t, true
		}
	}
	return tool{}, false
}

// IsAvailable reports whether Copy can work on this system.
func IsAvailable() bool {
	_, ok := findTool(runtime.GOOS)
	return ok
}

// Copy places text on the system clipboard.
func Copy(ctx context.Context, text string) error {
	t, ok := findTool(runtime.GOOS)
	if !ok {
		return ErrClipboardUnavailable
	}
	cmd := exec.CommandContext(ctx, t.name, t.args...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
