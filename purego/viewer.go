package purego

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Viewer opens images in the desktop's default image viewer
type Viewer struct {
	command []string
}

// NewViewer picks the opener for the current OS
func NewViewer() *Viewer {
	return &Viewer{command: viewerCommand(runtime.GOOS)}
}

func viewerCommand(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	default:
		return []string{"xdg-open"}
	}
}

// Show hands the image to the viewer and returns once it is launched
func (v *Viewer) Show(ctx context.Context, path string) error {
	args := append(append([]string{}, v.command[1:]...), path)
	cmd := exec.CommandContext(ctx, v.command[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s with %s: %w", path, v.command[0], err)
	}
	// reap the opener without blocking the caption loop
	go cmd.Wait()
	return nil
}
