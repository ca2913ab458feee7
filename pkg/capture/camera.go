package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/google/uuid"
)

// OutputPlaceholder is replaced with the target file in Camera.Command.
const OutputPlaceholder = "{output}"

// DefaultCameraCommand grabs one frame from the default webcam.
const DefaultCameraCommand = "ffmpeg -loglevel error -y -f video4linux2 -i /dev/video0 -frames:v 1 {output}"

// Camera runs an external capture command that writes one JPEG to
// {output}. Interactive captures (the live preview) get the terminal;
// snapshots run detached.
type Camera struct {
	Command     string
	Dir         string
	Interactive bool
	Permission  *Permission

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Prepare checks permission and builds the command without running it, so a
// caller that owns the terminal can hand it over. The returned path is
// where the image will land.
func (c *Camera) Prepare(ctx context.Context) (*exec.Cmd, string, error) {
	if c.Permission != nil {
		if err := c.Permission.Check(); err != nil {
			return nil, "", err
		}
	}
	command := c.Command
	if command == "" {
		command = DefaultCameraCommand
	}
	if !strings.Contains(command, OutputPlaceholder) {
		return nil, "", fmt.Errorf("camera command must contain %s", OutputPlaceholder)
	}

	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, "", err
	}
	out := filepath.Join(dir, "capture-"+uuid.NewString()+".jpg")

	cmd := exec.CommandContext(ctx, "sh", "-c", strings.ReplaceAll(command, OutputPlaceholder, shellQuote(out)))
	if c.Interactive {
		cmd.Stdin, cmd.Stdout, cmd.Stderr = c.Stdin, c.Stdout, c.Stderr
	}
	return cmd, out, nil
}

func (c *Camera) Pick(ctx context.Context) (string, error) {
	cmd, out, err := c.Prepare(ctx)
	if err != nil {
		return "", err
	}
	utils.Log.Debugf("running capture command: %s", cmd.String())

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ErrCanceled
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && c.Interactive {
			// The user quit the preview.
			return "", ErrCanceled
		}
		return "", fmt.Errorf("failed to execute capture command: %v", err)
	}
	return Captured(out).Pick(ctx)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
