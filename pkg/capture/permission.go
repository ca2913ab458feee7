package capture

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

type PermissionState int

const (
	PermissionUndetermined PermissionState = iota
	PermissionGranted
	PermissionDenied
)

// Permission gates the camera sources. In prompt mode the user is asked at
// most once; the answer sticks until Set is called again.
type Permission struct {
	mu    sync.Mutex
	state PermissionState
	ask   func() bool
}

// NewPermission builds a gate from the camera.permission setting: granted,
// denied or prompt. ask is called for the single prompt; when nil, an
// undetermined permission counts as denied.
func NewPermission(mode string, ask func() bool) (*Permission, error) {
	p := &Permission{ask: ask}
	switch strings.ToLower(mode) {
	case "granted", "":
		p.state = PermissionGranted
	case "denied":
		p.state = PermissionDenied
	case "prompt":
		p.state = PermissionUndetermined
	default:
		return nil, fmt.Errorf("camera.permission must be granted, denied or prompt, not %q", mode)
	}
	return p, nil
}

// Check returns nil when the camera may be used and ErrPermissionDenied
// otherwise.
func (p *Permission) Check() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PermissionUndetermined && p.ask != nil {
		if p.ask() {
			p.state = PermissionGranted
		} else {
			p.state = PermissionDenied
		}
	}
	if p.state == PermissionGranted {
		return nil
	}
	return ErrPermissionDenied
}

// Set records an explicit answer, e.g. from the "grant permission" action.
func (p *Permission) Set(granted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if granted {
		p.state = PermissionGranted
	} else {
		p.state = PermissionDenied
	}
}

func (p *Permission) State() PermissionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// TerminalPrompt asks a yes/no question on out and reads the answer from in.
func TerminalPrompt(in io.Reader, out io.Writer) func() bool {
	return func() bool {
		fmt.Fprint(out, "Allow foodfriend to use the camera? [y/N] ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}
