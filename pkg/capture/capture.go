package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrCanceled means the picker closed without producing an image.
	ErrCanceled = errors.New("capture canceled")
	// ErrBusy means a capture is already in flight.
	ErrBusy = errors.New("capture already in progress")
	// ErrNoImage means an explicit image path does not exist.
	ErrNoImage = errors.New("image not found")
)

// Source is where an image comes from.
type Source int

const (
	SourceCamera Source = iota
	SourceSnapshot
	SourceGallery
)

func (s Source) String() string {
	switch s {
	case SourceCamera:
		return "camera"
	case SourceSnapshot:
		return "snapshot"
	case SourceGallery:
		return "gallery"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// ParseSource accepts the names returned by Source.String.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(s) {
	case "camera":
		return SourceCamera, nil
	case "snapshot":
		return SourceSnapshot, nil
	case "gallery", "file":
		return SourceGallery, nil
	}
	return 0, fmt.Errorf("unknown capture source %q", s)
}

// Picker produces exactly one local image reference per call, or
// ErrCanceled.
type Picker interface {
	Pick(ctx context.Context) (string, error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context) (string, error)

func (f PickerFunc) Pick(ctx context.Context) (string, error) { return f(ctx) }

// File picks an existing image from disk, the terminal's photo library.
// An empty path or an empty file counts as a canceled pick; a path that
// does not exist is ErrNoImage.
type File string

func (f File) Pick(ctx context.Context) (string, error) {
	if f == "" {
		return "", ErrCanceled
	}
	path, err := filepath.Abs(string(f))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", path, ErrNoImage)
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return "", ErrCanceled
	}
	return path, nil
}

// Captured picks the file a camera command was asked to write. A command
// that exits without writing it canceled the capture.
func Captured(path string) Picker {
	return PickerFunc(func(ctx context.Context) (string, error) {
		uri, err := File(path).Pick(ctx)
		if errors.Is(err, ErrNoImage) {
			return "", ErrCanceled
		}
		return uri, err
	})
}
