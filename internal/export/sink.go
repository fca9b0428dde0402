package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/term"
)

// DirSink writes artifacts into a directory.
type DirSink struct {
	Dir string
}

func (s DirSink) Deliver(_ context.Context, a Artifact) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(s.Dir, a.Filename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, a.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

// ErrBinaryToTerminal is returned when binary output would be written to a terminal.
var ErrBinaryToTerminal = errors.New("refusing to write binary output to a terminal; use --out or redirect stdout")

// WriterSink writes the artifact body to W. Only text artifacts may go to
// an interactive terminal.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Deliver(_ context.Context, a Artifact) error {
	if f, ok := s.W.(*os.File); ok && term.IsTerminal(int(f.Fd())) && !isText(a.ContentType) {
		return ErrBinaryToTerminal
	}
	if _, err := s.W.Write(a.Data); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.Filename, err)
	}
	return nil
}

func isText(contentType string) bool {
	return contentType == FormatCSV.ContentType()
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, a Artifact) error

func (f SinkFunc) Deliver(ctx context.Context, a Artifact) error { return f(ctx, a) }
