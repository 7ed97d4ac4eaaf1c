// Package clipboard copies rendered output to the system clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
)

const errorWriteClipboardFormat = "writing to clipboard: %w"

var errClipboardUnsupported = errors.New("no clipboard utility available")

// Copier copies textual data to a clipboard.
type Copier interface {
	Copy(text string) error
}

// CopierFunc adapts a function into a Copier.
type CopierFunc func(text string) error

// Copy invokes the underlying function.
func (function CopierFunc) Copy(text string) error {
	return function(text)
}

// SystemCopier implements Copier using github.com/atotto/clipboard.
type SystemCopier struct{}

// NewSystemCopier constructs a Copier backed by the operating system clipboard.
func NewSystemCopier() *SystemCopier {
	return &SystemCopier{}
}

// Copy writes text to the system clipboard.
func (copier *SystemCopier) Copy(text string) error {
	if clipboard.Unsupported {
		return errClipboardUnsupported
	}
	if writeError := clipboard.WriteAll(text); writeError != nil {
		return fmt.Errorf(errorWriteClipboardFormat, writeError)
	}
	return nil
}

// CapturingWriter forwards writes to a destination and keeps a copy for the clipboard.
type CapturingWriter struct {
	destination io.Writer
	captured    bytes.Buffer
}

// NewCapturingWriter wraps destination.
func NewCapturingWriter(destination io.Writer) *CapturingWriter {
	return &CapturingWriter{destination: destination}
}

// Write records data and forwards it to the destination.
func (writer *CapturingWriter) Write(data []byte) (int, error) {
	writer.captured.Write(data)
	return writer.destination.Write(data)
}

// Captured returns everything written so far.
func (writer *CapturingWriter) Captured() string {
	return writer.captured.String()
}

// CopyTo hands everything written so far to copier.
func (writer *CapturingWriter) CopyTo(copier Copier) error {
	return copier.Copy(writer.captured.String())
}

var _ Copier = (*SystemCopier)(nil)
