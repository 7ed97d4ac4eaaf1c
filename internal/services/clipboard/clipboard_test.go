package clipboard_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/projtree/internal/services/clipboard"
)

func TestCapturingWriterForwardsAndCopies(t *testing.T) {
	var destination bytes.Buffer
	writer := clipboard.NewCapturingWriter(&destination)

	_, writeError := fmt.Fprintln(writer, "├── a.txt")
	require.NoError(t, writeError)
	_, writeError = fmt.Fprintln(writer, "└── b/")
	require.NoError(t, writeError)

	var copied string
	copyError := writer.CopyTo(clipboard.CopierFunc(func(text string) error {
		copied = text
		return nil
	}))
	require.NoError(t, copyError)
	assert.Equal(t, "├── a.txt\n└── b/\n", destination.String())
	assert.Equal(t, destination.String(), copied)
	assert.Equal(t, copied, writer.Captured())
}

func TestCapturingWriterPropagatesCopierErrors(t *testing.T) {
	writer := clipboard.NewCapturingWriter(&bytes.Buffer{})
	copierError := errors.New("clipboard busy")
	assert.ErrorIs(t, writer.CopyTo(clipboard.CopierFunc(func(string) error { return copierError })), copierError)
}
