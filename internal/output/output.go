// Package output renders tree reports as raw text or structured documents.
package output

import (
	"fmt"
	"io"

	"github.com/tyemirov/projtree/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	errorUnsupportedFormat = "unsupported output format %q"
)

// Render writes report to writer in the requested format.
// Raw options only affect the raw format.
func Render(writer io.Writer, format string, report types.TreeReport, options RawOptions) error {
	switch format {
	case types.FormatRaw, "":
		return RenderRaw(writer, report, options)
	case types.FormatJSON:
		return RenderJSON(writer, report)
	case types.FormatXML:
		return RenderXML(writer, report)
	case types.FormatYAML:
		return RenderYAML(writer, report)
	default:
		return fmt.Errorf(errorUnsupportedFormat, format)
	}
}
