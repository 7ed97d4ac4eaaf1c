package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tyemirov/projtree/internal/types"
)

const (
	xmlHeader = xml.Header

	errorEncodeJSONFormat = "encoding json report: %w"
	errorEncodeXMLFormat  = "encoding xml report: %w"
	errorEncodeYAMLFormat = "encoding yaml report: %w"
	errorWriteFormat      = "writing report: %w"
)

// RenderJSON writes report as an indented JSON document.
func RenderJSON(writer io.Writer, report types.TreeReport) error {
	encoded, encodeError := json.MarshalIndent(report, indentPrefix, indentSpacer)
	if encodeError != nil {
		return fmt.Errorf(errorEncodeJSONFormat, encodeError)
	}
	return writeDocument(writer, encoded)
}

// RenderXML writes report as an indented XML document with the standard header.
func RenderXML(writer io.Writer, report types.TreeReport) error {
	encoded, encodeError := xml.MarshalIndent(report, indentPrefix, indentSpacer)
	if encodeError != nil {
		return fmt.Errorf(errorEncodeXMLFormat, encodeError)
	}
	return writeDocument(writer, append([]byte(xmlHeader), encoded...))
}

// RenderYAML writes report as a YAML document.
func RenderYAML(writer io.Writer, report types.TreeReport) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(len(indentSpacer))
	if encodeError := encoder.Encode(report); encodeError != nil {
		return fmt.Errorf(errorEncodeYAMLFormat, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(errorEncodeYAMLFormat, closeError)
	}
	return nil
}

func writeDocument(writer io.Writer, encoded []byte) error {
	if _, writeError := writer.Write(append(encoded, '\n')); writeError != nil {
		return fmt.Errorf(errorWriteFormat, writeError)
	}
	return nil
}
