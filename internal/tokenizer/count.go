package tokenizer

import (
	"errors"
	"io/fs"
	"unicode/utf8"

	"github.com/tyemirov/projtree/internal/utils"
)

var errNilCounter = errors.New("nil tokenizer counter")

// CountResult captures the outcome of counting a file or byte slice.
type CountResult struct {
	Tokens  int
	Counted bool
}

// CountBytes estimates tokens for the provided data using counter. Binary and non-UTF-8 data is not counted.
func CountBytes(counter Counter, data []byte) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errNilCounter
	}
	if len(data) == 0 {
		return CountResult{Counted: true}, nil
	}
	if utils.IsBinary(data) || !utf8.Valid(data) {
		return CountResult{Counted: false}, nil
	}
	tokens, err := counter.CountString(string(data))
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}

// CountFile reads name from fileSystem and estimates its token count.
func CountFile(counter Counter, fileSystem fs.FS, name string) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errNilCounter
	}
	data, readErr := fs.ReadFile(fileSystem, name)
	if readErr != nil {
		return CountResult{}, readErr
	}
	return CountBytes(counter, data)
}
