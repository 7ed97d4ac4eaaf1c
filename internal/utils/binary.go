package utils

import (
	"io"
	"io/fs"
	"unicode/utf8"
)

// sniffLength defines the maximum number of bytes read when detecting binary content.
const sniffLength = 8000

// IsBinary reports whether the provided byte slice appears to contain binary data.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if !utf8.Valid(data) {
		return true
	}
	for _, byteValue := range data {
		if byteValue == 0 {
			return true
		}
	}
	return false
}

// IsFileBinary reads up to sniffLength bytes from name within fileSystem and determines
// if the content appears to be binary. Unreadable files are reported as text.
func IsFileBinary(fileSystem fs.FS, name string) bool {
	fileHandle, openError := fileSystem.Open(name)
	if openError != nil {
		return false
	}
	defer fileHandle.Close()

	buffer := make([]byte, sniffLength)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	if readError != nil && readError != io.EOF && readError != io.ErrUnexpectedEOF {
		return false
	}
	return IsBinary(buffer[:bytesRead])
}
