package projects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFile_SizeLimit(t *testing.T) {
	ok := strings.Repeat("a", MaxFileSize)
	assert.NoError(t, validateFile("main.go", ok))

	tooBig := strings.Repeat("a", MaxFileSize+1)
	err := validateFile("main.go", tooBig)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestValidateFile_FilenameLength(t *testing.T) {
	name := strings.Repeat("x", MaxFilenameLength)
	assert.NoError(t, validateFile(name, "content"))

	long := strings.Repeat("x", MaxFilenameLength+1)
	assert.ErrorIs(t, validateFile(long, "content"), ErrFilenameTooLong)
}

func TestDetectMimeType(t *testing.T) {
	assert.Contains(t, detectMimeType("index.html"), "text/html")
	assert.Contains(t, detectMimeType("data.json"), "application/json")
	// Unknown extensions fall back to plain text
	assert.Equal(t, "text/plain", detectMimeType("Makefile"))
}

func TestFileSummary_ExcludesContent(t *testing.T) {
	f := &File{Filename: "app.ts", Content: "const x = 1;", Size: 12, MimeType: "text/plain"}
	s := f.Summary()
	assert.Equal(t, "app.ts", s.Filename)
	assert.Equal(t, 12, s.Size)
}
