// Package parse turns EPUB, PDF and plain-text files into a flat,
// chapter-annotated word stream for RSVP playback.
package parse

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Chapter marks the start of a detected or synthetic section. Index is a
// word-count offset into Book.Content after whitespace splitting.
type Chapter struct {
	Title string
	Index int
}

// Metadata describes the parsed document.
type Metadata struct {
	Title    string
	Author   string
	Chapters []Chapter
}

// Book is the normalized result of a parse: concatenated text plus the
// word-offset timeline of its sections. ChapterBreaks always starts with 0
// and is non-decreasing.
type Book struct {
	Metadata      Metadata
	Content       string
	ChapterBreaks []int
}

// WordCount returns the number of whitespace-separated tokens in Content.
func (b *Book) WordCount() int {
	return len(strings.Fields(b.Content))
}

const unknownAuthor = "Unknown Author"

// Sentinel errors for the extractor failure modes. All parse failures are
// terminal for the attempt; there is no partial result.
var (
	ErrInvalidContainer = errors.New("epub container descriptor missing or invalid")
	ErrInvalidPackage   = errors.New("epub package document unreadable")
	ErrEmptyDocument    = errors.New("no extractable text in document")
)

// UnsupportedFormatError reports a file extension outside the supported set.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return "unsupported format: file has no extension"
	}
	return fmt.Sprintf("unsupported format: .%s", e.Ext)
}

// Format defines a file format parser.
type Format interface {
	Name() string
	Extensions() []string
	Parse(filename string) (*Book, error)
}

var registry []Format

// Register adds a format parser to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Detect returns the registered format matching the filename's extension.
// Matching is case-insensitive; a missing or unknown extension yields an
// *UnsupportedFormatError.
func Detect(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f, nil
			}
		}
	}
	return nil, &UnsupportedFormatError{Ext: strings.TrimPrefix(ext, ".")}
}

// File parses the named file with the format matching its extension.
func File(filename string) (*Book, error) {
	f, err := Detect(filename)
	if err != nil {
		return nil, err
	}
	return f.Parse(filename)
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

// titleFromFilename derives a fallback title from a file name.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
