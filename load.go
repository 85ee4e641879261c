package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/skimreader/skim/internal/parse"
	"github.com/skimreader/skim/internal/reader"
	"github.com/skimreader/skim/internal/state"
)

// session bundles everything an entry point needs to start reading.
type session struct {
	Reader   *reader.Reader
	Store    *state.Store
	FileHash string
	Title    string
}

// loadFile parses a book file and restores any saved position.
func loadFile(filename string, cfg Config, wpm int, fresh bool) (*session, error) {
	book, err := parse.File(filename)
	if err != nil {
		return nil, err
	}

	s := &session{
		Reader: reader.FromBook(book, wpm),
		Title:  book.Metadata.Title,
	}

	store, err := state.NewStore()
	if err != nil {
		return s, nil
	}
	s.Store = store

	hash, err := state.ComputeHash(filename)
	if err != nil {
		return s, nil
	}
	s.FileHash = hash

	if !fresh {
		if pos, ok := store.Get(hash); ok {
			if pos.WordIndex > 0 && pos.WordIndex < len(s.Reader.Words) {
				s.Reader.JumpTo(pos.WordIndex)
			}
			if pos.WPM > 0 {
				s.Reader.WPM = cfg.clampWPM(pos.WPM)
			}
		}
	}
	return s, nil
}

// loadStdin reads piped text and treats it as a plain-text document. Stdin
// has no stable identity, so no position is persisted.
func loadStdin(wpm int) (*session, error) {
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, errors.New("no input provided; provide a file or pipe text to stdin")
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errors.New("no text to read")
	}

	book := parse.ParseText(string(data), "stdin")
	return &session{
		Reader: reader.FromBook(book, wpm),
		Title:  book.Metadata.Title,
	}, nil
}

// save writes the current reading position back to the store.
func (s *session) save() {
	if s.Store == nil || s.FileHash == "" {
		return
	}
	s.Store.Set(s.FileHash, state.Position{
		WordIndex: s.Reader.CurrentIndex,
		WPM:       s.Reader.WPM,
	})
}

// describeError turns a parse failure into the one-line message shown to the
// user before they pick another file.
func describeError(err error) string {
	var unsupported *parse.UnsupportedFormatError
	switch {
	case errors.As(err, &unsupported):
		return fmt.Sprintf("%v (supported: %s)", err, strings.Join(parse.SupportedFormats(), ", "))
	case errors.Is(err, parse.ErrInvalidContainer),
		errors.Is(err, parse.ErrInvalidPackage):
		return fmt.Sprintf("not a readable EPUB: %v", err)
	case errors.Is(err, parse.ErrEmptyDocument):
		return "no readable text in this document (scanned PDFs have no text layer)"
	}
	return err.Error()
}
