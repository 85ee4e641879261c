// Package state persists per-file reading progress between sessions.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	stateFileName = "reading_positions.json"
	hashBytes     = 8192 // First 8KB identifies the file
)

// Position records where a file was left off and how fast it was being read.
type Position struct {
	WordIndex int `json:"word_index"`
	WPM       int `json:"wpm,omitempty"`
}

// Store manages persistent reading positions keyed by content hash.
type Store struct {
	path string
	data map[string]Position
	mu   sync.RWMutex
}

// NewStore creates or loads the store under XDG_STATE_HOME/skim.
func NewStore() (*Store, error) {
	dir := stateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	s := &Store{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]Position),
	}
	if err := s.load(); err != nil {
		// Non-fatal, start empty
		s.data = make(map[string]Position)
	}
	return s, nil
}

// stateDir returns XDG_STATE_HOME/skim or ~/.local/state/skim.
func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "skim")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "skim")
}

// ComputeHash generates a content hash identifying a file independent of its
// path, so moved or renamed books keep their position.
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	sum := sha256.Sum256(buf[:n])
	return hex.EncodeToString(sum[:16]), nil
}

// Get returns the saved position for a hash, if any.
func (s *Store) Get(hash string) (Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.data[hash]
	return pos, ok
}

// Set saves the position for a hash.
func (s *Store) Set(hash string, pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[hash] = pos
	return s.save()
}

// Clear removes the saved position for a hash.
func (s *Store) Clear(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, hash)
	return s.save()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
