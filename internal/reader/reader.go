// Package reader provides core RSVP (Rapid Serial Visual Presentation) speed
// reading logic: a word cursor over a parsed book, with sentence and chapter
// navigation and WPM-based pacing.
package reader

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/skimreader/skim/internal/parse"
)

// Reader holds the state for an RSVP speed reading session.
type Reader struct {
	Words          []string
	SentenceStarts []int
	CurrentIndex   int
	WPM            int
	Paused         bool
	LastArrowPress time.Time

	Chapters       []parse.Chapter
	ChapterBreaks  []int
	CurrentChapter int
}

// New creates a session over raw text with no chapter information.
func New(text string, wpm int) *Reader {
	words := strings.Fields(text)
	return &Reader{
		Words:          words,
		SentenceStarts: FindSentenceStarts(words),
		WPM:            wpm,
	}
}

// FromBook creates a session over a parsed book, re-tokenizing its content
// into the word stream the playback loop advances over.
func FromBook(b *parse.Book, wpm int) *Reader {
	r := New(b.Content, wpm)
	r.Chapters = b.Metadata.Chapters
	r.ChapterBreaks = b.ChapterBreaks
	r.updateCurrentChapter()
	return r
}

// FindSentenceStarts returns indices of words that start sentences.
func FindSentenceStarts(words []string) []int {
	starts := []int{0}
	for i, word := range words {
		if len(word) > 0 {
			last := word[len(word)-1]
			if last == '.' || last == '!' || last == '?' {
				if i+1 < len(words) {
					starts = append(starts, i+1)
				}
			}
		}
	}
	return starts
}

// ORPIndex returns the Optimal Recognition Point for a word: the rune
// position the eye should fixate on for fastest recognition.
func ORPIndex(word string) int {
	length := utf8.RuneCountInString(word)
	switch {
	case length <= 1:
		return 0
	case length <= 5:
		return 1
	}
	return length / 3
}

// Delay returns the duration to display each word at the current WPM.
func (r *Reader) Delay() time.Duration {
	return time.Duration(60.0/float64(r.WPM)*1000) * time.Millisecond
}

// CurrentWord returns the word at the cursor.
func (r *Reader) CurrentWord() string {
	if r.CurrentIndex >= 0 && r.CurrentIndex < len(r.Words) {
		return r.Words[r.CurrentIndex]
	}
	return ""
}

// Progress returns the 1-based cursor position and total word count.
func (r *Reader) Progress() (current, total int) {
	return r.CurrentIndex + 1, len(r.Words)
}

// Fraction returns reading progress in [0, 1].
func (r *Reader) Fraction() float64 {
	if len(r.Words) == 0 {
		return 0
	}
	return float64(r.CurrentIndex+1) / float64(len(r.Words))
}

// Advance moves to the next word. Returns true if there are more words.
func (r *Reader) Advance() bool {
	if r.CurrentIndex < len(r.Words)-1 {
		r.CurrentIndex++
		r.updateCurrentChapter()
		return true
	}
	return false
}

// AtEnd returns true if the cursor is at the last word.
func (r *Reader) AtEnd() bool {
	return r.CurrentIndex >= len(r.Words)-1
}

// JumpToPrevSentence moves to the start of the previous sentence.
func (r *Reader) JumpToPrevSentence() {
	for i := len(r.SentenceStarts) - 1; i >= 0; i-- {
		if r.SentenceStarts[i] < r.CurrentIndex {
			r.JumpTo(r.SentenceStarts[i])
			return
		}
	}
	r.JumpTo(0)
}

// JumpToNextSentence moves to the start of the next sentence.
func (r *Reader) JumpToNextSentence() {
	for _, start := range r.SentenceStarts {
		if start > r.CurrentIndex {
			r.JumpTo(start)
			return
		}
	}
	if len(r.Words) > 0 {
		r.JumpTo(len(r.Words) - 1)
	}
}

// JumpTo moves the cursor to a word index, clamping to the word stream.
func (r *Reader) JumpTo(wordIndex int) {
	if len(r.Words) == 0 {
		return
	}
	if wordIndex < 0 {
		wordIndex = 0
	}
	if wordIndex >= len(r.Words) {
		wordIndex = len(r.Words) - 1
	}
	r.CurrentIndex = wordIndex
	r.updateCurrentChapter()
}

// JumpToChapter moves the cursor to the start of chapter i.
func (r *Reader) JumpToChapter(i int) {
	if i >= 0 && i < len(r.Chapters) {
		r.JumpTo(r.Chapters[i].Index)
	}
}

// NextChapter moves to the start of the chapter after the current one.
func (r *Reader) NextChapter() {
	r.JumpToChapter(r.CurrentChapter + 1)
}

// PrevChapter moves to the start of the current chapter, or the previous one
// when already at a chapter start.
func (r *Reader) PrevChapter() {
	if r.CurrentChapter >= 0 && r.CurrentChapter < len(r.Chapters) &&
		r.CurrentIndex == r.Chapters[r.CurrentChapter].Index {
		r.JumpToChapter(r.CurrentChapter - 1)
		return
	}
	r.JumpToChapter(r.CurrentChapter)
}

// CurrentChapterTitle returns the title of the chapter under the cursor.
func (r *Reader) CurrentChapterTitle() string {
	if r.CurrentChapter >= 0 && r.CurrentChapter < len(r.Chapters) {
		return r.Chapters[r.CurrentChapter].Title
	}
	return ""
}

// updateCurrentChapter derives the chapter ordinal from the word cursor.
func (r *Reader) updateCurrentChapter() {
	for i := len(r.Chapters) - 1; i >= 0; i-- {
		if r.CurrentIndex >= r.Chapters[i].Index {
			r.CurrentChapter = i
			return
		}
	}
	r.CurrentChapter = 0
}
