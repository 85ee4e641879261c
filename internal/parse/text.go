package parse

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// syntheticSectionWords is the fallback section size when a plain-text file
// has no recognizable headings.
const syntheticSectionWords = 2000

var partHeadingRe = regexp.MustCompile(`(?i)^(part|book|section)\s+\d+`)

// TextFormat implements Format for plain-text files.
type TextFormat struct{}

func init() {
	Register(&TextFormat{})
}

func (f *TextFormat) Name() string         { return "Text" }
func (f *TextFormat) Extensions() []string { return []string{".txt"} }

func (f *TextFormat) Parse(filename string) (*Book, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	return ParseText(string(data), filename), nil
}

// ParseText scans lines for chapter headings, tracking the word offset each
// heading lands on. When no headings are found the document is cut into
// fixed-size synthetic sections instead. Content is the original text,
// trimmed only.
func ParseText(content, filename string) *Book {
	var (
		chapters  []Chapter
		breaks    = []int{0}
		wordCount int
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && isChapterHeading(trimmed) {
			chapters = append(chapters, Chapter{Title: trimmed, Index: wordCount})
			breaks = append(breaks, wordCount)
		}
		wordCount += len(strings.Fields(trimmed))
	}

	if len(chapters) == 0 {
		for n := 0; n*syntheticSectionWords < wordCount; n++ {
			chapters = append(chapters, Chapter{
				Title: fmt.Sprintf("Section %d", n+1),
				Index: n * syntheticSectionWords,
			})
			if n > 0 {
				breaks = append(breaks, n*syntheticSectionWords)
			}
		}
	}

	return &Book{
		Metadata: Metadata{
			Title:    titleFromFilename(filename),
			Author:   unknownAuthor,
			Chapters: chapters,
		},
		Content:       strings.TrimSpace(content),
		ChapterBreaks: breaks,
	}
}

// isChapterHeading classifies a trimmed, non-empty line as a chapter heading.
// The all-caps rule is a content-based guess and deliberately loose; it lives
// here so the heuristic can change without touching offset bookkeeping.
func isChapterHeading(line string) bool {
	if strings.HasPrefix(strings.ToLower(line), "chapter ") {
		return true
	}
	if partHeadingRe.MatchString(line) {
		return true
	}
	n := utf8.RuneCountInString(line)
	return n > 3 && n < 50 && line == strings.ToUpper(line)
}
