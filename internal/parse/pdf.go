package parse

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Document is the read capability the PDF extractor needs from a decoded
// document. go-fitz satisfies it directly; tests inject fakes.
type Document interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	Metadata() map[string]string
}

// pdfChapterInterval is the synthetic section size: a "Page N" marker is
// recorded on page 1 and every pdfChapterInterval'th page.
const pdfChapterInterval = 20

// PDFFormat implements Format for PDF files, extracting text page by page
// with go-fitz (MuPDF).
type PDFFormat struct{}

func init() {
	Register(&PDFFormat{})
}

func (f *PDFFormat) Name() string         { return "PDF" }
func (f *PDFFormat) Extensions() []string { return []string{".pdf"} }

func (f *PDFFormat) Parse(filename string) (*Book, error) {
	doc, err := fitz.New(filename)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	return parsePDF(doc, filename)
}

// parsePDF walks pages in order, collapsing each page's text runs into the
// running content and synthesizing "Page N" section markers. Pages whose
// text cannot be read contribute nothing; a document with no extractable
// text at all fails with ErrEmptyDocument.
func parsePDF(doc Document, filename string) (*Book, error) {
	title := titleFromFilename(filename)
	author := unknownAuthor
	if meta := doc.Metadata(); meta != nil {
		if t := strings.TrimSpace(meta["title"]); t != "" {
			title = t
		}
		if a := strings.TrimSpace(meta["author"]); a != "" {
			author = a
		}
	}

	var (
		content   strings.Builder
		chapters  []Chapter
		breaks    = []int{0}
		wordCount int
	)

	numPages := doc.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		// Marker goes in before the page's own words are counted, so a
		// section starts at the first word of its page. Note page 1 gets a
		// marker but no chapterBreaks entry; only multiples of the interval
		// push a break. Historical behavior, kept as-is.
		if pageNum == 1 || pageNum%pdfChapterInterval == 0 {
			chapters = append(chapters, Chapter{
				Title: fmt.Sprintf("Page %d", pageNum),
				Index: wordCount,
			})
			if pageNum%pdfChapterInterval == 0 {
				breaks = append(breaks, wordCount)
			}
		}

		pageText, err := doc.Text(pageNum - 1)
		if err != nil {
			continue
		}
		pageText = collapseSpace(pageText)
		if pageText == "" {
			continue
		}
		content.WriteString(pageText)
		content.WriteString(" ")
		wordCount += len(strings.Fields(pageText))
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}

	return &Book{
		Metadata: Metadata{
			Title:    title,
			Author:   author,
			Chapters: chapters,
		},
		Content:       text,
		ChapterBreaks: breaks,
	}, nil
}
