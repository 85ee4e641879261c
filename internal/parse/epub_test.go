package parse

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
)

// fakeArchive serves EPUB entries from memory.
type fakeArchive map[string]string

func (a fakeArchive) ReadFile(name string) ([]byte, error) {
	if data, ok := a[path.Clean(name)]; ok {
		return []byte(data), nil
	}
	return nil, fmt.Errorf("no such entry: %s", name)
}

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func opfWith(metadata, manifest, spine string) string {
	return `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0">
  <metadata>` + metadata + `</metadata>
  <manifest>` + manifest + `</manifest>
  <spine>` + spine + `</spine>
</package>`
}

func TestParseEPUB(t *testing.T) {
	t.Run("single chapter", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": testContainer,
			"OEBPS/content.opf": opfWith(
				`<dc:title>Test Book</dc:title><dc:creator>Jane Doe</dc:creator>`,
				`<item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>`,
				`<itemref idref="ch1"/>`,
			),
			"OEBPS/chapter1.xhtml": `<h1>Intro</h1><p>Hello world</p>`,
		}

		book, err := parseEPUB(ar, "test.epub")
		if err != nil {
			t.Fatalf("parseEPUB: %v", err)
		}
		if book.Metadata.Title != "Test Book" {
			t.Errorf("Title = %q, want Test Book", book.Metadata.Title)
		}
		if book.Metadata.Author != "Jane Doe" {
			t.Errorf("Author = %q, want Jane Doe", book.Metadata.Author)
		}
		if len(book.Metadata.Chapters) != 1 {
			t.Fatalf("got %d chapters, want 1", len(book.Metadata.Chapters))
		}
		if ch := book.Metadata.Chapters[0]; ch.Title != "Intro" || ch.Index != 0 {
			t.Errorf("chapter = %+v, want {Intro 0}", ch)
		}
		if !strings.Contains(book.Content, "Hello world") {
			t.Errorf("Content = %q, want it to contain \"Hello world\"", book.Content)
		}
		checkBreaks(t, book)
	})

	t.Run("metadata defaults", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": testContainer,
			"OEBPS/content.opf": opfWith(
				``,
				`<item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>`,
				`<itemref idref="ch1"/>`,
			),
			"OEBPS/chapter1.xhtml": `<p>some words</p>`,
		}

		book, err := parseEPUB(ar, "mybook.epub")
		if err != nil {
			t.Fatalf("parseEPUB: %v", err)
		}
		if book.Metadata.Title != "mybook" {
			t.Errorf("Title = %q, want mybook", book.Metadata.Title)
		}
		if book.Metadata.Author != "Unknown Author" {
			t.Errorf("Author = %q, want Unknown Author", book.Metadata.Author)
		}
	})

	t.Run("spine order and offsets", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": testContainer,
			"OEBPS/content.opf": opfWith(
				`<dc:title>Two Parts</dc:title>`,
				`<item id="b" href="b.xhtml" media-type="application/xhtml+xml"/>
				 <item id="a" href="a.xhtml" media-type="application/xhtml+xml"/>`,
				`<itemref idref="a"/><itemref idref="b"/>`,
			),
			"OEBPS/a.xhtml": `<h1>First</h1><p>one two three</p>`,
			"OEBPS/b.xhtml": `<h1>Second</h1><p>four five</p>`,
		}

		book, err := parseEPUB(ar, "two.epub")
		if err != nil {
			t.Fatalf("parseEPUB: %v", err)
		}
		chapters := book.Metadata.Chapters
		if len(chapters) != 2 {
			t.Fatalf("got %d chapters, want 2", len(chapters))
		}
		if chapters[0].Title != "First" || chapters[0].Index != 0 {
			t.Errorf("chapters[0] = %+v, want {First 0}", chapters[0])
		}
		// "First one two three" contributes 4 words
		if chapters[1].Title != "Second" || chapters[1].Index != 4 {
			t.Errorf("chapters[1] = %+v, want {Second 4}", chapters[1])
		}
		if want := []int{0, 4, 7}; !equalInts(book.ChapterBreaks, want) {
			t.Errorf("ChapterBreaks = %v, want %v", book.ChapterBreaks, want)
		}
		checkBreaks(t, book)
	})

	t.Run("spine id missing from manifest is skipped", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": testContainer,
			"OEBPS/content.opf": opfWith(
				``,
				`<item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>`,
				`<itemref idref="ghost"/><itemref idref="ch1"/>`,
			),
			"OEBPS/chapter1.xhtml": `<h1>Only</h1><p>words here</p>`,
		}

		book, err := parseEPUB(ar, "test.epub")
		if err != nil {
			t.Fatalf("parseEPUB: %v", err)
		}
		if len(book.Metadata.Chapters) != 1 {
			t.Fatalf("got %d chapters, want 1", len(book.Metadata.Chapters))
		}
		if book.Metadata.Chapters[0].Title != "Only" {
			t.Errorf("chapter title = %q, want Only", book.Metadata.Chapters[0].Title)
		}
	})

	t.Run("non-markup hrefs are skipped", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": testContainer,
			"OEBPS/content.opf": opfWith(
				``,
				`<item id="css" href="style.css" media-type="text/css"/>
				 <item id="ch1" href="chapter1.html" media-type="application/xhtml+xml"/>`,
				`<itemref idref="css"/><itemref idref="ch1"/>`,
			),
			"OEBPS/style.css":     `body { margin: 0 }`,
			"OEBPS/chapter1.html": `<p>real content</p>`,
		}

		book, err := parseEPUB(ar, "test.epub")
		if err != nil {
			t.Fatalf("parseEPUB: %v", err)
		}
		if len(book.Metadata.Chapters) != 1 {
			t.Fatalf("got %d chapters, want 1", len(book.Metadata.Chapters))
		}
		if strings.Contains(book.Content, "margin") {
			t.Errorf("stylesheet leaked into content: %q", book.Content)
		}
	})

	t.Run("empty item records chapter but no break", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": testContainer,
			"OEBPS/content.opf": opfWith(
				``,
				`<item id="blank" href="blank.xhtml" media-type="application/xhtml+xml"/>
				 <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>`,
				`<itemref idref="blank"/><itemref idref="ch1"/>`,
			),
			"OEBPS/blank.xhtml": `<p>  </p>`,
			"OEBPS/ch1.xhtml":   `<p>actual words</p>`,
		}

		book, err := parseEPUB(ar, "test.epub")
		if err != nil {
			t.Fatalf("parseEPUB: %v", err)
		}
		if len(book.Metadata.Chapters) != 2 {
			t.Fatalf("got %d chapters, want 2", len(book.Metadata.Chapters))
		}
		// Both chapters start at word 0; only the non-empty item pushed a break.
		if book.Metadata.Chapters[0].Index != 0 || book.Metadata.Chapters[1].Index != 0 {
			t.Errorf("chapters = %+v, want both at index 0", book.Metadata.Chapters)
		}
		if want := []int{0, 2}; !equalInts(book.ChapterBreaks, want) {
			t.Errorf("ChapterBreaks = %v, want %v", book.ChapterBreaks, want)
		}
	})

	t.Run("synthetic chapter titles count traversed items", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": testContainer,
			"OEBPS/content.opf": opfWith(
				``,
				`<item id="css" href="style.css" media-type="text/css"/>
				 <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
				 <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>`,
				`<itemref idref="css"/><itemref idref="ch1"/><itemref idref="ch2"/>`,
			),
			"OEBPS/style.css": `body {}`,
			"OEBPS/ch1.xhtml": `<p>first body</p>`,
			"OEBPS/ch2.xhtml": `<p>second body</p>`,
		}

		book, err := parseEPUB(ar, "test.epub")
		if err != nil {
			t.Fatalf("parseEPUB: %v", err)
		}
		chapters := book.Metadata.Chapters
		if len(chapters) != 2 {
			t.Fatalf("got %d chapters, want 2", len(chapters))
		}
		// The skipped stylesheet does not consume an ordinal.
		if chapters[0].Title != "Chapter 1" || chapters[1].Title != "Chapter 2" {
			t.Errorf("titles = %q, %q, want Chapter 1, Chapter 2", chapters[0].Title, chapters[1].Title)
		}
	})

	t.Run("missing container descriptor", func(t *testing.T) {
		_, err := parseEPUB(fakeArchive{}, "test.epub")
		if !errors.Is(err, ErrInvalidContainer) {
			t.Errorf("error = %v, want ErrInvalidContainer", err)
		}
	})

	t.Run("container without package path", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": `<?xml version="1.0"?><container><rootfiles></rootfiles></container>`,
		}
		_, err := parseEPUB(ar, "test.epub")
		if !errors.Is(err, ErrInvalidContainer) {
			t.Errorf("error = %v, want ErrInvalidContainer", err)
		}
	})

	t.Run("unreadable package document", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": testContainer,
		}
		_, err := parseEPUB(ar, "test.epub")
		if !errors.Is(err, ErrInvalidPackage) {
			t.Errorf("error = %v, want ErrInvalidPackage", err)
		}
	})

	t.Run("malformed package document", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": testContainer,
			"OEBPS/content.opf":      `<<not xml>>`,
		}
		_, err := parseEPUB(ar, "test.epub")
		if !errors.Is(err, ErrInvalidPackage) {
			t.Errorf("error = %v, want ErrInvalidPackage", err)
		}
	})

	t.Run("first manifest entry wins per id", func(t *testing.T) {
		ar := fakeArchive{
			"META-INF/container.xml": testContainer,
			"OEBPS/content.opf": opfWith(
				``,
				`<item id="ch1" href="real.xhtml" media-type="application/xhtml+xml"/>
				 <item id="ch1" href="decoy.xhtml" media-type="application/xhtml+xml"/>`,
				`<itemref idref="ch1"/>`,
			),
			"OEBPS/real.xhtml":  `<p>the real one</p>`,
			"OEBPS/decoy.xhtml": `<p>the decoy</p>`,
		}

		book, err := parseEPUB(ar, "test.epub")
		if err != nil {
			t.Fatalf("parseEPUB: %v", err)
		}
		if !strings.Contains(book.Content, "real") || strings.Contains(book.Content, "decoy") {
			t.Errorf("Content = %q, want the first manifest href", book.Content)
		}
	})
}

func TestParseEPUBNCXTitles(t *testing.T) {
	ncxData := `<?xml version="1.0"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="n1" playOrder="1">
      <navLabel><text>Part One</text></navLabel>
      <content src="ch1.xhtml"/>
    </navPoint>
    <navPoint id="n2" playOrder="2">
      <navLabel><text>Part Two</text></navLabel>
      <content src="ch2.xhtml#start"/>
    </navPoint>
  </navMap>
</ncx>`

	ar := fakeArchive{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf": opfWith(
			``,
			`<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
			 <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
			 <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>`,
			`<itemref idref="ch1"/><itemref idref="ch2"/>`,
		),
		"OEBPS/toc.ncx":   ncxData,
		"OEBPS/ch1.xhtml": `<p>no headings in here</p>`,
		"OEBPS/ch2.xhtml": `<h1>Has Heading</h1><p>body</p>`,
	}

	book, err := parseEPUB(ar, "test.epub")
	if err != nil {
		t.Fatalf("parseEPUB: %v", err)
	}
	chapters := book.Metadata.Chapters
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	// NCX fills in where the item itself had no heading
	if chapters[0].Title != "Part One" {
		t.Errorf("chapters[0].Title = %q, want Part One", chapters[0].Title)
	}
	// but never overrides a real heading
	if chapters[1].Title != "Has Heading" {
		t.Errorf("chapters[1].Title = %q, want Has Heading", chapters[1].Title)
	}
}

func TestEPUBFormatParse(t *testing.T) {
	// End to end through a real ZIP container
	tmpDir := t.TempDir()
	epubPath := filepath.Join(tmpDir, "minimal.epub")

	f, err := os.Create(epubPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	entries := map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf": opfWith(
			`<dc:title>Zipped</dc:title>`,
			`<item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>`,
			`<itemref idref="ch1"/>`,
		),
		"OEBPS/ch1.xhtml": `<h1>Start</h1><p>packed words</p>`,
	}
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	f.Close()

	book, err := (&EPUBFormat{}).Parse(epubPath)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if book.Metadata.Title != "Zipped" {
		t.Errorf("Title = %q, want Zipped", book.Metadata.Title)
	}
	if !strings.Contains(book.Content, "packed words") {
		t.Errorf("Content = %q", book.Content)
	}
	checkBreaks(t, book)
}

func TestEPUBFormatParseNotZip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "fake.epub")
	os.WriteFile(path, []byte("this is not a zip archive"), 0644)

	if _, err := (&EPUBFormat{}).Parse(path); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
