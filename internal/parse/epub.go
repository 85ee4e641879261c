package parse

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// Archive is the read capability the EPUB extractor needs from its ZIP
// container. Injectable so spine resolution and offset bookkeeping are
// testable without an archive on disk.
type Archive interface {
	ReadFile(name string) ([]byte, error)
}

const containerPath = "META-INF/container.xml"

// Container descriptor and package document structures (EPUB OCF/OPF).
type ocfContainer struct {
	Rootfiles []ocfRootfile `xml:"rootfiles>rootfile"`
}

type ocfRootfile struct {
	FullPath string `xml:"full-path,attr"`
}

type opfPackage struct {
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
}

type opfManifest struct {
	Items []opfItem `xml:"item"`
}

type opfItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

type opfSpine struct {
	Itemrefs []opfItemref `xml:"itemref"`
}

type opfItemref struct {
	IDRef string `xml:"idref,attr"`
}

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

func (f *EPUBFormat) Parse(filename string) (*Book, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer zr.Close()

	return parseEPUB(newZipArchive(zr.File), filename)
}

// parseEPUB resolves the container descriptor, package document and spine,
// strips each content document and accumulates the word-offset timeline.
func parseEPUB(ar Archive, filename string) (*Book, error) {
	containerData, err := ar.ReadFile(containerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s missing", ErrInvalidContainer, containerPath)
	}

	var container ocfContainer
	if err := xml.Unmarshal(containerData, &container); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return nil, fmt.Errorf("%w: no package document path", ErrInvalidContainer)
	}
	opfPath := container.Rootfiles[0].FullPath

	opfData, err := ar.ReadFile(opfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPackage, opfPath)
	}
	var pkg opfPackage
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	title := strings.TrimSpace(pkg.Metadata.Title)
	if title == "" {
		title = titleFromFilename(filename)
	}
	author := strings.TrimSpace(pkg.Metadata.Creator)
	if author == "" {
		author = unknownAuthor
	}

	// First manifest entry wins per id.
	manifest := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		if _, ok := manifest[item.ID]; !ok {
			manifest[item.ID] = item.Href
		}
	}

	opfDir := path.Dir(opfPath)
	ncx := ncxTitles(ar, opfDir, pkg.Manifest.Items)

	var (
		content   strings.Builder
		chapters  []Chapter
		breaks    = []int{0}
		wordCount int
		ordinal   int
	)

	for _, ref := range pkg.Spine.Itemrefs {
		href, ok := manifest[ref.IDRef]
		if !ok || !isMarkupHref(href) {
			continue
		}
		data, err := ar.ReadFile(resolveHref(opfDir, href))
		if err != nil {
			continue
		}
		ordinal++

		chapterTitle := htmlHeading(data)
		if chapterTitle == "" {
			chapterTitle = ncxTitleFor(ncx, href)
		}
		if chapterTitle == "" {
			chapterTitle = fmt.Sprintf("Chapter %d", ordinal)
		}
		chapters = append(chapters, Chapter{Title: chapterTitle, Index: wordCount})

		text := StripHTML(string(data))
		words := strings.Fields(text)
		if len(words) == 0 {
			continue
		}
		content.WriteString(text)
		content.WriteString(" ")
		wordCount += len(words)
		breaks = append(breaks, wordCount)
	}

	return &Book{
		Metadata: Metadata{
			Title:    title,
			Author:   author,
			Chapters: chapters,
		},
		Content:       strings.TrimSpace(content.String()),
		ChapterBreaks: breaks,
	}, nil
}

// isMarkupHref reports whether a manifest href points at a content document.
func isMarkupHref(href string) bool {
	switch strings.ToLower(path.Ext(stripFragment(href))) {
	case ".html", ".xhtml", ".htm":
		return true
	}
	return false
}

// resolveHref resolves a manifest href relative to the package document's
// directory.
func resolveHref(opfDir, href string) string {
	href = stripFragment(href)
	if opfDir == "." || opfDir == "" {
		return path.Clean(href)
	}
	return path.Clean(path.Join(opfDir, href))
}

func stripFragment(href string) string {
	if i := strings.Index(href, "#"); i != -1 {
		return href[:i]
	}
	return href
}

// zipArchive adapts a ZIP file list to the Archive interface.
type zipArchive struct {
	files map[string]*zip.File
}

func newZipArchive(files []*zip.File) zipArchive {
	m := make(map[string]*zip.File, len(files))
	for _, f := range files {
		m[path.Clean(f.Name)] = f
	}
	return zipArchive{files: m}
}

func (a zipArchive) ReadFile(name string) ([]byte, error) {
	f, ok := a.files[path.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("no such entry: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
