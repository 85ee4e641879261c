package parse

import (
	"encoding/xml"
	"path"
	"strings"
)

const ncxMediaType = "application/x-dtbncx+xml"

// NCX navigation document structures.
type ncxDoc struct {
	NavMap ncxNavMap `xml:"navMap"`
}

type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

type ncxNavPoint struct {
	Label    ncxLabel      `xml:"navLabel"`
	Content  ncxContent    `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

type ncxLabel struct {
	Text string `xml:"text"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// ncxTitles builds an href-to-title map from the package's NCX navigation
// document, when the manifest declares one. Best effort: any failure yields
// an empty map and spine items keep their derived titles.
func ncxTitles(ar Archive, opfDir string, items []opfItem) map[string]string {
	titles := make(map[string]string)

	var ncxHref string
	for _, item := range items {
		if item.MediaType == ncxMediaType {
			ncxHref = item.Href
			break
		}
	}
	if ncxHref == "" {
		return titles
	}

	data, err := ar.ReadFile(resolveHref(opfDir, ncxHref))
	if err != nil {
		return titles
	}
	var doc ncxDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return titles
	}

	var collect func(points []ncxNavPoint)
	collect = func(points []ncxNavPoint) {
		for _, np := range points {
			title := strings.TrimSpace(np.Label.Text)
			if title != "" {
				for _, key := range ncxKeys(np.Content.Src) {
					if _, exists := titles[key]; !exists {
						titles[key] = title
					}
				}
			}
			collect(np.Children)
		}
	}
	collect(doc.NavMap.NavPoints)

	return titles
}

// ncxKeys returns the lookup keys a navPoint src answers to: the full href,
// the href with its fragment stripped, and the bare base name.
func ncxKeys(src string) []string {
	keys := []string{src}
	if stripped := stripFragment(src); stripped != src {
		keys = append(keys, stripped)
	}
	keys = append(keys, path.Base(stripFragment(src)))
	return keys
}

// ncxTitleFor looks up the NCX title for a spine item href.
func ncxTitleFor(titles map[string]string, href string) string {
	if t, ok := titles[href]; ok {
		return t
	}
	if t, ok := titles[stripFragment(href)]; ok {
		return t
	}
	return titles[path.Base(stripFragment(href))]
}
