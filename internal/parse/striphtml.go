package parse

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	scriptRe   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	blockTagRe = regexp.MustCompile(`(?i)</?(?:p|div|h[1-6]|li|tr|br)\b[^>]*/?>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	numRefRe   = regexp.MustCompile(`&#(\d+);`)
	entityRe   = regexp.MustCompile(`&[a-zA-Z][a-zA-Z0-9]*;`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

var namedEntities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
)

// StripHTML reduces markup to plain text. Script and style blocks are removed
// with their content, block-level tags become single spaces so adjacent
// elements do not run together, remaining tags are dropped, then entities are
// decoded. The stages must run in this order: tag removal before entity
// decoding, otherwise decoded angle brackets would be mistaken for tags.
func StripHTML(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = styleRe.ReplaceAllString(s, "")
	s = blockTagRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, "")
	s = namedEntities.Replace(s)
	s = numRefRe.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || n < 0 || n > 0x10FFFF {
			return " "
		}
		return string(rune(n))
	})
	s = entityRe.ReplaceAllString(s, " ")
	return collapseSpace(s)
}

// collapseSpace folds whitespace runs into single spaces and trims.
func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// htmlHeading returns the text of the first <h1> in the document, falling
// back to the first <h2>, then the <title>. Empty string when none exist.
func htmlHeading(data []byte) string {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	var h1, h2, title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1":
				if h1 == "" {
					h1 = nodeText(n)
				}
			case "h2":
				if h2 == "" {
					h2 = nodeText(n)
				}
			case "title":
				if title == "" {
					title = nodeText(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, t := range []string{h1, h2, title} {
		if t != "" {
			return t
		}
	}
	return ""
}

// nodeText collects the text content beneath a node.
func nodeText(n *html.Node) string {
	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapseSpace(out.String())
}
