package feed

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	nethtml "golang.org/x/net/html"
)

var (
	imgTagRE = regexp.MustCompile(`<img[^>]*>`)
	altRE    = regexp.MustCompile(`\salt="[^"]*"`)
)

type apiDataBlock struct {
	Type    string            `json:"type"`
	Content []json.RawMessage `json:"content"`
}

// imageDescriptions returns descriptions of image blocks in document order.
func imageDescriptions(apiData string) []string {
	if apiData == "" {
		return nil
	}
	var blocks []apiDataBlock
	if err := json.Unmarshal([]byte(apiData), &blocks); err != nil {
		log.WithError(err).Debug("unable to parse content api data")
		return nil
	}
	var res []string
	for _, b := range blocks {
		if b.Type != "image" || len(b.Content) == 0 {
			continue
		}
		var img struct {
			Description string `json:"description"`
		}
		if err := json.Unmarshal(b.Content[0], &img); err != nil {
			continue
		}
		res = append(res, img.Description)
	}
	return res
}

// ReplaceImageAlts sets the alt of the n-th <img> tag to the description of
// the n-th image block of apiData. Extra tags are left untouched.
func ReplaceImageAlts(content string, apiData string) string {
	descs := imageDescriptions(apiData)
	if len(descs) == 0 {
		return content
	}
	i := 0
	return imgTagRE.ReplaceAllStringFunc(content, func(tag string) string {
		if i >= len(descs) {
			return tag
		}
		alt := ` alt="` + html.EscapeString(descs[i]) + `"`
		i++
		if altRE.MatchString(tag) {
			return altRE.ReplaceAllLiteralString(tag, alt)
		}
		return strings.Replace(tag, "<img", "<img"+alt, 1)
	})
}

// FirstText returns the first non blank text node of an html fragment.
func FirstText(s string) string {
	doc, err := nethtml.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}
	var walk func(n *nethtml.Node) string
	walk = func(n *nethtml.Node) string {
		if n.Type == nethtml.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				return t
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := walk(c); t != "" {
				return t
			}
		}
		return ""
	}
	return walk(doc)
}

// StripTags returns the text content of an html fragment.
func StripTags(s string) string {
	doc, err := nethtml.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var sb strings.Builder
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(sb.String())
}
