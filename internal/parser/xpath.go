package parser

import (
	"bytes"
	"strings"

	"github.com/antchfx/htmlquery"
)

const paragraphXPath = "//article//p | //main//p"

// xpathParagraphs joins the text of every paragraph inside <article> or
// <main>, parsed with x/net/html rather than goquery's tree.
func xpathParagraphs(body []byte) (string, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	nodes, err := htmlquery.QueryAll(doc, paragraphXPath)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, node := range nodes {
		if t := strings.TrimSpace(htmlquery.InnerText(node)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n"), nil
}
