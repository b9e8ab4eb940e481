// Package htmlutil has small helpers for pulling readable text out of
// scraped result pages.
package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// Snippet renders a document down to a single printable line of at
// most maxLen runes, for logs and table cells. Unparseable input is
// passed through with the same cleanup.
func Snippet(rawHtml string, maxLen int) string {
	text := rawHtml
	doc, err := html.Parse(strings.NewReader(rawHtml))
	if err == nil {
		text = GetText(doc)
	}

	var printable strings.Builder
	for _, c := range text {
		if unicode.IsPrint(c) || c == ' ' {
			printable.WriteRune(c)
		} else {
			printable.WriteRune(' ')
		}
	}
	text = strings.TrimSpace(innerWhitespace.ReplaceAllString(printable.String(), " "))

	runes := []rune(text)
	if maxLen > 0 && len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return text
}
