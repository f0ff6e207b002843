package search

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText reduces editor markup to its visible text.
// Input without markup comes back with whitespace collapsed.
func PlainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return cleanText(markup)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	var textBuilder strings.Builder
	inScript := false
	inStyle := false

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			// End of input, or malformed markup: keep what was read so far.
			return cleanText(textBuilder.String())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			switch {
			case tag == "script":
				inScript = tokenType == html.StartTagToken
			case tag == "style":
				inStyle = tokenType == html.StartTagToken
			case blockTags[tag]:
				textBuilder.WriteString(" ")
			}
		case html.TextToken:
			if !inScript && !inStyle {
				textBuilder.Write(tokenizer.Text())
			}
		}
	}
}

// blockTags separate words; inline tags such as <b> or <em> do not
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true,
	"li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "section": true, "article": true,
	"table": true, "tr": true, "td": true, "th": true,
	"figure": true, "figcaption": true,
}

// cleanText removes excessive whitespace
func cleanText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
