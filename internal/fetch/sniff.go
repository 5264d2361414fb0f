// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// describeMismatch explains what came back instead of a PDF. Error pages
// served with 200 are common, so HTML gets its title pulled out.
func describeMismatch(data []byte, contentType string) string {
	if len(data) == 0 {
		return "empty response body"
	}
	sniffed := http.DetectContentType(data)
	if isHTML(contentType) || isHTML(sniffed) {
		if title := htmlTitle(data); title != "" {
			return fmt.Sprintf("got HTML page %q instead of a PDF", title)
		}
		return "got an HTML page instead of a PDF"
	}
	if contentType == "" {
		contentType = sniffed
	}
	return fmt.Sprintf("payload does not start with %%PDF (content type %s)", contentType)
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(contentType), "text/html")
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

func htmlTitle(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	title := doc.Find("title").First().Text()
	return strings.Join(strings.Fields(title), " ")
}
