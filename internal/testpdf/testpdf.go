// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package testpdf builds small, deterministic PDF files for tests.
// Each page is US Letter with lines of Helvetica text starting at (72, 720),
// one line every 16 points.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// FontSize is the text size used on every page.
	FontSize = 12
	// GlyphWidth is the advance of every character in thousandths of an em.
	GlyphWidth = 500
	// OriginX and OriginY locate the baseline of the first line.
	OriginX = 72
	OriginY = 720
	// Leading is the distance between baselines.
	Leading = 16
)

// Build returns a PDF with one page per element of pages. Lines within a
// page are separated by "\n".
func Build(pages ...string) []byte {
	if len(pages) == 0 {
		pages = []string{""}
	}
	var objs []string

	// 1: catalog, 2: pages, 3: font, then (page, content) pairs.
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		fontDict(),
	)
	for i, text := range pages {
		content := contentStream(text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	return assemble(objs)
}

// BreakXRef points startxref at the catalog object instead of the
// cross-reference table. The objects stay intact, so a reader that scans
// for object definitions can still recover the file.
func BreakXRef(pdf []byte) []byte {
	start := bytes.LastIndex(pdf, []byte("startxref"))
	if start < 0 {
		return pdf
	}
	catalog := bytes.Index(pdf, []byte("1 0 obj"))
	out := append([]byte{}, pdf[:start]...)
	out = append(out, fmt.Sprintf("startxref\n%d\n%%%%EOF\n", catalog)...)
	return out
}

// Truncate keeps only the first n bytes, dropping the xref table, trailer,
// and most objects.
func Truncate(pdf []byte, n int) []byte {
	if n > len(pdf) {
		n = len(pdf)
	}
	return append([]byte{}, pdf[:n]...)
}

// GlyphAdvance is the horizontal advance of one character in points.
func GlyphAdvance() float64 {
	return float64(GlyphWidth) / 1000 * FontSize
}

func fontDict() string {
	widths := make([]string, 126-32+1)
	for i := range widths {
		widths[i] = fmt.Sprint(GlyphWidth)
	}
	return "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica " +
		"/Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 " +
		"/Widths [" + strings.Join(widths, " ") + "] >>"
}

func contentStream(text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BT /F1 %d Tf %d %d Td", FontSize, OriginX, OriginY)
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			fmt.Fprintf(&b, " 0 %d Td", -Leading)
		}
		fmt.Fprintf(&b, " (%s) Tj", escape(line))
	}
	b.WriteString(" ET")
	return b.String()
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}

func assemble(objs []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}
