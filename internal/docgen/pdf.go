package docgen

import (
	"bytes"
	"fmt"
	"strings"
)

// A4 geometry in PDF points, with 2 cm margins.
const (
	pdfPageWidth  = 595.0
	pdfPageHeight = 842.0
	pdfMargin     = 56.7

	pdfTitleSize   = 16.0
	pdfBodySize    = 11.0
	pdfFooterSize  = 9.0
	pdfBodyLeading = 15.0
	pdfBlankGap    = 8.0
	pdfTitleGap    = 24.0

	// Helvetica has no fixed advance; 0.5em is a workable average for
	// greedy wrapping and centering without embedding font metrics.
	pdfAvgCharEm = 0.5
)

type pdfTextOp struct {
	x, y float64
	size float64
	bold bool
	text string
}

type pdfObject struct {
	id   int
	body []byte
}

// BuildPdf renders content as a paginated A4 document. The title, when
// non-empty, is drawn bold and large at the top of the first page. Each
// content line becomes one paragraph; blank lines become a fixed vertical
// gap. Every page carries a centered "Side {page} av {total}" footer.
// Overflow always continues onto further pages, never truncating.
func BuildPdf(content, title string) ([]byte, error) {
	lines := strings.Split(normalizeLineEndings(content), "\n")
	pages := layoutPdfPages(lines, title)
	return renderPdf(pages)
}

// layoutPdfPages flows the text top to bottom, starting a fresh page
// whenever the cursor would cross the bottom margin.
func layoutPdfPages(lines []string, title string) [][]pdfTextOp {
	textWidth := pdfPageWidth - 2*pdfMargin
	maxChars := int(textWidth / (pdfAvgCharEm * pdfBodySize))
	bottom := pdfMargin

	var pages [][]pdfTextOp
	var page []pdfTextOp
	y := pdfPageHeight - pdfMargin

	if title != "" {
		y -= pdfTitleSize
		page = append(page, pdfTextOp{x: pdfMargin, y: y, size: pdfTitleSize, bold: true, text: title})
		y -= pdfTitleGap
	}

	newPage := func() {
		pages = append(pages, page)
		page = nil
		y = pdfPageHeight - pdfMargin
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			// The gap may run past the bottom margin; the next text line
			// opens the new page, so trailing blanks never emit one.
			y -= pdfBlankGap
			continue
		}
		for _, segment := range wrapText(line, maxChars) {
			if y-pdfBodyLeading < bottom {
				newPage()
			}
			y -= pdfBodyLeading
			page = append(page, pdfTextOp{x: pdfMargin, y: y, size: pdfBodySize, text: segment})
		}
	}
	pages = append(pages, page)
	return pages
}

// wrapText splits a line into segments of at most maxChars, breaking at
// spaces where possible. A single overlong word is broken mid-word rather
// than dropped.
func wrapText(line string, maxChars int) []string {
	runes := []rune(line)
	if len(runes) <= maxChars {
		return []string{line}
	}

	var segments []string
	for len(runes) > maxChars {
		cut := maxChars
		for i := maxChars; i > 0; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}
		segments = append(segments, string(runes[:cut]))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		segments = append(segments, string(runes))
	}
	return segments
}

func renderPdf(pages [][]pdfTextOp) ([]byte, error) {
	total := len(pages)

	// Object ids: 1 catalog, 2 pages, then page/content pairs, fonts last.
	fontRegularID := 3 + 2*total
	fontBoldID := fontRegularID + 1

	var kids []string
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}

	objects := []pdfObject{
		{id: 1, body: []byte("<< /Type /Catalog /Pages 2 0 R >>")},
		{id: 2, body: []byte(fmt.Sprintf("<< /Type /Pages /Count %d /Kids [%s] >>", total, strings.Join(kids, " ")))},
	}

	for i, ops := range pages {
		footer := fmt.Sprintf("Side %d av %d", i+1, total)
		footerWidth := pdfAvgCharEm * pdfFooterSize * float64(len(footer))
		ops = append(ops, pdfTextOp{
			x:    (pdfPageWidth - footerWidth) / 2,
			y:    pdfMargin - 22,
			size: pdfFooterSize,
			text: footer,
		})

		pageID := 3 + 2*i
		contentID := pageID + 1
		objects = append(objects, pdfObject{
			id: pageID,
			body: []byte(fmt.Sprintf(
				"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R /F2 %d 0 R >> >> >>",
				int(pdfPageWidth), int(pdfPageHeight), contentID, fontRegularID, fontBoldID)),
		})
		objects = append(objects, pdfObject{id: contentID, body: buildPdfStream(buildPdfContent(ops))})
	}

	objects = append(objects,
		pdfObject{id: fontRegularID, body: []byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")},
		pdfObject{id: fontBoldID, body: []byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>")},
	)

	buf := bytes.NewBufferString("%PDF-1.4\n")
	offsets := make(map[int]int, len(objects)+1)
	for _, obj := range objects {
		offsets[obj.id] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", obj.id, obj.body)
	}

	xrefOffset := buf.Len()
	count := len(objects) + 1
	fmt.Fprintf(buf, "xref\n0 %d\n", count)
	fmt.Fprintf(buf, "%010d %05d f \n", 0, 65535)
	for i := 1; i < count; i++ {
		fmt.Fprintf(buf, "%010d %05d n \n", offsets[i], 0)
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", count, xrefOffset)

	return buf.Bytes(), nil
}

func buildPdfContent(ops []pdfTextOp) []byte {
	var buf bytes.Buffer
	buf.WriteString("BT\n")
	for _, op := range ops {
		font := "/F1"
		if op.bold {
			font = "/F2"
		}
		fmt.Fprintf(&buf, "%s %.1f Tf\n1 0 0 1 %.2f %.2f Tm\n(%s) Tj\n", font, op.size, op.x, op.y, escapePdfText(op.text))
	}
	buf.WriteString("ET\n")
	return buf.Bytes()
}

func buildPdfStream(content []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<< /Length %d >>\nstream\n", len(content))
	buf.Write(content)
	buf.WriteString("endstream")
	return buf.Bytes()
}

// escapePdfText escapes string-literal delimiters and maps runes to
// WinAnsi single bytes; anything outside Latin-1 becomes '?'.
func escapePdfText(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '\\':
			buf.WriteString(`\\`)
		case '(':
			buf.WriteString(`\(`)
		case ')':
			buf.WriteString(`\)`)
		default:
			if r < 256 {
				buf.WriteByte(byte(r))
			} else {
				buf.WriteByte('?')
			}
		}
	}
	return buf.String()
}
