package docgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
)

// opcPart is one named part of an OOXML package.
type opcPart struct {
	Name string
	Data []byte
}

// writeOPCPackage serializes parts into a ZIP container. Part order is made
// deterministic ([Content_Types].xml first, then lexicographic) so identical
// input always yields identical bytes.
func writeOPCPackage(parts []opcPart) ([]byte, error) {
	sorted := append([]opcPart(nil), parts...)
	sort.Slice(sorted, func(i, j int) bool {
		if a, b := sorted[i].Name, sorted[j].Name; a != b {
			if a == "[Content_Types].xml" {
				return true
			}
			if b == "[Content_Types].xml" {
				return false
			}
			return a < b
		}
		return false
	})

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range sorted {
		w, err := zw.Create(part.Name)
		if err != nil {
			return nil, fmt.Errorf("create package part %s: %w", part.Name, err)
		}
		if _, err := w.Write(part.Data); err != nil {
			return nil, fmt.Errorf("write package part %s: %w", part.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize package: %w", err)
	}
	return buf.Bytes(), nil
}

// readOPCPackage expands a ZIP container into a part map keyed by part name.
func readOPCPackage(data []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	parts := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open package part %s: %w", f.Name, err)
		}
		var b bytes.Buffer
		if _, err := b.ReadFrom(rc); err != nil {
			rc.Close()
			return nil, fmt.Errorf("read package part %s: %w", f.Name, err)
		}
		rc.Close()
		parts[f.Name] = b.Bytes()
	}
	return parts, nil
}

// xmlEscape escapes the five XML special characters in text content.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&apos;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
