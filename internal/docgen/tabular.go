// Package docgen builds downloadable documents (docx, xlsx, pptx, pdf) from
// loosely structured model output. All builders are pure construct-and-serialize
// functions over freshly allocated trees; nothing in this package does I/O
// beyond reading a template file handed to it.
package docgen

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseTabularData normalizes tabular model output into rectangular rows.
//
// Input starting with '[' is tried as a JSON array of flat objects: the
// header row is the union of all keys in first-seen order, each data row
// follows header order, missing keys become empty strings and non-string
// values keep their JSON text form. A failed JSON parse falls through to
// the CSV path without raising an error.
//
// The CSV path splits on newlines (CRLF/CR normalized first), autodetects
// the delimiter (';' when present anywhere, ',' otherwise), skips blank
// lines and trims every field. The JSON path always synthesizes a header
// row; the CSV path never does — callers wanting a header must include one.
func ParseTabularData(input string) [][]string {
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, "[") {
		if rows, ok := parseJSONTable(trimmed); ok {
			return rows
		}
	}

	return parseCSVTable(trimmed)
}

func parseJSONTable(input string) ([][]string, bool) {
	var objects []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(input), &objects); err != nil {
		return nil, false
	}

	// Key order inside one object is lost by map decoding, so take the
	// order from the raw object text instead.
	ordered, err := orderedKeys(input)
	if err != nil {
		return nil, false
	}

	var header []string
	seen := make(map[string]bool)
	for _, key := range ordered {
		if !seen[key] {
			seen[key] = true
			header = append(header, key)
		}
	}

	rows := [][]string{header}
	for _, obj := range objects {
		row := make([]string, len(header))
		for i, key := range header {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				row[i] = s
			} else {
				row[i] = string(raw)
			}
		}
		rows = append(rows, row)
	}
	return rows, true
}

// orderedKeys re-decodes the array with json.Decoder tokens to recover the
// key order of every object, concatenated across the whole array.
func orderedKeys(input string) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(input))

	// Consume '['.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var keys []string
	for dec.More() {
		if err := collectObjectKeys(dec, &keys); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func collectObjectKeys(dec *json.Decoder, keys *[]string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		*keys = append(*keys, keyTok.(string))

		// Skip the value, whatever shape it has.
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return err
		}
	}
	// Consume '}'.
	_, err = dec.Token()
	return err
}

func parseCSVTable(input string) [][]string {
	normalized := normalizeLineEndings(input)

	delimiter := ","
	if strings.Contains(normalized, ";") {
		delimiter = ";"
	}

	var rows [][]string
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, delimiter)
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = strings.TrimSpace(f)
		}
		rows = append(rows, row)
	}
	return rows
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
