package broker

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// decodeAll reads the whole input and transcodes it to UTF-8. Broker exports
// come as Shift-JIS more often than not; valid UTF-8 input passes through
// untouched (including a BOM strip).
func decodeAll(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read extract: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return raw, nil
	}
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("decode shift-jis extract: %w", err)
	}
	return decoded, nil
}

// readRecords parses CSV content, skipping the given number of leading lines
// (SBI exports carry a preamble before the header row).
func readRecords(content []byte, skipLines int) ([][]string, error) {
	lines := bytes.SplitN(content, []byte("\n"), skipLines+1)
	if len(lines) <= skipLines {
		return nil, fmt.Errorf("extract shorter than %d header lines", skipLines)
	}
	cr := csv.NewReader(bytes.NewReader(lines[skipLines]))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse extract csv: %w", err)
	}
	return records, nil
}

// normalizeHeader folds a header cell to a canonical comparable form:
// NFKC-normalized (full-width to half-width) and stripped of surrounding
// whitespace.
func normalizeHeader(h string) string {
	return strings.TrimSpace(norm.NFKC.String(h))
}

// columnIndex maps canonical column names to field positions using a rename
// fallback list: for each canonical name, the first matching header variant
// wins. Returns the missing required names, if any.
func columnIndex(header []string, fallbacks map[string][]string, required []string) (map[string]int, []string) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[normalizeHeader(h)] = i
	}
	index := make(map[string]int, len(fallbacks))
	for canonical, variants := range fallbacks {
		for _, v := range variants {
			if i, ok := pos[v]; ok {
				index[canonical] = i
				break
			}
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	return index, missing
}

// field returns the cell for a canonical column, or "" when the row is short
// or the column is unmapped.
func field(record []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// numericCleaner strips the decoration broker exports put on numbers.
var numericCleaner = strings.NewReplacer(
	",", "",
	"¥", "",
	"$", "",
	"円", "",
	"株", "",
	"+", "",
	"　", "", // full-width space
	" ", "",
)

// cleanNumeric coerces a decorated numeric cell to a decimal. ok is false
// when the cell stays non-numeric after cleanup; callers drop and count such
// rows rather than treating them as zero.
func cleanNumeric(s string) (decimal.Decimal, bool) {
	cleaned := numericCleaner.Replace(strings.TrimSpace(s))
	switch strings.ToLower(cleaned) {
	case "", "nan", "none", "null", "-", "--":
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// dateLayouts are tried in order when parsing broker date cells.
var dateLayouts = []string{
	"2006/1/2",
	"2006-1-2",
	"2006年1月2日",
	"20060102",
}

// cleanDate parses a broker date cell. ok is false for blank or unparseable
// values.
func cleanDate(s string) (date.Date, bool) {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return date.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return date.New(t.Date()), true
		}
	}
	return date.Date{}, false
}

// isSummaryRow reports whether a record is a total/subtotal decoration row:
// it mentions a total keyword in any cell and has no date in either date
// column.
func isSummaryRow(record []string, index map[string]int, dateCols ...string) bool {
	keyword := false
	for _, cell := range record {
		if strings.Contains(cell, "合計") || strings.Contains(cell, "小計") {
			keyword = true
			break
		}
	}
	if !keyword {
		return false
	}
	for _, col := range dateCols {
		if _, ok := cleanDate(field(record, index, col)); ok {
			return false
		}
	}
	return true
}
