// Package spreadsheet reads tabular uploads into header and data rows.
package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
	ExtXLS  = ".xls"
)

var (
	ErrLegacyXLS     = errors.New("legacy .xls workbooks cannot be imported; save the file as .xlsx or .csv and upload it again")
	ErrNoHeader      = errors.New("the file has no header row")
	ErrUnsupported   = errors.New("unsupported file extension")
	ErrEmptyWorkbook = errors.New("the workbook has no sheets")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Sheet is a parsed table. Every row is padded or truncated to the header
// width.
type Sheet struct {
	Headers []string
	Rows    [][]string
}

// Read parses r according to the file extension. Only the first worksheet
// of a workbook is read.
func Read(r io.Reader, ext string) (*Sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(ext) {
	case ExtCSV:
		records, err = readCSV(r)
	case ExtXLSX:
		records, err = readXLSX(r)
	case ExtXLS:
		return nil, ErrLegacyXLS
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if err != nil {
		return nil, err
	}
	return build(records)
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// build takes the first non-blank record as the header row. Blank header
// cells are named by position and repeated names get a "(n)" suffix so every
// column stays addressable.
func build(records [][]string) (*Sheet, error) {
	start := -1
	for i, rec := range records {
		if !IsBlank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	headers := make([]string, len(records[start]))
	seen := make(map[string]bool, len(headers))
	for i, h := range records[start] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		name := h
		for n := 2; seen[name]; n++ {
			name = fmt.Sprintf("%s (%d)", h, n)
		}
		seen[name] = true
		headers[i] = name
	}

	rows := make([][]string, 0, len(records)-start-1)
	for _, rec := range records[start+1:] {
		row := make([]string, len(headers))
		copy(row, rec)
		rows = append(rows, row)
	}
	return &Sheet{Headers: headers, Rows: rows}, nil
}

// IsBlank reports whether every cell is empty after trimming.
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Preview returns up to n non-blank data rows.
func (s *Sheet) Preview(n int) [][]string {
	out := make([][]string, 0, n)
	for _, row := range s.Rows {
		if len(out) == n {
			break
		}
		if !IsBlank(row) {
			out = append(out, row)
		}
	}
	return out
}

// Record pairs a row's cells with the header names.
func (s *Sheet) Record(row []string) map[string]string {
	out := make(map[string]string, len(s.Headers))
	for i, h := range s.Headers {
		if i < len(row) {
			out[h] = row[i]
		}
	}
	return out
}
