package upload

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/frahmantamala/contacthub/internal/spreadsheet"
)

const sniffBytes = 3072

// acceptedTypes lists, per extension, the detected types (or their
// ancestors) a file may have.
var acceptedTypes = map[string][]string{
	spreadsheet.ExtCSV:  {"text/csv", "text/plain"},
	spreadsheet.ExtXLSX: {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
	spreadsheet.ExtXLS:  {"application/vnd.ms-excel", "application/x-ole-storage"},
}

// Intake is one file received by the upload endpoint.
type Intake struct {
	OriginalName string
	Size         int64
	Content      io.Reader
	DivisionID   *int64
}

func extensionOf(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := acceptedTypes[ext]
	return ext, ok
}

// sniff reads the head of r and reports the detected type. The returned
// reader replays the consumed bytes.
func sniff(r io.Reader, ext string) (io.Reader, string, bool, error) {
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", false, err
	}
	head = head[:n]
	if n == 0 {
		return nil, "", false, nil
	}

	detected := mimetype.Detect(head)
	accepted := false
	for m := detected; m != nil && !accepted; m = m.Parent() {
		accepted = slices.ContainsFunc(acceptedTypes[ext], m.Is)
	}
	return io.MultiReader(bytes.NewReader(head), r), detected.String(), accepted, nil
}
