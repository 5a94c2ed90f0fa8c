package contact

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/frahmantamala/contacthub/internal/customfield"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	exportSheet = "Contacts"
)

var exportHeaders = []string{
	"First Name", "Last Name", "Email Address", "Phone", "Company", "Job Title",
	"Address", "City", "State", "Postal Code", "Country", "Notes", "Created At",
}

// Table is an export in row-major order with the header row kept apart.
type Table struct {
	Headers []string
	Rows    [][]string
	custom  []*customfield.Definition
}

func newTable(defs []*customfield.Definition) *Table {
	headers := append([]string(nil), exportHeaders...)
	for _, d := range defs {
		headers = append(headers, d.Label)
	}
	return &Table{Headers: headers, custom: defs}
}

func (t *Table) add(c *Contact) {
	row := []string{
		c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.JobTitle,
		c.Address, c.City, c.State, c.PostalCode, c.Country, c.Notes,
		c.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, d := range t.custom {
		row = append(row, cellValue(c.CustomFields[d.Key]))
	}
	t.Rows = append(t.Rows, row)
}

func cellValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func ValidFormat(format string) bool {
	return format == FormatCSV || format == FormatXLSX
}

func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX streams the table as a single-sheet workbook.
func (t *Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush workbook: %w", err)
	}
	_, err = f.WriteTo(w)
	return err
}
