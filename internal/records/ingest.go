package records

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type ingestFunc func(ctx context.Context, r io.Reader) (*BulkUploadResult, error)

var requiredColumns = []string{"student_name", "roll_number", "cert_number", "issuer", "issued_at"}

var issuedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseIssuedAt accepts ISO-8601 timestamps with or without a zone, or a bare date
func ParseIssuedAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range issuedAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid issued_at %q", value)
}

// ParseCSV reads records from a CSV file with a header row.
// Rows that cannot be mapped are reported in rowErrors and left out of the result.
func ParseCSV(r io.Reader) (inputs []RecordInput, rowErrors []string, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return rowsToInputs(rows)
}

// ParseXLSX reads records from the first sheet of a workbook with a header row
func ParseXLSX(r io.Reader) ([]RecordInput, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidFile)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return rowsToInputs(rows)
}

// ParseJSON reads a JSON array of records
func ParseJSON(r io.Reader) ([]RecordInput, error) {
	var inputs []RecordInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("%w: JSON must be an array of records: %v", ErrInvalidFile, err)
	}
	return inputs, nil
}

func rowsToInputs(rows [][]string) ([]RecordInput, []string, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: missing columns: %s", ErrInvalidFile, strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var inputs []RecordInput
	var rowErrors []string
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) < len(requiredColumns) {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: expected at least %d columns, got %d", n+2, len(requiredColumns), len(row)))
			continue
		}
		inputs = append(inputs, RecordInput{
			StudentName: cell(row, "student_name"),
			RollNumber:  cell(row, "roll_number"),
			Marks:       cell(row, "marks"),
			CertNumber:  cell(row, "cert_number"),
			Issuer:      cell(row, "issuer"),
			IssuedAt:    cell(row, "issued_at"),
		})
	}
	return inputs, rowErrors, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// CSVTemplate is the sample file offered to institutions
func CSVTemplate() string {
	return "student_name,roll_number,marks,cert_number,issuer,issued_at\n" +
		"John Doe,2021001,85.5,CERT2021001,University of Technology,2021-06-15T00:00:00\n" +
		"Jane Smith,2021002,92.0,CERT2021002,University of Technology,2021-06-15T00:00:00\n" +
		"Bob Johnson,2021003,78.3,CERT2021003,University of Technology,2021-06-15T00:00:00\n"
}

// JSONTemplate is the sample payload offered to institutions
func JSONTemplate() map[string]interface{} {
	return map[string]interface{}{
		"template": []RecordInput{
			{StudentName: "John Doe", RollNumber: "2021001", Marks: "85.5", CertNumber: "CERT2021001", Issuer: "University of Technology", IssuedAt: "2021-06-15T00:00:00"},
			{StudentName: "Jane Smith", RollNumber: "2021002", Marks: "92.0", CertNumber: "CERT2021002", Issuer: "University of Technology", IssuedAt: "2021-06-15T00:00:00"},
		},
		"instructions": map[string]string{
			"format":   "JSON array of verified certificate records",
			"required": strings.Join(requiredColumns, ", "),
			"optional": "marks",
			"dates":    "issued_at accepts ISO 8601 (2021-06-15T00:00:00, 2021-06-15T00:00:00Z) or 2021-06-15",
			"limit":    fmt.Sprintf("at most %d records per upload", MaxBulkRecords),
		},
	}
}

func hasExtension(filename, ext string) bool {
	return strings.EqualFold(filepath.Ext(filename), ext)
}
