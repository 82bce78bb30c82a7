package records

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseIssuedAt(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2021-06-15", time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{"2021-06-15T10:30:00", time.Date(2021, 6, 15, 10, 30, 0, 0, time.UTC), true},
		{"2021-06-15T10:30:00+02:00", time.Date(2021, 6, 15, 8, 30, 0, 0, time.UTC), true},
		{"June 15 2021", time.Time{}, false},
	}
	for _, tt := range tests {
		got, err := ParseIssuedAt(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), tt.in)
	}
}

func TestParseCSV(t *testing.T) {
	data := "Student_Name,roll_number,marks,cert_number,issuer,issued_at\n" +
		"Ann Lee,R1,90,C-1,Uni,2021-06-15\n" +
		"short,row\n" +
		"Bob Ray,R2,,C-2,Uni,2021-06-16\n"

	inputs, rowErrors, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "Ann Lee", inputs[0].StudentName)
	assert.Equal(t, "", inputs[1].Marks)
	require.Len(t, rowErrors, 1)
	assert.Contains(t, rowErrors[0], "row 3")
}

func TestParseCSV_MissingColumns(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("student_name,roll_number\nA,1\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFile)
	assert.Contains(t, err.Error(), "cert_number")
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"student_name", "roll_number", "marks", "cert_number", "issuer", "issued_at"},
		{"Ann Lee", "R1", "90", "C-1", "Uni", "2021-06-15"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	inputs, rowErrors, err := ParseXLSX(&buf)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, inputs, 1)
	assert.Equal(t, "C-1", inputs[0].CertNumber)
}

func TestParseJSON(t *testing.T) {
	inputs, err := ParseJSON(strings.NewReader(`[{"student_name":"Ann","roll_number":"1","cert_number":"C","issuer":"U","issued_at":"2021-01-01"}]`))
	require.NoError(t, err)
	require.Len(t, inputs, 1)

	_, err = ParseJSON(strings.NewReader(`{"student_name":"Ann"}`))
	assert.ErrorIs(t, err, ErrInvalidFile)
}
