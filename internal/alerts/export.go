package alerts

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Alerts"

var exportColumns = []struct {
	label string
	width float64
}{
	{"Alert ID", 38},
	{"Certificate ID", 38},
	{"Level", 10},
	{"Reason", 60},
	{"Flagged At", 20},
	{"Resolved", 10},
	{"Resolved At", 20},
}

// ExportXLSX renders alerts as a workbook with a styled, frozen header row
func ExportXLSX(alerts []Alert) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	criticalStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "C00000"},
	})
	if err != nil {
		return nil, err
	}

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, col.label); err != nil {
			return nil, err
		}
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(exportSheet, colName, colName, col.width); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err := f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for r, a := range alerts {
		row := r + 2
		resolvedAt := ""
		if a.ResolvedAt != nil {
			resolvedAt = a.ResolvedAt.UTC().Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			a.ID.String(),
			a.CertID.String(),
			string(a.Level),
			a.Reason,
			a.FlaggedAt.UTC().Format("2006-01-02 15:04:05"),
			a.Resolved,
			resolvedAt,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(exportSheet, start, &values); err != nil {
			return nil, fmt.Errorf("failed to write alert row: %w", err)
		}
		if a.Level == LevelCritical {
			levelCell, _ := excelize.CoordinatesToCellName(3, row)
			if err := f.SetCellStyle(exportSheet, levelCell, levelCell, criticalStyle); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}
	lastCell, _ := excelize.CoordinatesToCellName(len(exportColumns), len(alerts)+1)
	if err := f.AutoFilter(exportSheet, "A1:"+lastCell, nil); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
