package applicants

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportSheet is the worksheet name of the applicant export.
const ExportSheet = "Candidatures"

var exportHeaders = []string{
	"Soumis le", "Prénom", "Nom", "Email", "Téléphone", "Poste",
	"Début", "Fin", "Statut", "CV", "Notes",
}

// ExportXLSX renders list as a spreadsheet. Resumes stored at an http(s)
// address are linked; inline resumes only show their file name.
func ExportXLSX(list []Applicant, label func(string) string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"061E3E"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	linkStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "0563C1", Underline: "single"},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ExportSheet, cell, h); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(ExportSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(ExportSheet, "A", "A", 18)
	_ = f.SetColWidth(ExportSheet, "B", "F", 20)
	_ = f.SetColWidth(ExportSheet, "J", "J", 28)
	_ = f.SetColWidth(ExportSheet, "K", "K", 40)

	for i, a := range list {
		row := i + 2
		status := string(a.Status)
		if label != nil {
			status = label(status)
		}
		values := []any{
			a.CreatedAt.UTC().Format(time.DateTime),
			a.FirstName, a.LastName, a.Email, a.Phone, a.Position,
			a.StartDate, a.EndDate, status, a.CVFileName, a.Notes,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ExportSheet, start, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}

		if isLinkable(a.CVURL) {
			cell, _ := excelize.CoordinatesToCellName(10, row)
			if a.CVFileName == "" {
				_ = f.SetCellValue(ExportSheet, cell, "CV")
			}
			if err := f.SetCellHyperLink(ExportSheet, cell, a.CVURL, "External"); err != nil {
				return nil, fmt.Errorf("link resume row %d: %w", row, err)
			}
			_ = f.SetCellStyle(ExportSheet, cell, cell, linkStyle)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func isLinkable(url string) bool {
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://")
}
