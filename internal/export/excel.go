package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"salapoints/internal/models"
)

const childrenSheet = "Crianças"

// ChildrenWorkbook builds the roster report workbook: one row per child
// with name, birth date, age and point total.
func ChildrenWorkbook(children []models.Child, now time.Time) (*excelize.File, error) {
	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", childrenSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"ID", "Nome", "Nascimento", "Idade", "Pontos"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := file.SetCellValue(childrenSheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header %q: %w", header, err)
		}
	}

	for row, child := range children {
		values := []any{
			child.ID,
			child.Name,
			formatBirthDate(child.BirthDate),
			child.AgeAt(now),
			child.PointCount(),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := file.SetCellValue(childrenSheet, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	return file, nil
}

func formatBirthDate(birthDate time.Time) string {
	if birthDate.IsZero() {
		return ""
	}
	return birthDate.Format("02/01/2006")
}
