package export

import (
	"testing"
	"time"

	"salapoints/internal/models"
)

func TestChildrenWorkbook(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	children := []models.Child{
		{
			ID:        1,
			Name:      "Ana",
			BirthDate: time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC),
			Points:    []models.PointRecord{{ID: 1}, {ID: 2}},
		},
		{
			ID:          2,
			Name:        "Bruno",
			TotalPoints: 4,
		},
	}

	file, err := ChildrenWorkbook(children, now)
	if err != nil {
		t.Fatalf("ChildrenWorkbook() error = %v", err)
	}
	defer file.Close()

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "ID"},
		{"B1", "Nome"},
		{"E1", "Pontos"},
		{"A2", "1"},
		{"B2", "Ana"},
		{"C2", "10/03/2021"},
		{"D2", "5"},
		{"E2", "2"},
		{"B3", "Bruno"},
		{"C3", ""},
		{"E3", "4"},
	}

	for _, tt := range tests {
		got, err := file.GetCellValue("Crianças", tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("cell %s = %q, want %q", tt.cell, got, tt.want)
		}
	}
}

func TestChildrenWorkbookWritesNonEmptyFile(t *testing.T) {
	file, err := ChildrenWorkbook(nil, time.Now())
	if err != nil {
		t.Fatalf("ChildrenWorkbook() error = %v", err)
	}
	defer file.Close()

	buf, err := file.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("workbook serialized to zero bytes")
	}
}
