// Package export renders a schedule snapshot as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"irrigation/entities"
)

const SheetName = "Irrigações"

var headers = []string{"ID", "Planta", "Data", "Dia", "Horário", "Status"}

// Workbook builds a one-sheet workbook with a row per item, in the order given.
func Workbook(items []entities.IrrigationItem) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &head); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return nil, err
	}

	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{it.ID, it.PlantName, it.DisplayDate, it.DayOfWeek, it.Time, it.Status.Label()}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "F", 18); err != nil {
		return nil, err
	}
	return f, nil
}

// Write streams the workbook for items to w.
func Write(w io.Writer, items []entities.IrrigationItem) error {
	f, err := Workbook(items)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}
