package models

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"github.com/xuri/excelize/v2"
)

// ImportResult reports a bulk import: rows that failed keep their sheet row
// number and the reason, successful rows are counted.
type ImportResult struct {
	Imported int               `json:"imported"`
	Failed   int               `json:"failed"`
	Errors   []ImportRowError  `json:"errors,omitempty"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func readFirstSheet(reader io.Reader) ([][]string, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, utils.NewValidationError("cannot read workbook: " + err.Error())
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, utils.NewValidationError("workbook has no sheets")
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, utils.NewValidationError("cannot read sheet: " + err.Error())
	}
	return rows, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ImportUsers reads an admin user workbook. Expected columns, first sheet,
// header in row 1: name, email, citizen_id, phone, role, password,
// district, commune, village, address. Blank passwords are generated.
func (r *Repo) ImportUsers(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	rows, err := readFirstSheet(reader)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, utils.NewValidationError("workbook has no data rows")
	}

	result := &ImportResult{}
	for i, row := range rows[1:] {
		rowNum := i + 2

		input := NewAdminUser{
			Name:      cell(row, 0),
			Email:     cell(row, 1),
			CitizenId: cell(row, 2),
			Phone:     cell(row, 3),
			Role:      UserRole(strings.ToUpper(cell(row, 4))),
			Password:  cell(row, 5),
			District:  cell(row, 6),
			Commune:   cell(row, 7),
			Village:   cell(row, 8),
			Address:   cell(row, 9),
		}
		if input.Name == "" && input.CitizenId == "" {
			continue // skip blank rows
		}
		if input.Name == "" || input.CitizenId == "" {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "name and citizen_id are required"})
			continue
		}

		if _, _, err := r.CreateUser(ctx, &input); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.Imported++
	}
	return result, nil
}

// ImportPayoutStatuses reads a workbook of batch code / status pairs and
// applies each status update (including the completion cascade) per row.
// Columns, first sheet, header in row 1: code, status.
func (r *Repo) ImportPayoutStatuses(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	rows, err := readFirstSheet(reader)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, utils.NewValidationError("workbook has no data rows")
	}

	result := &ImportResult{}
	for i, row := range rows[1:] {
		rowNum := i + 2

		code := cell(row, 0)
		status := PayoutStatus(strings.ToLower(cell(row, 1)))
		if code == "" {
			continue
		}
		if !status.Valid() {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: fmt.Sprintf("invalid status %q", cell(row, 1))})
			continue
		}

		var payout Payout
		if err := r.db.WithContext(ctx).Take(&payout, "code = ?", code).Error; err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "batch " + code + " not found"})
			continue
		}

		if _, err := r.UpdatePayoutStatus(ctx, payout.ID, status); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.Imported++
	}
	return result, nil
}
