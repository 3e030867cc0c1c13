package models

import (
	"context"
	"time"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SupportProgram is a named benefit scheme (e.g. TC005). Programs are never
// physically removed; deletion flips the status to inactive.
type SupportProgram struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Code        string          `gorm:"size:20;not null;uniqueIndex" json:"code" binding:"required"`
	Name        string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2)" json:"amount"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
	Status      ProgramStatus   `gorm:"size:10;not null;default:active" json:"status"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupportProgram struct {
	Code        string          `json:"code" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
	Status      ProgramStatus   `json:"status"`
}

func (input *NewSupportProgram) validate(ctx context.Context, r *Repo, id int) error {
	if err := r.validateUnique(ctx, &SupportProgram{}, "code", input.Code, id); err != nil {
		return err
	}
	if input.Status != "" && !input.Status.Valid() {
		return utils.NewValidationError("invalid program status")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return utils.NewValidationError("end date must not precede start date")
	}
	return nil
}

func (r *Repo) CreateProgram(ctx context.Context, input *NewSupportProgram) (*SupportProgram, error) {
	if err := input.validate(ctx, r, 0); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = ProgramStatusActive
	}

	program := SupportProgram{
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
		Amount:      input.Amount,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      status,
	}

	if err := r.db.WithContext(ctx).Create(&program).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &program, nil
}

func (r *Repo) UpdateProgram(ctx context.Context, id int, input *NewSupportProgram) (*SupportProgram, error) {
	var program SupportProgram
	if err := r.db.WithContext(ctx).Take(&program, "id = ?", id).Error; err != nil {
		return nil, utils.NewNotFoundError("program not found")
	}

	if err := input.validate(ctx, r, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"code":        input.Code,
		"name":        input.Name,
		"description": input.Description,
		"amount":      input.Amount,
		"start_date":  input.StartDate,
		"end_date":    input.EndDate,
	}
	if input.Status != "" {
		updates["status"] = input.Status
	}

	if err := r.db.WithContext(ctx).Model(&program).Updates(updates).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &program, nil
}

// DeactivateProgram is the soft delete: the row stays for applications that
// reference it.
func (r *Repo) DeactivateProgram(ctx context.Context, id int) (*SupportProgram, error) {
	var program SupportProgram
	if err := r.db.WithContext(ctx).Take(&program, "id = ?", id).Error; err != nil {
		return nil, utils.NewNotFoundError("program not found")
	}
	if err := r.db.WithContext(ctx).Model(&program).Update("status", ProgramStatusInactive).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &program, nil
}

func (r *Repo) GetProgram(ctx context.Context, id int) (*SupportProgram, error) {
	var program SupportProgram
	err := r.db.WithContext(ctx).Take(&program, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.NewNotFoundError("program not found")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &program, nil
}

// GetPrograms lists programs. activeOnly restricts to active programs; the
// handlers set it for citizen callers.
func (r *Repo) GetPrograms(ctx context.Context, activeOnly bool, search string) ([]*SupportProgram, error) {
	var programs []*SupportProgram

	dbCtx := r.db.WithContext(ctx).Model(&SupportProgram{})
	if activeOnly {
		dbCtx = dbCtx.Where("status = ?", ProgramStatusActive)
	}
	if search != "" {
		like := "%" + search + "%"
		dbCtx = dbCtx.Where("code LIKE ? OR name LIKE ?", like, like)
	}
	if err := dbCtx.Order("code").Find(&programs).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return programs, nil
}
