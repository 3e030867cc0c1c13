package models

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type HouseholdMember struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	BirthYear    int    `json:"birth_year"`
	Occupation   string `json:"occupation"`
}

// HouseholdMembers accepts either a JSON array or a JSON-encoded string
// holding one (legacy clients send the blob pre-serialized).
type HouseholdMembers []HouseholdMember

func (m *HouseholdMembers) UnmarshalJSON(data []byte) error {
	var members []HouseholdMember
	if err := json.Unmarshal(data, &members); err == nil {
		*m = members
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*m = nil
		return nil
	}
	return json.Unmarshal([]byte(raw), (*[]HouseholdMember)(m))
}

type Application struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Code      string          `gorm:"size:20;not null;uniqueIndex" json:"code"`
	ProgramId int             `gorm:"index;not null" json:"program_id"`
	Program   *SupportProgram `gorm:"foreignKey:ProgramId" json:"program,omitempty"`
	UserId    int             `gorm:"index;not null" json:"user_id"`

	// Applicant snapshot: copied from the form, not joined from users, so
	// later profile edits do not rewrite submitted applications.
	FullName  string     `gorm:"size:100;not null" json:"full_name"`
	CitizenId string     `gorm:"size:20;not null" json:"citizen_id"`
	BirthDate *time.Time `json:"birth_date"`
	Phone     string     `gorm:"size:20" json:"phone"`
	District  string     `gorm:"size:100" json:"district"`
	Commune   string     `gorm:"size:100" json:"commune"`
	Village   string     `gorm:"size:100" json:"village"`
	Address   string     `gorm:"size:255" json:"address"`

	Reason           string              `gorm:"type:text" json:"reason"`
	RequestedAmount  decimal.Decimal     `gorm:"type:decimal(14,2)" json:"requested_amount"`
	SupportAmount    decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"support_amount"`
	HouseholdMembers string              `gorm:"type:text" json:"household_members"`

	Status     ApplicationStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	Note       string            `gorm:"type:text" json:"note"`
	ReviewedAt *time.Time        `json:"reviewed_at"`
	ApprovedAt *time.Time        `json:"approved_at"`
	RejectedAt *time.Time        `json:"rejected_at"`

	Documents []ApplicationDocument `gorm:"foreignKey:ApplicationId" json:"documents,omitempty"`
	History   []ApplicationHistory  `gorm:"foreignKey:ApplicationId" json:"history,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewApplication struct {
	ProgramId        int                 `json:"program_id" binding:"required"`
	FullName         string              `json:"full_name" binding:"required"`
	CitizenId        string              `json:"citizen_id" binding:"required"`
	BirthDate        *time.Time          `json:"birth_date"`
	Phone            string              `json:"phone"`
	District         string              `json:"district"`
	Commune          string              `json:"commune"`
	Village          string              `json:"village"`
	Address          string              `json:"address"`
	Reason           string              `json:"reason"`
	RequestedAmount  decimal.Decimal     `json:"requested_amount"`
	SupportAmount    decimal.NullDecimal `json:"support_amount"`
	HouseholdMembers HouseholdMembers    `json:"household_members"`
	Draft            bool                `json:"draft"`
}

func (input *NewApplication) validate(ctx context.Context, r *Repo) error {
	if !utils.IsValidCitizenId(input.CitizenId) {
		return utils.NewValidationError("citizen id must be 9 or 12 digits")
	}
	var program SupportProgram
	err := r.db.WithContext(ctx).Take(&program, "id = ?", input.ProgramId).Error
	if err == gorm.ErrRecordNotFound {
		return utils.NewValidationError("support program not found")
	}
	if err != nil {
		return utils.NewInternalError(err)
	}
	if program.Status != ProgramStatusActive {
		return utils.NewValidationError("support program is not active")
	}
	if input.RequestedAmount.IsNegative() {
		return utils.NewValidationError("requested amount must not be negative")
	}
	return nil
}

// CreateApplication persists one application plus its initial history row
// and any document rows, all in one transaction. initialStatus is pending
// for citizen submissions and under_review for officer-entered records;
// Draft in the input overrides it.
func (r *Repo) CreateApplication(ctx context.Context, input *NewApplication, initialStatus ApplicationStatus, docs []NewDocument) (*Application, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewUnauthorizedError("unauthorized")
	}

	if err := input.validate(ctx, r); err != nil {
		return nil, err
	}

	status := initialStatus
	if input.Draft {
		status = ApplicationStatusDraft
	}

	members, err := utils.MarshalToJSON(input.HouseholdMembers)
	if err != nil {
		return nil, utils.NewValidationError("invalid household members")
	}

	var application Application
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := nextCode(tx, SeriesApplication)
		if err != nil {
			return err
		}

		application = Application{
			Code:             code,
			ProgramId:        input.ProgramId,
			UserId:           userId,
			FullName:         input.FullName,
			CitizenId:        input.CitizenId,
			BirthDate:        input.BirthDate,
			Phone:            input.Phone,
			District:         input.District,
			Commune:          input.Commune,
			Village:          input.Village,
			Address:          input.Address,
			Reason:           input.Reason,
			RequestedAmount:  input.RequestedAmount,
			SupportAmount:    input.SupportAmount,
			HouseholdMembers: members,
			Status:           status,
		}
		if err := tx.Create(&application).Error; err != nil {
			return err
		}

		for _, doc := range docs {
			row := ApplicationDocument{
				ApplicationId: application.ID,
				FileName:      doc.FileName,
				FilePath:      doc.FilePath,
				ThumbnailPath: doc.ThumbnailPath,
				FileSize:      doc.FileSize,
				MimeType:      doc.MimeType,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		return appendHistory(tx, application.ID, HistoryActionCreated, "", status, "")
	})
	if err != nil {
		if utils.KindOf(err) != utils.KindInternal {
			return nil, err
		}
		return nil, utils.NewInternalError(err)
	}
	return &application, nil
}

func (r *Repo) GetApplication(ctx context.Context, id int) (*Application, error) {
	var application Application
	err := r.db.WithContext(ctx).
		Preload("Program").
		Preload("Documents").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("application_histories.created_at, application_histories.id")
		}).
		Take(&application, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.NewNotFoundError("application not found")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &application, nil
}

func (r *Repo) GetMyApplications(ctx context.Context) ([]*Application, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewUnauthorizedError("unauthorized")
	}

	var applications []*Application
	err := r.db.WithContext(ctx).
		Preload("Program").
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&applications).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return applications, nil
}

type ApplicationFilter struct {
	Status    ApplicationStatus
	ProgramId int
	Search    string
	Location  string
	Page      int
	Limit     int
}

func (r *Repo) GetApplications(ctx context.Context, filter ApplicationFilter) ([]*Application, int64, error) {
	dbCtx := r.db.WithContext(ctx).Model(&Application{})

	if filter.Status != "" {
		dbCtx = dbCtx.Where("status = ?", filter.Status)
	}
	if filter.ProgramId != 0 {
		dbCtx = dbCtx.Where("program_id = ?", filter.ProgramId)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		dbCtx = dbCtx.Where("code LIKE ? OR full_name LIKE ? OR citizen_id LIKE ?", like, like, like)
	}
	if filter.Location != "" {
		like := "%" + filter.Location + "%"
		dbCtx = dbCtx.Where("district LIKE ? OR commune LIKE ? OR village LIKE ? OR address LIKE ?",
			like, like, like, like)
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, utils.NewInternalError(err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var applications []*Application
	err := dbCtx.Preload("Program").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&applications).Error
	if err != nil {
		return nil, 0, utils.NewInternalError(err)
	}
	return applications, total, nil
}

// UpdateApplicationStatus moves an application to any known status, stamps
// the matching timestamp column, records history and notifies the owner.
// No transition matrix is enforced: officers may re-open rejected
// applications or send approved ones back to review.
func (r *Repo) UpdateApplicationStatus(ctx context.Context, id int, status ApplicationStatus, comment string) (*Application, error) {
	if !status.Valid() {
		return nil, utils.NewValidationError("invalid application status")
	}

	var application Application
	if err := r.db.WithContext(ctx).Take(&application, "id = ?", id).Error; err != nil {
		return nil, utils.NewNotFoundError("application not found")
	}

	oldStatus := application.Status
	now := time.Now()

	updates := map[string]interface{}{"status": status}
	switch status {
	case ApplicationStatusApproved:
		updates["approved_at"] = now
	case ApplicationStatusRejected:
		updates["rejected_at"] = now
	case ApplicationStatusUnderReview:
		updates["reviewed_at"] = now
	}
	if comment != "" {
		updates["note"] = comment
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&application).Updates(updates).Error; err != nil {
			return err
		}
		if err := appendHistory(tx, application.ID, HistoryActionStatusChanged, oldStatus, status, comment); err != nil {
			return err
		}
		return notify(tx, application.UserId,
			"Cập nhật hồ sơ "+application.Code,
			"Hồ sơ "+application.Code+" chuyển sang trạng thái "+string(status),
			NotificationTypeApplication)
	})
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &application, nil
}

// UpdateApplication edits the form fields. Citizens may only edit their own
// draft or pending applications; officers and admins may edit any.
func (r *Repo) UpdateApplication(ctx context.Context, id int, input *NewApplication) (*Application, error) {
	var application Application
	if err := r.db.WithContext(ctx).Take(&application, "id = ?", id).Error; err != nil {
		return nil, utils.NewNotFoundError("application not found")
	}

	role, _ := utils.GetUserRoleFromContext(ctx)
	if role == string(UserRoleCitizen) {
		userId, _ := utils.GetUserIdFromContext(ctx)
		if application.UserId != userId {
			return nil, utils.NewForbiddenError("not your application")
		}
		if application.Status != ApplicationStatusDraft && application.Status != ApplicationStatusPending {
			return nil, utils.NewValidationError("application can no longer be edited")
		}
	}

	if err := input.validate(ctx, r); err != nil {
		return nil, err
	}

	members, err := utils.MarshalToJSON(input.HouseholdMembers)
	if err != nil {
		return nil, utils.NewValidationError("invalid household members")
	}

	updates := map[string]interface{}{
		"program_id":        input.ProgramId,
		"full_name":         input.FullName,
		"citizen_id":        input.CitizenId,
		"birth_date":        input.BirthDate,
		"phone":             input.Phone,
		"district":          input.District,
		"commune":           input.Commune,
		"village":           input.Village,
		"address":           input.Address,
		"reason":            input.Reason,
		"requested_amount":  input.RequestedAmount,
		"support_amount":    input.SupportAmount,
		"household_members": members,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&application).Updates(updates).Error; err != nil {
			return err
		}
		return appendHistory(tx, application.ID, HistoryActionUpdated, application.Status, application.Status, "")
	})
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &application, nil
}

// DeleteApplication removes the application and its document rows. History
// rows stay for the audit trail; the returned paths let the handler remove
// the files from disk after the transaction commits.
func (r *Repo) DeleteApplication(ctx context.Context, id int) ([]string, error) {
	var application Application
	if err := r.db.WithContext(ctx).Take(&application, "id = ?", id).Error; err != nil {
		return nil, utils.NewNotFoundError("application not found")
	}

	docs, err := r.GetApplicationDocuments(ctx, id)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, doc := range docs {
		paths = append(paths, doc.FilePath)
		if doc.ThumbnailPath != "" {
			paths = append(paths, doc.ThumbnailPath)
		}
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := appendHistory(tx, application.ID, HistoryActionDeleted, application.Status, application.Status, ""); err != nil {
			return err
		}
		if err := tx.Where("application_id = ?", id).Delete(&ApplicationDocument{}).Error; err != nil {
			return err
		}
		return tx.Delete(&application).Error
	})
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return paths, nil
}
