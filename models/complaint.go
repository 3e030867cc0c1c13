package models

import (
	"context"
	"time"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"gorm.io/gorm"
)

type Complaint struct {
	ID         int             `gorm:"primary_key" json:"id"`
	Code       string          `gorm:"size:20;not null;uniqueIndex" json:"code"`
	UserId     int             `gorm:"index;not null" json:"user_id"`
	Title      string          `gorm:"size:255;not null" json:"title"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Status     ComplaintStatus `gorm:"size:20;not null;default:open;index" json:"status"`
	AssignedTo *int            `gorm:"index" json:"assigned_to"`
	Resolution string          `gorm:"type:text" json:"resolution"`
	ResolvedAt *time.Time      `json:"resolved_at"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewComplaint struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (r *Repo) CreateComplaint(ctx context.Context, input *NewComplaint) (*Complaint, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewUnauthorizedError("unauthorized")
	}

	var complaint Complaint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := nextCode(tx, SeriesComplaint)
		if err != nil {
			return err
		}
		complaint = Complaint{
			Code:    code,
			UserId:  userId,
			Title:   input.Title,
			Content: input.Content,
			Status:  ComplaintStatusOpen,
		}
		return tx.Create(&complaint).Error
	})
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &complaint, nil
}

func (r *Repo) GetComplaint(ctx context.Context, id int) (*Complaint, error) {
	var complaint Complaint
	err := r.db.WithContext(ctx).Take(&complaint, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.NewNotFoundError("complaint not found")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &complaint, nil
}

func (r *Repo) GetComplaints(ctx context.Context, status ComplaintStatus) ([]*Complaint, error) {
	dbCtx := r.db.WithContext(ctx).Model(&Complaint{})
	if status != "" {
		if !status.Valid() {
			return nil, utils.NewValidationError("invalid complaint status")
		}
		dbCtx = dbCtx.Where("status = ?", status)
	}

	var complaints []*Complaint
	if err := dbCtx.Order("created_at DESC").Find(&complaints).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return complaints, nil
}

func (r *Repo) GetMyComplaints(ctx context.Context) ([]*Complaint, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewUnauthorizedError("unauthorized")
	}

	var complaints []*Complaint
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&complaints).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return complaints, nil
}

// AssignComplaint routes the complaint to an officer and moves it to
// in_progress. Assigning after resolution is allowed; the audit trail is
// the updated_at stamp and the notification stream.
func (r *Repo) AssignComplaint(ctx context.Context, id int, officerId int) (*Complaint, error) {
	var complaint Complaint
	if err := r.db.WithContext(ctx).Take(&complaint, "id = ?", id).Error; err != nil {
		return nil, utils.NewNotFoundError("complaint not found")
	}

	var officer User
	if err := r.db.WithContext(ctx).Take(&officer, "id = ?", officerId).Error; err != nil {
		return nil, utils.NewValidationError("officer not found")
	}
	if officer.Role != UserRoleOfficer && officer.Role != UserRoleAdmin {
		return nil, utils.NewValidationError("assignee must be an officer")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&complaint).Updates(map[string]interface{}{
			"assigned_to": officerId,
			"status":      ComplaintStatusInProgress,
		}).Error
		if err != nil {
			return err
		}
		return notify(tx, officerId,
			"Khiếu nại "+complaint.Code+" được phân công",
			"Bạn được phân công xử lý khiếu nại: "+complaint.Title,
			NotificationTypeComplaint)
	})
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &complaint, nil
}

// RespondComplaint records the resolution and stamps the responding officer
// as assignee, replacing any earlier assignment.
func (r *Repo) RespondComplaint(ctx context.Context, id int, resolution string) (*Complaint, error) {
	if resolution == "" {
		return nil, utils.NewValidationError("resolution is required")
	}

	actorId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewUnauthorizedError("unauthorized")
	}

	var complaint Complaint
	if err := r.db.WithContext(ctx).Take(&complaint, "id = ?", id).Error; err != nil {
		return nil, utils.NewNotFoundError("complaint not found")
	}

	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&complaint).Updates(map[string]interface{}{
			"resolution":  resolution,
			"status":      ComplaintStatusResolved,
			"resolved_at": now,
			"assigned_to": actorId,
		}).Error
		if err != nil {
			return err
		}
		return notify(tx, complaint.UserId,
			"Khiếu nại "+complaint.Code+" đã được giải quyết",
			resolution,
			NotificationTypeComplaint)
	})
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &complaint, nil
}

type ComplaintStats struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"open"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
	Unassigned int64 `json:"unassigned"`
}

func (r *Repo) GetComplaintStats(ctx context.Context) (*ComplaintStats, error) {
	var stats ComplaintStats

	counts := []struct {
		dest  *int64
		query func(db *gorm.DB) *gorm.DB
	}{
		{&stats.Total, func(db *gorm.DB) *gorm.DB { return db }},
		{&stats.Open, func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", ComplaintStatusOpen) }},
		{&stats.InProgress, func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", ComplaintStatusInProgress) }},
		{&stats.Resolved, func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", ComplaintStatusResolved) }},
		{&stats.Unassigned, func(db *gorm.DB) *gorm.DB {
			return db.Where("assigned_to IS NULL AND status != ?", ComplaintStatusResolved)
		}},
	}
	for _, c := range counts {
		if err := c.query(r.db.WithContext(ctx).Model(&Complaint{})).Count(c.dest).Error; err != nil {
			return nil, utils.NewInternalError(err)
		}
	}
	return &stats, nil
}

// GetOfficers lists assignable officers for the complaint screens.
func (r *Repo) GetOfficers(ctx context.Context) ([]*User, error) {
	var officers []*User
	err := r.db.WithContext(ctx).
		Where("role IN ? AND status = ?", []UserRole{UserRoleOfficer, UserRoleAdmin}, UserStatusActive).
		Order("name").
		Find(&officers).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	for _, officer := range officers {
		officer.PrepareGive()
	}
	return officers, nil
}
