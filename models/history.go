package models

import (
	"context"
	"errors"
	"time"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"gorm.io/gorm"
)

// ApplicationHistory is the append-only audit log. Rows are written inside
// the transaction that mutates the application and are never updated or
// deleted, including after the application itself is removed.
type ApplicationHistory struct {
	ID            int               `gorm:"primary_key" json:"id"`
	ApplicationId int               `gorm:"index;not null" json:"application_id"`
	Action        string            `gorm:"size:20;not null" json:"action"`
	OldStatus     ApplicationStatus `gorm:"size:20" json:"old_status"`
	NewStatus     ApplicationStatus `gorm:"size:20" json:"new_status"`
	ActorId       int               `gorm:"index;not null" json:"actor_id"`
	ActorName     string            `gorm:"size:100" json:"actor_name"`
	Comment       string            `gorm:"type:text" json:"comment"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// appendHistory records one audit row. The actor comes from the context
// carried by tx, which is the mutating transaction.
func appendHistory(tx *gorm.DB, applicationId int, action string, oldStatus, newStatus ApplicationStatus, comment string) error {
	ctx := tx.Statement.Context

	actorId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}
	actorName, _ := utils.GetUserNameFromContext(ctx)

	history := ApplicationHistory{
		ApplicationId: applicationId,
		Action:        action,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		ActorId:       actorId,
		ActorName:     actorName,
		Comment:       comment,
	}
	return tx.Create(&history).Error
}

func (r *Repo) GetApplicationHistory(ctx context.Context, applicationId int) ([]*ApplicationHistory, error) {
	var rows []*ApplicationHistory
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationId).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return rows, nil
}
