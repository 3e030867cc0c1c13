package models

import (
	"context"
	"time"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"gorm.io/gorm"
)

type Notification struct {
	ID        int       `gorm:"primary_key" json:"id"`
	UserId    int       `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Type      string    `gorm:"size:30" json:"type"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	NotificationTypeApplication = "application"
	NotificationTypeComplaint   = "complaint"
	NotificationTypePayout      = "payout"
)

// notify creates one notification row inside the caller's transaction.
func notify(tx *gorm.DB, userId int, title, message, ntype string) error {
	notification := Notification{
		UserId:  userId,
		Title:   title,
		Message: message,
		Type:    ntype,
	}
	return tx.Create(&notification).Error
}

type NotificationList struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int64           `json:"unread_count"`
}

func (r *Repo) GetNotifications(ctx context.Context) (*NotificationList, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewUnauthorizedError("unauthorized")
	}

	var list NotificationList
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC, id DESC").
		Find(&list.Notifications).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	err = r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Count(&list.UnreadCount).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &list, nil
}

// MarkNotificationRead flips exactly the caller's notification; marking
// someone else's id is a not-found, not a forbidden, to avoid probing.
func (r *Repo) MarkNotificationRead(ctx context.Context, id int) error {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return utils.NewUnauthorizedError("unauthorized")
	}

	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userId).
		Update("is_read", true)
	if result.Error != nil {
		return utils.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NewNotFoundError("notification not found")
	}
	return nil
}

func (r *Repo) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return 0, utils.NewUnauthorizedError("unauthorized")
	}

	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, utils.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}
