package models

import (
	"context"
	"time"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
)

// ApplicationDocument is the metadata row for one uploaded attachment.
// Rows are created during submission and never mutated.
type ApplicationDocument struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ApplicationId int       `gorm:"index;not null" json:"application_id"`
	FileName      string    `gorm:"size:255;not null" json:"file_name"`
	FilePath      string    `gorm:"size:500;not null" json:"file_path"`
	ThumbnailPath string    `gorm:"size:500" json:"thumbnail_path"`
	FileSize      int64     `json:"file_size"`
	MimeType      string    `gorm:"size:100" json:"mime_type"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewDocument carries the metadata of a file already written to disk.
type NewDocument struct {
	FileName      string
	FilePath      string
	ThumbnailPath string
	FileSize      int64
	MimeType      string
}

func (r *Repo) GetApplicationDocuments(ctx context.Context, applicationId int) ([]*ApplicationDocument, error) {
	var docs []*ApplicationDocument
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationId).
		Order("id").
		Find(&docs).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return docs, nil
}
