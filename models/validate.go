package models

import (
	"context"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
)

// validateUnique errors with a duplicate kind when another row already holds
// value in column. exceptId skips the row being updated (0 for creates).
func (r *Repo) validateUnique(ctx context.Context, model interface{}, column string, value interface{}, exceptId int) error {
	dbCtx := r.db.WithContext(ctx).Model(model).Where(column+" = ?", value)
	if exceptId != 0 {
		dbCtx = dbCtx.Where("NOT id = ?", exceptId)
	}
	var count int64
	if err := dbCtx.Count(&count).Error; err != nil {
		return utils.NewInternalError(err)
	}
	if count > 0 {
		return utils.NewDuplicateError("duplicate " + column)
	}
	return nil
}

// validateResourceId errors with not-found when no row has this id.
func (r *Repo) validateResourceId(ctx context.Context, model interface{}, id int) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return utils.NewInternalError(err)
	}
	if count <= 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
