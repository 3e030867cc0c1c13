package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSeries is the counter table behind human-readable document codes
// (APP00001, BATCH0001, KN0001). The counter is read and advanced inside
// the same transaction as the insert that consumes the code, so concurrent
// submissions cannot observe the same value.
type NumberSeries struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Prefix    string    `gorm:"size:10;not null" json:"prefix"`
	PadWidth  int       `gorm:"not null" json:"pad_width"`
	NextValue int       `gorm:"not null;default:1" json:"next_value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	SeriesApplication = "application"
	SeriesPayoutBatch = "payout_batch"
	SeriesComplaint   = "complaint"
)

func seedNumberSeries(db *gorm.DB) error {
	seeds := []NumberSeries{
		{Name: SeriesApplication, Prefix: "APP", PadWidth: 5, NextValue: 1},
		{Name: SeriesPayoutBatch, Prefix: "BATCH", PadWidth: 4, NextValue: 1},
		{Name: SeriesComplaint, Prefix: "KN", PadWidth: 4, NextValue: 1},
	}
	for _, seed := range seeds {
		err := db.Where(NumberSeries{Name: seed.Name}).
			Attrs(NumberSeries{Prefix: seed.Prefix, PadWidth: seed.PadWidth, NextValue: seed.NextValue}).
			FirstOrCreate(&NumberSeries{}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// nextCode reserves the next code of a series. tx must be the transaction
// that also inserts the row consuming the code; the row lock on the series
// holds until that transaction commits.
func nextCode(tx *gorm.DB, name string) (string, error) {
	var series NumberSeries

	dbCtx := tx
	if tx.Dialector.Name() == "mysql" {
		dbCtx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := dbCtx.Where("name = ?", name).Take(&series).Error; err != nil {
		return "", err
	}

	code := fmt.Sprintf("%s%0*d", series.Prefix, series.PadWidth, series.NextValue)

	err := tx.Model(&NumberSeries{}).Where("id = ?", series.ID).
		Update("next_value", gorm.Expr("next_value + 1")).Error
	if err != nil {
		return "", err
	}
	return code, nil
}
