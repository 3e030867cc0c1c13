package models

import (
	"github.com/bsm/redislock"
	"gorm.io/gorm"
)

// Repo is the data-access object for the portal. It is constructed once in
// main with the connected *gorm.DB and passed to the handlers; nothing in
// this package touches a package-global connection.
type Repo struct {
	db     *gorm.DB
	locker *redislock.Client
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// WithLocker attaches the redis lock client used to serialize payout batch
// creation. Without it batch creation falls back to plain transactions.
func (r *Repo) WithLocker(locker *redislock.Client) *Repo {
	r.locker = locker
	return r
}

func (r *Repo) DB() *gorm.DB {
	return r.db
}

// AutoMigrate creates the schema and seeds the code number series.
func (r *Repo) AutoMigrate() error {
	err := r.db.AutoMigrate(
		&User{},
		&SupportProgram{},
		&Application{},
		&ApplicationHistory{},
		&ApplicationDocument{},
		&Complaint{},
		&Payout{},
		&PayoutItem{},
		&Notification{},
		&NumberSeries{},
	)
	if err != nil {
		return err
	}
	return seedNumberSeries(r.db)
}
