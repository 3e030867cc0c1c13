package models

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payout groups approved-and-unpaid applications into one disbursement
// batch. Items snapshot beneficiary name, CCCD and amount at creation time;
// later application edits do not propagate back into a batch.
type Payout struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Code           string          `gorm:"size:20;not null;uniqueIndex" json:"code"`
	ProgramId      *int            `gorm:"index" json:"program_id"`
	Program        *SupportProgram `gorm:"foreignKey:ProgramId" json:"program,omitempty"`
	Status         PayoutStatus    `gorm:"size:20;not null;default:pending;index" json:"status"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2)" json:"total_amount"`
	RecipientCount int             `json:"recipient_count"`
	LocationFilter string          `gorm:"size:255" json:"location_filter"`
	CreatedBy      int             `gorm:"not null" json:"created_by"`
	DisbursedAt    *time.Time      `json:"disbursed_at"`
	Items          []PayoutItem    `gorm:"foreignKey:PayoutId" json:"items,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type PayoutItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PayoutId        int             `gorm:"index;not null" json:"payout_id"`
	ApplicationId   int             `gorm:"index;not null" json:"application_id"`
	BeneficiaryName string          `gorm:"size:100;not null" json:"beneficiary_name"`
	CitizenId       string          `gorm:"size:20;not null" json:"citizen_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(14,2)" json:"amount"`
	Status          PayoutStatus    `gorm:"size:20;not null;default:pending" json:"status"`
	PaidAt          *time.Time      `json:"paid_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPayout struct {
	ProgramId *int   `json:"program_id"`
	Location  string `json:"location"`
}

const payoutLockKey = "lock:payout-batch"

// CreatePayout builds one batch from the currently approved, not-yet-paid
// applications. The candidate selection and inserts run in one transaction,
// and the whole operation is serialized through redis when a lock client is
// configured, so two concurrent batch creations cannot pick the same
// applications.
func (r *Repo) CreatePayout(ctx context.Context, input *NewPayout) (*Payout, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewUnauthorizedError("unauthorized")
	}

	if r.locker != nil {
		lock, err := r.locker.Obtain(ctx, payoutLockKey, 10*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 30),
		})
		if err != nil {
			return nil, utils.NewInternalError(err)
		}
		defer lock.Release(ctx)
	}

	var payout Payout
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidates, err := payoutCandidates(tx, input)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			var approvedTotal int64
			if err := tx.Model(&Application{}).
				Where("status = ?", ApplicationStatusApproved).
				Count(&approvedTotal).Error; err != nil {
				return err
			}
			return utils.NewValidationError(fmt.Sprintf(
				"no eligible applications for this filter (%d approved applications system-wide)", approvedTotal))
		}

		code, err := nextCode(tx, SeriesPayoutBatch)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, candidate := range candidates {
			total = total.Add(candidateAmount(candidate))
		}

		payout = Payout{
			Code:           code,
			ProgramId:      input.ProgramId,
			Status:         PayoutStatusPending,
			TotalAmount:    total,
			RecipientCount: len(candidates),
			LocationFilter: input.Location,
			CreatedBy:      userId,
		}
		if err := tx.Create(&payout).Error; err != nil {
			return err
		}

		for _, candidate := range candidates {
			item := PayoutItem{
				PayoutId:        payout.ID,
				ApplicationId:   candidate.ID,
				BeneficiaryName: candidate.FullName,
				CitizenId:       candidate.CitizenId,
				Amount:          candidateAmount(candidate),
				Status:          PayoutStatusPending,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if utils.KindOf(err) != utils.KindInternal {
			return nil, err
		}
		return nil, utils.NewInternalError(err)
	}
	return &payout, nil
}

// payoutCandidates selects approved applications not yet claimed by any
// batch, applying the optional program and location filters.
func payoutCandidates(tx *gorm.DB, input *NewPayout) ([]*Application, error) {
	dbCtx := tx.Model(&Application{}).
		Where("status = ?", ApplicationStatusApproved).
		Where("id NOT IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Model(&PayoutItem{}).Select("application_id"))

	if input.ProgramId != nil {
		dbCtx = dbCtx.Where("program_id = ?", *input.ProgramId)
	}
	if input.Location != "" {
		like := "%" + input.Location + "%"
		dbCtx = dbCtx.Where("district LIKE ? OR commune LIKE ? OR village LIKE ? OR address LIKE ?",
			like, like, like, like)
	}

	var candidates []*Application
	if err := dbCtx.Order("id").Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

// candidateAmount prefers the officer-set support amount, falling back to
// the requested amount; missing amounts count as zero.
func candidateAmount(application *Application) decimal.Decimal {
	if application.SupportAmount.Valid {
		return application.SupportAmount.Decimal
	}
	return application.RequestedAmount
}

// UpdatePayoutStatus advances a batch and cascades to its items in one
// transaction. Completing a batch also flips every linked application to
// paid, appends a history row per application, and notifies beneficiaries;
// either everything commits or nothing does.
func (r *Repo) UpdatePayoutStatus(ctx context.Context, id int, status PayoutStatus) (*Payout, error) {
	if !status.Valid() {
		return nil, utils.NewValidationError("invalid payout status")
	}

	var payout Payout
	if err := r.db.WithContext(ctx).Take(&payout, "id = ?", id).Error; err != nil {
		return nil, utils.NewNotFoundError("payout batch not found")
	}

	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batchUpdates := map[string]interface{}{"status": status}
		if status == PayoutStatusCompleted {
			batchUpdates["disbursed_at"] = now
		}
		if err := tx.Model(&payout).Updates(batchUpdates).Error; err != nil {
			return err
		}

		itemUpdates := map[string]interface{}{"status": status}
		if status == PayoutStatusCompleted {
			itemUpdates["paid_at"] = now
		}
		if err := tx.Model(&PayoutItem{}).Where("payout_id = ?", payout.ID).
			Updates(itemUpdates).Error; err != nil {
			return err
		}

		if status != PayoutStatusCompleted {
			return nil
		}

		var items []PayoutItem
		if err := tx.Where("payout_id = ?", payout.ID).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			var application Application
			if err := tx.Take(&application, "id = ?", item.ApplicationId).Error; err != nil {
				return err
			}
			oldStatus := application.Status
			if err := tx.Model(&application).Update("status", ApplicationStatusPaid).Error; err != nil {
				return err
			}
			if err := appendHistory(tx, application.ID, HistoryActionPaid, oldStatus, ApplicationStatusPaid,
				"disbursed in batch "+payout.Code); err != nil {
				return err
			}
			if err := notify(tx, application.UserId,
				"Hồ sơ "+application.Code+" đã được chi trả",
				"Khoản trợ cấp đã được giải ngân trong đợt "+payout.Code,
				NotificationTypePayout); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &payout, nil
}

func (r *Repo) GetPayout(ctx context.Context, id int) (*Payout, error) {
	var payout Payout
	err := r.db.WithContext(ctx).Preload("Program").Take(&payout, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.NewNotFoundError("payout batch not found")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &payout, nil
}

func (r *Repo) GetPayouts(ctx context.Context, status PayoutStatus) ([]*Payout, error) {
	dbCtx := r.db.WithContext(ctx).Model(&Payout{})
	if status != "" {
		if !status.Valid() {
			return nil, utils.NewValidationError("invalid payout status")
		}
		dbCtx = dbCtx.Where("status = ?", status)
	}

	var payouts []*Payout
	if err := dbCtx.Preload("Program").Order("created_at DESC").Find(&payouts).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return payouts, nil
}

func (r *Repo) GetPayoutItems(ctx context.Context, payoutId int) ([]*PayoutItem, error) {
	dbCtx := r.db.WithContext(ctx).Model(&PayoutItem{})
	if payoutId != 0 {
		if err := r.validateResourceId(ctx, &Payout{}, payoutId); err != nil {
			return nil, err
		}
		dbCtx = dbCtx.Where("payout_id = ?", payoutId)
	}

	var items []*PayoutItem
	if err := dbCtx.Order("id").Find(&items).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	return items, nil
}

type PayoutStats struct {
	TotalBatches    int64           `json:"total_batches"`
	Pending         int64           `json:"pending"`
	Processing      int64           `json:"processing"`
	Completed       int64           `json:"completed"`
	TotalDisbursed  decimal.Decimal `json:"total_disbursed"`
	TotalRecipients int64           `json:"total_recipients"`
}

func (r *Repo) GetPayoutStats(ctx context.Context) (*PayoutStats, error) {
	var stats PayoutStats

	type statusCount struct {
		Status PayoutStatus
		Count  int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&Payout{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	for _, row := range rows {
		stats.TotalBatches += row.Count
		switch row.Status {
		case PayoutStatusPending:
			stats.Pending = row.Count
		case PayoutStatusProcessing:
			stats.Processing = row.Count
		case PayoutStatusCompleted:
			stats.Completed = row.Count
		}
	}

	var totals struct {
		Amount     decimal.Decimal
		Recipients int64
	}
	err = r.db.WithContext(ctx).Model(&Payout{}).
		Select("COALESCE(SUM(total_amount), 0) as amount, COALESCE(SUM(recipient_count), 0) as recipients").
		Where("status = ?", PayoutStatusCompleted).
		Scan(&totals).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	stats.TotalDisbursed = totals.Amount
	stats.TotalRecipients = totals.Recipients
	return &stats, nil
}
