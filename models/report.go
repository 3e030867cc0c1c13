package models

import (
	"context"
	"fmt"
	"time"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"github.com/shopspring/decimal"
)

type StatusCount struct {
	Status ApplicationStatus `json:"status"`
	Count  int64             `json:"count"`
}

type ProgramCount struct {
	ProgramId   int             `json:"program_id"`
	ProgramCode string          `json:"program_code"`
	ProgramName string          `json:"program_name"`
	Count       int64           `json:"count"`
	Amount      decimal.Decimal `json:"amount"`
}

type MonthCount struct {
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

type DashboardStats struct {
	TotalApplications   int64           `json:"total_applications"`
	ByStatus            []StatusCount   `json:"by_status"`
	ByProgram           []ProgramCount  `json:"by_program"`
	Monthly             []MonthCount    `json:"monthly"`
	TotalApprovedAmount decimal.Decimal `json:"total_approved_amount"`
	TotalPaidAmount     decimal.Decimal `json:"total_paid_amount"`
}

// monthExpr is the dialect-dependent month/year extraction; sqlite (tests)
// has no YEAR()/MONTH().
func (r *Repo) monthExpr(column string) (yearExpr, monthExpr string) {
	if r.db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", column),
			fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", column)
	}
	return fmt.Sprintf("YEAR(%s)", column), fmt.Sprintf("MONTH(%s)", column)
}

func (r *Repo) GetDashboardStats(ctx context.Context, year int) (*DashboardStats, error) {
	var stats DashboardStats

	err := r.db.WithContext(ctx).Model(&Application{}).Count(&stats.TotalApplications).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	err = r.db.WithContext(ctx).Model(&Application{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&stats.ByStatus).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	err = r.db.WithContext(ctx).Model(&Application{}).
		Select("applications.program_id, support_programs.code as program_code, support_programs.name as program_name, " +
			"COUNT(*) as count, COALESCE(SUM(applications.support_amount), 0) as amount").
		Joins("JOIN support_programs ON support_programs.id = applications.program_id").
		Group("applications.program_id, support_programs.code, support_programs.name").
		Scan(&stats.ByProgram).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	if year == 0 {
		year = time.Now().Year()
	}
	yearExpr, monthExpr := r.monthExpr("created_at")
	err = r.db.WithContext(ctx).Model(&Application{}).
		Select(monthExpr+" as month, COUNT(*) as count").
		Where(yearExpr+" = ?", year).
		Group(monthExpr).
		Order("month").
		Scan(&stats.Monthly).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	sums := []struct {
		dest   *decimal.Decimal
		status ApplicationStatus
	}{
		{&stats.TotalApprovedAmount, ApplicationStatusApproved},
		{&stats.TotalPaidAmount, ApplicationStatusPaid},
	}
	for _, s := range sums {
		var row struct{ Total decimal.Decimal }
		err = r.db.WithContext(ctx).Model(&Application{}).
			Select("COALESCE(SUM(support_amount), 0) as total").
			Where("status = ?", s.status).
			Scan(&row).Error
		if err != nil {
			return nil, utils.NewInternalError(err)
		}
		*s.dest = row.Total
	}

	return &stats, nil
}

type ReportFilter struct {
	Year      int
	Month     int
	ProgramId int
	Status    ApplicationStatus
}

type ReportRow struct {
	Status      ApplicationStatus `json:"status"`
	ProgramCode string            `json:"program_code"`
	Year        int               `json:"year"`
	Month       int               `json:"month"`
	Count       int64             `json:"count"`
	Amount      decimal.Decimal   `json:"amount"`
}

// GetApplicationReport groups applications by status, program and month
// under the given filter.
func (r *Repo) GetApplicationReport(ctx context.Context, filter ReportFilter) ([]ReportRow, error) {
	yearExpr, monthExpr := r.monthExpr("applications.created_at")

	dbCtx := r.db.WithContext(ctx).Model(&Application{}).
		Select("applications.status, support_programs.code as program_code, "+
			yearExpr+" as year, "+monthExpr+" as month, "+
			"COUNT(*) as count, COALESCE(SUM(applications.support_amount), 0) as amount").
		Joins("JOIN support_programs ON support_programs.id = applications.program_id")

	if filter.Year != 0 {
		dbCtx = dbCtx.Where(yearExpr+" = ?", filter.Year)
	}
	if filter.Month != 0 {
		dbCtx = dbCtx.Where(monthExpr+" = ?", filter.Month)
	}
	if filter.ProgramId != 0 {
		dbCtx = dbCtx.Where("applications.program_id = ?", filter.ProgramId)
	}
	if filter.Status != "" {
		dbCtx = dbCtx.Where("applications.status = ?", filter.Status)
	}

	var rows []ReportRow
	err := dbCtx.Group("applications.status, support_programs.code, " + yearExpr + ", " + monthExpr).
		Order("year, month").
		Scan(&rows).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return rows, nil
}

type AdminDashboard struct {
	TotalUsers        int64    `json:"total_users"`
	ActivePrograms    int64    `json:"active_programs"`
	TotalApplications int64    `json:"total_applications"`
	PendingReview     int64    `json:"pending_review"`
	OpenComplaints    int64    `json:"open_complaints"`
	Alerts            []string `json:"alerts"`
}

const stalePendingDays = 7

func (r *Repo) GetAdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	var dash AdminDashboard

	counts := []struct {
		dest  *int64
		model interface{}
		cond  []interface{}
	}{
		{&dash.TotalUsers, &User{}, nil},
		{&dash.ActivePrograms, &SupportProgram{}, []interface{}{"status = ?", ProgramStatusActive}},
		{&dash.TotalApplications, &Application{}, nil},
		{&dash.PendingReview, &Application{}, []interface{}{"status IN ?", []ApplicationStatus{ApplicationStatusPending, ApplicationStatusUnderReview}}},
		{&dash.OpenComplaints, &Complaint{}, []interface{}{"status != ?", ComplaintStatusResolved}},
	}
	for _, c := range counts {
		dbCtx := r.db.WithContext(ctx).Model(c.model)
		if c.cond != nil {
			dbCtx = dbCtx.Where(c.cond[0], c.cond[1:]...)
		}
		if err := dbCtx.Count(c.dest).Error; err != nil {
			return nil, utils.NewInternalError(err)
		}
	}

	cutoff := time.Now().AddDate(0, 0, -stalePendingDays)
	var stale int64
	err := r.db.WithContext(ctx).Model(&Application{}).
		Where("status = ? AND created_at < ?", ApplicationStatusPending, cutoff).
		Count(&stale).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	if stale > 0 {
		dash.Alerts = append(dash.Alerts,
			fmt.Sprintf("%d applications pending for more than %d days", stale, stalePendingDays))
	}

	var unassigned int64
	err = r.db.WithContext(ctx).Model(&Complaint{}).
		Where("assigned_to IS NULL AND status != ?", ComplaintStatusResolved).
		Count(&unassigned).Error
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	if unassigned > 0 {
		dash.Alerts = append(dash.Alerts, fmt.Sprintf("%d complaints without an assignee", unassigned))
	}

	return &dash, nil
}
