package models_test

import (
	"testing"
	"time"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/shopspring/decimal"
)

func TestGetDashboardStats(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	officer := seedOfficer(t, repo, "038090001234", "Cán bộ Bình")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")

	approved := seedApplication(t, repo, user, program.ID, 500000)
	seedApplication(t, repo, user, program.ID, 300000)
	approveApplication(t, repo, officer, approved.ID)
	if err := repo.DB().Model(&models.Application{}).Where("id = ?", approved.ID).
		Update("support_amount", decimal.NewFromInt(450000)).Error; err != nil {
		t.Fatalf("set support amount: %v", err)
	}

	ctx := actorCtx(officer.ID, officer.Name, officer.Role)
	stats, err := repo.GetDashboardStats(ctx, time.Now().Year())
	if err != nil {
		t.Fatalf("GetDashboardStats: %v", err)
	}

	if stats.TotalApplications != 2 {
		t.Errorf("total = %d, want 2", stats.TotalApplications)
	}
	byStatus := map[models.ApplicationStatus]int64{}
	for _, row := range stats.ByStatus {
		byStatus[row.Status] = row.Count
	}
	if byStatus[models.ApplicationStatusApproved] != 1 || byStatus[models.ApplicationStatusPending] != 1 {
		t.Errorf("by status = %v", byStatus)
	}
	if len(stats.ByProgram) != 1 || stats.ByProgram[0].ProgramCode != "TC001" || stats.ByProgram[0].Count != 2 {
		t.Errorf("by program = %+v", stats.ByProgram)
	}
	if len(stats.Monthly) != 1 || stats.Monthly[0].Count != 2 {
		t.Errorf("monthly = %+v", stats.Monthly)
	}
	if !stats.TotalApprovedAmount.Equal(decimal.NewFromInt(450000)) {
		t.Errorf("approved amount = %s, want 450000", stats.TotalApprovedAmount)
	}
}

func TestGetApplicationReport_GroupsByStatusProgramMonth(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	other := seedProgram(t, repo, "TC002")
	officer := seedOfficer(t, repo, "038090001234", "Cán bộ Bình")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")

	seedApplication(t, repo, user, program.ID, 100000)
	seedApplication(t, repo, user, other.ID, 200000)

	ctx := actorCtx(officer.ID, officer.Name, officer.Role)
	rows, err := repo.GetApplicationReport(ctx, models.ReportFilter{Year: time.Now().Year()})
	if err != nil {
		t.Fatalf("GetApplicationReport: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Status != models.ApplicationStatusPending {
			t.Errorf("status = %s, want pending", row.Status)
		}
		if row.Month != int(time.Now().Month()) {
			t.Errorf("month = %d, want %d", row.Month, time.Now().Month())
		}
	}

	filtered, err := repo.GetApplicationReport(ctx, models.ReportFilter{ProgramId: program.ID})
	if err != nil {
		t.Fatalf("filtered report: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ProgramCode != "TC001" {
		t.Errorf("filtered = %+v", filtered)
	}
}

func TestGetAdminDashboard_Alerts(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")

	stale := seedApplication(t, repo, user, program.ID, 100000)
	old := time.Now().AddDate(0, 0, -10)
	if err := repo.DB().Model(&models.Application{}).Where("id = ?", stale.ID).
		Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate application: %v", err)
	}

	ctx := actorCtx(user.ID, user.Name, user.Role)
	if _, err := repo.CreateComplaint(ctx, &models.NewComplaint{Title: "A", Content: "a"}); err != nil {
		t.Fatalf("CreateComplaint: %v", err)
	}

	dash, err := repo.GetAdminDashboard(actorCtx(1, "Admin", models.UserRoleAdmin))
	if err != nil {
		t.Fatalf("GetAdminDashboard: %v", err)
	}
	if dash.TotalUsers != 1 || dash.ActivePrograms != 1 || dash.TotalApplications != 1 {
		t.Errorf("dash = %+v", dash)
	}
	if dash.PendingReview != 1 || dash.OpenComplaints != 1 {
		t.Errorf("pending = %d open complaints = %d, want 1/1", dash.PendingReview, dash.OpenComplaints)
	}
	if len(dash.Alerts) != 2 {
		t.Fatalf("alerts = %v, want stale pending + unassigned complaint", dash.Alerts)
	}
}
