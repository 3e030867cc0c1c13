package models_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"github.com/shopspring/decimal"
)

func TestApplicationCodes_Sequential(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")

	for i := 1; i <= 10; i++ {
		application := seedApplication(t, repo, user, program.ID, 500000)
		want := fmt.Sprintf("APP%05d", i)
		if application.Code != want {
			t.Fatalf("application %d: code = %s, want %s", i, application.Code, want)
		}
	}
}

func TestCreateApplication_PendingWithHistory(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")
	ctx := actorCtx(user.ID, user.Name, user.Role)

	application, err := repo.CreateApplication(ctx, &models.NewApplication{
		ProgramId:       program.ID,
		FullName:        "Nguyễn Văn An",
		CitizenId:       "001098123456",
		District:        "Huyện Châu Thành",
		Commune:         "Xã An Bình",
		Reason:          "Hộ nghèo",
		RequestedAmount: decimal.NewFromInt(500000),
		HouseholdMembers: models.HouseholdMembers{
			{Name: "Nguyễn Thị Hoa", Relationship: "vợ"},
		},
	}, models.ApplicationStatusPending, []models.NewDocument{
		{FileName: "cccd.jpg", FilePath: "uploads/citizen/1/cccd.jpg", FileSize: 1024, MimeType: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}

	if application.Status != models.ApplicationStatusPending {
		t.Errorf("status = %s, want pending", application.Status)
	}
	if !strings.Contains(application.HouseholdMembers, "Nguyễn Thị Hoa") {
		t.Errorf("household members not stored: %s", application.HouseholdMembers)
	}

	history, err := repo.GetApplicationHistory(ctx, application.ID)
	if err != nil {
		t.Fatalf("GetApplicationHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history))
	}
	if history[0].Action != models.HistoryActionCreated {
		t.Errorf("history action = %s, want created", history[0].Action)
	}
	if history[0].ActorId != user.ID || history[0].ActorName != user.Name {
		t.Errorf("history actor = %d/%s, want %d/%s", history[0].ActorId, history[0].ActorName, user.ID, user.Name)
	}

	docs, err := repo.GetApplicationDocuments(ctx, application.ID)
	if err != nil {
		t.Fatalf("GetApplicationDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].FileName != "cccd.jpg" {
		t.Fatalf("documents = %+v, want one cccd.jpg", docs)
	}
}

func TestCreateApplication_DraftOverridesInitialStatus(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")
	ctx := actorCtx(user.ID, user.Name, user.Role)

	application, err := repo.CreateApplication(ctx, &models.NewApplication{
		ProgramId:       program.ID,
		FullName:        "Nguyễn Văn An",
		CitizenId:       "001098123456",
		RequestedAmount: decimal.NewFromInt(100000),
		Draft:           true,
	}, models.ApplicationStatusPending, nil)
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if application.Status != models.ApplicationStatusDraft {
		t.Errorf("status = %s, want draft", application.Status)
	}
}

func TestCreateApplication_RejectsInactiveProgram(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")
	ctx := actorCtx(user.ID, user.Name, user.Role)

	if _, err := repo.DeactivateProgram(ctx, program.ID); err != nil {
		t.Fatalf("DeactivateProgram: %v", err)
	}

	_, err := repo.CreateApplication(ctx, &models.NewApplication{
		ProgramId:       program.ID,
		FullName:        "Nguyễn Văn An",
		CitizenId:       "001098123456",
		RequestedAmount: decimal.NewFromInt(100000),
	}, models.ApplicationStatusPending, nil)
	if utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("kind = %v, want validation", utils.KindOf(err))
	}
}

func TestUpdateApplicationStatus_ApproveStampsAndNotifies(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")
	officer := seedOfficer(t, repo, "038090001234", "Cán bộ Bình")
	application := seedApplication(t, repo, user, program.ID, 500000)

	officerCtx := actorCtx(officer.ID, officer.Name, officer.Role)
	if _, err := repo.UpdateApplicationStatus(officerCtx, application.ID, models.ApplicationStatusApproved, "đủ điều kiện"); err != nil {
		t.Fatalf("UpdateApplicationStatus: %v", err)
	}

	reloaded, err := repo.GetApplication(officerCtx, application.ID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if reloaded.Status != models.ApplicationStatusApproved {
		t.Errorf("status = %s, want approved", reloaded.Status)
	}
	if reloaded.ApprovedAt == nil {
		t.Error("approved_at not stamped")
	}
	if reloaded.Note != "đủ điều kiện" {
		t.Errorf("note = %q", reloaded.Note)
	}

	history, err := repo.GetApplicationHistory(officerCtx, application.ID)
	if err != nil {
		t.Fatalf("GetApplicationHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history rows = %d, want 2", len(history))
	}
	last := history[len(history)-1]
	if last.Action != models.HistoryActionStatusChanged {
		t.Errorf("action = %s, want status_changed", last.Action)
	}
	if last.OldStatus != models.ApplicationStatusPending || last.NewStatus != models.ApplicationStatusApproved {
		t.Errorf("transition = %s -> %s, want pending -> approved", last.OldStatus, last.NewStatus)
	}
	if last.ActorId != officer.ID {
		t.Errorf("actor = %d, want officer %d", last.ActorId, officer.ID)
	}

	// The applicant gets a notification, the officer does not.
	list, err := repo.GetNotifications(actorCtx(user.ID, user.Name, user.Role))
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if list.UnreadCount != 1 || len(list.Notifications) != 1 {
		t.Fatalf("applicant notifications = %d unread %d, want 1/1", len(list.Notifications), list.UnreadCount)
	}
	if !strings.Contains(list.Notifications[0].Message, application.Code) {
		t.Errorf("notification does not mention code: %s", list.Notifications[0].Message)
	}

	officerList, err := repo.GetNotifications(officerCtx)
	if err != nil {
		t.Fatalf("GetNotifications officer: %v", err)
	}
	if len(officerList.Notifications) != 0 {
		t.Errorf("officer notifications = %d, want 0", len(officerList.Notifications))
	}
}

func TestUpdateApplicationStatus_RejectsUnknownStatus(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")
	application := seedApplication(t, repo, user, program.ID, 500000)

	ctx := actorCtx(user.ID, user.Name, models.UserRoleOfficer)
	_, err := repo.UpdateApplicationStatus(ctx, application.ID, models.ApplicationStatus("archived"), "")
	if utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("kind = %v, want validation", utils.KindOf(err))
	}
}

func TestUpdateApplication_CitizenOnlyOwnEditable(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	owner := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")
	other := seedCitizen(t, repo, "001098654321", "Trần Thị Bình")
	application := seedApplication(t, repo, owner, program.ID, 500000)

	edit := &models.NewApplication{
		ProgramId:       program.ID,
		FullName:        "Nguyễn Văn An",
		CitizenId:       "001098123456",
		Reason:          "Cập nhật lý do",
		RequestedAmount: decimal.NewFromInt(600000),
	}

	otherCtx := actorCtx(other.ID, other.Name, other.Role)
	if _, err := repo.UpdateApplication(otherCtx, application.ID, edit); utils.KindOf(err) != utils.KindForbidden {
		t.Fatalf("other citizen edit: kind = %v, want forbidden", utils.KindOf(err))
	}

	ownerCtx := actorCtx(owner.ID, owner.Name, owner.Role)
	if _, err := repo.UpdateApplication(ownerCtx, application.ID, edit); err != nil {
		t.Fatalf("owner edit: %v", err)
	}
	reloaded, err := repo.GetApplication(ownerCtx, application.ID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if reloaded.Reason != "Cập nhật lý do" {
		t.Errorf("reason = %q", reloaded.Reason)
	}

	// Once the application moves past pending, the citizen can no longer edit.
	officerCtx := actorCtx(99, "Cán bộ", models.UserRoleOfficer)
	if _, err := repo.UpdateApplicationStatus(officerCtx, application.ID, models.ApplicationStatusUnderReview, ""); err != nil {
		t.Fatalf("move to under_review: %v", err)
	}
	if _, err := repo.UpdateApplication(ownerCtx, application.ID, edit); utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("edit after review started: kind = %v, want validation", utils.KindOf(err))
	}
}

func TestDeleteApplication_KeepsHistoryReturnsFilePaths(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")
	ctx := actorCtx(user.ID, user.Name, user.Role)

	application, err := repo.CreateApplication(ctx, &models.NewApplication{
		ProgramId:       program.ID,
		FullName:        "Nguyễn Văn An",
		CitizenId:       "001098123456",
		RequestedAmount: decimal.NewFromInt(100000),
	}, models.ApplicationStatusPending, []models.NewDocument{
		{FileName: "cccd.jpg", FilePath: "uploads/citizen/1/cccd.jpg", ThumbnailPath: "uploads/citizen/1/thumb_cccd.jpg"},
	})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}

	adminCtx := actorCtx(1, "Admin", models.UserRoleAdmin)
	paths, err := repo.DeleteApplication(adminCtx, application.ID)
	if err != nil {
		t.Fatalf("DeleteApplication: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want file and thumbnail", paths)
	}

	if _, err := repo.GetApplication(adminCtx, application.ID); utils.KindOf(err) != utils.KindNotFound {
		t.Fatalf("deleted application still readable, kind = %v", utils.KindOf(err))
	}

	// The audit trail outlives the application.
	history, err := repo.GetApplicationHistory(adminCtx, application.ID)
	if err != nil {
		t.Fatalf("GetApplicationHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history rows = %d, want created + deleted", len(history))
	}
	if history[len(history)-1].Action != models.HistoryActionDeleted {
		t.Errorf("last action = %s, want deleted", history[len(history)-1].Action)
	}
}

func TestGetApplications_FiltersAndPagination(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	other := seedProgram(t, repo, "TC002")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")

	for i := 0; i < 5; i++ {
		seedApplication(t, repo, user, program.ID, 100000)
	}
	ctx := actorCtx(user.ID, user.Name, user.Role)
	if _, err := repo.CreateApplication(ctx, &models.NewApplication{
		ProgramId:       other.ID,
		FullName:        "Nguyễn Văn An",
		CitizenId:       "001098123456",
		RequestedAmount: decimal.NewFromInt(100000),
	}, models.ApplicationStatusPending, nil); err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}

	list, total, err := repo.GetApplications(ctx, models.ApplicationFilter{ProgramId: program.ID, Limit: 2})
	if err != nil {
		t.Fatalf("GetApplications: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(list) != 2 {
		t.Errorf("page size = %d, want 2", len(list))
	}

	list, total, err = repo.GetApplications(ctx, models.ApplicationFilter{Search: "APP00006"})
	if err != nil {
		t.Fatalf("GetApplications search: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].Code != "APP00006" {
		t.Errorf("search by code: total=%d list=%d", total, len(list))
	}
}
