package models_test

import (
	"testing"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
)

func TestNotifications_MarkReadScopedToOwner(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	officer := seedOfficer(t, repo, "038090001234", "Cán bộ Bình")
	owner := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")
	other := seedCitizen(t, repo, "001098654321", "Trần Thị Bình")

	application := seedApplication(t, repo, owner, program.ID, 500000)
	approveApplication(t, repo, officer, application.ID)

	ownerCtx := actorCtx(owner.ID, owner.Name, owner.Role)
	list, err := repo.GetNotifications(ownerCtx)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if len(list.Notifications) != 1 || list.UnreadCount != 1 {
		t.Fatalf("owner notifications = %d unread %d, want 1/1", len(list.Notifications), list.UnreadCount)
	}
	id := list.Notifications[0].ID

	// Another user cannot mark someone else's notification.
	otherCtx := actorCtx(other.ID, other.Name, other.Role)
	if err := repo.MarkNotificationRead(otherCtx, id); utils.KindOf(err) != utils.KindNotFound {
		t.Fatalf("cross-user mark: kind = %v, want not found", utils.KindOf(err))
	}

	if err := repo.MarkNotificationRead(ownerCtx, id); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	list, err = repo.GetNotifications(ownerCtx)
	if err != nil {
		t.Fatalf("GetNotifications after read: %v", err)
	}
	if list.UnreadCount != 0 {
		t.Errorf("unread = %d, want 0", list.UnreadCount)
	}
	if !list.Notifications[0].IsRead {
		t.Error("notification not flagged read")
	}
}

func TestNotifications_MarkAllRead(t *testing.T) {
	repo := newTestRepo(t)
	program := seedProgram(t, repo, "TC001")
	officer := seedOfficer(t, repo, "038090001234", "Cán bộ Bình")
	user := seedCitizen(t, repo, "001098123456", "Nguyễn Văn An")

	first := seedApplication(t, repo, user, program.ID, 100000)
	second := seedApplication(t, repo, user, program.ID, 200000)
	approveApplication(t, repo, officer, first.ID)
	approveApplication(t, repo, officer, second.ID)

	ctx := actorCtx(user.ID, user.Name, user.Role)
	affected, err := repo.MarkAllNotificationsRead(ctx)
	if err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	if affected != 2 {
		t.Errorf("affected = %d, want 2", affected)
	}

	// Re-running affects nothing.
	affected, err = repo.MarkAllNotificationsRead(ctx)
	if err != nil {
		t.Fatalf("second MarkAllNotificationsRead: %v", err)
	}
	if affected != 0 {
		t.Errorf("affected = %d, want 0", affected)
	}

	list, err := repo.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if list.UnreadCount != 0 {
		t.Errorf("unread = %d, want 0", list.UnreadCount)
	}
}
