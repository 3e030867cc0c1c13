package models_test

import (
	"context"
	"testing"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/config"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestRepo opens an in-memory sqlite database. The pool is pinned to a
// single connection so the in-memory database survives across transactions.
func newTestRepo(t *testing.T) *models.Repo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), config.InitConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := models.NewRepo(db)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func actorCtx(userId int, name string, role models.UserRole) context.Context {
	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, userId)
	ctx = utils.SetUserNameInContext(ctx, name)
	ctx = utils.SetUserRoleInContext(ctx, string(role))
	return ctx
}

func seedProgram(t *testing.T, repo *models.Repo, code string) *models.SupportProgram {
	t.Helper()
	program, err := repo.CreateProgram(context.Background(), &models.NewSupportProgram{
		Code:   code,
		Name:   "Trợ cấp hộ nghèo " + code,
		Amount: decimal.NewFromInt(500000),
		Status: models.ProgramStatusActive,
	})
	if err != nil {
		t.Fatalf("seed program %s: %v", code, err)
	}
	return program
}

func seedCitizen(t *testing.T, repo *models.Repo, citizenId string, name string) *models.User {
	t.Helper()
	user, err := repo.Register(context.Background(), &models.NewUser{
		Name:      name,
		CitizenId: citizenId,
		Password:  "secret123",
		District:  "Huyện Châu Thành",
		Commune:   "Xã An Bình",
	})
	if err != nil {
		t.Fatalf("seed citizen %s: %v", citizenId, err)
	}
	return user
}

func seedApplication(t *testing.T, repo *models.Repo, user *models.User, programId int, amount int64) *models.Application {
	t.Helper()
	ctx := actorCtx(user.ID, user.Name, user.Role)
	application, err := repo.CreateApplication(ctx, &models.NewApplication{
		ProgramId:       programId,
		FullName:        user.Name,
		CitizenId:       user.CitizenId,
		District:        user.District,
		Commune:         user.Commune,
		Reason:          "Hộ nghèo, mất thu nhập",
		RequestedAmount: decimal.NewFromInt(amount),
	}, models.ApplicationStatusPending, nil)
	if err != nil {
		t.Fatalf("seed application for %s: %v", user.CitizenId, err)
	}
	return application
}

func approveApplication(t *testing.T, repo *models.Repo, officer *models.User, applicationId int) {
	t.Helper()
	ctx := actorCtx(officer.ID, officer.Name, officer.Role)
	if _, err := repo.UpdateApplicationStatus(ctx, applicationId, models.ApplicationStatusApproved, "đủ điều kiện"); err != nil {
		t.Fatalf("approve application %d: %v", applicationId, err)
	}
}

func seedOfficer(t *testing.T, repo *models.Repo, citizenId string, name string) *models.User {
	t.Helper()
	ctx := actorCtx(1, "Admin", models.UserRoleAdmin)
	user, _, err := repo.CreateUser(ctx, &models.NewAdminUser{
		Name:      name,
		CitizenId: citizenId,
		Password:  "secret123",
		Role:      models.UserRoleOfficer,
		Status:    models.UserStatusActive,
	})
	if err != nil {
		t.Fatalf("seed officer %s: %v", citizenId, err)
	}
	return user
}
