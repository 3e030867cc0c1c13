package models_test

import (
	"context"
	"testing"
	"time"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"github.com/shopspring/decimal"
)

func TestCreateProgram_DuplicateCode(t *testing.T) {
	repo := newTestRepo(t)
	seedProgram(t, repo, "TC001")

	_, err := repo.CreateProgram(context.Background(), &models.NewSupportProgram{
		Code:   "TC001",
		Name:   "Trùng mã",
		Amount: decimal.NewFromInt(100000),
	})
	if utils.KindOf(err) != utils.KindDuplicate {
		t.Fatalf("kind = %v, want duplicate", utils.KindOf(err))
	}
}

func TestCreateProgram_DateOrder(t *testing.T) {
	repo := newTestRepo(t)
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, -1, 0)

	_, err := repo.CreateProgram(context.Background(), &models.NewSupportProgram{
		Code:      "TC001",
		Name:      "Ngày sai",
		StartDate: &start,
		EndDate:   &end,
	})
	if utils.KindOf(err) != utils.KindValidation {
		t.Fatalf("kind = %v, want validation", utils.KindOf(err))
	}
}

func TestDeactivateProgram_HidesFromActiveList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	program := seedProgram(t, repo, "TC001")
	seedProgram(t, repo, "TC002")

	if _, err := repo.DeactivateProgram(ctx, program.ID); err != nil {
		t.Fatalf("DeactivateProgram: %v", err)
	}

	active, err := repo.GetPrograms(ctx, true, "")
	if err != nil {
		t.Fatalf("GetPrograms active: %v", err)
	}
	if len(active) != 1 || active[0].Code != "TC002" {
		t.Fatalf("active programs = %d, want only TC002", len(active))
	}

	all, err := repo.GetPrograms(ctx, false, "")
	if err != nil {
		t.Fatalf("GetPrograms all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all programs = %d, want 2", len(all))
	}

	// Deactivation keeps the row; existing applications still resolve it.
	reloaded, err := repo.GetProgram(ctx, program.ID)
	if err != nil {
		t.Fatalf("GetProgram: %v", err)
	}
	if reloaded.Status != models.ProgramStatusInactive {
		t.Errorf("status = %s, want inactive", reloaded.Status)
	}
}

func TestGetPrograms_Search(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProgram(t, repo, "TC001")
	if _, err := repo.CreateProgram(ctx, &models.NewSupportProgram{
		Code:   "TC009",
		Name:   "Hỗ trợ thiên tai",
		Amount: decimal.NewFromInt(2000000),
		Status: models.ProgramStatusActive,
	}); err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}

	found, err := repo.GetPrograms(ctx, false, "thiên tai")
	if err != nil {
		t.Fatalf("GetPrograms: %v", err)
	}
	if len(found) != 1 || found[0].Code != "TC009" {
		t.Fatalf("search = %d results, want TC009 only", len(found))
	}
}
