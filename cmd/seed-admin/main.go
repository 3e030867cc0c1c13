// seed-admin creates or updates the portal admin account.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// The email, citizen id and password can be overridden with
// ADMIN_EMAIL, ADMIN_CITIZEN_ID and ADMIN_PASSWORD.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/config"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/models"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail     = "admin@trocap.gov.vn"
	defaultAdminCitizenId = "000000000001"
	defaultAdminPassword  = "TroCap@Admin1"
	adminName             = "Quản trị hệ thống"
)

func main() {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = defaultAdminEmail
	}
	citizenId := os.Getenv("ADMIN_CITIZEN_ID")
	if citizenId == "" {
		citizenId = defaultAdminCitizenId
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
	}

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 0)
	ctx = utils.SetUserNameInContext(ctx, "Seed")
	ctx = utils.SetUserRoleInContext(ctx, string(models.UserRoleAdmin))

	db := config.ConnectDatabaseWithRetry()
	repo := models.NewRepo(db)
	if err := repo.AutoMigrate(); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("citizen_id = ?", citizenId).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Name:      adminName,
			Email:     &email,
			CitizenId: citizenId,
			Password:  hashedStr,
			Role:      models.UserRoleAdmin,
			Status:    models.UserStatusActive,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: email=%q citizen_id=%q\n", email, citizenId)
		return
	}

	if err := db.WithContext(ctx).Model(&models.User{}).Where("citizen_id = ?", citizenId).Updates(map[string]any{
		"password": hashedStr,
		"name":     adminName,
		"email":    email,
		"role":     models.UserRoleAdmin,
		"status":   models.UserStatusActive,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated admin user: email=%q citizen_id=%q\n", email, citizenId)
}
