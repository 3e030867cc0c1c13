package models

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/config"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID        int        `gorm:"primary_key" json:"id"`
	Name      string     `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     *string    `gorm:"size:100;uniqueIndex" json:"email"`
	CitizenId string     `gorm:"size:20;not null;uniqueIndex" json:"citizen_id" binding:"required"`
	Phone     string     `gorm:"size:20" json:"phone"`
	Password  string     `gorm:"size:255;not null" json:"-"`
	Role      UserRole   `gorm:"size:10;not null;default:CITIZEN" json:"role"`
	Status    UserStatus `gorm:"size:10;not null;default:active" json:"status"`
	Province  string     `gorm:"size:100" json:"province"`
	District  string     `gorm:"size:100" json:"district"`
	Commune   string     `gorm:"size:100" json:"commune"`
	Village   string     `gorm:"size:100" json:"village"`
	Address   string     `gorm:"size:255" json:"address"`

	// Reset-token fallback columns, used only when redis is not configured.
	ResetToken          string     `gorm:"size:64" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email"`
	CitizenId string `json:"citizen_id" binding:"required"`
	Phone     string `json:"phone"`
	Password  string `json:"password" binding:"required,min=6"`
	Province  string `json:"province"`
	District  string `json:"district"`
	Commune   string `json:"commune"`
	Village   string `json:"village"`
	Address   string `json:"address"`
}

// NewAdminUser is the admin-console variant of NewUser: role and status are
// assignable and the password may be left blank to have one generated.
type NewAdminUser struct {
	Name      string     `json:"name" binding:"required"`
	Email     string     `json:"email"`
	CitizenId string     `json:"citizen_id" binding:"required"`
	Phone     string     `json:"phone"`
	Password  string     `json:"password"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
	Province  string     `json:"province"`
	District  string     `json:"district"`
	Commune   string     `json:"commune"`
	Village   string     `json:"village"`
	Address   string     `json:"address"`
}

type LoginInfo struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (result *User) PrepareGive() {
	result.Password = ""
	result.ResetToken = ""
	result.ResetTokenExpiresAt = nil
}

// loginFailed is returned for every credential failure so callers cannot
// tell which part of the check failed.
func loginFailed() error {
	return utils.NewUnauthorizedError("invalid login credentials")
}

func (input *NewUser) validate(ctx context.Context, r *Repo, exceptId int) error {
	if !utils.IsValidCitizenId(input.CitizenId) {
		return utils.NewValidationError("citizen id must be 9 or 12 digits")
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("invalid email address")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone number")
		}
	}
	if err := r.validateUnique(ctx, &User{}, "citizen_id", input.CitizenId, exceptId); err != nil {
		return err
	}
	if input.Email != "" {
		if err := r.validateUnique(ctx, &User{}, "email", input.Email, exceptId); err != nil {
			return err
		}
	}
	return nil
}

// Register creates a citizen account. Role and status are never taken from
// the input: self-registration is always CITIZEN/active.
func (r *Repo) Register(ctx context.Context, input *NewUser) (*User, error) {
	if err := input.validate(ctx, r, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	user := User{
		Name:      input.Name,
		CitizenId: input.CitizenId,
		Phone:     input.Phone,
		Password:  string(hashed),
		Role:      UserRoleCitizen,
		Status:    UserStatusActive,
		Province:  input.Province,
		District:  input.District,
		Commune:   input.Commune,
		Village:   input.Village,
		Address:   input.Address,
	}
	if input.Email != "" {
		email := strings.ToLower(input.Email)
		user.Email = &email
	}

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	user.PrepareGive()
	return &user, nil
}

// Login matches the credential against either the email or the citizen id
// column of an active user.
func (r *Repo) Login(ctx context.Context, login string, password string) (*LoginInfo, error) {
	var user User

	login = strings.TrimSpace(login)
	err := r.db.WithContext(ctx).Model(&User{}).
		Where("email = ? OR citizen_id = ?", strings.ToLower(login), login).
		Take(&user).Error
	if err != nil {
		return nil, loginFailed()
	}

	err = utils.ComparePassword(user.Password, password)
	if err != nil && err == bcrypt.ErrMismatchedHashAndPassword {
		return nil, loginFailed()
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	if user.Status != UserStatusActive {
		return nil, loginFailed()
	}

	token, err := utils.JwtGenerate(user.ID, user.Name, string(user.Role))
	if err != nil {
		return nil, utils.NewInternalError(err)
	}

	user.PrepareGive()
	return &LoginInfo{Token: token, User: &user}, nil
}

const resetTokenLifespan = 15 * time.Minute

// ForgotPassword issues a reset token for the account matching login. The
// bool reports whether an account was found; handlers must not expose it.
func (r *Repo) ForgotPassword(ctx context.Context, login string) (string, bool, error) {
	var user User
	login = strings.TrimSpace(login)
	err := r.db.WithContext(ctx).Model(&User{}).
		Where("email = ? OR citizen_id = ?", strings.ToLower(login), login).
		Where("status = ?", UserStatusActive).
		Take(&user).Error
	if err == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, utils.NewInternalError(err)
	}

	token := uuid.NewString()
	if config.GetRedisDB() != nil {
		if err := config.SetRedisValue("ResetToken:"+token, strconv.Itoa(user.ID), resetTokenLifespan); err != nil {
			return "", false, utils.NewInternalError(err)
		}
		return token, true, nil
	}

	expires := time.Now().Add(resetTokenLifespan)
	err = r.db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"reset_token":            token,
			"reset_token_expires_at": expires,
		}).Error
	if err != nil {
		return "", false, utils.NewInternalError(err)
	}
	return token, true, nil
}

func (r *Repo) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if len(newPassword) < 6 {
		return utils.NewValidationError("password must be at least 6 characters")
	}

	var user User
	if config.GetRedisDB() != nil {
		val, found, err := config.GetRedisValue("ResetToken:" + token)
		if err != nil {
			return utils.NewInternalError(err)
		}
		if !found {
			return utils.NewValidationError("invalid or expired reset token")
		}
		if err := r.db.WithContext(ctx).Take(&user, "id = ?", val).Error; err != nil {
			return utils.NewValidationError("invalid or expired reset token")
		}
		defer config.RemoveRedisKey("ResetToken:" + token)
	} else {
		err := r.db.WithContext(ctx).
			Where("reset_token = ? AND reset_token_expires_at > ?", token, time.Now()).
			Take(&user).Error
		if err != nil {
			return utils.NewValidationError("invalid or expired reset token")
		}
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return utils.NewInternalError(err)
	}
	err = r.db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"password":               string(hashed),
			"reset_token":            "",
			"reset_token_expires_at": nil,
		}).Error
	if err != nil {
		return utils.NewInternalError(err)
	}
	return nil
}

func (r *Repo) GetUser(ctx context.Context, id int) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Take(&user, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.NewNotFoundError("user not found")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	user.PrepareGive()
	return &user, nil
}

type UserFilter struct {
	Role   UserRole
	Status UserStatus
	Search string
}

func (r *Repo) GetUsers(ctx context.Context, filter UserFilter) ([]*User, error) {
	var users []*User

	dbCtx := r.db.WithContext(ctx).Model(&User{})
	if filter.Role != "" {
		dbCtx = dbCtx.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		dbCtx = dbCtx.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		dbCtx = dbCtx.Where("name LIKE ? OR email LIKE ? OR citizen_id LIKE ?", like, like, like)
	}
	if err := dbCtx.Order("id").Find(&users).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	for _, user := range users {
		user.PrepareGive()
	}
	return users, nil
}

// CreateUser is the admin path: any role, optional generated password.
// Returns the user and the plaintext password when one was generated.
func (r *Repo) CreateUser(ctx context.Context, input *NewAdminUser) (*User, string, error) {
	role := input.Role
	if role == "" {
		role = UserRoleCitizen
	}
	if !role.Valid() {
		return nil, "", utils.NewValidationError("invalid role")
	}
	status := input.Status
	if status == "" {
		status = UserStatusActive
	}
	if !status.Valid() {
		return nil, "", utils.NewValidationError("invalid status")
	}

	base := NewUser{
		Name:      input.Name,
		Email:     input.Email,
		CitizenId: input.CitizenId,
		Phone:     input.Phone,
	}
	if err := base.validate(ctx, r, 0); err != nil {
		return nil, "", err
	}

	generated := ""
	password := input.Password
	if password == "" {
		generated = utils.GeneratePassword(10)
		password = generated
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", utils.NewInternalError(err)
	}

	user := User{
		Name:      input.Name,
		CitizenId: input.CitizenId,
		Phone:     input.Phone,
		Password:  string(hashed),
		Role:      role,
		Status:    status,
		Province:  input.Province,
		District:  input.District,
		Commune:   input.Commune,
		Village:   input.Village,
		Address:   input.Address,
	}
	if input.Email != "" {
		email := strings.ToLower(input.Email)
		user.Email = &email
	}

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, "", utils.NewInternalError(err)
	}
	user.PrepareGive()
	return &user, generated, nil
}

func (r *Repo) UpdateUser(ctx context.Context, id int, input *NewAdminUser) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Take(&user, "id = ?", id).Error; err != nil {
		return nil, utils.NewNotFoundError("user not found")
	}

	base := NewUser{
		Name:      input.Name,
		Email:     input.Email,
		CitizenId: input.CitizenId,
		Phone:     input.Phone,
	}
	if err := base.validate(ctx, r, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":       input.Name,
		"citizen_id": input.CitizenId,
		"phone":      input.Phone,
		"province":   input.Province,
		"district":   input.District,
		"commune":    input.Commune,
		"village":    input.Village,
		"address":    input.Address,
	}
	if input.Email != "" {
		updates["email"] = strings.ToLower(input.Email)
	}
	if input.Status != "" {
		if !input.Status.Valid() {
			return nil, utils.NewValidationError("invalid status")
		}
		updates["status"] = input.Status
	}

	if err := r.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	user.PrepareGive()
	return &user, nil
}

func (r *Repo) DeleteUser(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&User{}, "id = ?", id)
	if result.Error != nil {
		return utils.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NewNotFoundError("user not found")
	}
	return nil
}

func (r *Repo) AssignRole(ctx context.Context, id int, role UserRole) (*User, error) {
	if !role.Valid() {
		return nil, utils.NewValidationError("invalid role")
	}
	var user User
	if err := r.db.WithContext(ctx).Take(&user, "id = ?", id).Error; err != nil {
		return nil, utils.NewNotFoundError("user not found")
	}
	if err := r.db.WithContext(ctx).Model(&user).Update("role", role).Error; err != nil {
		return nil, utils.NewInternalError(err)
	}
	user.PrepareGive()
	return &user, nil
}

// AdminResetPassword sets a fresh generated password on the account and
// returns it in plaintext for one-time delivery.
func (r *Repo) AdminResetPassword(ctx context.Context, id int) (string, error) {
	var user User
	if err := r.db.WithContext(ctx).Take(&user, "id = ?", id).Error; err != nil {
		return "", utils.NewNotFoundError("user not found")
	}

	password := utils.GeneratePassword(10)
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return "", utils.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Model(&user).Update("password", string(hashed)).Error; err != nil {
		return "", utils.NewInternalError(err)
	}
	return password, nil
}
