package models

type UserRole string

const (
	UserRoleCitizen UserRole = "CITIZEN"
	UserRoleOfficer UserRole = "OFFICER"
	UserRoleAdmin   UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleCitizen, UserRoleOfficer, UserRoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

type ProgramStatus string

const (
	ProgramStatusActive   ProgramStatus = "active"
	ProgramStatusInactive ProgramStatus = "inactive"
)

func (s ProgramStatus) Valid() bool {
	return s == ProgramStatusActive || s == ProgramStatusInactive
}

type ApplicationStatus string

const (
	ApplicationStatusDraft       ApplicationStatus = "draft"
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusPaid        ApplicationStatus = "paid"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusDraft, ApplicationStatusPending, ApplicationStatusUnderReview,
		ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusPaid:
		return true
	}
	return false
}

type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "open"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	}
	return false
}

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
)

func (s PayoutStatus) Valid() bool {
	switch s {
	case PayoutStatusPending, PayoutStatusProcessing, PayoutStatusCompleted:
		return true
	}
	return false
}

// History actions recorded in application_histories.
const (
	HistoryActionCreated       = "created"
	HistoryActionUpdated       = "updated"
	HistoryActionStatusChanged = "status_changed"
	HistoryActionDeleted       = "deleted"
	HistoryActionPaid          = "paid"
)
