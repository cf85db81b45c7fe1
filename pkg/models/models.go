package models

import (
	"fmt"
	"strings"
	"time"
)

// Domain models matching the JSON documents served by the field-ops backend.

// Role is the closed set of account roles known to the backend.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleEngineer
	RoleUser
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleEngineer:
		return "engineer"
	case RoleUser:
		return "user"
	default:
		return ""
	}
}

// ParseRole maps a stored or user supplied role name to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "engineer":
		return RoleEngineer, nil
	case "user":
		return RoleUser, nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText maps names it does not know to RoleUnknown so one odd
// record cannot fail decoding of a whole list. Use ParseRole for input
// that must be rejected.
func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		v = RoleUnknown
	}
	*r = v
	return nil
}

// Ticket statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusDeferred   = "deferred"
)

// Priorities and hazard risk levels share the same scale.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TicketStatuses is the fixed display order of ticket statuses.
var TicketStatuses = []string{StatusOpen, StatusInProgress, StatusCompleted, StatusFailed, StatusDeferred}

// Priorities is the fixed display order of priorities and risk levels.
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// ValidStatus reports whether s is one of TicketStatuses (case-insensitive).
func ValidStatus(s string) bool {
	for _, v := range TicketStatuses {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

type Task struct {
	ID            string    `json:"_id"`
	ServiceType   string    `json:"serviceType"`
	Status        string    `json:"status"`
	Priority      string    `json:"priority"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	Pincode       string    `json:"pincode"`
	EngineerEmail *string   `json:"engineerEmail"`
	UserEmail     string    `json:"userEmail,omitempty"`
	Accepted      bool      `json:"accepted"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AssignedTo returns the assigned engineer email or "" when unassigned.
func (t Task) AssignedTo() string {
	if t.EngineerEmail == nil {
		return ""
	}
	return *t.EngineerEmail
}

type Engineer struct {
	ID             string   `json:"_id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	Pincode        string   `json:"pincode"`
	Specialization string   `json:"specialization"`
	Availability   []string `json:"availability"`
	IsEngineer     bool     `json:"isEngineer"`
	CurrentTasks   int      `json:"currentTasks"`
}

// AvailableOn reports whether day (e.g. "Monday") is in the engineer's availability.
func (e Engineer) AvailableOn(day string) bool {
	for _, d := range e.Availability {
		if strings.EqualFold(strings.TrimSpace(d), day) {
			return true
		}
	}
	return false
}

type User struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Pincode string `json:"pincode"`
	Role    Role   `json:"role"`
}

type Hazard struct {
	ID          string `json:"_id"`
	HazardType  string `json:"hazardType"`
	Description string `json:"description"`
	RiskLevel   string `json:"riskLevel"`
	Address     string `json:"address"`
	Pincode     string `json:"pincode"`
	ReportedBy  string `json:"reportedBy,omitempty"`
}

type Notification struct {
	ID        string    `json:"_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is role dependent: Specialization and Availability are only
// populated for engineers.
type Profile struct {
	Name           string   `json:"name" validate:"required,min=2,max=100"`
	Email          string   `json:"email" validate:"required,email"`
	Phone          string   `json:"phone" validate:"omitempty,phone"`
	Address        string   `json:"address" validate:"max=300"`
	Pincode        string   `json:"pincode,omitempty" validate:"omitempty,pincode"`
	Specialization string   `json:"specialization,omitempty" validate:"max=100"`
	Availability   []string `json:"availability,omitempty" validate:"dive,weekday"`
}

// Request payloads.

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required"`
}

type LoginResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name,omitempty"`
}

type Signup struct {
	Name           string   `json:"name" validate:"required,min=2,max=100"`
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,password"`
	Phone          string   `json:"phone" validate:"required,phone"`
	Address        string   `json:"address" validate:"required,max=300"`
	Pincode        string   `json:"pincode" validate:"required,pincode"`
	Role           Role     `json:"role" validate:"required"`
	Specialization string   `json:"specialization,omitempty" validate:"max=100"`
	Availability   []string `json:"availability,omitempty" validate:"dive,weekday"`
}

type PasswordReset struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

type ApproveRequest struct {
	Email   string `json:"email"`
	Approve bool   `json:"approve"`
}

type StatusUpdate struct {
	Status string `json:"status"`
}

type TicketInput struct {
	ServiceType string `json:"serviceType" validate:"required,max=100"`
	Priority    string `json:"priority" validate:"required,oneof=low medium high"`
	Description string `json:"description" validate:"required,max=2000"`
	Address     string `json:"address" validate:"required,max=300"`
	Pincode     string `json:"pincode" validate:"required,pincode"`
	UserEmail   string `json:"userEmail" validate:"required,email"`
}

type HazardInput struct {
	HazardType  string `json:"hazardType" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=2000"`
	RiskLevel   string `json:"riskLevel" validate:"required,oneof=low medium high"`
	Address     string `json:"address" validate:"required,max=300"`
	Pincode     string `json:"pincode" validate:"required,pincode"`
}

// Message is the generic {"message": "..."} body returned by mutating endpoints.
type Message struct {
	Message string `json:"message"`
}
