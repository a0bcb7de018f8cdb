package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `json:"name"`
	GoogleID     *string   `gorm:"uniqueIndex" json:"-"`
	Picture      string    `json:"picture,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `gorm:"not null;default:member" json:"role"`
	Teams        []Team    `gorm:"many2many:team_members;" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Team struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	OwnerID    uint       `gorm:"index" json:"owner_id"`
	Members    []User     `gorm:"many2many:team_members;" json:"members,omitempty"`
	Managers   []User     `gorm:"many2many:team_managers;" json:"managers,omitempty"`
	Ceremonies []Ceremony `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

const (
	CadenceDaily    = "daily"
	CadenceWeekly   = "weekly"
	CadenceBiWeekly = "bi_weekly"
	CadenceMonthly  = "monthly"
	CadenceCustom   = "custom"

	CeremonyActive   = "active"
	CeremonyPaused   = "paused"
	CeremonyArchived = "archived"
)

type Ceremony struct {
	ID                   uint               `gorm:"primaryKey" json:"id"`
	Name                 string             `gorm:"not null;index" json:"name"`
	Description          string             `json:"description,omitempty"`
	TeamID               uint               `gorm:"not null;index" json:"team_id"`
	Cadence              string             `gorm:"not null" json:"cadence"`
	StartTime            string             `json:"start_time"`
	Timezone             string             `gorm:"not null;default:UTC" json:"timezone"`
	IsActive             bool               `json:"is_active"`
	Status               string             `gorm:"not null;default:active" json:"status"`
	SendNotifications    bool               `json:"send_notifications"`
	NotificationLeadTime int                `json:"notification_lead_time"`
	Questions            []CeremonyQuestion `json:"-"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// QuestionType is the closed set of question variants.
type QuestionType string

const (
	ShortAnswer    QuestionType = "short_answer"
	Paragraph      QuestionType = "paragraph"
	MultipleChoice QuestionType = "multiple_choice"
	Checkboxes     QuestionType = "checkboxes"
	Dropdown       QuestionType = "dropdown"
	LinearScale    QuestionType = "linear_scale"
	Date           QuestionType = "date"
	Time           QuestionType = "time"
	FileUpload     QuestionType = "file_upload"
)

// Question is an organization-wide question definition. Ceremony-specific
// settings live on CeremonyQuestion.
type Question struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	Text             string                      `gorm:"not null" json:"text"`
	QuestionType     QuestionType                `gorm:"not null;index" json:"question_type"`
	IsRequired       bool                        `json:"is_required"`
	HelpText         string                      `json:"help_text,omitempty"`
	Options          []QuestionOption            `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	MinValue         *int                        `json:"min_value,omitempty"`
	MaxValue         *int                        `json:"max_value,omitempty"`
	MinLabel         string                      `json:"min_label,omitempty"`
	MaxLabel         string                      `json:"max_label,omitempty"`
	AllowedFileTypes datatypes.JSONSlice[string] `json:"allowed_file_types,omitempty"`
	MaxFileSize      *int64                      `json:"max_file_size,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// OptionValues returns the option values in order.
func (q *Question) OptionValues() []string {
	values := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		values = append(values, o.Value)
	}
	return values
}

type QuestionOption struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Text       string    `gorm:"not null" json:"text"`
	Value      string    `gorm:"not null" json:"value"`
	OrderIndex int       `json:"order_index"`
	IsCorrect  bool      `json:"is_correct"`
	CreatedAt  time.Time `json:"created_at"`
}

// CeremonyQuestion attaches a Question to a Ceremony. At most one row exists
// per (ceremony, question) pair.
type CeremonyQuestion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CeremonyID uint      `gorm:"not null;uniqueIndex:idx_ceremony_question" json:"ceremony_id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_ceremony_question" json:"question_id"`
	OrderIndex int       `json:"order_index"`
	IsRequired bool      `json:"is_required"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionOrder is one item of a bulk reorder request.
type QuestionOrder struct {
	QuestionID uint `json:"question_id"`
	OrderIndex int  `json:"order_index"`
}

const (
	ResponseDraft     = "draft"
	ResponseSubmitted = "submitted"
	ResponseCompleted = "completed"
	ResponseArchived  = "archived"
)

type CeremonyResponse struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	CeremonyID        uint               `gorm:"not null;uniqueIndex:idx_ceremony_user" json:"ceremony_id"`
	UserID            uint               `gorm:"not null;uniqueIndex:idx_ceremony_user" json:"user_id"`
	TeamID            uint               `gorm:"not null;index" json:"team_id"`
	Status            string             `gorm:"not null" json:"status"`
	IsComplete        bool               `json:"is_complete"`
	Notes             *string            `json:"notes,omitempty"`
	MoodRating        *int               `json:"mood_rating,omitempty"`
	EnergyLevel       *int               `json:"energy_level,omitempty"`
	QuestionResponses []QuestionResponse `gorm:"foreignKey:CeremonyResponseID;constraint:OnDelete:CASCADE" json:"question_responses"`
	SubmittedAt       time.Time          `json:"submitted_at"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
}

type QuestionResponse struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	CeremonyResponseID uint                        `gorm:"not null;index" json:"-"`
	QuestionID         uint                        `gorm:"not null;index" json:"question_id"`
	TextResponse       *string                     `json:"text_response,omitempty"`
	SelectedOptions    datatypes.JSONSlice[string] `json:"selected_options,omitempty"`
	NumericResponse    *int                        `json:"numeric_response,omitempty"`
	DateResponse       *string                     `json:"date_response,omitempty"`
	TimeResponse       *string                     `json:"time_response,omitempty"`
	FileName           *string                     `json:"file_name,omitempty"`
	FilePath           *string                     `json:"file_path,omitempty"`
	FileSize           *int64                      `json:"file_size,omitempty"`
	FileType           *string                     `json:"file_type,omitempty"`
	IsRequired         bool                        `json:"is_required"`
}

type Webhook struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null" json:"user_id"`
	CeremonyID uint      `gorm:"not null;index" json:"ceremony_id"`
	URL        string    `gorm:"not null" json:"url"`
	Events     string    `json:"events"`
	Secret     string    `json:"secret,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
