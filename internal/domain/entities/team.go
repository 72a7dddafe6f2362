package entities

import (
	"time"

	"github.com/google/uuid"
)

// Membership roles and statuses
const (
	TeamRoleLead   = "lead"
	TeamRoleMember = "member"

	MembershipAccepted = "accepted"
	MembershipPending  = "pending"
)

// Team groups users that share meeting output
type Team struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name             string    `json:"name" gorm:"type:varchar(255);not null"`
	CreatedByUserID  uuid.UUID `json:"created_by_user_id" gorm:"type:uuid;not null"`
	IsActive         bool      `json:"is_active" gorm:"default:true;not null"`
	RecipientUserIDs []string  `json:"recipient_user_ids" gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Team) TableName() string {
	return "teams"
}

// TeamMembership links a user to a team
type TeamMembership struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TeamID    uuid.UUID `json:"team_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Role      string    `json:"role" gorm:"type:varchar(20);not null;default:'member'"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	IsActive  bool      `json:"is_active" gorm:"default:true;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (TeamMembership) TableName() string {
	return "team_memberships"
}
