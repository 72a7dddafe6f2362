package entities

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that may receive synchronized output
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName  string    `json:"full_name" gorm:"type:varchar(255)"`
	IsActive  bool      `json:"is_active" gorm:"default:true;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// UserSetting is one string override of an integration setting
type UserSetting struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	Key       string    `json:"key" gorm:"type:varchar(100);primaryKey"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (UserSetting) TableName() string {
	return "user_integration_settings"
}
