package models

import "time"

type UserProfile struct {
	UserID    string    `gorm:"column:user_id;type:varchar(255);primaryKey" json:"userId"`
	Email     string    `gorm:"column:email;type:varchar(255);not null;index" json:"email"`
	FullName  string    `gorm:"column:full_name;type:varchar(255)" json:"fullName"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
