package models

import (
	"time"

	"github.com/lib/pq"
)

// Tenant is owned by the wider platform; only contact domains are read here.
type Tenant struct {
	ID             string         `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Name           string         `gorm:"column:name;type:varchar(255);not null" json:"name"`
	ContactDomains pq.StringArray `gorm:"column:contact_domains;type:text[]" json:"contactDomains"`
	CreatedAt      time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (Tenant) TableName() string {
	return "tenants"
}
