package client

import "time"

// Client is the owning organization for contacts and projects.
type Client struct {
	ID           int64      `gorm:"primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	ContactEmail string     `gorm:"column:contact_email"`
	Active       bool       `gorm:"column:active;default:true"`
	DeletedAt    *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt    time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;default:now()"`
}

func (Client) TableName() string {
	return "clients"
}
