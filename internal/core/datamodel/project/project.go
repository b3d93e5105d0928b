package project

import "time"

// Project belongs to exactly one client. Stakeholder grants hang off it.
type Project struct {
	ID        int64      `gorm:"primaryKey"`
	ClientID  int64      `gorm:"column:client_id;not null;index"`
	Name      string     `gorm:"column:name;not null"`
	Number    string     `gorm:"column:number"`
	Active    bool       `gorm:"column:active;default:true"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time  `gorm:"column:updated_at;default:now()"`
}

func (Project) TableName() string {
	return "projects"
}
