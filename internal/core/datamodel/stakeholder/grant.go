package stakeholder

import "time"

// Grant links one contact to one project. The (project_id, contact_id) pair
// is unique: at most one grant per contact per project, enforced here and by
// a storage-level unique index as a backstop.
type Grant struct {
	ID               int64     `gorm:"primaryKey"`
	ProjectID        int64     `gorm:"column:project_id;not null;uniqueIndex:idx_project_contact"`
	ContactID        int64     `gorm:"column:contact_id;not null;uniqueIndex:idx_project_contact"`
	StakeholderLevel int       `gorm:"column:stakeholder_level;not null;default:1"`
	AddedByUserID    *int64    `gorm:"column:added_by_user_id"`
	AddedByContactID *int64    `gorm:"column:added_by_contact_id"`
	AutoApproved     bool      `gorm:"column:auto_approved;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;default:now()"`
}

func (Grant) TableName() string {
	return "project_stakeholders"
}
