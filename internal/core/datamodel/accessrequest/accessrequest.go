package accessrequest

import "time"

const (
	StatusPending      = "PENDING"
	StatusApproved     = "APPROVED"
	StatusRejected     = "REJECTED"
	StatusAutoApproved = "AUTO_APPROVED"
)

// AccessRequest is a stakeholder's request to join a project. It is created
// PENDING (or immediately AUTO_APPROVED by domain matching) and every other
// status is terminal. At most one PENDING request may exist per
// (contact_id, project_id) pair.
type AccessRequest struct {
	ID                 int64      `gorm:"primaryKey"`
	ContactID          int64      `gorm:"column:contact_id;not null;index"`
	ProjectID          int64      `gorm:"column:project_id;not null;index"`
	RequestedRole      string     `gorm:"column:requested_role;not null"`
	Justification      string     `gorm:"column:justification"`
	AutoApprovalReason *string    `gorm:"column:auto_approval_reason"`
	Status             string     `gorm:"column:status;not null;default:'PENDING'"`
	ProcessedAt        *time.Time `gorm:"column:processed_at"`
	ProcessedByID      *int64     `gorm:"column:processed_by_id"`
	CreatedAt          time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;default:now()"`
}

func (AccessRequest) TableName() string {
	return "access_requests"
}

func (r *AccessRequest) IsTerminal() bool {
	return r.Status != StatusPending
}
