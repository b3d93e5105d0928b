package contact

import "time"

const (
	RoleStakeholderL1 = "STAKEHOLDER_L1"
	RoleStakeholderL2 = "STAKEHOLDER_L2"
)

// Contact is an external project stakeholder owned by a client. PasswordHash
// and Role stay nil until the contact completes registration; a non-nil
// PasswordHash is the single source of truth for login eligibility,
// regardless of the legacy Active flag.
type Contact struct {
	ID                   int64      `gorm:"primaryKey"`
	ClientID             int64      `gorm:"column:client_id;not null;index"`
	Name                 string     `gorm:"column:name;not null"`
	Email                string     `gorm:"column:email;not null;index"`
	Phone                string     `gorm:"column:phone"`
	PasswordHash         *string    `gorm:"column:password_hash"`
	Role                 *string    `gorm:"column:role"`
	EmailVerified        bool       `gorm:"column:email_verified;default:false"`
	RegistrationEligible bool       `gorm:"column:registration_eligible;default:false"`
	Active               bool       `gorm:"column:active;default:true"`
	LastLogin            *time.Time `gorm:"column:last_login"`
	DeletedAt            *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt            time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;default:now()"`
}

func (Contact) TableName() string {
	return "contacts"
}

// CanAuthenticate reports whether the contact holds standing credentials.
func (c *Contact) CanAuthenticate() bool {
	return c.PasswordHash != nil && *c.PasswordHash != ""
}

func ValidRole(role string) bool {
	switch role {
	case RoleStakeholderL1, RoleStakeholderL2:
		return true
	}
	return false
}

// RoleForLevel maps a stakeholder level (1 or 2) to its role constant.
func RoleForLevel(level int) string {
	if level == 2 {
		return RoleStakeholderL2
	}
	return RoleStakeholderL1
}

// LevelForRole is the inverse of RoleForLevel; unknown roles map to level 1.
func LevelForRole(role string) int {
	if role == RoleStakeholderL2 {
		return 2
	}
	return 1
}
