package regtoken

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeInvitation   = "INVITATION"
	TypeRegistration = "REGISTRATION"
)

// ProjectIDs stores the token's project grant set as a JSON array column.
type ProjectIDs []int64

func (p ProjectIDs) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int64(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *ProjectIDs) Scan(value interface{}) error {
	if value == nil {
		*p = ProjectIDs{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, (*[]int64)(p))
	case string:
		return json.Unmarshal([]byte(v), (*[]int64)(p))
	default:
		return fmt.Errorf("project ids scan: unsupported type %T", value)
	}
}

// RegistrationToken is a single-use, time-limited invite binding an email,
// a contact, and a set of project grants. A nil UsedAt means the token is
// still consumable; expiry wins over everything.
type RegistrationToken struct {
	Token      string     `gorm:"primaryKey;column:token"`
	Email      string     `gorm:"column:email;not null"`
	ContactID  int64      `gorm:"column:contact_id;not null;index"`
	ProjectIDs ProjectIDs `gorm:"column:project_ids;type:text"`
	TokenType  string     `gorm:"column:token_type;not null;default:'INVITATION'"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	UsedAt     *time.Time `gorm:"column:used_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;default:now()"`
}

func (RegistrationToken) TableName() string {
	return "registration_tokens"
}

func (t *RegistrationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *RegistrationToken) Used() bool {
	return t.UsedAt != nil
}
