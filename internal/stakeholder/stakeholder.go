// Package stakeholder manages the grants linking external contacts to
// projects, including the credential teardown that fires when a contact
// loses its last grant.
package stakeholder

import (
	"time"

	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	projectmodel "github.com/viaviktor/rfisys/internal/core/datamodel/project"
	stakeholdermodel "github.com/viaviktor/rfisys/internal/core/datamodel/stakeholder"
)

// View is a grant joined with its contact, shaped for listings.
type View struct {
	GrantID          int64     `json:"grant_id"`
	ProjectID        int64     `json:"project_id"`
	ContactID        int64     `json:"contact_id"`
	ContactName      string    `json:"contact_name"`
	ContactEmail     string    `json:"contact_email"`
	StakeholderLevel int       `json:"stakeholder_level"`
	AutoApproved     bool      `json:"auto_approved"`
	Registered       bool      `json:"registered"`
	CreatedAt        time.Time `json:"created_at"`
}

// Repository is the data access contract for grant management.
type Repository interface {
	Transaction(fn func(Repository) error) error

	GetProject(id int64) (*projectmodel.Project, error)
	GetContact(id int64) (*contactmodel.Contact, error)

	GetGrant(projectID, contactID int64) (*stakeholdermodel.Grant, error)
	CreateGrant(g *stakeholdermodel.Grant) error
	// DeleteGrant reports whether a row was actually removed.
	DeleteGrant(projectID, contactID int64) (bool, error)
	// CountGrants counts the contact's grants across all projects.
	CountGrants(contactID int64) (int64, error)
	ListProjectStakeholders(projectID int64) ([]*View, error)

	// ResetContactCredentials returns the contact to its pre-approval state:
	// no password hash, not email-verified, not registration-eligible.
	ResetContactCredentials(contactID int64) error
	DeleteUnusedTokens(contactID int64) error
}
