// Package accessrequest implements the workflow by which an external
// stakeholder asks to join a project: submission with domain-based
// auto-approval, and admin approval or rejection.
package accessrequest

import (
	"strings"
	"time"

	model "github.com/viaviktor/rfisys/internal/core/datamodel/accessrequest"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	projectmodel "github.com/viaviktor/rfisys/internal/core/datamodel/project"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
	stakeholdermodel "github.com/viaviktor/rfisys/internal/core/datamodel/stakeholder"
)

// Repository is the data access contract for the workflow. Transaction
// yields a Repository bound to one database transaction; every multi-row
// mutation in this package runs through it, all-or-nothing.
type Repository interface {
	Transaction(fn func(Repository) error) error

	GetProject(id int64) (*projectmodel.Project, error)
	FindContactByEmail(email string) (*contactmodel.Contact, error)
	GetContact(id int64) (*contactmodel.Contact, error)
	CreateContact(c *contactmodel.Contact) error
	// UpdateContactApproval marks the contact registration-eligible with the
	// approved role and clears any standing credentials, forcing fresh
	// onboarding through a new token.
	UpdateContactApproval(contactID int64, role string) error

	HasGrant(projectID, contactID int64) (bool, error)
	CreateGrant(g *stakeholdermodel.Grant) error
	GrantedContactEmails(projectID int64) ([]string, error)

	HasPending(contactID, projectID int64) (bool, error)
	CreateRequest(req *model.AccessRequest) error
	GetRequest(id int64) (*model.AccessRequest, error)
	ListRequests(status string, limit, offset int) ([]*model.AccessRequest, error)
	// MarkProcessed moves a PENDING request to a terminal status. The update
	// is conditioned on status = PENDING so two concurrent decisions cannot
	// both win; it reports whether this caller won.
	MarkProcessed(requestID int64, status string, processedBy int64, at time.Time) (bool, error)

	DeleteUnusedTokens(contactID int64) error
	CreateToken(t *regtokenmodel.RegistrationToken) error
}

// emailDomain extracts the lower-cased domain part of an address.
func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// matchStakeholderDomain reports whether the requester's email domain
// matches any stakeholder already granted on the project. Free-email domains
// (gmail.com and friends) are deliberately not excluded.
func matchStakeholderDomain(requesterEmail string, grantedEmails []string) (string, bool) {
	domain := emailDomain(requesterEmail)
	if domain == "" {
		return "", false
	}
	for _, e := range grantedEmails {
		if emailDomain(e) == domain {
			return domain, true
		}
	}
	return "", false
}
