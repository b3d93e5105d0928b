package auth

import (
	"github.com/viaviktor/rfisys/internal"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	usermodel "github.com/viaviktor/rfisys/internal/core/datamodel/user"
)

// CanAccessProject reports whether the principal may read or write within a
// project. Internal staff see every project; stakeholders only the projects
// in their grant set.
func CanAccessProject(p *internal.Principal, projectID int64) bool {
	if p == nil {
		return false
	}
	if p.IsInternal() {
		return true
	}
	return p.HasProjectAccess(projectID)
}

// CanInvite reports whether the principal may add stakeholders to projects
// it can access. L1 stakeholders may invite L2 stakeholders; L2 cannot
// invite anyone.
func CanInvite(p *internal.Principal) bool {
	if p == nil {
		return false
	}
	if p.IsInternal() {
		return true
	}
	return p.Role == contactmodel.RoleStakeholderL1
}

// CanAdminister gates access-request decisions and other administrative
// operations.
func CanAdminister(p *internal.Principal) bool {
	if p == nil {
		return false
	}
	return p.IsInternal() && p.Role == usermodel.RoleAdmin
}

// CanViewClient scopes stakeholder list and aggregate operations: a contact
// is only visible within its own client.
func CanViewClient(p *internal.Principal, clientID int64) bool {
	if p == nil {
		return false
	}
	if p.IsInternal() {
		return true
	}
	return p.ClientID != nil && *p.ClientID == clientID
}
