package auth

import (
	"time"

	"github.com/viaviktor/rfisys/internal"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	usermodel "github.com/viaviktor/rfisys/internal/core/datamodel/user"
)

// UserRepository looks up internal staff accounts. Lookups return (nil, nil)
// when no matching non-deleted row exists.
type UserRepository interface {
	FindActiveByEmail(email string) (*usermodel.User, error)
	FindActiveByID(id int64) (*usermodel.User, error)
}

// ContactRepository looks up registered stakeholder contacts. "Registered"
// means non-deleted with a non-null password hash; unregistered contacts
// never authenticate. Lookups return (nil, nil) when no row qualifies.
type ContactRepository interface {
	FindRegisteredByEmail(email string) (*contactmodel.Contact, error)
	FindRegisteredByID(id int64) (*contactmodel.Contact, error)
	ProjectIDs(contactID int64) ([]int64, error)
	TouchLastLogin(contactID int64, at time.Time) error
}

// Resolve maps a credential pair to a principal. Lookup priority is fixed
// and intentional: internal users first, then registered contacts. The same
// email may legitimately exist once in each table. Every failure mode
// collapses into the same InvalidCredentials error so callers cannot probe
// which identities exist.
func (s *Service) Resolve(email, password string) (*internal.Principal, error) {
	u, err := s.users.FindActiveByEmail(email)
	if err != nil {
		s.logger.Error("user lookup failed", "error", err)
		return nil, internal.NewInternalError("principal resolution failed", err)
	}
	if u != nil && u.Active {
		if VerifyPassword(u.PasswordHash, password) == nil {
			return &internal.Principal{
				ID:       u.ID,
				Email:    u.Email,
				Role:     u.Role,
				UserType: internal.PrincipalInternal,
			}, nil
		}
	}

	c, err := s.contacts.FindRegisteredByEmail(email)
	if err != nil {
		s.logger.Error("contact lookup failed", "error", err)
		return nil, internal.NewInternalError("principal resolution failed", err)
	}
	if c != nil && c.CanAuthenticate() {
		if VerifyPassword(*c.PasswordHash, password) == nil {
			return s.stakeholderPrincipal(c)
		}
	}

	return nil, internal.ErrInvalidCredentials
}

func (s *Service) stakeholderPrincipal(c *contactmodel.Contact) (*internal.Principal, error) {
	projectIDs, err := s.contacts.ProjectIDs(c.ID)
	if err != nil {
		s.logger.Error("failed to load project access", "error", err, "contact_id", c.ID)
		return nil, internal.NewInternalError("principal resolution failed", err)
	}

	role := contactmodel.RoleStakeholderL1
	if c.Role != nil && *c.Role != "" {
		role = *c.Role
	}

	if err := s.contacts.TouchLastLogin(c.ID, time.Now()); err != nil {
		// best effort, login proceeds
		s.logger.Warn("failed to update last login", "error", err, "contact_id", c.ID)
	}

	clientID := c.ClientID
	return &internal.Principal{
		ID:            c.ID,
		Email:         c.Email,
		Role:          role,
		UserType:      internal.PrincipalStakeholder,
		ClientID:      &clientID,
		ProjectAccess: projectIDs,
	}, nil
}

// resolveByClaims rebuilds a principal from refresh-token claims, re-reading
// storage so revoked access (cleared password hash, removed grants) cuts off
// token refresh immediately.
func (s *Service) resolveByClaims(claims *Claims) (*internal.Principal, error) {
	switch internal.PrincipalType(claims.UserType) {
	case internal.PrincipalInternal:
		u, err := s.users.FindActiveByID(claims.PrincipalID)
		if err != nil {
			return nil, internal.NewInternalError("principal resolution failed", err)
		}
		if u == nil || !u.Active {
			return nil, internal.ErrInvalidToken
		}
		return &internal.Principal{
			ID:       u.ID,
			Email:    u.Email,
			Role:     u.Role,
			UserType: internal.PrincipalInternal,
		}, nil
	case internal.PrincipalStakeholder:
		c, err := s.contacts.FindRegisteredByID(claims.PrincipalID)
		if err != nil {
			return nil, internal.NewInternalError("principal resolution failed", err)
		}
		if c == nil || !c.CanAuthenticate() {
			return nil, internal.ErrInvalidToken
		}
		return s.stakeholderPrincipal(c)
	default:
		return nil, internal.ErrInvalidToken
	}
}
