package stakeholder

import (
	"log/slog"

	"github.com/viaviktor/rfisys/internal"
	"github.com/viaviktor/rfisys/internal/auth"
	stakeholdermodel "github.com/viaviktor/rfisys/internal/core/datamodel/stakeholder"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Add grants a contact access to a project. The contact must belong to the
// project's client; a stakeholder may only be granted projects owned by
// their own client.
func (s *Service) Add(projectID int64, dto AddDTO, acting *internal.Principal) (*stakeholdermodel.Grant, error) {
	if !auth.CanInvite(acting) || !auth.CanAccessProject(acting, projectID) {
		return nil, internal.ErrForbidden
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	project, err := s.repo.GetProject(projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load project", err)
	}
	if project == nil {
		return nil, internal.ErrProjectNotFound
	}

	contact, err := s.repo.GetContact(dto.ContactID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load contact", err)
	}
	if contact == nil {
		return nil, internal.ErrContactNotFound
	}
	if contact.ClientID != project.ClientID {
		return nil, internal.ErrCrossClient
	}

	level := dto.StakeholderLevel
	if !acting.IsInternal() {
		// an L1 may only bring in L2 stakeholders, never mint peer inviters
		if level == 0 {
			level = 2
		}
		if level != 2 {
			return nil, internal.ErrForbidden
		}
	}
	if level == 0 {
		level = 1
	}

	grant := &stakeholdermodel.Grant{
		ProjectID:        projectID,
		ContactID:        contact.ID,
		StakeholderLevel: level,
	}
	// provenance: exactly one of the added-by columns is set
	if acting.IsInternal() {
		grant.AddedByUserID = &acting.ID
	} else {
		grant.AddedByContactID = &acting.ID
	}

	err = s.repo.Transaction(func(r Repository) error {
		existing, err := r.GetGrant(projectID, contact.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return internal.ErrGrantExists
		}
		return r.CreateGrant(grant)
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to add stakeholder", err)
	}

	s.logger.Info("stakeholder added",
		"project_id", projectID,
		"contact_id", contact.ID,
		"level", level,
		"added_by_type", acting.UserType)

	return grant, nil
}

// Remove deletes the grant and, when it was the contact's last one anywhere,
// tears down the contact's standing credentials and purges its unused
// tokens. A contact with zero grants must not retain a working login.
func (s *Service) Remove(projectID, contactID int64, acting *internal.Principal) error {
	if !auth.CanInvite(acting) || !auth.CanAccessProject(acting, projectID) {
		return internal.ErrForbidden
	}

	var credentialsReset bool
	err := s.repo.Transaction(func(r Repository) error {
		removed, err := r.DeleteGrant(projectID, contactID)
		if err != nil {
			return err
		}
		if !removed {
			return internal.ErrGrantNotFound
		}

		remaining, err := r.CountGrants(contactID)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		credentialsReset = true
		if err := r.ResetContactCredentials(contactID); err != nil {
			return err
		}
		return r.DeleteUnusedTokens(contactID)
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return err
		}
		return internal.NewInternalError("failed to remove stakeholder", err)
	}

	s.logger.Info("stakeholder removed",
		"project_id", projectID,
		"contact_id", contactID,
		"credentials_reset", credentialsReset)

	return nil
}

// List returns the project's stakeholders. Internal users see any project;
// a stakeholder sees only projects in their own grant set, scoped to their
// own client.
func (s *Service) List(projectID int64, acting *internal.Principal) ([]*View, error) {
	if !auth.CanAccessProject(acting, projectID) {
		return nil, internal.ErrForbidden
	}

	project, err := s.repo.GetProject(projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load project", err)
	}
	if project == nil {
		return nil, internal.ErrProjectNotFound
	}
	if !auth.CanViewClient(acting, project.ClientID) {
		return nil, internal.ErrForbidden
	}

	views, err := s.repo.ListProjectStakeholders(projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list stakeholders", err)
	}
	return views, nil
}
