package accessrequest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/viaviktor/rfisys/internal"
	"github.com/viaviktor/rfisys/internal/auth"
	model "github.com/viaviktor/rfisys/internal/core/datamodel/accessrequest"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
	stakeholdermodel "github.com/viaviktor/rfisys/internal/core/datamodel/stakeholder"
	"github.com/viaviktor/rfisys/internal/core/events"
	"github.com/viaviktor/rfisys/internal/registration"
)

// Service runs the access-request state machine.
type Service struct {
	repo     Repository
	bus      *events.EventBus
	logger   *slog.Logger
	tokenTTL time.Duration
}

func NewService(repo Repository, bus *events.EventBus, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		bus:      bus,
		logger:   logger,
		tokenTTL: tokenTTL,
	}
}

// Submit files a request for the contact identified by dto.Email, creating
// the contact under the project's client when it does not exist yet. When
// the requester's email domain matches an existing stakeholder on the
// project, the request is auto-approved and the grant created atomically
// with it; otherwise it lands PENDING for admin review.
func (s *Service) Submit(dto SubmitDTO) (*model.AccessRequest, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("access request validation failed", "error", err)
		return nil, err
	}

	project, err := s.repo.GetProject(dto.ProjectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load project", err)
	}
	if project == nil {
		return nil, internal.ErrProjectNotFound
	}

	contact, err := s.repo.FindContactByEmail(dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up contact", err)
	}
	if contact != nil && contact.ClientID != project.ClientID {
		// the contact belongs to another client; joining this project would
		// cross the ownership boundary
		return nil, internal.ErrCrossClient
	}

	if contact != nil {
		granted, err := s.repo.HasGrant(project.ID, contact.ID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check grants", err)
		}
		if granted {
			return nil, internal.ErrAlreadyStakeholder
		}

		pending, err := s.repo.HasPending(contact.ID, project.ID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check pending requests", err)
		}
		if pending {
			return nil, internal.ErrDuplicatePending
		}
	}

	grantedEmails, err := s.repo.GrantedContactEmails(project.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load stakeholder emails", err)
	}
	domain, autoApprove := matchStakeholderDomain(dto.Email, grantedEmails)

	request := &model.AccessRequest{
		ProjectID:     project.ID,
		RequestedRole: dto.RequestedRole,
		Justification: dto.Justification,
		Status:        model.StatusPending,
	}

	err = s.repo.Transaction(func(r Repository) error {
		// re-run the guards inside the transaction: a concurrent submit or
		// manual add may have raced us past the checks above
		recheckGuards := func() error {
			granted, err := r.HasGrant(project.ID, contact.ID)
			if err != nil {
				return err
			}
			if granted {
				return internal.ErrAlreadyStakeholder
			}
			pending, err := r.HasPending(contact.ID, project.ID)
			if err != nil {
				return err
			}
			if pending {
				return internal.ErrDuplicatePending
			}
			return nil
		}

		if contact == nil {
			// a concurrent submit may have created the contact since the
			// pre-transaction lookup; the partial unique index on email is
			// the storage backstop
			existing, err := r.FindContactByEmail(dto.Email)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.ClientID != project.ClientID {
					return internal.ErrCrossClient
				}
				contact = existing
				if err := recheckGuards(); err != nil {
					return err
				}
			} else {
				contact = &contactmodel.Contact{
					ClientID: project.ClientID,
					Name:     dto.Name,
					Email:    dto.Email,
					Phone:    dto.Phone,
					Active:   true,
				}
				if err := r.CreateContact(contact); err != nil {
					return err
				}
			}
		} else {
			if err := recheckGuards(); err != nil {
				return err
			}
		}

		request.ContactID = contact.ID

		if autoApprove {
			now := time.Now()
			reason := fmt.Sprintf("email domain %s matches an existing project stakeholder", domain)
			request.Status = model.StatusAutoApproved
			request.AutoApprovalReason = &reason
			request.ProcessedAt = &now

			if err := r.CreateRequest(request); err != nil {
				return err
			}

			grant := &stakeholdermodel.Grant{
				ProjectID:        project.ID,
				ContactID:        contact.ID,
				StakeholderLevel: contactmodel.LevelForRole(dto.RequestedRole),
				AddedByContactID: &contact.ID,
				AutoApproved:     true,
			}
			return r.CreateGrant(grant)
		}

		return r.CreateRequest(request)
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to submit access request", err)
	}

	s.logger.Info("access request submitted",
		"request_id", request.ID,
		"contact_id", request.ContactID,
		"project_id", request.ProjectID,
		"status", request.Status)

	if request.Status == model.StatusAutoApproved {
		s.bus.Publish(context.Background(), events.NewRequestAutoApprovedEvent(
			request.ID, request.ContactID, request.ProjectID, *request.AutoApprovalReason))
	}

	return request, nil
}

// Process applies an admin decision to a PENDING request. On approval the
// contact is reset to registration-eligible, the grant upserted, stale
// invites superseded and a fresh registration token minted, all in one
// transaction; the invitation email is dispatched only after commit. On
// rejection only the request row changes.
func (s *Service) Process(requestID int64, decision string, actingAdmin *internal.Principal) (*model.AccessRequest, error) {
	if !auth.CanAdminister(actingAdmin) {
		return nil, internal.ErrForbidden
	}

	if err := (DecisionDTO{Decision: decision}).Validate(); err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequest(requestID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load access request", err)
	}
	if request == nil {
		return nil, internal.ErrRequestNotFound
	}
	if request.IsTerminal() {
		return nil, internal.ErrAlreadyProcessed
	}

	var (
		token       *regtokenmodel.RegistrationToken
		contact     *contactmodel.Contact
		processedAt = time.Now()
	)

	err = s.repo.Transaction(func(r Repository) error {
		// conditioned on status = PENDING inside the transaction, closing
		// the race where two admins decide simultaneously
		won, err := r.MarkProcessed(requestID, decision, actingAdmin.ID, processedAt)
		if err != nil {
			return err
		}
		if !won {
			return internal.ErrAlreadyProcessed
		}

		if decision == model.StatusRejected {
			return nil
		}

		contact, err = r.GetContact(request.ContactID)
		if err != nil {
			return err
		}
		if contact == nil {
			return internal.ErrContactNotFound
		}

		if err := r.UpdateContactApproval(contact.ID, request.RequestedRole); err != nil {
			return err
		}

		granted, err := r.HasGrant(request.ProjectID, contact.ID)
		if err != nil {
			return err
		}
		if !granted {
			grant := &stakeholdermodel.Grant{
				ProjectID:        request.ProjectID,
				ContactID:        contact.ID,
				StakeholderLevel: contactmodel.LevelForRole(request.RequestedRole),
				AddedByUserID:    &actingAdmin.ID,
			}
			if err := r.CreateGrant(grant); err != nil {
				return err
			}
		}

		if err := r.DeleteUnusedTokens(contact.ID); err != nil {
			return err
		}

		token, err = registration.Mint(contact.ID, contact.Email,
			[]int64{request.ProjectID}, regtokenmodel.TypeInvitation, s.tokenTTL)
		if err != nil {
			return err
		}
		return r.CreateToken(token)
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to process access request", err)
	}

	request.Status = decision
	request.ProcessedAt = &processedAt
	request.ProcessedByID = &actingAdmin.ID

	s.logger.Info("access request processed",
		"request_id", requestID,
		"decision", decision,
		"processed_by", actingAdmin.ID)

	if decision == model.StatusApproved {
		projectName := ""
		if project, err := s.repo.GetProject(request.ProjectID); err == nil && project != nil {
			projectName = project.Name
		}
		s.bus.Publish(context.Background(), events.NewInvitationIssuedEvent(
			contact.ID, contact.Email, contact.Name, request.ProjectID, projectName, token.Token))
	}

	return request, nil
}

// List returns requests by status for the admin review screen.
func (s *Service) List(status string, limit, offset int, principal *internal.Principal) ([]*model.AccessRequest, error) {
	if !auth.CanAdminister(principal) {
		return nil, internal.ErrForbidden
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	requests, err := s.repo.ListRequests(status, limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list access requests", err)
	}
	return requests, nil
}
