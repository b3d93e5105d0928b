package registration

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/viaviktor/rfisys/internal"
	"github.com/viaviktor/rfisys/internal/auth"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
	"github.com/viaviktor/rfisys/internal/core/events"
)

type Service struct {
	repo       Repository
	bus        *events.EventBus
	logger     *slog.Logger
	tokenTTL   time.Duration
	bcryptCost int
}

func NewService(repo Repository, bus *events.EventBus, tokenTTL time.Duration, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		bus:        bus,
		logger:     logger,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// Issue mints a fresh token for the contact, superseding any prior unused
// ones so an old invite link cannot stay valid after a new one goes out.
func (s *Service) Issue(dto IssueDTO, acting *internal.Principal) (*regtokenmodel.RegistrationToken, error) {
	if !auth.CanInvite(acting) {
		return nil, internal.ErrForbidden
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	contact, err := s.repo.GetContact(dto.ContactID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load contact", err)
	}
	if contact == nil {
		return nil, internal.ErrContactNotFound
	}
	if !acting.IsInternal() {
		// a stakeholder only acts on contacts of its own client and may
		// only bind projects it holds a grant on
		if acting.ClientID == nil || *acting.ClientID != contact.ClientID {
			return nil, internal.ErrForbidden
		}
		for _, projectID := range dto.ProjectIDs {
			if !acting.HasProjectAccess(projectID) {
				return nil, internal.ErrForbidden
			}
		}
	}

	tokenType := dto.TokenType
	if tokenType == "" {
		tokenType = regtokenmodel.TypeInvitation
	}

	var token *regtokenmodel.RegistrationToken
	err = s.repo.Transaction(func(r Repository) error {
		if err := r.DeleteUnusedTokens(contact.ID); err != nil {
			return err
		}
		token, err = Mint(contact.ID, contact.Email, dto.ProjectIDs, tokenType, s.tokenTTL)
		if err != nil {
			return err
		}
		return r.CreateToken(token)
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to issue registration token", err)
	}

	s.logger.Info("registration token issued",
		"contact_id", contact.ID,
		"token_type", tokenType,
		"expires_at", token.ExpiresAt)

	projectID := int64(0)
	projectName := ""
	if len(dto.ProjectIDs) > 0 {
		projectID = dto.ProjectIDs[0]
		if project, err := s.repo.GetProject(projectID); err == nil && project != nil {
			projectName = project.Name
		}
	}
	s.bus.Publish(context.Background(), events.NewInvitationIssuedEvent(
		contact.ID, contact.Email, contact.Name, projectID, projectName, token.Token))

	return token, nil
}

// Validate checks a token without consuming it, for the registration form
// to prefill and fail fast on a dead link.
func (s *Service) Validate(tokenValue string) (*regtokenmodel.RegistrationToken, error) {
	token, err := s.repo.GetToken(tokenValue)
	if err != nil {
		return nil, internal.NewInternalError("failed to load registration token", err)
	}
	if token == nil {
		return nil, internal.ErrTokenNotFound
	}
	if token.Expired(time.Now()) {
		return nil, internal.ErrTokenExpired
	}
	if token.Used() {
		return nil, internal.ErrTokenAlreadyUsed
	}
	return token, nil
}

// Redeem consumes the token and activates the contact's credentials. The
// used_at update and the contact activation commit together, so a crash
// mid-redemption can never leave a live token next to an activated account.
func (s *Service) Redeem(dto RedeemDTO) (*contactmodel.Contact, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	token, err := s.repo.GetToken(dto.Token)
	if err != nil {
		return nil, internal.NewInternalError("failed to load registration token", err)
	}
	if token == nil {
		return nil, internal.ErrTokenNotFound
	}
	if token.Expired(time.Now()) {
		return nil, internal.ErrTokenExpired
	}
	if token.Used() {
		return nil, internal.ErrTokenAlreadyUsed
	}
	if !strings.EqualFold(dto.Email, token.Email) {
		return nil, internal.ErrTokenEmailMismatch
	}

	contact, err := s.repo.GetContact(token.ContactID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load contact", err)
	}
	if contact == nil {
		return nil, internal.ErrContactNotFound
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	err = s.repo.Transaction(func(r Repository) error {
		won, err := r.ConsumeToken(token.Token, time.Now())
		if err != nil {
			return err
		}
		if !won {
			return internal.ErrTokenAlreadyUsed
		}
		return r.ActivateContact(contact.ID, hash)
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to redeem registration token", err)
	}

	contact.PasswordHash = &hash
	contact.EmailVerified = true
	contact.RegistrationEligible = true

	s.logger.Info("contact registered",
		"contact_id", contact.ID,
		"token_type", token.TokenType)

	s.bus.Publish(context.Background(), events.NewContactRegisteredEvent(contact.ID, contact.Email))

	return contact, nil
}
