package registration

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/viaviktor/rfisys/internal"
	"github.com/viaviktor/rfisys/internal/transport"
	"github.com/viaviktor/rfisys/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Issue mints a new invite for a contact. Requires an authenticated
// internal user or an L1 stakeholder.
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto IssueDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.Service.Issue(dto, principal)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
	})
}

// ValidateToken lets the registration form fail fast on a dead link.
func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	tokenValue := r.URL.Query().Get("token")
	if tokenValue == "" {
		h.WriteError(w, http.StatusBadRequest, "token is required")
		return
	}

	token, err := h.Service.Validate(tokenValue)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"email":      token.Email,
		"token_type": token.TokenType,
		"expires_at": token.ExpiresAt,
	})
}

// Register redeems a token and sets the contact's password.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RedeemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	contact, err := h.Service.Redeem(dto)
	if err != nil {
		h.Logger.Warn("registration failed", "error", err)
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"contact_id": contact.ID,
		"email":      contact.Email,
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		h.WriteAppError(w, appErr)
		return
	}
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
