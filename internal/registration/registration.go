// Package registration issues and redeems single-use registration tokens,
// the only path by which an external contact obtains login credentials.
package registration

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	projectmodel "github.com/viaviktor/rfisys/internal/core/datamodel/project"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
)

// Repository is the data access contract for token issuance and redemption.
type Repository interface {
	Transaction(fn func(Repository) error) error

	GetContact(id int64) (*contactmodel.Contact, error)
	GetProject(id int64) (*projectmodel.Project, error)
	GetToken(token string) (*regtokenmodel.RegistrationToken, error)
	// DeleteUnusedTokens removes every token of the contact whose used_at is
	// still null, keeping at most one live token per contact.
	DeleteUnusedTokens(contactID int64) error
	CreateToken(t *regtokenmodel.RegistrationToken) error
	// ConsumeToken sets used_at, conditioned on used_at IS NULL so two
	// simultaneous redemptions cannot both succeed; reports whether this
	// caller won.
	ConsumeToken(token string, at time.Time) (bool, error)
	// ActivateContact stores the credentials minted during redemption.
	ActivateContact(contactID int64, passwordHash string) error
}

// Mint builds an unsaved token with a random 64-hex-char value.
func Mint(contactID int64, email string, projectIDs []int64, tokenType string, ttl time.Duration) (*regtokenmodel.RegistrationToken, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("mint registration token: %w", err)
	}
	return &regtokenmodel.RegistrationToken{
		Token:      hex.EncodeToString(raw),
		Email:      email,
		ContactID:  contactID,
		ProjectIDs: regtokenmodel.ProjectIDs(projectIDs),
		TokenType:  tokenType,
		ExpiresAt:  time.Now().Add(ttl),
	}, nil
}
