package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/viaviktor/rfisys/internal"
)

// ServiceAPI is the surface the transport layer consumes.
type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

// TokenGenerator creates signed credentials carrying principal claims.
type TokenGenerator interface {
	GenerateAccessToken(p *internal.Principal) (token string, err error)
	GenerateRefreshToken(p *internal.Principal) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims carry the full authorization context so permission checks never
// hit storage: principal id, role, principal kind and, for stakeholders,
// the project-access set.
type Claims struct {
	PrincipalID   int64   `json:"principal_id"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	UserType      string  `json:"user_type"`
	ClientID      *int64  `json:"client_id,omitempty"`
	ProjectAccess []int64 `json:"project_access,omitempty"`
	jwt.RegisteredClaims
}

// Principal rebuilds the uniform principal view from verified claims.
func (c *Claims) Principal() *internal.Principal {
	return &internal.Principal{
		ID:            c.PrincipalID,
		Email:         c.Email,
		Role:          c.Role,
		UserType:      internal.PrincipalType(c.UserType),
		ClientID:      c.ClientID,
		ProjectAccess: c.ProjectAccess,
	}
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}
