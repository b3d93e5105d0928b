package registration

import (
	"github.com/viaviktor/rfisys/internal/core/common/validation"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
)

// IssueDTO is an internal user's request to (re)invite a contact.
type IssueDTO struct {
	ContactID  int64   `json:"contact_id"`
	ProjectIDs []int64 `json:"project_ids"`
	TokenType  string  `json:"token_type"`
}

func (d IssueDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("contact_id", d.ContactID).Required()
	v.Field("token_type", d.TokenType).
		OneOf(regtokenmodel.TypeInvitation, regtokenmodel.TypeRegistration)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// RedeemDTO completes registration through a token link. The email is
// re-supplied by the form and must match the one the token was bound to.
type RedeemDTO struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d RedeemDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("token", d.Token).Required()
	v.Field("email", d.Email).Required().Email()
	if err := v.Validate(); err != nil {
		return err
	}
	if err := validation.ValidatePassword(d.Password); err != nil {
		return err
	}
	return nil
}
