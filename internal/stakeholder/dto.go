package stakeholder

import (
	errors "github.com/viaviktor/rfisys/internal"
	"github.com/viaviktor/rfisys/internal/core/common/validation"
)

// AddDTO attaches an existing contact to a project.
type AddDTO struct {
	ContactID        int64 `json:"contact_id"`
	StakeholderLevel int   `json:"stakeholder_level"`
}

func (d AddDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("contact_id", d.ContactID).Required()
	v.Field("stakeholder_level", d.StakeholderLevel).
		Custom(func(interface{}) *errors.AppError {
			if d.StakeholderLevel < 0 || d.StakeholderLevel > 2 {
				return errors.NewValidationFieldError("stakeholder_level",
					"stakeholder_level must be 1 or 2", errors.ErrCodeValidationFailed)
			}
			return nil
		})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
