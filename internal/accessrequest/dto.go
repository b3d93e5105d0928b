package accessrequest

import (
	"github.com/viaviktor/rfisys/internal/core/common/validation"
	model "github.com/viaviktor/rfisys/internal/core/datamodel/accessrequest"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
)

// SubmitDTO is the public, unauthenticated submission shape. The email
// identifies (or creates) the contact.
type SubmitDTO struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	ProjectID     int64  `json:"project_id"`
	RequestedRole string `json:"requested_role"`
	Justification string `json:"justification"`
}

func (d SubmitDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(200)
	v.Field("email", d.Email).Required().Email()
	v.Field("project_id", d.ProjectID).Required()
	v.Field("requested_role", d.RequestedRole).Required().
		OneOf(contactmodel.RoleStakeholderL1, contactmodel.RoleStakeholderL2)
	v.Field("justification", d.Justification).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// DecisionDTO carries an admin's approve/reject decision.
type DecisionDTO struct {
	Decision string `json:"decision"`
}

func (d DecisionDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("decision", d.Decision).Required().
		OneOf(model.StatusApproved, model.StatusRejected)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
