package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/viaviktor/rfisys/internal/accessrequest"
	model "github.com/viaviktor/rfisys/internal/core/datamodel/accessrequest"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	projectmodel "github.com/viaviktor/rfisys/internal/core/datamodel/project"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
	stakeholdermodel "github.com/viaviktor/rfisys/internal/core/datamodel/stakeholder"
	"github.com/viaviktor/rfisys/internal/core/softdelete"
)

// Repository implements accessrequest.Repository using GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) accessrequest.Repository {
	return &Repository{db: db}
}

func (r *Repository) Transaction(fn func(accessrequest.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) GetProject(id int64) (*projectmodel.Project, error) {
	var p projectmodel.Project
	err := r.db.Scopes(softdelete.Visible(softdelete.ActiveOnly)).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) FindContactByEmail(email string) (*contactmodel.Contact, error) {
	var c contactmodel.Contact
	err := r.db.Scopes(softdelete.Visible(softdelete.ActiveOnly)).
		Where("email = ?", email).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) GetContact(id int64) (*contactmodel.Contact, error) {
	var c contactmodel.Contact
	err := r.db.Scopes(softdelete.Visible(softdelete.ActiveOnly)).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) CreateContact(c *contactmodel.Contact) error {
	return r.db.Create(c).Error
}

func (r *Repository) UpdateContactApproval(contactID int64, role string) error {
	return r.db.Model(&contactmodel.Contact{}).
		Where("id = ?", contactID).
		Updates(map[string]interface{}{
			"registration_eligible": true,
			"role":                  role,
			"password_hash":         nil,
			"email_verified":        false,
			"updated_at":            time.Now(),
		}).Error
}

func (r *Repository) HasGrant(projectID, contactID int64) (bool, error) {
	var count int64
	err := r.db.Model(&stakeholdermodel.Grant{}).
		Where("project_id = ? AND contact_id = ?", projectID, contactID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateGrant(g *stakeholdermodel.Grant) error {
	return r.db.Create(g).Error
}

func (r *Repository) GrantedContactEmails(projectID int64) ([]string, error) {
	var emails []string
	err := r.db.Model(&stakeholdermodel.Grant{}).
		Joins("JOIN contacts ON contacts.id = project_stakeholders.contact_id").
		Where("project_stakeholders.project_id = ? AND contacts.deleted_at IS NULL", projectID).
		Pluck("contacts.email", &emails).Error
	return emails, err
}

func (r *Repository) HasPending(contactID, projectID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.AccessRequest{}).
		Where("contact_id = ? AND project_id = ? AND status = ?",
			contactID, projectID, model.StatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateRequest(req *model.AccessRequest) error {
	return r.db.Create(req).Error
}

func (r *Repository) GetRequest(id int64) (*model.AccessRequest, error) {
	var req model.AccessRequest
	err := r.db.Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *Repository) ListRequests(status string, limit, offset int) ([]*model.AccessRequest, error) {
	var requests []*model.AccessRequest
	q := r.db.Model(&model.AccessRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	return requests, err
}

func (r *Repository) MarkProcessed(requestID int64, status string, processedBy int64, at time.Time) (bool, error) {
	res := r.db.Model(&model.AccessRequest{}).
		Where("id = ? AND status = ?", requestID, model.StatusPending).
		Updates(map[string]interface{}{
			"status":          status,
			"processed_at":    at,
			"processed_by_id": processedBy,
			"updated_at":      at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) DeleteUnusedTokens(contactID int64) error {
	return r.db.
		Where("contact_id = ? AND used_at IS NULL", contactID).
		Delete(&regtokenmodel.RegistrationToken{}).Error
}

func (r *Repository) CreateToken(t *regtokenmodel.RegistrationToken) error {
	return r.db.Create(t).Error
}
