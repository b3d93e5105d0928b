package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	projectmodel "github.com/viaviktor/rfisys/internal/core/datamodel/project"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
	stakeholdermodel "github.com/viaviktor/rfisys/internal/core/datamodel/stakeholder"
	"github.com/viaviktor/rfisys/internal/core/softdelete"
	"github.com/viaviktor/rfisys/internal/stakeholder"
)

// Repository implements stakeholder.Repository using GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) stakeholder.Repository {
	return &Repository{db: db}
}

func (r *Repository) Transaction(fn func(stakeholder.Repository) error) error {
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

func (r *Repository) GetGrant(projectID, contactID int64) (*stakeholdermodel.Grant, error) {
	var g stakeholdermodel.Grant
	err := r.db.
		Where("project_id = ? AND contact_id = ?", projectID, contactID).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *Repository) CreateGrant(g *stakeholdermodel.Grant) error {
	return r.db.Create(g).Error
}

func (r *Repository) DeleteGrant(projectID, contactID int64) (bool, error) {
	res := r.db.
		Where("project_id = ? AND contact_id = ?", projectID, contactID).
		Delete(&stakeholdermodel.Grant{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) CountGrants(contactID int64) (int64, error) {
	var count int64
	err := r.db.Model(&stakeholdermodel.Grant{}).
		Where("contact_id = ?", contactID).
		Count(&count).Error
	return count, err
}

func (r *Repository) ListProjectStakeholders(projectID int64) ([]*stakeholder.View, error) {
	var views []*stakeholder.View
	err := r.db.Model(&stakeholdermodel.Grant{}).
		Select(`project_stakeholders.id AS grant_id,
			project_stakeholders.project_id,
			project_stakeholders.contact_id,
			contacts.name AS contact_name,
			contacts.email AS contact_email,
			project_stakeholders.stakeholder_level,
			project_stakeholders.auto_approved,
			contacts.password_hash IS NOT NULL AS registered,
			project_stakeholders.created_at`).
		Joins("JOIN contacts ON contacts.id = project_stakeholders.contact_id").
		Where("project_stakeholders.project_id = ? AND contacts.deleted_at IS NULL", projectID).
		Order("project_stakeholders.created_at").
		Scan(&views).Error
	return views, err
}

func (r *Repository) ResetContactCredentials(contactID int64) error {
	return r.db.Model(&contactmodel.Contact{}).
		Where("id = ?", contactID).
		Updates(map[string]interface{}{
			"password_hash":         nil,
			"registration_eligible": false,
			"email_verified":        false,
			"updated_at":            time.Now(),
		}).Error
}

func (r *Repository) DeleteUnusedTokens(contactID int64) error {
	return r.db.
		Where("contact_id = ? AND used_at IS NULL", contactID).
		Delete(&regtokenmodel.RegistrationToken{}).Error
}
