package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	projectmodel "github.com/viaviktor/rfisys/internal/core/datamodel/project"
	regtokenmodel "github.com/viaviktor/rfisys/internal/core/datamodel/regtoken"
	"github.com/viaviktor/rfisys/internal/core/softdelete"
	"github.com/viaviktor/rfisys/internal/registration"
)

// Repository implements registration.Repository using GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) registration.Repository {
	return &Repository{db: db}
}

func (r *Repository) Transaction(fn func(registration.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
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

func (r *Repository) GetToken(token string) (*regtokenmodel.RegistrationToken, error) {
	var t regtokenmodel.RegistrationToken
	err := r.db.Where("token = ?", token).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repository) DeleteUnusedTokens(contactID int64) error {
	return r.db.
		Where("contact_id = ? AND used_at IS NULL", contactID).
		Delete(&regtokenmodel.RegistrationToken{}).Error
}

func (r *Repository) CreateToken(t *regtokenmodel.RegistrationToken) error {
	return r.db.Create(t).Error
}

func (r *Repository) ConsumeToken(token string, at time.Time) (bool, error) {
	res := r.db.Model(&regtokenmodel.RegistrationToken{}).
		Where("token = ? AND used_at IS NULL", token).
		Update("used_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) ActivateContact(contactID int64, passwordHash string) error {
	return r.db.Model(&contactmodel.Contact{}).
		Where("id = ?", contactID).
		Updates(map[string]interface{}{
			"password_hash":         passwordHash,
			"email_verified":        true,
			"registration_eligible": true,
			"updated_at":            time.Now(),
		}).Error
}
