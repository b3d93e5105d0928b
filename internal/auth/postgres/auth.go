package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/viaviktor/rfisys/internal/auth"
	contactmodel "github.com/viaviktor/rfisys/internal/core/datamodel/contact"
	stakeholdermodel "github.com/viaviktor/rfisys/internal/core/datamodel/stakeholder"
	usermodel "github.com/viaviktor/rfisys/internal/core/datamodel/user"
	"github.com/viaviktor/rfisys/internal/core/softdelete"
)

// UserRepository implements auth.UserRepository using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) auth.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindActiveByEmail(email string) (*usermodel.User, error) {
	var u usermodel.User
	err := r.db.Scopes(softdelete.Visible(softdelete.ActiveOnly)).
		Where("email = ?", email).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindActiveByID(id int64) (*usermodel.User, error) {
	var u usermodel.User
	err := r.db.Scopes(softdelete.Visible(softdelete.ActiveOnly)).
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ContactRepository implements auth.ContactRepository using GORM.
type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) auth.ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) FindRegisteredByEmail(email string) (*contactmodel.Contact, error) {
	var c contactmodel.Contact
	err := r.db.Scopes(softdelete.Visible(softdelete.ActiveOnly)).
		Where("email = ? AND password_hash IS NOT NULL", email).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) FindRegisteredByID(id int64) (*contactmodel.Contact, error) {
	var c contactmodel.Contact
	err := r.db.Scopes(softdelete.Visible(softdelete.ActiveOnly)).
		Where("id = ? AND password_hash IS NOT NULL", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) ProjectIDs(contactID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&stakeholdermodel.Grant{}).
		Where("contact_id = ?", contactID).
		Order("project_id").
		Pluck("project_id", &ids).Error
	return ids, err
}

func (r *ContactRepository) TouchLastLogin(contactID int64, at time.Time) error {
	return r.db.Model(&contactmodel.Contact{}).
		Where("id = ?", contactID).
		Update("last_login", at).Error
}
