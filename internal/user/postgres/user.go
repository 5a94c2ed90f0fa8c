package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	userDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/user"
	"github.com/frahmantamala/contacthub/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var rows []*userDatamodel.User
	if err := r.db.WithContext(ctx).Order("email ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return rows, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// Create inserts the user and its initial memberships in one transaction.
func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User, memberships []*userDatamodel.UserDivision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		for _, m := range memberships {
			m.UserID = u.ID
		}
		if len(memberships) > 0 {
			if err := tx.Create(&memberships).Error; err != nil {
				return fmt.Errorf("create memberships: %w", err)
			}
		}
		return nil
	})
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	err := r.db.WithContext(ctx).Model(u).Select("first_name", "last_name", "role", "is_active", "updated_at").Updates(u).Error
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Update("password_hash", hash).Error
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	return nil
}

func (r *UserRepository) ListMemberships(ctx context.Context, userID int64) ([]*userDatamodel.UserDivision, error) {
	var rows []*userDatamodel.UserDivision
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("division_id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return rows, nil
}

func (r *UserRepository) ListAllMemberships(ctx context.Context) ([]*userDatamodel.UserDivision, error) {
	var rows []*userDatamodel.UserDivision
	if err := r.db.WithContext(ctx).Order("user_id ASC, division_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list all memberships: %w", err)
	}
	return rows, nil
}

// ReplaceMemberships swaps the full membership set atomically.
func (r *UserRepository) ReplaceMemberships(ctx context.Context, userID int64, memberships []*userDatamodel.UserDivision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&userDatamodel.UserDivision{}).Error; err != nil {
			return fmt.Errorf("clear memberships: %w", err)
		}
		for _, m := range memberships {
			m.UserID = userID
		}
		if len(memberships) > 0 {
			if err := tx.Create(&memberships).Error; err != nil {
				return fmt.Errorf("insert memberships: %w", err)
			}
		}
		return nil
	})
}
