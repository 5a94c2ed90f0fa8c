package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/contact"
	contactDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/contact"
	"github.com/frahmantamala/contacthub/internal/importer"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

var (
	_ contact.RepositoryAPI = (*ContactRepository)(nil)
	_ importer.ContactStore = (*ContactRepository)(nil)
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scoped(q *gorm.DB, scope internal.DivisionScope) *gorm.DB {
	if scope.All {
		return q
	}
	return q.Where("division_id IN ?", scope.DivisionIDs)
}

func (r *ContactRepository) List(ctx context.Context, scope internal.DivisionScope, filter contact.ListFilter) ([]*contactDatamodel.Contact, int64, error) {
	q := scoped(r.db.WithContext(ctx).Model(&contactDatamodel.Contact{}), scope).
		Where("is_active = ?", true)
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Search != "" {
		term := "%" + likeEscaper.Replace(strings.ToLower(filter.Search)) + "%"
		q = q.Where(`(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(company) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\')`,
			term, term, term, term, term)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	var contacts []*contactDatamodel.Contact
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&contacts).Error; err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, total, nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*contactDatamodel.Contact, error) {
	var c contactDatamodel.Contact
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return &c, nil
}

func (r *ContactRepository) Create(ctx context.Context, c *contactDatamodel.Contact) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) Update(ctx context.Context, c *contactDatamodel.Contact) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) Deactivate(ctx context.Context, scope internal.DivisionScope, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := scoped(r.db.WithContext(ctx).Model(&contactDatamodel.Contact{}), scope).
		Where("id IN ? AND is_active = ?", ids, true).
		Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("deactivate contacts: %w", res.Error)
	}
	return res.RowsAffected, nil
}
