package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/report"
)

// ReportRepository runs aggregation queries with sqlx. The SQL sticks to
// what both PostgreSQL and SQLite accept.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) report.RepositoryAPI {
	return &ReportRepository{db: db}
}

const contactCountsQuery = `
SELECT
	COUNT(*) AS total,
	COALESCE(SUM(CASE WHEN c.email <> '' THEN 1 ELSE 0 END), 0) AS with_email,
	COALESCE(SUM(CASE WHEN c.phone <> '' THEN 1 ELSE 0 END), 0) AS with_phone,
	COALESCE(SUM(CASE WHEN c.address <> '' THEN 1 ELSE 0 END), 0) AS with_address,
	COALESCE(SUM(CASE WHEN c.company <> '' THEN 1 ELSE 0 END), 0) AS with_company,
	COALESCE(SUM(CASE WHEN c.custom_fields IS NOT NULL
		AND CAST(c.custom_fields AS TEXT) NOT IN ('', '{}', 'null') THEN 1 ELSE 0 END), 0) AS with_custom_fields
FROM contacts c
WHERE c.is_active = ?`

const categoryCountsQuery = `
SELECT
	c.category_id AS category_id,
	COALESCE(cat.name, '') AS name,
	COALESCE(cat.color, '') AS color,
	COUNT(*) AS count
FROM contacts c
LEFT JOIN contact_categories cat ON cat.id = c.category_id
WHERE c.is_active = ?`

// withScope appends the division filter and expands IN lists.
func (r *ReportRepository) withScope(query string, scope internal.DivisionScope, args []interface{}, suffix string) (string, []interface{}, error) {
	if !scope.All {
		query += " AND c.division_id IN (?)"
		args = append(args, scope.DivisionIDs)
	}
	query += suffix
	if scope.All {
		return r.db.Rebind(query), args, nil
	}
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expand scope: %w", err)
	}
	return r.db.Rebind(expanded), expandedArgs, nil
}

func (r *ReportRepository) ContactCounts(ctx context.Context, scope internal.DivisionScope) (report.Counts, error) {
	var counts report.Counts
	query, args, err := r.withScope(contactCountsQuery, scope, []interface{}{true}, "")
	if err != nil {
		return counts, err
	}
	if err := r.db.GetContext(ctx, &counts, query, args...); err != nil {
		return counts, fmt.Errorf("count contacts: %w", err)
	}
	return counts, nil
}

func (r *ReportRepository) CategoryCounts(ctx context.Context, scope internal.DivisionScope) ([]report.CategoryRow, error) {
	query, args, err := r.withScope(categoryCountsQuery, scope, []interface{}{true},
		" GROUP BY c.category_id, cat.name, cat.color ORDER BY count DESC, name ASC")
	if err != nil {
		return nil, err
	}
	rows := []report.CategoryRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count contacts by category: %w", err)
	}
	return rows, nil
}

func (r *ReportRepository) ActiveDivisions(ctx context.Context) ([]report.Division, error) {
	divisions := []report.Division{}
	query := r.db.Rebind(`SELECT id, name FROM divisions WHERE is_active = ? ORDER BY name ASC`)
	if err := r.db.SelectContext(ctx, &divisions, query, true); err != nil {
		return nil, fmt.Errorf("list active divisions: %w", err)
	}
	return divisions, nil
}

func (r *ReportRepository) ActiveUsers(ctx context.Context, divisionID *int64) (int64, error) {
	var (
		n     int64
		query string
		args  []interface{}
	)
	if divisionID == nil {
		query = `SELECT COUNT(*) FROM users WHERE is_active = ?`
		args = []interface{}{true}
	} else {
		query = `SELECT COUNT(DISTINCT u.id) FROM users u
			JOIN user_divisions ud ON ud.user_id = u.id
			WHERE u.is_active = ? AND ud.division_id = ?`
		args = []interface{}{true, *divisionID}
	}
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return n, nil
}

func (r *ReportRepository) UploadsSince(ctx context.Context, divisionID *int64, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM uploads WHERE created_at >= ?`
	args := []interface{}{since.UTC()}
	if divisionID != nil {
		query += ` AND division_id = ?`
		args = append(args, *divisionID)
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count recent uploads: %w", err)
	}
	return n, nil
}
