// Package report aggregates contact statistics. Figures are recomputed on
// every request.
package report

import (
	"math"
	"time"
)

const (
	UncategorizedLabel = "Uncategorized"
	RecentUploadWindow = 30 * 24 * time.Hour
)

// Counts are the raw totals for one scope.
type Counts struct {
	Total            int64 `db:"total" json:"total"`
	WithEmail        int64 `db:"with_email" json:"withEmail"`
	WithPhone        int64 `db:"with_phone" json:"withPhone"`
	WithAddress      int64 `db:"with_address" json:"withAddress"`
	WithCompany      int64 `db:"with_company" json:"withCompany"`
	WithCustomFields int64 `db:"with_custom_fields" json:"withCustomFields"`
}

type CategoryRow struct {
	CategoryID *int64 `db:"category_id"`
	Name       string `db:"name"`
	Color      string `db:"color"`
	Count      int64  `db:"count"`
}

type Percentages struct {
	Email        float64 `json:"email"`
	Phone        float64 `json:"phone"`
	Address      float64 `json:"address"`
	Company      float64 `json:"company"`
	CustomFields float64 `json:"customFields"`
}

type CategoryCount struct {
	CategoryID *int64  `json:"categoryId"`
	Name       string  `json:"name"`
	Color      string  `json:"color,omitempty"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type ContactStats struct {
	Counts
	Percentages Percentages     `json:"percentages"`
	Categories  []CategoryCount `json:"categories"`
}

type DivisionStats struct {
	DivisionID    int64        `json:"divisionId"`
	Name          string       `json:"name"`
	Contacts      ContactStats `json:"contacts"`
	ActiveUsers   int64        `json:"activeUsers"`
	RecentUploads int64        `json:"recentUploads"`
}

type CompanyStats struct {
	Contacts        ContactStats    `json:"contacts"`
	ActiveUsers     int64           `json:"activeUsers"`
	ActiveDivisions int64           `json:"activeDivisions"`
	RecentUploads   int64           `json:"recentUploads"`
	Divisions       []DivisionStats `json:"divisions"`
	WindowDays      int             `json:"windowDays"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

type Division struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Percent is part of whole rounded to one decimal; 0 when whole is 0.
func Percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(whole)) / 10
}

func buildStats(counts Counts, categories []CategoryRow) ContactStats {
	stats := ContactStats{
		Counts: counts,
		Percentages: Percentages{
			Email:        Percent(counts.WithEmail, counts.Total),
			Phone:        Percent(counts.WithPhone, counts.Total),
			Address:      Percent(counts.WithAddress, counts.Total),
			Company:      Percent(counts.WithCompany, counts.Total),
			CustomFields: Percent(counts.WithCustomFields, counts.Total),
		},
		Categories: make([]CategoryCount, 0, len(categories)),
	}
	for _, c := range categories {
		name := c.Name
		if c.CategoryID == nil || name == "" {
			name = UncategorizedLabel
		}
		stats.Categories = append(stats.Categories, CategoryCount{
			CategoryID: c.CategoryID,
			Name:       name,
			Color:      c.Color,
			Count:      c.Count,
			Percentage: Percent(c.Count, counts.Total),
		})
	}
	return stats
}
