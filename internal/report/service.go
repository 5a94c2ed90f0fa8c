package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/contacthub/internal"
)

type RepositoryAPI interface {
	ContactCounts(ctx context.Context, scope internal.DivisionScope) (Counts, error)
	CategoryCounts(ctx context.Context, scope internal.DivisionScope) ([]CategoryRow, error)
	ActiveDivisions(ctx context.Context) ([]Division, error)
	// ActiveUsers counts active users; with a division, only its members.
	ActiveUsers(ctx context.Context, divisionID *int64) (int64, error)
	UploadsSince(ctx context.Context, divisionID *int64, since time.Time) (int64, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for the recent-upload window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) ContactStats(ctx context.Context, user *internal.User, divisionID *int64) (*ContactStats, error) {
	scope, err := user.Scope().Narrow(divisionID)
	if err != nil {
		return nil, err
	}
	if scope.Empty() {
		stats := buildStats(Counts{}, nil)
		return &stats, nil
	}
	stats, err := s.stats(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Service) stats(ctx context.Context, scope internal.DivisionScope) (ContactStats, error) {
	counts, err := s.repo.ContactCounts(ctx, scope)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count contacts", "error", err)
		return ContactStats{}, internal.NewInternalError("failed to compute contact statistics", err)
	}
	categories, err := s.repo.CategoryCounts(ctx, scope)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count categories", "error", err)
		return ContactStats{}, internal.NewInternalError("failed to compute contact statistics", err)
	}
	return buildStats(counts, categories), nil
}

func (s *Service) CompanyStats(ctx context.Context) (*CompanyStats, error) {
	now := s.now()
	since := now.Add(-RecentUploadWindow)

	totals, err := s.stats(ctx, internal.DivisionScope{All: true})
	if err != nil {
		return nil, err
	}
	out := &CompanyStats{
		Contacts:    totals,
		Divisions:   []DivisionStats{},
		WindowDays:  int(RecentUploadWindow / (24 * time.Hour)),
		GeneratedAt: now,
	}

	if out.ActiveUsers, err = s.repo.ActiveUsers(ctx, nil); err != nil {
		return nil, internal.NewInternalError("failed to count users", err)
	}
	if out.RecentUploads, err = s.repo.UploadsSince(ctx, nil, since); err != nil {
		return nil, internal.NewInternalError("failed to count uploads", err)
	}

	divisions, err := s.repo.ActiveDivisions(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list divisions", err)
	}
	out.ActiveDivisions = int64(len(divisions))

	for _, d := range divisions {
		id := d.ID
		ds := DivisionStats{DivisionID: d.ID, Name: d.Name}
		if ds.Contacts, err = s.stats(ctx, internal.DivisionScope{DivisionIDs: []int64{id}}); err != nil {
			return nil, err
		}
		if ds.ActiveUsers, err = s.repo.ActiveUsers(ctx, &id); err != nil {
			return nil, internal.NewInternalError("failed to count users", err)
		}
		if ds.RecentUploads, err = s.repo.UploadsSince(ctx, &id, since); err != nil {
			return nil, internal.NewInternalError("failed to count uploads", err)
		}
		out.Divisions = append(out.Divisions, ds)
	}

	s.logger.DebugContext(ctx, "computed company stats", "divisions", len(divisions))
	return out, nil
}
