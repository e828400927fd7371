package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/access"
)

const (
	DefaultAnalyticsWindow = 30 * 24 * time.Hour
	MaxAnalyticsWindow     = 365 * 24 * time.Hour

	analyticsCachePrefix = "timesheet:analytics:"
)

func (s *reviewService) Analytics(ctx context.Context, actorID uuid.UUID, req AnalyticsRequest) (*Analytics, error) {
	window := req.Window
	switch {
	case window <= 0:
		window = DefaultAnalyticsWindow
	case window > MaxAnalyticsWindow:
		window = MaxAnalyticsWindow
	}

	projects, scope, err := s.analyticsScope(ctx, actorID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s:%s:%d", analyticsCachePrefix, scope, req.ProjectID, int64(window/time.Second))
	if cached, ok := s.cachedAnalytics(ctx, key); ok {
		return cached, nil
	}

	end := s.clock()
	start := end.Add(-window)
	out, err := s.aggregate(ctx, projects, start, end)
	if err != nil {
		return nil, err
	}
	s.cacheAnalytics(ctx, key, out)
	return out, nil
}

// analyticsScope resolves which projects the actor may aggregate over. A nil
// slice means every project. The returned scope string keys the cache.
func (s *reviewService) analyticsScope(ctx context.Context, actorID, projectID uuid.UUID) ([]uuid.UUID, string, error) {
	u, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, "", err
	}

	switch u.Role {
	case schema.RoleAdmin:
		if projectID == uuid.Nil {
			return nil, "all", nil
		}
		return []uuid.UUID{projectID}, "project", nil
	case schema.RoleManager:
		if projectID != uuid.Nil {
			p, err := s.db.Directory.GetProject(ctx, projectID)
			if err != nil {
				if repo.IsNotFound(err) {
					return nil, "", ErrNotFound
				}
				return nil, "", fmt.Errorf("load project: %w", err)
			}
			if !access.CanManageProject(u, p) {
				return nil, "", ErrForbidden
			}
			return []uuid.UUID{projectID}, "project", nil
		}
		ids, err := access.ManagedProjects(ctx, s.db.Directory, u)
		if err != nil {
			return nil, "", err
		}
		return ids, "manager:" + u.ID.String(), nil
	}
	return nil, "", ErrForbidden
}

func (s *reviewService) aggregate(ctx context.Context, projects []uuid.UUID, start, end time.Time) (*Analytics, error) {
	out := &Analytics{WindowStart: start, WindowEnd: end}
	if projects != nil && len(projects) == 0 {
		return out, nil
	}

	reviews, err := s.db.Reviews.ListSince(ctx, start, projects)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	pending, err := s.db.Tasks.ListAssignments(ctx, repo.AssignmentFilter{
		Status:     schema.AssignmentPendingReview,
		ProjectIDs: projects,
	})
	if err != nil {
		return nil, fmt.Errorf("list pending assignments: %w", err)
	}

	var reworkSum int
	for _, rv := range reviews {
		if rv.CreatedAt.After(end) {
			continue
		}
		out.Decisions++
		if !rv.SubmittedAt.Before(start) {
			out.Submissions++
		}
		switch rv.Decision {
		case schema.DecisionApproved:
			out.Approvals++
			reworkSum += rv.ReworkAttempts
		case schema.DecisionDefectFound:
			out.Defects++
		}
	}
	for _, v := range pending {
		out.PendingReviews++
		if p := v.Assignment.Proof; p != nil && !p.SubmittedAt.Before(start) {
			out.Submissions++
		}
	}

	if out.Decisions > 0 {
		out.ApprovalRate = float64(out.Approvals) / float64(out.Decisions)
		out.DefectRate = float64(out.Defects) / float64(out.Decisions)
	}
	if out.Approvals > 0 {
		out.MeanReworkAttempts = float64(reworkSum) / float64(out.Approvals)
	}
	return out, nil
}

func (s *reviewService) cacheEnabled() bool {
	return s.rdb != nil && s.cfg.AnalyticsCacheTTL > 0
}

func (s *reviewService) cachedAnalytics(ctx context.Context, key string) (*Analytics, bool) {
	if !s.cacheEnabled() {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "analytics cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var out Analytics
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.WarnContext(ctx, "analytics cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	return &out, true
}

func (s *reviewService) cacheAnalytics(ctx context.Context, key string, a *Analytics) {
	if !s.cacheEnabled() {
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.cfg.AnalyticsCacheTTL).Err(); err != nil {
		slog.WarnContext(ctx, "analytics cache write failed", "key", key, "error", err)
	}
}
