package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	UserID uuid.UUID
	Type   schema.NotificationType
	Title  string
	Body   string
	Data   map[string]any
}

type UpsertPrefsRequest struct {
	EmailReviewRequests  bool `json:"email_review_requests"`
	EmailReviewDecisions bool `json:"email_review_decisions"`
	EmailTaskAssignments bool `json:"email_task_assignments"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*schema.Notification, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, perPage int) ([]*schema.Notification, error)
	MarkRead(ctx context.Context, notifID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	GetPrefs(ctx context.Context, userID uuid.UUID) (*schema.NotificationPref, error)
	UpsertPrefs(ctx context.Context, userID uuid.UUID, req UpsertPrefsRequest) (*schema.NotificationPref, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type notificationService struct {
	db  *repo.Client
	now func() time.Time
}

func New(db *repo.Client) Service {
	return &notificationService{db: db, now: time.Now}
}

func (s *notificationService) Create(ctx context.Context, req CreateRequest) (*schema.Notification, error) {
	if req.UserID == uuid.Nil || req.Type == "" {
		return nil, ErrInvalidEvent
	}

	n := &schema.Notification{
		ID:        schema.NewID(),
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Body:      req.Body,
		Data:      req.Data,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.Notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, perPage int) ([]*schema.Notification, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	notifs, err := s.db.Notifications.List(ctx, userID, unreadOnly, offset, perPage)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifs, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notifID, userID uuid.UUID) error {
	if err := s.db.Notifications.MarkRead(ctx, notifID, userID); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Notifications.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (s *notificationService) GetPrefs(ctx context.Context, userID uuid.UUID) (*schema.NotificationPref, error) {
	pref, err := s.db.Notifications.GetPrefs(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			// defaults are not persisted
			return schema.DefaultNotificationPref(userID), nil
		}
		return nil, fmt.Errorf("get notification prefs: %w", err)
	}
	return pref, nil
}

func (s *notificationService) UpsertPrefs(ctx context.Context, userID uuid.UUID, req UpsertPrefsRequest) (*schema.NotificationPref, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUser
	}
	pref := &schema.NotificationPref{
		UserID:               userID,
		EmailReviewRequests:  req.EmailReviewRequests,
		EmailReviewDecisions: req.EmailReviewDecisions,
		EmailTaskAssignments: req.EmailTaskAssignments,
		UpdatedAt:            s.now().UTC(),
	}
	if err := s.db.Notifications.UpsertPrefs(ctx, pref); err != nil {
		return nil, fmt.Errorf("save notification prefs: %w", err)
	}
	return pref, nil
}
