package notification

import (
	"context"
	"log/slog"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/email"
)

// Mailer delivers an email message. *email.Client satisfies it.
type Mailer interface {
	Send(ctx context.Context, m email.Message) error
}

// Dispatcher turns events into inbox entries and, when a mailer is
// configured, emails.
type Dispatcher struct {
	svc     Service
	dir     repo.DirectoryRepository
	notifs  repo.NotificationRepository
	mailer  Mailer
	appName string
	baseURL string
}

type DispatcherConfig struct {
	AppName string
	BaseURL string
}

// NewDispatcher builds a dispatcher. mailer may be nil to disable email.
func NewDispatcher(svc Service, db *repo.Client, mailer Mailer, cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		svc:     svc,
		dir:     db.Directory,
		notifs:  db.Notifications,
		mailer:  mailer,
		appName: cfg.AppName,
		baseURL: cfg.BaseURL,
	}
}

// Handle persists the event and, unless the recipient opted out of the
// event's channel, attempts email delivery. Email failures are logged; only
// inbox persistence errors are returned.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	n, err := d.svc.Create(ctx, CreateRequest{
		UserID: ev.UserID,
		Type:   ev.Type,
		Title:  ev.Title,
		Body:   ev.Body,
		Data:   ev.Data,
	})
	if err != nil {
		return err
	}

	if d.mailer == nil {
		return nil
	}

	pref, err := d.svc.GetPrefs(ctx, ev.UserID)
	if err != nil {
		slog.WarnContext(ctx, "notification email skipped: prefs lookup failed", "user_id", ev.UserID, "error", err)
		return nil
	}
	if !pref.AllowsEmail(ev.Type) {
		slog.DebugContext(ctx, "notification email opted out", "user_id", ev.UserID, "type", ev.Type)
		return nil
	}

	user, err := d.dir.GetUser(ctx, ev.UserID)
	if err != nil {
		slog.WarnContext(ctx, "notification email skipped: recipient lookup failed", "user_id", ev.UserID, "error", err)
		return nil
	}
	if user.Email == "" {
		return nil
	}

	msg := email.BuildReviewEventEmail(email.ReviewEventData{
		RecipientName: user.Name,
		Email:         user.Email,
		Title:         ev.Title,
		Body:          ev.Body,
		AppName:       d.appName,
		BaseURL:       d.baseURL,
	})
	if err := d.mailer.Send(ctx, msg); err != nil {
		slog.WarnContext(ctx, "notification email failed", "user_id", ev.UserID, "type", ev.Type, "error", err)
		return nil
	}
	if err := d.notifs.MarkEmailed(ctx, n.ID); err != nil {
		slog.WarnContext(ctx, "notification emailed flag not saved", "notification_id", n.ID, "error", err)
	}
	return nil
}
