package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo/memstore"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/email"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newDB(t *testing.T) (*repo.Client, *schema.User) {
	t.Helper()
	db := memstore.New().Client()
	u := &schema.User{ID: schema.NewID(), Name: "Eve", Email: "eve@example.com", Role: schema.RoleEmployee}
	if err := db.Directory.UpsertUser(context.Background(), u); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	return db, u
}

func TestServiceInbox(t *testing.T) {
	db, u := newDB(t)
	ctx := context.Background()
	svc := New(db).(*notificationService)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		n, err := svc.Create(ctx, CreateRequest{UserID: u.ID, Type: schema.NotificationProofApproved, Title: "t"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, n.ID)
	}

	if _, err := svc.Create(ctx, CreateRequest{Type: schema.NotificationProofApproved}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Create without user err = %v", err)
	}

	page, err := svc.List(ctx, u.ID, false, 1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[2] {
		t.Fatalf("first page = %d items, newest %v", len(page), page[0].ID)
	}

	if err := svc.MarkRead(ctx, ids[0], u.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := svc.MarkRead(ctx, ids[0], uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRead by other user err = %v, want ErrNotFound", err)
	}
	unread, _ := svc.List(ctx, u.ID, true, 1, 20)
	if len(unread) != 2 {
		t.Errorf("unread = %d, want 2", len(unread))
	}

	if err := svc.MarkAllRead(ctx, u.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if unread, _ := svc.List(ctx, u.ID, true, 1, 20); len(unread) != 0 {
		t.Errorf("unread after MarkAllRead = %d", len(unread))
	}
}

func TestServicePrefs(t *testing.T) {
	db, u := newDB(t)
	ctx := context.Background()
	svc := New(db)

	got, err := svc.GetPrefs(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetPrefs: %v", err)
	}
	if !got.EmailReviewRequests || !got.EmailReviewDecisions || !got.EmailTaskAssignments {
		t.Errorf("default prefs = %+v, want all channels on", got)
	}
	if _, err := db.Notifications.GetPrefs(ctx, u.ID); !repo.IsNotFound(err) {
		t.Errorf("defaults were persisted: err = %v", err)
	}

	saved, err := svc.UpsertPrefs(ctx, u.ID, UpsertPrefsRequest{EmailReviewRequests: true})
	if err != nil {
		t.Fatalf("UpsertPrefs: %v", err)
	}
	if saved.UserID != u.ID || saved.UpdatedAt.IsZero() {
		t.Errorf("saved = %+v", saved)
	}
	got, _ = svc.GetPrefs(ctx, u.ID)
	if !got.EmailReviewRequests || got.EmailReviewDecisions || got.EmailTaskAssignments {
		t.Errorf("prefs after upsert = %+v", got)
	}

	if _, err := svc.UpsertPrefs(ctx, uuid.Nil, UpsertPrefsRequest{}); !errors.Is(err, ErrMissingUser) {
		t.Errorf("UpsertPrefs without user err = %v", err)
	}
}

func TestDispatcherHandle(t *testing.T) {
	tests := []struct {
		name        string
		mailer      *fakeMailer
		prefs       *UpsertPrefsRequest
		wantEmailed bool
	}{
		{"no mailer", nil, nil, false},
		{"mail sent", &fakeMailer{}, nil, true},
		{"mail fails", &fakeMailer{err: errors.New("smtp down")}, nil, false},
		{"decisions opted out", &fakeMailer{}, &UpsertPrefsRequest{EmailReviewRequests: true, EmailTaskAssignments: true}, false},
		{"other channel opted out", &fakeMailer{}, &UpsertPrefsRequest{EmailReviewDecisions: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, u := newDB(t)
			ctx := context.Background()

			var mailer Mailer
			if tt.mailer != nil {
				mailer = tt.mailer
			}
			svc := New(db)
			if tt.prefs != nil {
				if _, err := svc.UpsertPrefs(ctx, u.ID, *tt.prefs); err != nil {
					t.Fatalf("UpsertPrefs: %v", err)
				}
			}
			d := NewDispatcher(svc, db, mailer, DispatcherConfig{AppName: "Timesheet", BaseURL: "https://ts.example"})

			err := d.Handle(ctx, Event{UserID: u.ID, Type: schema.NotificationReworkRequired, Title: "Rework required", Body: "fix it"})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}

			inbox, _ := db.Notifications.List(ctx, u.ID, false, 0, 10)
			if len(inbox) != 1 {
				t.Fatalf("inbox = %d entries, want 1", len(inbox))
			}
			if inbox[0].IsEmailed != tt.wantEmailed {
				t.Errorf("IsEmailed = %v, want %v", inbox[0].IsEmailed, tt.wantEmailed)
			}
			if tt.mailer != nil && tt.prefs != nil && !tt.wantEmailed && len(tt.mailer.sent) != 0 {
				t.Errorf("mailer called %d times for opted-out channel", len(tt.mailer.sent))
			}
			if tt.wantEmailed && (len(tt.mailer.sent[0].To) != 1 || tt.mailer.sent[0].To[0] != u.Email) {
				t.Errorf("mail To = %q", tt.mailer.sent[0].To)
			}
		})
	}
}

func TestInlineSinkDelivers(t *testing.T) {
	db, u := newDB(t)
	sink := NewInlineSink(NewDispatcher(New(db), db, nil, DispatcherConfig{}))

	ctx, cancel := context.WithCancel(context.Background())
	if err := sink.Enqueue(ctx, Event{UserID: u.ID, Type: schema.NotificationTaskAssigned, Title: "New task"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	// Cancelling the request context must not drop the event.
	cancel()
	sink.Wait()

	inbox, _ := db.Notifications.List(context.Background(), u.ID, false, 0, 10)
	if len(inbox) != 1 || inbox[0].Type != schema.NotificationTaskAssigned {
		t.Fatalf("inbox = %+v", inbox)
	}

	if err := sink.Enqueue(context.Background(), Event{Type: schema.NotificationTaskAssigned}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("invalid event err = %v", err)
	}
}

func TestDecodeEvent(t *testing.T) {
	ev := Event{UserID: uuid.New(), Type: schema.NotificationProofSubmitted, Title: "Proof submitted", Data: map[string]any{"task_id": "x"}}
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if got.UserID != ev.UserID || got.Type != ev.Type || got.Data["task_id"] != "x" {
		t.Errorf("decoded = %+v", got)
	}

	for _, bad := range []string{`{`, `{"type":"proof_submitted"}`} {
		if _, err := DecodeEvent([]byte(bad)); err == nil {
			t.Errorf("DecodeEvent(%s) succeeded", bad)
		}
	}
	if got := Subject(schema.NotificationProofApproved); got != SubjectWildcard()[:len(SubjectWildcard())-1]+"proof_approved" {
		t.Errorf("Subject = %s", got)
	}
}
