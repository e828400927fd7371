package review

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo/memstore"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/notification"
)

const validNotes = "Implemented the endpoint and added tests for it."

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type recordingSink struct {
	mu     sync.Mutex
	events []notification.Event
	err    error
}

func (r *recordingSink) Enqueue(ctx context.Context, ev notification.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) types(userID uuid.UUID) []schema.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []schema.NotificationType
	for _, ev := range r.events {
		if ev.UserID == userID {
			out = append(out, ev.Type)
		}
	}
	return out
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeFiles struct{}

func (fakeFiles) PresignDownload(ctx context.Context, key string) (string, error) {
	return "https://bucket.example/" + key + "?sig=get", nil
}

func (fakeFiles) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	return "https://bucket.example/" + key + "?sig=put", nil
}

func (fakeFiles) TTL() time.Duration { return 15 * time.Minute }

type fixture struct {
	svc   *reviewService
	store *memstore.Store
	db    *repo.Client
	sink  *recordingSink
	clock *testClock

	admin, manager, otherManager, employee, peer *schema.User
	project                                      *schema.Project
	t1, t2                                       *schema.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		store: memstore.New(),
		sink:  &recordingSink{},
		clock: &testClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
	}
	f.db = f.store.Client()

	f.admin = f.user(t, "Ada Admin", schema.RoleAdmin)
	f.manager = f.user(t, "Mia Manager", schema.RoleManager)
	f.otherManager = f.user(t, "Omar Other", schema.RoleManager)
	f.employee = f.user(t, "Eve Employee", schema.RoleEmployee)
	f.peer = f.user(t, "Pat Peer", schema.RoleEmployee)

	f.project = &schema.Project{ID: schema.NewID(), Name: "Payroll", ManagerID: f.manager.ID}
	if err := f.db.Directory.UpsertProject(ctx, f.project); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	f.t1 = f.task(t, "T1", 0)
	f.t2 = f.task(t, "T2", time.Minute)
	f.assign(t, f.t1, f.employee.ID, schema.AssignmentInProgress)

	f.svc = New(f.db, f.sink, nil, fakeFiles{}, DefaultConfig()).(*reviewService)
	f.svc.now = f.clock.now
	return f
}

func (f *fixture) user(t *testing.T, name string, role schema.Role) *schema.User {
	t.Helper()
	u := &schema.User{
		ID:    schema.NewID(),
		Name:  name,
		Email: strings.ToLower(strings.Fields(name)[0]) + "@example.com",
		Role:  role,
	}
	if err := f.db.Directory.UpsertUser(context.Background(), u); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	return u
}

func (f *fixture) task(t *testing.T, title string, offset time.Duration) *schema.Task {
	t.Helper()
	task := &schema.Task{
		ID:        schema.NewID(),
		ProjectID: f.project.ID,
		Title:     title,
		CreatedBy: f.manager.ID,
	}
	task.CreatedAt = f.clock.now().Add(-time.Hour).Add(offset)
	if err := f.db.Tasks.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func (f *fixture) assign(t *testing.T, task *schema.Task, employeeID uuid.UUID, status schema.AssignmentStatus) {
	t.Helper()
	_, err := f.db.Tasks.AddAssignment(context.Background(), task.ID, schema.Assignment{
		EmployeeID:        employeeID,
		Status:            status,
		MaxReworkAttempts: 3,
		AssignedAt:        f.clock.now(),
	})
	if err != nil {
		t.Fatalf("AddAssignment: %v", err)
	}
}

func (f *fixture) assignment(t *testing.T, taskID, employeeID uuid.UUID) *schema.Assignment {
	t.Helper()
	task, err := f.db.Tasks.GetTask(context.Background(), taskID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	return task.AssignmentFor(employeeID)
}

func validProof() ProofInput {
	return ProofInput{
		GithubLink:      "https://github.com/acme/payroll/pull/12",
		DemoVideoLink:   "https://youtu.be/dQw4w9WgXcQ",
		CompletionNotes: validNotes,
	}
}

func approve() ReviewRequest {
	return ReviewRequest{Decision: "approved", Comments: "Looks good"}
}

func defect() ReviewRequest {
	return ReviewRequest{Decision: "defect_found", Comments: "Fix null check", DefectDescription: "NPE on line 40"}
}

func (f *fixture) submit(t *testing.T) *SubmitResult {
	t.Helper()
	res, err := f.svc.SubmitProof(context.Background(), f.t1.ID, f.employee.ID, validProof())
	if err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}
	return res
}

// ---------------------------------------------------------------------------
// Submission
// ---------------------------------------------------------------------------

func TestSubmitProofValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ProofInput)
		wantField string
		wantRule  string
		wantCount int
	}{
		{
			name:      "short notes",
			mutate:    func(in *ProofInput) { in.CompletionNotes = "done" },
			wantField: "completion_notes",
			wantRule:  "min_length",
			wantCount: 1,
		},
		{
			name:      "notes padded with spaces",
			mutate:    func(in *ProofInput) { in.CompletionNotes = "   short notes     " },
			wantField: "completion_notes",
			wantRule:  "min_length",
			wantCount: 1,
		},
		{
			name:      "code link on wrong host",
			mutate:    func(in *ProofInput) { in.GithubLink = "https://gitlab.com/acme/payroll" },
			wantField: "github_link",
			wantRule:  "allowed_host",
			wantCount: 1,
		},
		{
			name:      "video link not a url",
			mutate:    func(in *ProofInput) { in.DemoVideoLink = "youtube video" },
			wantField: "demo_video_link",
			wantRule:  "allowed_host",
			wantCount: 1,
		},
		{
			name: "every field missing",
			mutate: func(in *ProofInput) {
				*in = ProofInput{}
			},
			wantField: "github_link",
			wantRule:  "required",
			wantCount: 3,
		},
		{
			name:      "blank attachment",
			mutate:    func(in *ProofInput) { in.Attachments = []string{"proofs/a.png", " "} },
			wantField: "attachments[1]",
			wantRule:  "required",
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := validProof()
			tt.mutate(&in)

			_, err := f.svc.SubmitProof(context.Background(), f.t1.ID, f.employee.ID, in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			var ve ValidationErrors
			if !errors.As(err, &ve) {
				t.Fatalf("err %T is not ValidationErrors", err)
			}
			if len(ve) != tt.wantCount {
				t.Fatalf("got %d field errors (%v), want %d", len(ve), ve, tt.wantCount)
			}
			if ve[0].Field != tt.wantField || ve[0].Rule != tt.wantRule {
				t.Errorf("first error = %s/%s, want %s/%s", ve[0].Field, ve[0].Rule, tt.wantField, tt.wantRule)
			}

			a := f.assignment(t, f.t1.ID, f.employee.ID)
			if a.Status != schema.AssignmentInProgress || a.Proof != nil {
				t.Errorf("assignment changed on invalid input: %+v", a)
			}
		})
	}
}

func TestSubmitProofLenientNotes(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.LenientNotes = true
	f.svc = New(f.db, f.sink, nil, nil, cfg).(*reviewService)
	f.svc.now = f.clock.now

	in := validProof()
	in.CompletionNotes = "fixed"
	if _, err := f.svc.SubmitProof(context.Background(), f.t1.ID, f.employee.ID, in); err != nil {
		t.Fatalf("SubmitProof with lenient notes: %v", err)
	}
}

func TestSubmitProofTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.submit(t)
	if res.Status != schema.AssignmentPendingReview {
		t.Fatalf("Status = %s, want pending_review", res.Status)
	}
	if res.ProofID == uuid.Nil {
		t.Fatal("ProofID not allocated")
	}
	if !res.SubmittedAt.Equal(f.clock.now()) {
		t.Errorf("SubmittedAt = %v, want %v", res.SubmittedAt, f.clock.now())
	}

	a := f.assignment(t, f.t1.ID, f.employee.ID)
	if a.Proof == nil || a.Proof.Decision != schema.ReviewDecisionPending || a.Proof.Status != schema.SubmissionPendingReview {
		t.Fatalf("proof snapshot = %+v", a.Proof)
	}
	if got := f.sink.types(f.manager.ID); !reflect.DeepEqual(got, []schema.NotificationType{schema.NotificationProofSubmitted}) {
		t.Errorf("manager notifications = %v", got)
	}

	// A second submit is a state error, not a silent overwrite.
	_, err := f.svc.SubmitProof(ctx, f.t1.ID, f.employee.ID, validProof())
	var se *StateError
	if !errors.As(err, &se) || se.Current != schema.AssignmentPendingReview {
		t.Fatalf("second submit err = %v, want StateError(pending_review)", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Errorf("StateError does not unwrap to ErrConflict")
	}
}

func TestSubmitProofAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.SubmitProof(ctx, f.t1.ID, f.peer.ID, validProof()); !errors.Is(err, ErrForbidden) {
		t.Errorf("unassigned employee err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.SubmitProof(ctx, uuid.New(), f.employee.ID, validProof()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing task err = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Review decisions
// ---------------------------------------------------------------------------

func TestApproveAssignsNextTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proof := f.submit(t)
	f.clock.advance(time.Hour)

	res, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, approve())
	if err != nil {
		t.Fatalf("ReviewProof: %v", err)
	}
	if res.Status != schema.AssignmentApproved {
		t.Fatalf("Status = %s, want approved", res.Status)
	}

	a := f.assignment(t, f.t1.ID, f.employee.ID)
	if a.FinalApprovedAt == nil || !a.FinalApprovedAt.Equal(f.clock.now()) {
		t.Errorf("FinalApprovedAt = %v", a.FinalApprovedAt)
	}
	if a.Progress != 100 {
		t.Errorf("Progress = %d, want 100", a.Progress)
	}
	if a.Proof == nil || a.Proof.ReviewedBy == nil || *a.Proof.ReviewedBy != f.manager.ID {
		t.Errorf("proof not stamped with reviewer: %+v", a.Proof)
	}

	if res.NextTask == nil || !res.NextTask.Assigned || res.NextTask.TaskID != f.t2.ID {
		t.Fatalf("NextTask = %+v, want T2 assigned", res.NextTask)
	}
	next := f.assignment(t, f.t2.ID, f.employee.ID)
	if next == nil || next.Status != schema.AssignmentInProgress || next.Progress != 0 {
		t.Fatalf("T2 assignment = %+v, want in_progress with progress 0", next)
	}
	wantDeadline := f.clock.now().Add(7 * 24 * time.Hour)
	if next.Deadline == nil || !next.Deadline.Equal(wantDeadline) {
		t.Errorf("Deadline = %v, want %v", next.Deadline, wantDeadline)
	}

	want := []schema.NotificationType{schema.NotificationProofApproved, schema.NotificationTaskAssigned}
	if got := f.sink.types(f.employee.ID); !reflect.DeepEqual(got, want) {
		t.Errorf("employee notifications = %v, want %v", got, want)
	}
}

func TestApproveAllComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// T2 is already done, so nothing remains after T1.
	f.assign(t, f.t2, f.employee.ID, schema.AssignmentAssigned)
	a2 := f.assignment(t, f.t2.ID, f.employee.ID)
	done := a2.Clone()
	done.Status = schema.AssignmentApproved
	if _, err := f.db.Tasks.UpdateAssignment(ctx, f.t2.ID, f.employee.ID, a2.Version, done); err != nil {
		t.Fatalf("UpdateAssignment: %v", err)
	}

	proof := f.submit(t)
	res, err := f.svc.ReviewProof(ctx, proof.ProofID, f.admin.ID, approve())
	if err != nil {
		t.Fatalf("ReviewProof: %v", err)
	}
	if res.NextTask == nil || !res.NextTask.AllComplete || res.NextTask.Assigned {
		t.Fatalf("NextTask = %+v, want AllComplete", res.NextTask)
	}

	views, _ := f.db.Tasks.ListAssignments(ctx, repo.AssignmentFilter{EmployeeID: f.employee.ID})
	if len(views) != 2 {
		t.Errorf("got %d assignments, want 2 (no new assignment)", len(views))
	}
	if got := f.sink.types(f.employee.ID); len(got) != 2 || got[1] != schema.NotificationAllTasksCompleted {
		t.Errorf("employee notifications = %v", got)
	}
}

func TestNextTaskActivatesAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assign(t, f.t2, f.employee.ID, schema.AssignmentAssigned)

	proof := f.submit(t)
	res, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, approve())
	if err != nil {
		t.Fatalf("ReviewProof: %v", err)
	}
	if res.NextTask == nil || res.NextTask.TaskID != f.t2.ID {
		t.Fatalf("NextTask = %+v", res.NextTask)
	}
	a := f.assignment(t, f.t2.ID, f.employee.ID)
	if a.Status != schema.AssignmentInProgress || a.Version != 2 {
		t.Errorf("T2 = %s v%d, want in_progress v2", a.Status, a.Version)
	}
}

func TestNextTaskRefreshesStaleDeadline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stale := f.clock.now().Add(-10 * 24 * time.Hour)
	_, err := f.db.Tasks.AddAssignment(ctx, f.t2.ID, schema.Assignment{
		EmployeeID:        f.employee.ID,
		Status:            schema.AssignmentAssigned,
		Deadline:          &stale,
		MaxReworkAttempts: 3,
		AssignedAt:        stale,
	})
	if err != nil {
		t.Fatalf("AddAssignment: %v", err)
	}

	proof := f.submit(t)
	f.clock.advance(time.Hour)
	res, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, approve())
	if err != nil {
		t.Fatalf("ReviewProof: %v", err)
	}
	want := f.clock.now().Add(DefaultConfig().NextTaskDeadline)
	a := f.assignment(t, f.t2.ID, f.employee.ID)
	if a.Status != schema.AssignmentInProgress {
		t.Fatalf("T2 status = %s, want in_progress", a.Status)
	}
	if a.Deadline == nil || !a.Deadline.Equal(want) {
		t.Errorf("T2 deadline = %v, want %v", a.Deadline, want)
	}
	if res.NextTask == nil || res.NextTask.Deadline == nil || !res.NextTask.Deadline.Equal(want) {
		t.Errorf("NextTask = %+v, want deadline %v", res.NextTask, want)
	}
}

func TestNextTaskSkipsOpenAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assign(t, f.t2, f.employee.ID, schema.AssignmentReworkRequired)
	t3 := f.task(t, "T3", 2*time.Minute)

	proof := f.submit(t)
	res, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, approve())
	if err != nil {
		t.Fatalf("ReviewProof: %v", err)
	}
	if res.NextTask == nil || res.NextTask.TaskID != t3.ID {
		t.Fatalf("NextTask = %+v, want T3", res.NextTask)
	}
	if a := f.assignment(t, f.t2.ID, f.employee.ID); a.Status != schema.AssignmentReworkRequired {
		t.Errorf("open T2 assignment touched: %s", a.Status)
	}
}

func TestDefectRequiresRework(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proof := f.submit(t)

	res, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, defect())
	if err != nil {
		t.Fatalf("ReviewProof: %v", err)
	}
	if res.Status != schema.AssignmentReworkRequired || res.ReworkAttempts != 1 || res.DefectCount != 1 {
		t.Fatalf("result = %+v", res)
	}

	a := f.assignment(t, f.t1.ID, f.employee.ID)
	if a.Proof != nil {
		t.Errorf("proof not cleared: %+v", a.Proof)
	}
	if a.ReviewCycle == nil || !a.ReviewCycle.ReworkRequired || a.ReviewCycle.DefectDescription != "NPE on line 40" {
		t.Errorf("ReviewCycle = %+v", a.ReviewCycle)
	}

	history, _ := f.db.Reviews.ListByProof(ctx, proof.ProofID)
	if len(history) != 1 {
		t.Fatalf("got %d reviews, want 1", len(history))
	}
	rv := history[0]
	if rv.DefectSeverity != schema.SeverityMedium || rv.ReviewRound != 1 || rv.TaskStatusAfterReview != schema.AssignmentReworkRequired {
		t.Errorf("review record = %+v", rv)
	}
	if got := f.sink.types(f.employee.ID); !reflect.DeepEqual(got, []schema.NotificationType{schema.NotificationReworkRequired}) {
		t.Errorf("employee notifications = %v", got)
	}
}

func TestReviewValidation(t *testing.T) {
	tests := []struct {
		name      string
		req       ReviewRequest
		wantField string
	}{
		{"unknown decision", ReviewRequest{Decision: "maybe", Comments: "Looks good"}, "decision"},
		{"short comments", ReviewRequest{Decision: "approved", Comments: "ok"}, "comments"},
		{"defect without description", ReviewRequest{Decision: "defect_found", Comments: "Fix null check"}, "defect_description"},
		{"bad severity", ReviewRequest{Decision: "defect_found", Comments: "Fix it now", DefectDescription: "NPE", DefectSeverity: "urgent"}, "defect_severity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			proof := f.submit(t)

			_, err := f.svc.ReviewProof(context.Background(), proof.ProofID, f.manager.ID, tt.req)
			var ve ValidationErrors
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationErrors", err)
			}
			if ve[0].Field != tt.wantField {
				t.Errorf("Field = %s, want %s", ve[0].Field, tt.wantField)
			}
			if a := f.assignment(t, f.t1.ID, f.employee.ID); a.Status != schema.AssignmentPendingReview {
				t.Errorf("status changed to %s", a.Status)
			}
		})
	}
}

func TestReviewAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proof := f.submit(t)

	tests := []struct {
		name     string
		reviewer uuid.UUID
	}{
		{"manager of another project", f.otherManager.ID},
		{"employee", f.peer.ID},
		{"owner", f.employee.ID},
		{"unknown user", uuid.New()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ReviewProof(ctx, proof.ProofID, tt.reviewer, approve())
			if !errors.Is(err, ErrForbidden) {
				t.Errorf("err = %v, want ErrForbidden", err)
			}
		})
	}

	if _, err := f.svc.ReviewProof(ctx, uuid.New(), f.manager.ID, approve()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown proof err = %v, want ErrNotFound", err)
	}
}

func TestReviewNotAwaitingReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proof := f.submit(t)
	if _, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, approve()); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, defect())
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StateError", err)
	}
	if se.Current != schema.AssignmentApproved {
		t.Errorf("Current = %s, want approved", se.Current)
	}
	if !strings.Contains(err.Error(), "not awaiting review") {
		t.Errorf("message = %q", err.Error())
	}
}

// ---------------------------------------------------------------------------
// Rework loop
// ---------------------------------------------------------------------------

func TestResubmitAfterDefect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proof := f.submit(t)
	if _, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, defect()); err != nil {
		t.Fatalf("defect: %v", err)
	}
	f.clock.advance(time.Hour)

	if _, err := f.svc.ResubmitProof(ctx, proof.ProofID, f.peer.ID, validProof()); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-owner resubmit err = %v, want ErrForbidden", err)
	}

	res, err := f.svc.ResubmitProof(ctx, proof.ProofID, f.employee.ID, validProof())
	if err != nil {
		t.Fatalf("ResubmitProof: %v", err)
	}
	if res.ProofID != proof.ProofID {
		t.Errorf("ProofID changed: %s -> %s", proof.ProofID, res.ProofID)
	}

	a := f.assignment(t, f.t1.ID, f.employee.ID)
	if a.Status != schema.AssignmentPendingReview || a.Proof == nil {
		t.Fatalf("assignment = %s proof=%v", a.Status, a.Proof)
	}
	if a.Proof.Decision != schema.ReviewDecisionPending || a.Proof.ReviewedBy != nil || a.Proof.ReviewedAt != nil {
		t.Errorf("review fields not reset: %+v", a.Proof)
	}
	if a.ReworkAttempts != 1 || a.DefectCount != 1 {
		t.Errorf("counters = %d/%d, want 1/1", a.ReworkAttempts, a.DefectCount)
	}

	// The manager who flagged the defect hears about the resubmission.
	want := []schema.NotificationType{schema.NotificationProofSubmitted, schema.NotificationProofResubmitted}
	if got := f.sink.types(f.manager.ID); !reflect.DeepEqual(got, want) {
		t.Errorf("manager notifications = %v, want %v", got, want)
	}
}

func TestResubmitWhilePendingConflicts(t *testing.T) {
	f := newFixture(t)
	proof := f.submit(t)

	_, err := f.svc.ResubmitProof(context.Background(), proof.ProofID, f.employee.ID, validProof())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestResubmitUnknownProof(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ResubmitProof(context.Background(), uuid.New(), f.employee.ID, validProof())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReworkCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proof := f.submit(t)

	lastDefects := 0
	for i := 1; i <= 3; i++ {
		res, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, defect())
		if err != nil {
			t.Fatalf("defect %d: %v", i, err)
		}
		if res.ReworkAttempts != i || res.DefectCount <= lastDefects {
			t.Fatalf("defect %d: counters %d/%d not monotonic", i, res.ReworkAttempts, res.DefectCount)
		}
		lastDefects = res.DefectCount
		f.clock.advance(time.Minute)
		if _, err := f.svc.ResubmitProof(ctx, proof.ProofID, f.employee.ID, validProof()); err != nil {
			t.Fatalf("resubmit %d: %v", i, err)
		}
	}

	_, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, defect())
	var ex *ReworkExhaustedError
	if !errors.As(err, &ex) || !errors.Is(err, ErrReworkExhausted) {
		t.Fatalf("fourth defect err = %v, want ReworkExhaustedError", err)
	}
	if ex.Attempts != 3 || ex.Max != 3 {
		t.Errorf("counters in error = %d/%d", ex.Attempts, ex.Max)
	}

	a := f.assignment(t, f.t1.ID, f.employee.ID)
	if a.ReworkAttempts != 3 || a.DefectCount != 3 {
		t.Errorf("counters moved past ceiling: %d/%d", a.ReworkAttempts, a.DefectCount)
	}
	if !a.ReassignmentRequired {
		t.Error("ReassignmentRequired not set")
	}
	if a.Status != schema.AssignmentPendingReview {
		t.Errorf("Status = %s, want pending_review", a.Status)
	}
	history, _ := f.db.Reviews.ListByProof(ctx, proof.ProofID)
	if len(history) != 3 {
		t.Errorf("got %d reviews, want 3", len(history))
	}

	// Repeating the rejection does not notify the manager twice.
	if _, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, defect()); !errors.Is(err, ErrReworkExhausted) {
		t.Fatalf("repeat err = %v", err)
	}
	exhausted := 0
	for _, typ := range f.sink.types(f.manager.ID) {
		if typ == schema.NotificationReworkExhausted {
			exhausted++
		}
	}
	if exhausted != 1 {
		t.Errorf("rework_exhausted notifications = %d, want 1", exhausted)
	}

	// Approval is still possible.
	res, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, approve())
	if err != nil {
		t.Fatalf("approve after ceiling: %v", err)
	}
	if res.Status != schema.AssignmentApproved || res.ReworkAttempts != 3 {
		t.Errorf("result = %+v", res)
	}
}

func TestApprovedIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proof := f.submit(t)
	if _, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, approve()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	before := f.assignment(t, f.t1.ID, f.employee.ID)

	if _, err := f.svc.SubmitProof(ctx, f.t1.ID, f.employee.ID, validProof()); !errors.Is(err, ErrConflict) {
		t.Errorf("submit after approval err = %v", err)
	}
	if _, err := f.svc.ResubmitProof(ctx, proof.ProofID, f.employee.ID, validProof()); !errors.Is(err, ErrConflict) {
		t.Errorf("resubmit after approval err = %v", err)
	}
	if _, err := f.svc.ReviewProof(ctx, proof.ProofID, f.admin.ID, approve()); !errors.Is(err, ErrConflict) {
		t.Errorf("second approval err = %v", err)
	}

	after := f.assignment(t, f.t1.ID, f.employee.ID)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("approved assignment mutated:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestConcurrentReviewsOneWins(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		proof := f.submit(t)

		reqs := []ReviewRequest{approve(), defect()}
		errs := make([]error, len(reqs))
		var wg sync.WaitGroup
		for i, req := range reqs {
			wg.Add(1)
			go func(i int, req ReviewRequest) {
				defer wg.Done()
				_, errs[i] = f.svc.ReviewProof(context.Background(), proof.ProofID, f.manager.ID, req)
			}(i, req)
		}
		wg.Wait()

		var ok, conflicts int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Fatalf("round %d: unexpected err %v", round, err)
			}
		}
		if ok != 1 || conflicts != 1 {
			t.Fatalf("round %d: %d succeeded, %d conflicted", round, ok, conflicts)
		}
		history, _ := f.db.Reviews.ListByProof(context.Background(), proof.ProofID)
		if len(history) != 1 {
			t.Fatalf("round %d: %d review records, want 1", round, len(history))
		}
	}
}

func TestSinkFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("broker down")

	proof := f.submit(t)
	if _, err := f.svc.ReviewProof(context.Background(), proof.ProofID, f.manager.ID, approve()); err != nil {
		t.Fatalf("ReviewProof with failing sink: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Read models
// ---------------------------------------------------------------------------

func TestGetProofStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proof := f.submit(t)
	if _, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, defect()); err != nil {
		t.Fatalf("defect: %v", err)
	}

	first, err := f.svc.GetProofStatus(ctx, proof.ProofID, f.employee.ID)
	if err != nil {
		t.Fatalf("GetProofStatus: %v", err)
	}
	second, err := f.svc.GetProofStatus(ctx, proof.ProofID, f.employee.ID)
	if err != nil {
		t.Fatalf("GetProofStatus: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("status not idempotent:\n%+v\n%+v", first, second)
	}

	if first.Decision != schema.ReviewDecisionDefectFound {
		t.Errorf("Decision = %s", first.Decision)
	}
	if first.RemainingReworkAttempts != 2 || len(first.History) != 1 {
		t.Errorf("remaining=%d history=%d", first.RemainingReworkAttempts, len(first.History))
	}

	for _, actor := range []uuid.UUID{f.manager.ID, f.admin.ID} {
		if _, err := f.svc.GetProofStatus(ctx, proof.ProofID, actor); err != nil {
			t.Errorf("actor %s: %v", actor, err)
		}
	}
	for _, actor := range []uuid.UUID{f.peer.ID, f.otherManager.ID} {
		if _, err := f.svc.GetProofStatus(ctx, proof.ProofID, actor); !errors.Is(err, ErrForbidden) {
			t.Errorf("actor %s err = %v, want ErrForbidden", actor, err)
		}
	}
}

func TestListPendingReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.assign(t, f.t2, f.peer.ID, schema.AssignmentInProgress)
	first := f.submit(t)
	f.clock.advance(time.Minute)
	second, err := f.svc.SubmitProof(ctx, f.t2.ID, f.peer.ID, validProof())
	if err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}

	items, err := f.svc.ListPendingReviews(ctx, f.manager.ID)
	if err != nil {
		t.Fatalf("ListPendingReviews: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ProofID != second.ProofID || items[1].ProofID != first.ProofID {
		t.Errorf("not newest first: %s, %s", items[0].ProofID, items[1].ProofID)
	}
	if items[1].Employee.Name != f.employee.Name || items[1].TaskTitle != "T1" {
		t.Errorf("item not enriched: %+v", items[1])
	}

	if items, _ := f.svc.ListPendingReviews(ctx, f.otherManager.ID); len(items) != 0 {
		t.Errorf("other manager sees %d items", len(items))
	}
	if items, _ := f.svc.ListPendingReviews(ctx, f.admin.ID); len(items) != 2 {
		t.Errorf("admin sees %d items, want 2", len(items))
	}
	if _, err := f.svc.ListPendingReviews(ctx, f.employee.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("employee err = %v, want ErrForbidden", err)
	}
}

func TestAttachmentURLs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	up, err := f.svc.AttachmentUploadURL(ctx, f.employee.ID, "../demo.png", "image/png")
	if err != nil {
		t.Fatalf("AttachmentUploadURL: %v", err)
	}
	if !strings.HasPrefix(up.Key, "proofs/"+f.employee.ID.String()+"/") || !strings.HasSuffix(up.Key, ".png") {
		t.Errorf("Key = %s", up.Key)
	}

	in := validProof()
	in.Attachments = []string{up.Key, "https://example.com/brief.pdf"}
	proof, err := f.svc.SubmitProof(ctx, f.t1.ID, f.employee.ID, in)
	if err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}

	urls, err := f.svc.GetAttachmentURLs(ctx, proof.ProofID, f.manager.ID)
	if err != nil {
		t.Fatalf("GetAttachmentURLs: %v", err)
	}
	if len(urls) != 2 || !urls[0].Presigned || urls[1].Presigned || urls[1].URL != "https://example.com/brief.pdf" {
		t.Errorf("urls = %+v", urls)
	}

	f.svc.files = nil
	if _, err := f.svc.GetAttachmentURLs(ctx, proof.ProofID, f.manager.ID); !errors.Is(err, ErrStorageDisabled) {
		t.Errorf("err = %v, want ErrStorageDisabled", err)
	}
}

func TestAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	f.svc.rdb = rdb

	// defect, resubmit, approve on T1; T2 (auto-assigned) left pending.
	proof := f.submit(t)
	if _, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, defect()); err != nil {
		t.Fatalf("defect: %v", err)
	}
	if _, err := f.svc.ResubmitProof(ctx, proof.ProofID, f.employee.ID, validProof()); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if _, err := f.svc.ReviewProof(ctx, proof.ProofID, f.manager.ID, approve()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.svc.SubmitProof(ctx, f.t2.ID, f.employee.ID, validProof()); err != nil {
		t.Fatalf("submit T2: %v", err)
	}

	got, err := f.svc.Analytics(ctx, f.manager.ID, AnalyticsRequest{})
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if got.Decisions != 2 || got.Approvals != 1 || got.Defects != 1 || got.PendingReviews != 1 {
		t.Errorf("counts = %+v", got)
	}
	if got.Submissions != 3 {
		t.Errorf("Submissions = %d, want 3", got.Submissions)
	}
	if got.ApprovalRate != 0.5 || got.DefectRate != 0.5 || got.MeanReworkAttempts != 1 {
		t.Errorf("rates = %v/%v/%v", got.ApprovalRate, got.DefectRate, got.MeanReworkAttempts)
	}
	if got.WindowEnd.Sub(got.WindowStart) != DefaultAnalyticsWindow {
		t.Errorf("window = %v", got.WindowEnd.Sub(got.WindowStart))
	}

	if len(mr.Keys()) != 1 {
		t.Fatalf("cache keys = %v, want 1", mr.Keys())
	}
	// Served from cache: a new decision is not visible until the entry expires.
	if _, err := f.svc.ReviewProof(ctx, f.pendingProof(t, f.t2.ID), f.manager.ID, approve()); err != nil {
		t.Fatalf("approve T2: %v", err)
	}
	cached, err := f.svc.Analytics(ctx, f.manager.ID, AnalyticsRequest{})
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if cached.Decisions != 2 {
		t.Errorf("cached Decisions = %d, want 2", cached.Decisions)
	}

	mr.FastForward(2 * time.Minute)
	fresh, err := f.svc.Analytics(ctx, f.manager.ID, AnalyticsRequest{})
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if fresh.Decisions != 3 {
		t.Errorf("fresh Decisions = %d, want 3", fresh.Decisions)
	}
}

func TestAnalyticsScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Analytics(ctx, f.employee.ID, AnalyticsRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("employee err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Analytics(ctx, f.otherManager.ID, AnalyticsRequest{ProjectID: f.project.ID}); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign manager err = %v, want ErrForbidden", err)
	}
	got, err := f.svc.Analytics(ctx, f.admin.ID, AnalyticsRequest{Window: 10 * 365 * 24 * time.Hour})
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	if d := got.WindowEnd.Sub(got.WindowStart); d != MaxAnalyticsWindow {
		t.Errorf("window = %v, want capped at %v", d, MaxAnalyticsWindow)
	}
}

func (f *fixture) pendingProof(t *testing.T, taskID uuid.UUID) uuid.UUID {
	t.Helper()
	a := f.assignment(t, taskID, f.employee.ID)
	if a == nil || a.Status != schema.AssignmentPendingReview {
		t.Fatalf("no pending proof on task %s", taskID)
	}
	return a.ProofID
}
