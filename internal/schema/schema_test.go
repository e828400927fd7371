package schema

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in      string
		want    Decision
		wantErr bool
	}{
		{"approved", DecisionApproved, false},
		{"defect_found", DecisionDefectFound, false},
		{"approve", "", true},
		{"APPROVED", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecision(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecision(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDecision(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSeverityDefaultsToMedium(t *testing.T) {
	got, err := ParseSeverity("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != SeverityMedium {
		t.Errorf("got %q, want %q", got, SeverityMedium)
	}
	if _, err := ParseSeverity("urgent"); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestStatusPredicates(t *testing.T) {
	if !AssignmentApproved.Terminal() {
		t.Error("approved must be terminal")
	}
	for _, s := range []AssignmentStatus{AssignmentInProgress, AssignmentPendingReview, AssignmentReworkRequired} {
		if !s.Open() {
			t.Errorf("%s should be open", s)
		}
	}
	if AssignmentAssigned.Open() || AssignmentApproved.Open() {
		t.Error("assigned and approved are not open")
	}
}

func TestTaskCloneIsDeep(t *testing.T) {
	now := time.Now()
	reviewer := uuid.New()
	orig := &Task{
		ID: NewID(),
		Assignments: []Assignment{{
			EmployeeID: uuid.New(),
			Deadline:   &now,
			Proof: &ProofSubmission{
				Attachments: []string{"a.png"},
				ReviewedBy:  &reviewer,
			},
		}},
	}

	cp := orig.Clone()
	cp.Assignments[0].Proof.Attachments[0] = "b.png"
	*cp.Assignments[0].Deadline = now.Add(time.Hour)
	*cp.Assignments[0].Proof.ReviewedBy = uuid.Nil

	if orig.Assignments[0].Proof.Attachments[0] != "a.png" {
		t.Error("attachments slice is shared")
	}
	if !orig.Assignments[0].Deadline.Equal(now) {
		t.Error("deadline pointer is shared")
	}
	if *orig.Assignments[0].Proof.ReviewedBy != reviewer {
		t.Error("reviewed_by pointer is shared")
	}
}

func TestTaskBeforeTieBreaksOnID(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &Task{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001")}
	b := &Task{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002")}
	a.CreatedAt, b.CreatedAt = at, at

	if !a.Before(b) || b.Before(a) {
		t.Error("equal timestamps should order by id")
	}

	b.CreatedAt = at.Add(-time.Second)
	if !b.Before(a) {
		t.Error("earlier created_at should sort first")
	}
}

func TestReworkExhausted(t *testing.T) {
	a := Assignment{ReworkAttempts: 2, MaxReworkAttempts: 3}
	if a.ReworkExhausted() {
		t.Error("2 of 3 is not exhausted")
	}
	a.ReworkAttempts = 3
	if !a.ReworkExhausted() {
		t.Error("3 of 3 is exhausted")
	}
	legacy := Assignment{ReworkAttempts: 3}
	if !legacy.ReworkExhausted() {
		t.Error("zero ceiling falls back to default of 3")
	}
}

func TestNotificationPrefAllowsEmail(t *testing.T) {
	p := DefaultNotificationPref(uuid.New())
	p.EmailReviewDecisions = false

	tests := []struct {
		typ  NotificationType
		want bool
	}{
		{NotificationProofSubmitted, true},
		{NotificationProofResubmitted, true},
		{NotificationProofApproved, false},
		{NotificationReworkRequired, false},
		{NotificationReworkExhausted, false},
		{NotificationTaskAssigned, true},
		{NotificationAllTasksCompleted, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := p.AllowsEmail(tt.typ); got != tt.want {
				t.Errorf("AllowsEmail(%s) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}
