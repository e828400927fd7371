package review

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/notification"
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

type Config struct {
	MaxReworkAttempts int
	NextTaskDeadline  time.Duration
	LenientNotes      bool
	AllowedCodeHosts  []string
	AllowedVideoHosts []string
	AnalyticsCacheTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxReworkAttempts: schema.DefaultMaxReworkAttempts,
		NextTaskDeadline:  7 * 24 * time.Hour,
		AllowedCodeHosts:  []string{"github.com", "www.github.com"},
		AllowedVideoHosts: []string{
			"youtube.com", "www.youtube.com", "youtu.be",
			"vimeo.com", "www.vimeo.com",
			"loom.com", "www.loom.com",
			"drive.google.com",
		},
		AnalyticsCacheTTL: time.Minute,
	}
}

func FromCentralConfig(c config.ReviewConfig) Config {
	cfg := DefaultConfig()
	if c.MaxReworkAttempts > 0 {
		cfg.MaxReworkAttempts = c.MaxReworkAttempts
	}
	if c.NextTaskDeadlineDays > 0 {
		cfg.NextTaskDeadline = time.Duration(c.NextTaskDeadlineDays) * 24 * time.Hour
	}
	cfg.LenientNotes = c.LenientNotes
	if len(c.AllowedCodeHosts) > 0 {
		cfg.AllowedCodeHosts = c.AllowedCodeHosts
	}
	if len(c.AllowedVideoHosts) > 0 {
		cfg.AllowedVideoHosts = c.AllowedVideoHosts
	}
	cfg.AnalyticsCacheTTL = time.Duration(c.AnalyticsCacheSeconds) * time.Second
	return cfg
}

// AttachmentStore presigns attachment URLs. *s3.Client satisfies it.
type AttachmentStore interface {
	PresignDownload(ctx context.Context, key string) (string, error)
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	TTL() time.Duration
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// ProofInput is the employee-supplied evidence, shared by submit and
// resubmit so both apply identical rules.
type ProofInput struct {
	GithubLink      string   `json:"github_link" validate:"required,codehost"`
	DemoVideoLink   string   `json:"demo_video_link" validate:"required,videohost"`
	CompletionNotes string   `json:"completion_notes" validate:"required,notes"`
	Attachments     []string `json:"attachments" validate:"max=10,dive,required,max=1024"`
}

type SubmitResult struct {
	ProofID     uuid.UUID               `json:"proof_id"`
	TaskID      uuid.UUID               `json:"task_id"`
	Status      schema.AssignmentStatus `json:"status"`
	SubmittedAt time.Time               `json:"submitted_at"`
}

type ReviewRequest struct {
	Decision          string `json:"decision" validate:"required,oneof=approved defect_found"`
	Comments          string `json:"comments" validate:"required,comments"`
	DefectDescription string `json:"defect_description" validate:"required_if=Decision defect_found"`
	DefectSeverity    string `json:"defect_severity" validate:"omitempty,oneof=low medium high critical"`
}

type ReviewResult struct {
	ProofID           uuid.UUID               `json:"proof_id"`
	ReviewID          uuid.UUID               `json:"review_id"`
	Status            schema.AssignmentStatus `json:"status"`
	DefectCount       int                     `json:"defect_count"`
	ReworkAttempts    int                     `json:"rework_attempts"`
	MaxReworkAttempts int                     `json:"max_rework_attempts"`
	NextTask          *NextTask               `json:"next_task,omitempty"`
	// NextTaskError is set when the approval committed but activating the
	// next task failed.
	NextTaskError string `json:"next_task_error,omitempty"`
}

// NextTask is the outcome of next-task assignment after an approval.
type NextTask struct {
	Assigned    bool       `json:"assigned"`
	TaskID      uuid.UUID  `json:"task_id,omitempty"`
	Title       string     `json:"title,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	AllComplete bool       `json:"all_complete"`
}

type EmployeeSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

// PendingReview is one entry of the reviewer queue.
type PendingReview struct {
	ProofID              uuid.UUID               `json:"proof_id"`
	TaskID               uuid.UUID               `json:"task_id"`
	TaskTitle            string                  `json:"task_title"`
	ProjectID            uuid.UUID               `json:"project_id"`
	Employee             EmployeeSummary         `json:"employee"`
	Proof                *schema.ProofSubmission `json:"proof"`
	SubmittedAt          time.Time               `json:"submitted_at"`
	DefectCount          int                     `json:"defect_count"`
	ReworkAttempts       int                     `json:"rework_attempts"`
	MaxReworkAttempts    int                     `json:"max_rework_attempts"`
	Resubmission         bool                    `json:"resubmission"`
	ReassignmentRequired bool                    `json:"reassignment_required"`
}

// ProofStatus is the status snapshot of one proof and its assignment.
type ProofStatus struct {
	ProofID                 uuid.UUID               `json:"proof_id"`
	TaskID                  uuid.UUID               `json:"task_id"`
	TaskTitle               string                  `json:"task_title"`
	ProjectID               uuid.UUID               `json:"project_id"`
	EmployeeID              uuid.UUID               `json:"employee_id"`
	Status                  schema.AssignmentStatus `json:"status"`
	Decision                schema.ReviewDecision   `json:"decision"`
	Progress                int                     `json:"progress"`
	Proof                   *schema.ProofSubmission `json:"proof,omitempty"`
	ReviewCycle             *schema.ReviewCycle     `json:"review_cycle,omitempty"`
	DefectCount             int                     `json:"defect_count"`
	ReworkAttempts          int                     `json:"rework_attempts"`
	MaxReworkAttempts       int                     `json:"max_rework_attempts"`
	RemainingReworkAttempts int                     `json:"remaining_rework_attempts"`
	ReassignmentRequired    bool                    `json:"reassignment_required"`
	Deadline                *time.Time              `json:"deadline,omitempty"`
	FinalApprovedAt         *time.Time              `json:"final_approved_at,omitempty"`
	Version                 int64                   `json:"version"`
	History                 []*schema.Review        `json:"history"`
}

type AttachmentURL struct {
	Reference string `json:"reference"`
	URL       string `json:"url"`
	Presigned bool   `json:"presigned"`
}

type UploadURL struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AnalyticsRequest struct {
	Window    time.Duration
	ProjectID uuid.UUID
}

type Analytics struct {
	WindowStart        time.Time `json:"window_start"`
	WindowEnd          time.Time `json:"window_end"`
	Submissions        int       `json:"submissions"`
	Decisions          int       `json:"decisions"`
	Approvals          int       `json:"approvals"`
	Defects            int       `json:"defects"`
	PendingReviews     int       `json:"pending_reviews"`
	ApprovalRate       float64   `json:"approval_rate"`
	DefectRate         float64   `json:"defect_rate"`
	MeanReworkAttempts float64   `json:"mean_rework_attempts"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	SubmitProof(ctx context.Context, taskID, employeeID uuid.UUID, in ProofInput) (*SubmitResult, error)
	ResubmitProof(ctx context.Context, proofID, employeeID uuid.UUID, in ProofInput) (*SubmitResult, error)
	ReviewProof(ctx context.Context, proofID, reviewerID uuid.UUID, req ReviewRequest) (*ReviewResult, error)

	ListPendingReviews(ctx context.Context, reviewerID uuid.UUID) ([]PendingReview, error)
	GetProofStatus(ctx context.Context, proofID, actorID uuid.UUID) (*ProofStatus, error)
	GetAttachmentURLs(ctx context.Context, proofID, actorID uuid.UUID) ([]AttachmentURL, error)
	AttachmentUploadURL(ctx context.Context, actorID uuid.UUID, filename, contentType string) (*UploadURL, error)
	Analytics(ctx context.Context, actorID uuid.UUID, req AnalyticsRequest) (*Analytics, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type reviewService struct {
	db       *repo.Client
	sink     notification.Sink
	rdb      *redis.Client
	files    AttachmentStore
	cfg      Config
	validate *validator.Validate
	metrics  *metrics
	now      func() time.Time
}

// New builds the review engine. rdb and files may be nil.
func New(db *repo.Client, sink notification.Sink, rdb *redis.Client, files AttachmentStore, cfg Config) Service {
	return &reviewService{
		db:       db,
		sink:     sink,
		rdb:      rdb,
		files:    files,
		cfg:      cfg,
		validate: newValidator(cfg),
		metrics:  newMetrics(),
		now:      time.Now,
	}
}

func (s *reviewService) clock() time.Time {
	return s.now().UTC()
}
