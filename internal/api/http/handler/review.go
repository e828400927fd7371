package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/review"
	pasetotoken "github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/paseto"
)

type ReviewHandler struct {
	svc review.Service
}

func NewReviewHandler(svc review.Service) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

func mapReviewError(c fiber.Ctx, err error) error {
	var (
		ve review.ValidationErrors
		se *review.StateError
		ex *review.ReworkExhaustedError
	)
	switch {
	case errors.As(err, &ve):
		return invalid(c, ve.Error(), []*review.ValidationError(ve))
	case errors.Is(err, review.ErrValidation):
		return badRequest(c, err.Error())
	case errors.As(err, &ex):
		return unprocessable(c, ex.Error(), fiber.Map{"rework_attempts": ex.Attempts, "max_rework_attempts": ex.Max})
	case errors.As(err, &se):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": se.Error(), "status": se.Current})
	case errors.Is(err, review.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, review.ErrForbidden):
		return forbidden(c)
	case errors.Is(err, review.ErrConflict):
		return conflict(c, err.Error())
	case errors.Is(err, review.ErrStorageDisabled):
		return unavailable(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "review request failed", "path", c.Path(), "error", err)
		return internalError(c)
	}
}

// POST /tasks/:taskID/proof
func (h *ReviewHandler) Submit(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	taskID, err := uuid.Parse(c.Params("taskID"))
	if err != nil {
		return badRequest(c, "invalid task id")
	}

	var body review.ProofInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.svc.SubmitProof(c.Context(), taskID, claims.UserID, body)
	if err != nil {
		return mapReviewError(c, err)
	}

	return created(c, res)
}

// PUT /proofs/:proofID
func (h *ReviewHandler) Resubmit(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	proofID, err := uuid.Parse(c.Params("proofID"))
	if err != nil {
		return badRequest(c, "invalid proof id")
	}

	var body review.ProofInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.svc.ResubmitProof(c.Context(), proofID, claims.UserID, body)
	if err != nil {
		return mapReviewError(c, err)
	}

	return ok(c, res)
}

// POST /proofs/:proofID/review
func (h *ReviewHandler) Review(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	proofID, err := uuid.Parse(c.Params("proofID"))
	if err != nil {
		return badRequest(c, "invalid proof id")
	}

	var body review.ReviewRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.svc.ReviewProof(c.Context(), proofID, claims.UserID, body)
	if err != nil {
		return mapReviewError(c, err)
	}

	return ok(c, res)
}

// GET /proofs/:proofID
func (h *ReviewHandler) Status(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	proofID, err := uuid.Parse(c.Params("proofID"))
	if err != nil {
		return badRequest(c, "invalid proof id")
	}

	st, err := h.svc.GetProofStatus(c.Context(), proofID, claims.UserID)
	if err != nil {
		return mapReviewError(c, err)
	}

	return ok(c, st)
}

// GET /proofs/:proofID/attachments
func (h *ReviewHandler) Attachments(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	proofID, err := uuid.Parse(c.Params("proofID"))
	if err != nil {
		return badRequest(c, "invalid proof id")
	}

	urls, err := h.svc.GetAttachmentURLs(c.Context(), proofID, claims.UserID)
	if err != nil {
		return mapReviewError(c, err)
	}

	return ok(c, urls)
}

// POST /attachments/upload-url
func (h *ReviewHandler) UploadURL(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	var body struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	up, err := h.svc.AttachmentUploadURL(c.Context(), claims.UserID, body.Filename, body.ContentType)
	if err != nil {
		return mapReviewError(c, err)
	}

	return created(c, up)
}

// GET /reviews/pending
func (h *ReviewHandler) Pending(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	items, err := h.svc.ListPendingReviews(c.Context(), claims.UserID)
	if err != nil {
		return mapReviewError(c, err)
	}

	return ok(c, items)
}

// GET /reviews/analytics?window_days=30&project_id=
func (h *ReviewHandler) Analytics(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	var q struct {
		Days      int    `query:"window_days"`
		ProjectID string `query:"project_id"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}

	req := review.AnalyticsRequest{Window: time.Duration(q.Days) * 24 * time.Hour}
	if q.ProjectID != "" {
		pid, err := uuid.Parse(q.ProjectID)
		if err != nil {
			return badRequest(c, "invalid project_id")
		}
		req.ProjectID = pid
	}

	out, err := h.svc.Analytics(c.Context(), claims.UserID, req)
	if err != nil {
		return mapReviewError(c, err)
	}

	return ok(c, out)
}
