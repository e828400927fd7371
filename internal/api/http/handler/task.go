package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/service/task"
	pasetotoken "github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/paseto"
)

type TaskHandler struct {
	svc task.Service
}

func NewTaskHandler(svc task.Service) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func mapTaskError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, task.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, task.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, task.ErrForbidden):
		return forbidden(c)
	case errors.Is(err, task.ErrAlreadyAssigned), errors.Is(err, task.ErrConflict):
		return conflict(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "task request failed", "path", c.Path(), "error", err)
		return internalError(c)
	}
}

// POST /tasks
func (h *TaskHandler) Create(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	var body task.CreateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	t, err := h.svc.CreateTask(c.Context(), claims.UserID, body)
	if err != nil {
		return mapTaskError(c, err)
	}

	return created(c, t)
}

// GET /tasks/:taskID
func (h *TaskHandler) Get(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	taskID, err := uuid.Parse(c.Params("taskID"))
	if err != nil {
		return badRequest(c, "invalid task id")
	}

	t, err := h.svc.GetTask(c.Context(), taskID, claims.UserID)
	if err != nil {
		return mapTaskError(c, err)
	}

	return ok(c, t)
}

// POST /tasks/:taskID/assignments
func (h *TaskHandler) Assign(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	taskID, err := uuid.Parse(c.Params("taskID"))
	if err != nil {
		return badRequest(c, "invalid task id")
	}

	var body task.AssignRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	a, err := h.svc.AssignEmployee(c.Context(), taskID, claims.UserID, body)
	if err != nil {
		return mapTaskError(c, err)
	}

	return created(c, a)
}

// PATCH /tasks/:taskID/progress
func (h *TaskHandler) Progress(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	taskID, err := uuid.Parse(c.Params("taskID"))
	if err != nil {
		return badRequest(c, "invalid task id")
	}

	var body task.ProgressRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	a, err := h.svc.UpdateProgress(c.Context(), taskID, claims.UserID, body)
	if err != nil {
		return mapTaskError(c, err)
	}

	return ok(c, a)
}

// GET /me/assignments?status=
func (h *TaskHandler) Mine(c fiber.Ctx) error {
	claims, claimsOK := pasetotoken.ClaimsFromFiber(c)
	if !claimsOK {
		return unauthorized(c)
	}

	items, err := h.svc.ListMyAssignments(c.Context(), claims.UserID, c.Query("status"))
	if err != nil {
		return mapTaskError(c, err)
	}

	return ok(c, items)
}
