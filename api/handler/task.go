package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskify/backend/api/transport"
	"github.com/taskify/backend/collection"
	"github.com/taskify/backend/domain"
	"github.com/taskify/backend/pkg/httpcontext"
	taskUC "github.com/taskify/backend/usecase/tasks"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.Service
}

func NewTaskHandler(uc *taskUC.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks, optionally filtered/sorted/grouped
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	query := collection.Query{
		Search: string(ctx.QueryArgs().Peek("search")),
		Filter: collection.Filter(ctx.QueryArgs().Peek("filter")),
		Sort:   collection.Sort(ctx.QueryArgs().Peek("sort")),
	}

	if grouped, _ := strconv.ParseBool(string(ctx.QueryArgs().Peek("grouped"))); grouped {
		lanes := h.uc.ListLanes(query)
		h.respondSuccess(ctx, http.StatusOK, transport.LaneResponse{
			High:   lanes.High,
			Medium: lanes.Medium,
			Low:    lanes.Low,
		})
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.uc.List(query))
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}
	if req.Title == "" {
		h.badRequest(ctx, "title is required")
		return
	}

	created := h.uc.Create(domain.Draft{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.ParsePriority(req.Priority),
		DueDate:     parseTime(req.DueDate),
	})
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task fields
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	id := pathValue(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}

	var req transport.TaskUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}

	var options []collection.TaskOption
	if req.Title != nil {
		options = append(options, collection.WithTitle(*req.Title))
	}
	if req.Description != nil {
		options = append(options, collection.WithDescription(*req.Description))
	}
	if req.Priority != nil {
		options = append(options, collection.WithPriority(domain.Priority(*req.Priority)))
	}
	if req.Status != nil {
		options = append(options, collection.WithStatus(domain.Status(*req.Status)))
	}
	if req.DueDate != nil {
		options = append(options, collection.WithDueDate(parseTime(*req.DueDate)))
	}
	if req.ReminderTime != nil {
		options = append(options, collection.WithReminderTime(parseTime(*req.ReminderTime)))
	}

	h.uc.Update(id, options...)
	h.respondCurrent(ctx, id)
}

// @Summary Toggle task completion
// @Tags tasks
// @Router /api/v1/tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(ctx *fasthttp.RequestCtx) {
	id := pathValue(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}
	h.uc.ToggleCompletion(id)
	h.respondCurrent(ctx, id)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	id := pathValue(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}
	h.uc.Delete(id)
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Add subtask
// @Tags tasks
// @Router /api/v1/tasks/{id}/subtasks [post]
func (h *TaskHandler) AddSubtask(ctx *fasthttp.RequestCtx) {
	id := pathValue(ctx, "id")
	var req transport.SubtaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Title == "" {
		h.badRequest(ctx, "subtask title is required")
		return
	}

	sub, ok := h.uc.AddSubtask(id, req.Title)
	if !ok {
		h.respondError(ctx, domain.ErrTaskNotFound)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, sub)
}

// @Summary Rename subtask
// @Tags tasks
// @Router /api/v1/tasks/{id}/subtasks/{subId} [put]
func (h *TaskHandler) UpdateSubtask(ctx *fasthttp.RequestCtx) {
	id := pathValue(ctx, "id")
	subID := pathValue(ctx, "subId")
	var req transport.SubtaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Title == "" {
		h.badRequest(ctx, "subtask title is required")
		return
	}
	h.uc.UpdateSubtask(id, subID, req.Title)
	h.respondCurrent(ctx, id)
}

// @Summary Toggle subtask completion
// @Tags tasks
// @Router /api/v1/tasks/{id}/subtasks/{subId}/toggle [post]
func (h *TaskHandler) ToggleSubtask(ctx *fasthttp.RequestCtx) {
	h.uc.ToggleSubtask(pathValue(ctx, "id"), pathValue(ctx, "subId"))
	h.respondCurrent(ctx, pathValue(ctx, "id"))
}

// @Summary Delete subtask
// @Tags tasks
// @Router /api/v1/tasks/{id}/subtasks/{subId} [delete]
func (h *TaskHandler) DeleteSubtask(ctx *fasthttp.RequestCtx) {
	h.uc.DeleteSubtask(pathValue(ctx, "id"), pathValue(ctx, "subId"))
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Reorder tasks from a drag gesture
// @Tags tasks
// @Router /api/v1/tasks/reorder [post]
func (h *TaskHandler) ReorderTasks(ctx *fasthttp.RequestCtx) {
	var req transport.ReorderRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}

	if err := h.uc.Reorder(req.Visible, req.Move); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.uc.List(collection.Query{}))
}

// @Summary Parse free text into a task draft
// @Tags tasks
// @Router /api/v1/tasks/parse [post]
func (h *TaskHandler) ParseTask(ctx *fasthttp.RequestCtx) {
	var req transport.ParseRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Text == "" {
		h.badRequest(ctx, "task text is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	draft, err := h.uc.Parse(stdCtx, req.Text)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, draft)
}

// respondCurrent answers with the task's present state, or 200 with no data
// when the id vanished mid-flight (mutations on unknown ids are no-ops, not
// errors).
func (h *TaskHandler) respondCurrent(ctx *fasthttp.RequestCtx, id string) {
	if task, ok := h.uc.Store().Get(id); ok {
		h.respondSuccess(ctx, http.StatusOK, task)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return &parsed
	}
	return nil
}
