package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskify/backend/api/transport"
	"github.com/taskify/backend/pkg/httpcontext"
	noteUC "github.com/taskify/backend/usecase/notes"
)

type NoteHandler struct {
	baseHandler
	uc *noteUC.Service
}

func NewNoteHandler(uc *noteUC.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List notes
// @Tags notes
// @Router /api/v1/notes [get]
func (h *NoteHandler) ListNotes(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.uc.List())
}

// @Summary Create note
// @Tags notes
// @Router /api/v1/notes [post]
func (h *NoteHandler) CreateNote(ctx *fasthttp.RequestCtx) {
	var req transport.NoteRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}
	if req.Title == "" {
		h.badRequest(ctx, "title is required")
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, h.uc.Create(req.Title, req.Content))
}

// @Summary Update note
// @Tags notes
// @Router /api/v1/notes/{id} [put]
func (h *NoteHandler) UpdateNote(ctx *fasthttp.RequestCtx) {
	id := pathValue(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing note id")
		return
	}
	var req transport.NoteRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}
	h.uc.Update(id, req.Title, req.Content)
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Delete note
// @Tags notes
// @Router /api/v1/notes/{id} [delete]
func (h *NoteHandler) DeleteNote(ctx *fasthttp.RequestCtx) {
	id := pathValue(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing note id")
		return
	}
	h.uc.Delete(id)
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}
