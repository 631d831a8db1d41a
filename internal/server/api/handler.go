package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"lumen-board/feedcore/internal/apperr"
	"lumen-board/feedcore/internal/content"
	"lumen-board/feedcore/internal/feed"
	"lumen-board/feedcore/internal/models"
	"lumen-board/feedcore/internal/reactions"
	"lumen-board/feedcore/internal/server/pagination"
)

const defaultLimit = 20

// userHeader carries the acting user. Authentication happens upstream; by
// the time a request reaches this service the header is trusted.
const userHeader = "X-User-ID"

// Handler holds dependencies for the API endpoints.
type Handler struct {
	aggregator *feed.Aggregator
	items      *content.Store
	engine     *reactions.Engine
	loader     *reactions.Loader
}

// NewHandler creates a new handler instance.
func NewHandler(aggregator *feed.Aggregator, items *content.Store, engine *reactions.Engine, loader *reactions.Loader) *Handler {
	return &Handler{
		aggregator: aggregator,
		items:      items,
		engine:     engine,
		loader:     loader,
	}
}

// GetFeed handles GET /v1/feed.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	query := r.URL.Query()

	filter := feed.Filter{All: true}
	typeStr := query.Get("type")
	if typeStr != "" && typeStr != "all" {
		typ, err := models.ParseContentType(typeStr)
		if err != nil {
			writeError(w, r, apperr.Wrap(apperr.KindValidation, "invalid 'type' parameter", err))
			return
		}
		filter = feed.Filter{Type: typ}
	}

	limit := defaultLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			writeError(w, r, apperr.New(apperr.KindValidation, "invalid 'limit' parameter"))
			return
		}
		limit = parsed
	}

	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil {
			writeError(w, r, apperr.New(apperr.KindValidation, "invalid 'offset' parameter"))
			return
		}
		offset = parsed
	}

	// A cursor overrides offset and pins the upper bound chosen when it was
	// issued; without one the page floats at the head of the feed.
	var before *time.Time
	pinned := time.Now().UTC()
	if cursorStr := query.Get("cursor"); cursorStr != "" {
		ts, cursorOffset, err := pagination.DecodeCursor(cursorStr)
		if err != nil {
			writeError(w, r, apperr.Wrap(apperr.KindValidation, "invalid 'cursor' parameter", err))
			return
		}
		before = &ts
		pinned = ts
		offset = cursorOffset
	}

	userID := r.Header.Get(userHeader)

	page, err := h.aggregator.GetPage(r.Context(), filter, offset, limit, before, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if page.HasMore {
		next := pagination.EncodeCursor(pinned, offset+len(page.Items))
		page.NextCursor = &next
	}

	feedRequests.WithLabelValues(typeOrAll(filter)).Inc()
	log.Debug().Int("items", len(page.Items)).Int("total", page.Total).Msg("Feed page served")
	respondJSON(w, r, http.StatusOK, page)
}

// itemResponse is the detail-view payload.
type itemResponse struct {
	models.Item
	Reactions   models.ReactionSummary `json:"reactions"`
	OwnReaction *feed.OwnReaction      `json:"own_reaction,omitempty"`
}

// GetItem handles GET /v1/items/{type}/{id}. Serving the detail view records
// exactly one view; list paths never do.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	typ, id, err := pathItem(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.items.Get(r.Context(), typ, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.items.RecordView(r.Context(), typ, id); err != nil {
		// The item is still served; the view row heals via the repair path.
		log.Error().Err(err).Str("type", typ.String()).Str("id", id).Msg("Failed to record view")
	} else {
		item.ViewCount++
	}

	resp := itemResponse{Item: *item, Reactions: models.ReactionSummary{Groups: []models.EmojiGroup{}}}
	if rows, err := h.loader.ListByItems(r.Context(), typ, []string{id}); err != nil {
		log.Error().Err(err).Str("type", typ.String()).Str("id", id).Msg("Reaction summary failed, serving empty")
	} else {
		resp.Reactions, resp.OwnReaction = feed.Summarize(rows, r.Header.Get(userHeader))
	}

	respondJSON(w, r, http.StatusOK, resp)
}

type createItemRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// CreateItem handles POST /v1/items/{type}.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	typ, err := pathType(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.items.Create(r.Context(), typ, userID, req.Title, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, item)
}

// EditItem handles PATCH /v1/items/{type}/{id}. Author-only.
func (h *Handler) EditItem(w http.ResponseWriter, r *http.Request) {
	typ, id, err := pathItem(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.items.Edit(r.Context(), typ, id, userID, req.Title, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, item)
}

// DeleteItem handles DELETE /v1/items/{type}/{id}. Author-only.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	typ, id, err := pathItem(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.items.Delete(r.Context(), typ, id, userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reactRequest struct {
	Emoji *string `json:"emoji"`
}

// React handles POST /v1/items/{type}/{id}/react.
func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	typ, id, err := pathItem(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req reactRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	action, err := h.engine.React(r.Context(), typ, id, userID, req.Emoji)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reactionOps.WithLabelValues(string(action)).Inc()
	respondJSON(w, r, http.StatusOK, map[string]any{"action": action})
}

// Unreact handles DELETE /v1/items/{type}/{id}/react.
func (h *Handler) Unreact(w http.ResponseWriter, r *http.Request) {
	typ, id, err := pathItem(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	removed, err := h.engine.Unreact(r.Context(), typ, id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"removed": removed})
}

type commentRequest struct {
	Text string `json:"text"`
}

// Comment handles POST /v1/items/{type}/{id}/comments.
func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	typ, id, err := pathItem(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	comment, err := h.engine.Comment(r.Context(), typ, id, userID, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, comment)
}

// Share handles POST /v1/items/{type}/{id}/share.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	typ, id, err := pathItem(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	action, err := h.engine.Share(r.Context(), typ, id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"action": action})
}

func pathType(r *http.Request) (models.ContentType, error) {
	typ, err := models.ParseContentType(r.PathValue("type"))
	if err != nil {
		return "", apperr.Wrap(apperr.KindNotFound, "unknown content type", err)
	}
	return typ, nil
}

func pathItem(r *http.Request) (models.ContentType, string, error) {
	typ, err := pathType(r)
	if err != nil {
		return "", "", err
	}
	id := r.PathValue("id")
	if id == "" {
		return "", "", apperr.New(apperr.KindNotFound, "missing item id")
	}
	return typ, id, nil
}

func requireUser(r *http.Request) (string, error) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		return "", apperr.Newf(apperr.KindUnauthorized, "missing %s header", userHeader)
	}
	return userID, nil
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return nil
}

func typeOrAll(f feed.Filter) string {
	if f.All {
		return "all"
	}
	return f.Type.String()
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(jsonBytes); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Error writing JSON response body to client")
	}
}

// writeError maps error kinds to HTTP statuses. SourceUnavailable and
// notification errors never reach here; they are recovered where they occur.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("Request failed")
	} else {
		hlog.FromRequest(r).Debug().Err(err).Int("status", status).Msg("Request rejected")
	}

	respondJSON(w, r, status, map[string]string{"error": errMessage(err, status)})
}

// errMessage hides internal detail on 500s.
func errMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return http.StatusText(http.StatusInternalServerError)
	}
	return err.Error()
}
