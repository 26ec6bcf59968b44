package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/robalyx/tribunal/internal/auth"
	"github.com/robalyx/tribunal/internal/database/service"
	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/robalyx/tribunal/internal/database/types/enum"
	"github.com/robalyx/tribunal/internal/rest/convert"
	"github.com/robalyx/tribunal/internal/rest/middleware/header"
	"github.com/robalyx/tribunal/internal/rest/middleware/ip"
	"github.com/robalyx/tribunal/internal/rest/middleware/metrics"
	"github.com/robalyx/tribunal/internal/rest/response"
	restTypes "github.com/robalyx/tribunal/internal/rest/types"
	"github.com/robalyx/tribunal/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// MaxBodyBytes bounds the size of request bodies.
const MaxBodyBytes = 64 << 10

var (
	errInvalidBody  = errors.New("invalid request body")
	errBodyTooLarge = errors.New("request body too large")
)

const (
	msgAlreadyPending = "you already have a pending appeal, check its status instead"
	msgNoUpdates      = "no updates provided"
	msgInternal       = "internal server error"
)

// AppealHandler handles appeal REST endpoints.
type AppealHandler struct {
	appeals *service.AppealService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAppealHandler creates a new appeal handler.
func NewAppealHandler(appeals *service.AppealService, metrics *metrics.Metrics, logger *zap.Logger) *AppealHandler {
	return &AppealHandler{
		appeals: appeals,
		metrics: metrics,
		logger:  logger.Named("appeal_handler"),
	}
}

// SubmitAppeal stores a new appeal and returns its limited view.
func (h *AppealHandler) SubmitAppeal(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.SubmitAppealRequest
	if err := decodeBody(w, req, &body); err != nil {
		return h.writeBodyError(w, err)
	}

	clientIP := ip.FromContext(req.Context())
	if clientIP == ip.UnknownIP {
		clientIP = ""
	}

	appeal, err := h.appeals.Submit(req.Context(), &types.AppealSubmission{
		DiscordID:       body.DiscordID,
		DiscordUsername: body.DiscordUsername,
		Email:           body.Email,
		AppealType:      body.AppealType,
		BanReason:       body.BanReason,
		AppealMessage:   body.AppealMessage,
		Evidence:        body.Evidence,
		IPAddress:       clientIP,
	})
	if err != nil {
		var pendingErr *types.AlreadyPendingError
		if errors.As(err, &pendingErr) {
			h.metrics.RecordAppealEvent(metrics.EventDuplicate)
		}
		return h.writeError(w, req, err)
	}

	h.metrics.RecordAppealEvent(metrics.EventSubmitted)
	return response.JSON(w, http.StatusCreated, convert.AppealSummary(appeal))
}

// ListAppeals returns one page of appeals together with global statistics.
func (h *AppealHandler) ListAppeals(w http.ResponseWriter, req bunrouter.Request) error {
	query := req.URL.Query()

	limit, err := intParam(query.Get("limit"))
	if err != nil {
		return response.Error(w, http.StatusBadRequest, "invalid limit")
	}
	offset, err := intParam(query.Get("offset"))
	if err != nil {
		return response.Error(w, http.StatusBadRequest, "invalid offset")
	}

	filter := types.AppealFilter{
		AssignedTo: strings.TrimSpace(query.Get("assignedTo")),
		Search:     strings.TrimSpace(query.Get("search")),
	}
	if filter.Status, err = enum.ParseAppealStatusFilter(strings.TrimSpace(query.Get("status"))); err != nil {
		return h.writeError(w, req, types.NewValidationError("invalid status filter %q", query.Get("status")))
	}
	if filter.Priority, err = enum.ParseAppealPriorityFilter(strings.TrimSpace(query.Get("priority"))); err != nil {
		return h.writeError(w, req, types.NewValidationError("invalid priority filter %q", query.Get("priority")))
	}

	var (
		page  *types.AppealPage
		stats *types.AppealStats
	)

	p := pool.New().WithContext(req.Context())
	p.Go(func(ctx context.Context) error {
		var err error
		page, err = h.appeals.List(ctx, filter, limit, offset)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		stats, err = h.appeals.Stats(ctx)
		return err
	})
	if err := p.Wait(); err != nil {
		return h.writeError(w, req, err)
	}

	return response.JSON(w, http.StatusOK, restTypes.ListAppealsResponse{
		Appeals: convert.Appeals(page.Appeals),
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		Stats:   convert.Stats(stats),
	})
}

// GetStats returns global appeal statistics.
func (h *AppealHandler) GetStats(w http.ResponseWriter, req bunrouter.Request) error {
	stats, err := h.appeals.Stats(req.Context())
	if err != nil {
		return h.writeError(w, req, err)
	}
	return response.JSON(w, http.StatusOK, convert.Stats(stats))
}

// GetAppeal returns the full view to staff and the limited view to everyone else.
func (h *AppealHandler) GetAppeal(w http.ResponseWriter, req bunrouter.Request) error {
	id := req.Param("id")

	if _, ok := auth.StaffFromContext(req.Context()); ok {
		full, err := h.appeals.GetFullAppeal(req.Context(), id)
		if err != nil {
			return h.writeError(w, req, err)
		}
		return response.JSON(w, http.StatusOK, convert.FullAppeal(full))
	}

	appeal, err := h.appeals.GetAppeal(req.Context(), id)
	if err != nil {
		return h.writeError(w, req, err)
	}
	return response.JSON(w, http.StatusOK, convert.AppealSummary(appeal))
}

// UpdateAppeal applies a staff patch and optionally posts a staff reply.
// Both are written in one transaction.
func (h *AppealHandler) UpdateAppeal(w http.ResponseWriter, req bunrouter.Request) error {
	staff, _ := auth.StaffFromContext(req.Context())
	id := req.Param("id")

	body, err := decodeUpdate(w, req)
	if err != nil {
		return h.writeBodyError(w, err)
	}

	patch, err := updatePatch(body)
	if err != nil {
		return h.writeError(w, req, err)
	}

	var reply *types.AppealMessage
	if body.Message != nil && strings.TrimSpace(*body.Message) != "" {
		reply = &types.AppealMessage{
			SenderType: enum.SenderTypeStaff,
			SenderID:   staff.UserID,
			SenderName: staff.Name(),
			Message:    strings.TrimSpace(*body.Message),
			IsInternal: body.IsInternal,
		}
	}

	if patch.IsEmpty() && reply == nil {
		return response.Error(w, http.StatusBadRequest, msgNoUpdates)
	}

	if err := h.appeals.Update(req.Context(), id, patch, reply, staff.UserID); err != nil {
		return h.writeError(w, req, err)
	}
	if !patch.IsEmpty() {
		h.metrics.RecordAppealEvent(metrics.EventUpdated)
	}
	if reply != nil {
		h.metrics.RecordAppealEvent(metrics.EventReplied)
	}

	full, err := h.appeals.GetFullAppeal(req.Context(), id)
	if err != nil {
		return h.writeError(w, req, err)
	}
	return response.JSON(w, http.StatusOK, convert.FullAppeal(full))
}

// CloseAppeal denies and soft-deletes an appeal.
func (h *AppealHandler) CloseAppeal(w http.ResponseWriter, req bunrouter.Request) error {
	staff, _ := auth.StaffFromContext(req.Context())
	id := req.Param("id")

	var body restTypes.CloseAppealRequest
	if err := decodeOptionalBody(w, req, &body); err != nil {
		return h.writeBodyError(w, err)
	}

	if err := h.appeals.Close(req.Context(), id, staff.UserID, body.Reason); err != nil {
		return h.writeError(w, req, err)
	}
	h.metrics.RecordAppealEvent(metrics.EventClosed)

	full, err := h.appeals.GetFullAppeal(req.Context(), id)
	if err != nil {
		return h.writeError(w, req, err)
	}
	return response.JSON(w, http.StatusOK, convert.FullAppeal(full))
}

// writeError maps engine errors to HTTP responses.
func (h *AppealHandler) writeError(w http.ResponseWriter, req bunrouter.Request, err error) error {
	var (
		validationErr *types.ValidationError
		pendingErr    *types.AlreadyPendingError
	)
	if errors.As(err, &validationErr) {
		return response.Error(w, http.StatusBadRequest, validationErr.Message)
	}
	if errors.As(err, &pendingErr) {
		return response.JSON(w, http.StatusConflict, response.ErrorBody{
			Error:    msgAlreadyPending,
			AppealID: pendingErr.AppealID,
		})
	}
	if errors.Is(err, types.ErrAppealNotFound) {
		return response.Error(w, http.StatusNotFound, types.ErrAppealNotFound.Error())
	}

	h.logger.Error("Request failed",
		zap.String("requestID", header.RequestIDFromContext(req.Context())),
		zap.String("method", req.Method),
		zap.String("route", req.Route()),
		zap.Error(err))
	return response.Error(w, http.StatusInternalServerError, msgInternal)
}

// writeBodyError reports an unreadable request body.
func (h *AppealHandler) writeBodyError(w http.ResponseWriter, err error) error {
	if errors.Is(err, errBodyTooLarge) {
		return response.Error(w, http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
	}
	return response.Error(w, http.StatusBadRequest, errInvalidBody.Error())
}

// updatePatch converts an update request into an engine patch.
// Unknown status or priority names are rejected as validation errors.
func updatePatch(body *restTypes.UpdateAppealRequest) (*types.AppealPatch, error) {
	patch := &types.AppealPatch{
		ReviewNote:    body.ReviewNote,
		InternalNotes: body.InternalNotes,
	}

	if body.Status != nil {
		status, err := enum.ParseAppealStatus(strings.TrimSpace(*body.Status))
		if err != nil {
			return nil, types.NewValidationError("invalid status %q", *body.Status)
		}
		patch.Status = &status
	}
	if body.Priority != nil {
		priority, err := enum.ParseAppealPriority(strings.TrimSpace(*body.Priority))
		if err != nil {
			return nil, types.NewValidationError("invalid priority %q", *body.Priority)
		}
		patch.Priority = &priority
	}
	if body.AssignedToSet {
		patch.AssignedTo = utils.Ptr("")
		if body.AssignedTo != nil {
			patch.AssignedTo = body.AssignedTo
		}
	}

	return patch, nil
}

// readBody reads the request body up to MaxBodyBytes.
func readBody(w http.ResponseWriter, req bunrouter.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxBodyBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, errBodyTooLarge
		}
		return nil, errInvalidBody
	}
	return data, nil
}

// decodeBody reads and decodes a required JSON body.
func decodeBody(w http.ResponseWriter, req bunrouter.Request, v any) error {
	data, err := readBody(w, req)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return errInvalidBody
	}
	return nil
}

// decodeOptionalBody decodes a JSON body when one is present.
func decodeOptionalBody(w http.ResponseWriter, req bunrouter.Request, v any) error {
	data, err := readBody(w, req)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return errInvalidBody
	}
	return nil
}

// decodeUpdate decodes an update body, recording whether assignedTo was sent.
func decodeUpdate(w http.ResponseWriter, req bunrouter.Request) (*restTypes.UpdateAppealRequest, error) {
	data, err := readBody(w, req)
	if err != nil {
		return nil, err
	}

	var body restTypes.UpdateAppealRequest
	if err := sonic.Unmarshal(data, &body); err != nil {
		return nil, errInvalidBody
	}

	var fields map[string]any
	if err := sonic.Unmarshal(data, &fields); err != nil {
		return nil, errInvalidBody
	}
	_, body.AssignedToSet = fields["assignedTo"]

	return &body, nil
}

// intParam parses an optional integer query parameter.
func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
