package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/momentproxy/internal/adapters/upstream"
	service "github.com/okian/momentproxy/internal/app"
	"github.com/okian/momentproxy/internal/domain/policy"
	"github.com/okian/momentproxy/internal/domain/types"
	"github.com/okian/momentproxy/pkg/logger"
)

const (
	allowedMethods = "GET, OPTIONS"
	upstreamHint   = "Cloudflare may be blocking; consider switching to curated data"
)

// momentsResponse is the success body. Total is omitted by policies that
// do not report it.
type momentsResponse struct {
	Moments []types.Listing `json:"moments"`
	Total   *int            `json:"total,omitempty"`
}

// failureResponse is the error body shared by every failure.
type failureResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
	Hint   string `json:"hint,omitempty"`
	Detail string `json:"detail,omitempty"`
	Count  *int   `json:"count,omitempty"`
}

// MomentsHandler serves the moments endpoint.
type MomentsHandler struct {
	deps   Dependencies
	newID  func() string
	logger logger.Logger
}

// MomentsOption applies a configuration option to the MomentsHandler.
type MomentsOption func(*MomentsHandler)

// WithRequestID sets the request id generator.
func WithRequestID(fn func() string) MomentsOption {
	return func(h *MomentsHandler) {
		if fn != nil {
			h.newID = fn
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) MomentsOption {
	return func(h *MomentsHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewMomentsHandler creates a new moments handler.
func NewMomentsHandler(deps Dependencies, opts ...MomentsOption) *MomentsHandler {
	h := &MomentsHandler{deps: deps, newID: uuid.NewString}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Named("api")
	}
	return h
}

// HandleMoments handles /moments and /api/moments.
func (h *MomentsHandler) HandleMoments(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_moments"

	id := h.newID()
	hdr := w.Header()
	hdr.Set("Access-Control-Allow-Origin", "*")
	hdr.Set("Access-Control-Allow-Methods", allowedMethods)
	hdr.Set("X-Request-Id", id)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
	default:
		hdr.Set("Allow", allowedMethods)
		writeJSON(w, http.StatusMethodNotAllowed, failureResponse{Error: "Method not allowed"})
		return
	}

	name := r.URL.Query().Get("policy")
	ctx := logger.WithFields(r.Context(), logger.String("request_id", id), logger.String("policy", name))

	res, err := h.deps.Moments(ctx, name)
	if err != nil {
		h.writeFailure(ctx, w, op, err)
		return
	}

	body := momentsResponse{Moments: res.Listings}
	if body.Moments == nil {
		body.Moments = []types.Listing{}
	}
	if res.IncludeTotal {
		total := res.Total
		body.Total = &total
	}
	hdr.Set("Cache-Control", res.CacheControl)
	writeJSON(w, http.StatusOK, body)
}

func (h *MomentsHandler) writeFailure(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status, body, kind := failureFor(err)
	h.logger.Error(ctx, "moments request failed",
		logger.Int("status", status),
		logger.Error(WrapKind(op, kind, err)),
	)
	writeJSON(w, status, body)
}

// failureFor maps a pipeline error to its HTTP status and body.
func failureFor(err error) (int, failureResponse, error) {
	var statusErr *upstream.StatusError
	var insufficient *service.InsufficientDataError
	switch {
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, failureResponse{
			Error:  fmt.Sprintf("TopShot API error: HTTP %d", statusErr.Status),
			Status: statusErr.Status,
			Hint:   upstreamHint,
			Detail: statusErr.Body,
		}, ErrUpstream
	case errors.As(err, &insufficient):
		count := insufficient.Count
		return http.StatusBadGateway, failureResponse{
			Error: "Not enough moments",
			Count: &count,
		}, ErrInsufficientData
	case errors.Is(err, policy.ErrUnknownPolicy):
		return http.StatusBadRequest, failureResponse{
			Error:  "Unknown policy",
			Detail: err.Error(),
		}, ErrBadRequest
	default:
		return http.StatusInternalServerError, failureResponse{
			Error:  "Internal proxy error",
			Detail: err.Error(),
		}, ErrInternal
	}
}
