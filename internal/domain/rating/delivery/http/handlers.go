// Package http contains the HTTP API of the rating domain
package http

import (
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Conte777/newsdigest/internal/domain/rating/dto"
	"github.com/Conte777/newsdigest/internal/domain/rating/usecase/buissines"
	pkgerrors "github.com/Conte777/newsdigest/pkg/errors"
	"github.com/Conte777/newsdigest/pkg/httputil"
)

const bearerPrefix = "Bearer "

// Handlers serves the rating API
type Handlers struct {
	uc     *buissines.UseCase
	token  []byte
	mapper *pkgerrors.Mapper
	logger zerolog.Logger
}

// NewHandlers creates new HTTP handlers. Every /api request must carry
// "Authorization: Bearer <apiToken>"; an empty apiToken rejects them all.
func NewHandlers(uc *buissines.UseCase, apiToken string, logger zerolog.Logger) *Handlers {
	return &Handlers{
		uc:     uc,
		token:  []byte(apiToken),
		mapper: pkgerrors.NewMapper(logger),
		logger: logger,
	}
}

// RegisterRoutes registers the rating API on the router
func (h *Handlers) RegisterRoutes(r *router.Router) {
	if len(h.token) == 0 {
		h.logger.Warn().Msg("RATING_API_TOKEN is not set, /api routes will reject every request")
	}

	api := r.Group("/api")

	api.POST("/items", h.requireToken(h.RegisterItem))
	api.POST("/messages", h.requireToken(h.RegisterMessage))
	api.POST("/reactions", h.requireToken(h.ApplyReaction))
	api.POST("/select", h.requireToken(h.Select))
	api.POST("/digest", h.requireToken(h.PlanDigest))
	api.GET("/top", h.requireToken(h.Top))
	api.GET("/report", h.requireToken(h.Report))
	api.GET("/snapshot", h.requireToken(h.ExportSnapshot))
	api.PUT("/snapshot", h.requireToken(h.ImportSnapshot))
}

// requireToken rejects requests without the owner API token
func (h *Handlers) requireToken(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !h.authorized(ctx) {
			h.logger.Warn().
				Str("path", string(ctx.Path())).
				Str("remote_addr", ctx.RemoteAddr().String()).
				Msg("Unauthorized API request")
			ctx.Response.Header.Set(fasthttp.HeaderWWWAuthenticate, "Bearer")
			httputil.WriteErrorResponse(ctx, "unauthorized", fasthttp.StatusUnauthorized)
			return
		}
		next(ctx)
	}
}

func (h *Handlers) authorized(ctx *fasthttp.RequestCtx) bool {
	if len(h.token) == 0 {
		return false
	}
	header := ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(string(header[:len(bearerPrefix)]), bearerPrefix) {
		return false
	}
	return subtle.ConstantTimeCompare(header[len(bearerPrefix):], h.token) == 1
}

// RegisterItem handles POST /api/items
func (h *Handlers) RegisterItem(ctx *fasthttp.RequestCtx) {
	var req dto.RegisterItemRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		httputil.WriteErrorResponse(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	created, err := h.uc.RegisterItem(ctx, &req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, map[string]bool{"created": created})
	if created {
		ctx.SetStatusCode(fasthttp.StatusCreated)
	}
}

// RegisterMessage handles POST /api/messages
func (h *Handlers) RegisterMessage(ctx *fasthttp.RequestCtx) {
	var req dto.RegisterMessageRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		httputil.WriteErrorResponse(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	if err := h.uc.RegisterMessage(ctx, &req); err != nil {
		h.writeError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, map[string]string{"messageId": req.MessageID})
}

// ApplyReaction handles POST /api/reactions.
// Skipped reactions are not errors; the outcome lists the skip reasons.
func (h *Handlers) ApplyReaction(ctx *fasthttp.RequestCtx) {
	var req dto.ReactionEvent
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		httputil.WriteErrorResponse(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	outcome, err := h.uc.HandleReaction(ctx, &req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, outcome)
}

// Select handles POST /api/select
func (h *Handlers) Select(ctx *fasthttp.RequestCtx) {
	var req dto.SelectionRequest
	if err := httputil.ReadJSON(ctx, &req); err != nil {
		httputil.WriteErrorResponse(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	sel, err := h.uc.Select(ctx, &req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, sel)
}

// PlanDigest handles POST /api/digest. An empty body uses configured sizes.
func (h *Handlers) PlanDigest(ctx *fasthttp.RequestCtx) {
	var req dto.DigestPlanRequest
	if len(ctx.PostBody()) > 0 {
		if err := httputil.ReadJSON(ctx, &req); err != nil {
			httputil.WriteErrorResponse(ctx, err.Error(), fasthttp.StatusBadRequest)
			return
		}
	}

	plan, err := h.uc.PlanDigest(ctx, &req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, plan)
}

// Top handles GET /api/top?kind=&category=&limit=
func (h *Handlers) Top(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	req := dto.TopRequest{
		Kind:     string(args.Peek("kind")),
		Category: string(args.Peek("category")),
	}
	if req.Kind == "" {
		req.Kind = "source"
	}
	if raw := args.Peek("limit"); len(raw) > 0 {
		limit, err := strconv.Atoi(string(raw))
		if err != nil || limit < 0 {
			httputil.WriteErrorResponse(ctx, "limit must be a non-negative integer", fasthttp.StatusBadRequest)
			return
		}
		req.Limit = limit
	}

	items, err := h.uc.Top(ctx, &req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, items)
}

// Report handles GET /api/report
func (h *Handlers) Report(ctx *fasthttp.RequestCtx) {
	httputil.WriteResponse(ctx, h.uc.Report(ctx))
}

// ExportSnapshot handles GET /api/snapshot and returns the raw snapshot document
func (h *Handlers) ExportSnapshot(ctx *fasthttp.RequestCtx) {
	data, err := h.uc.ExportSnapshot(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(data)
}

// ImportSnapshot handles PUT /api/snapshot
func (h *Handlers) ImportSnapshot(ctx *fasthttp.RequestCtx) {
	body := ctx.PostBody()
	if len(body) == 0 {
		httputil.WriteErrorResponse(ctx, "request body is empty", fasthttp.StatusBadRequest)
		return
	}

	if err := h.uc.ImportSnapshot(ctx, body); err != nil {
		h.writeError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, h.uc.Report(ctx))
}

func (h *Handlers) writeError(ctx *fasthttp.RequestCtx, err error) {
	status, msg := h.mapper.MapErrorToHTTP(err)
	h.logger.Debug().Err(err).Str("path", string(ctx.Path())).Int("status", status).Msg("Request failed")
	httputil.WriteErrorResponse(ctx, msg, status)
}
