// Package web exposes the fetch operations over HTTP as JSON.
package web

import (
	"context"
	"errors"
	"time"

	"twitfetch/internal/domain"
	"twitfetch/internal/usecases"
	"twitfetch/pkg/log"

	"github.com/gofiber/fiber/v2"
)

// TweetsGetter runs a fetch query.
type TweetsGetter interface {
	Execute(ctx context.Context, q usecases.Query) ([]domain.Post, error)
}

// HealthChecker reports whether the browser is usable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handlers contains the HTTP handlers.
type Handlers struct {
	tweets  TweetsGetter
	health  HealthChecker
	timeout time.Duration
}

// NewHandlers creates a new Handlers instance. timeout bounds each fetch.
func NewHandlers(tweets TweetsGetter, health HealthChecker, timeout time.Duration) *Handlers {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Handlers{tweets: tweets, health: health, timeout: timeout}
}

// TweetsResponse is the body of every successful fetch.
type TweetsResponse struct {
	Target string        `json:"target"`
	Mode   string        `json:"mode"`
	Start  string        `json:"start,omitempty"`
	End    string        `json:"end,omitempty"`
	Count  int           `json:"count"`
	Posts  []domain.Post `json:"posts"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// fetchRequest is the body of POST /api/fetch.
type fetchRequest struct {
	URL   string `json:"url" form:"url"`
	Start string `json:"start" form:"start"`
	End   string `json:"end" form:"end"`
	Mode  string `json:"mode" form:"mode"`
}

// Health pings the browser.
func (h *Handlers) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		log.GlobalWarnCtx(ctx, "health check failed", "error", err.Error())
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// AccountTweets handles GET /api/accounts/:account/tweets.
func (h *Handlers) AccountTweets(c *fiber.Ctx) error {
	return h.fetch(c, domain.AccountTarget(c.Params("account")), c.Query("start"), c.Query("end"), c.Query("mode"))
}

// ListTweets handles GET /api/lists/:id/tweets. Lists are API-only.
func (h *Handlers) ListTweets(c *fiber.Ctx) error {
	return h.fetch(c, domain.ListTarget(c.Params("id")), c.Query("start"), c.Query("end"), string(usecases.ModeAPI))
}

// FetchTweets handles POST /api/fetch with a profile or list URL.
func (h *Handlers) FetchTweets(c *fiber.Ctx) error {
	var req fetchRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, domain.ErrInvalidTarget)
	}

	target, err := ParseTarget(req.URL)
	if err != nil {
		log.GlobalWarnCtx(c.UserContext(), "invalid target", "url", req.URL, "error", err.Error())
		return writeError(c, err)
	}
	return h.fetch(c, target, req.Start, req.End, req.Mode)
}

func (h *Handlers) fetch(c *fiber.Ctx, target domain.Target, start, end, mode string) error {
	window, err := domain.NewTimeWindow(start, end)
	if err != nil {
		return writeError(c, err)
	}
	m, err := usecases.ParseMode(mode)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	posts, err := h.tweets.Execute(ctx, usecases.Query{Target: target, Window: window, Mode: m})
	if err != nil {
		log.GlobalErrorCtx(ctx, "fetch failed", "target", target.String(), "mode", string(m), "error", err.Error())
		return writeError(c, err)
	}
	if posts == nil {
		posts = []domain.Post{}
	}

	return c.JSON(TweetsResponse{
		Target: target.String(),
		Mode:   string(m),
		Start:  start,
		End:    end,
		Count:  len(posts),
		Posts:  posts,
	})
}

func writeError(c *fiber.Ctx, err error) error {
	status, msg := errorStatus(err)
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// errorStatus maps an error to a status code and a neutral message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidTarget):
		return fiber.StatusBadRequest, "That doesn't look like an account, list or supported mode."
	case errors.Is(err, domain.ErrInvalidDate):
		return fiber.StatusBadRequest, "Dates must look like 2024-01-31 and the end must not precede the start."
	case errors.Is(err, domain.ErrNoBoundary):
		return fiber.StatusBadRequest, "A start date is required to know when to stop."
	case errors.Is(err, domain.ErrRateLimited):
		return fiber.StatusTooManyRequests, "Too many requests. Please wait a moment and try again."
	case errors.Is(err, domain.ErrInvalidLogin), errors.Is(err, domain.ErrLoginInputNotFound):
		return fiber.StatusBadGateway, "The collector could not sign in."
	case errors.Is(err, domain.ErrResponseTimeout), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "The timeline took too long to load. Please try again."
	case errors.Is(err, context.Canceled):
		return 499, "The request was canceled."
	default:
		return fiber.StatusInternalServerError, "Unable to fetch posts right now. Please try again in a moment."
	}
}
