// Generation HTTP handlers.
//
// This file exposes REST endpoints for generation attempts:
//   - POST /generations       (submit source text, receive proposals)
//   - GET  /generations       (list paginated attempt history, ETag support)
//   - GET  /generations/{id}  (single attempt detail)
//
// Handlers are transport-thin:
//   - validate & normalize inputs
//   - delegate to application services (GenerationService)
//   - translate service errors into stable HTTP codes
//   - implement conditional responses (ETag) and idempotency semantics
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// attempt exists for (user, key), the handler returns that recorded
// generation and sets `Idempotency-Replayed: true`. Replays never consume
// quota and never call the provider.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmanix/damix-10x-cards-sub000/internal/domain"
	"github.com/dmanix/damix-10x-cards-sub000/internal/proposals"
	"github.com/dmanix/damix-10x-cards-sub000/internal/repo"
	"github.com/dmanix/damix-10x-cards-sub000/internal/services"
	"github.com/dmanix/damix-10x-cards-sub000/internal/utils"
)

//
// Service contracts (context-aware)
//

// GenerationService defines the generation pipeline operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type GenerationService interface {
	// Generate runs the full pipeline for one submission at the given instant.
	Generate(ctx context.Context, userID, rawText string, now time.Time) (*services.GenerateResult, error)
	// ListPage returns a page of the user's attempts and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Generation, int64, error)
	// Get fetches one attempt owned by userID.
	Get(ctx context.Context, userID, id string) (*domain.Generation, error)
}

// FlashcardService defines flashcard persistence operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type FlashcardService interface {
	// Save persists a batch of accepted cards atomically.
	Save(ctx context.Context, userID string, inputs []services.FlashcardInput) ([]domain.Flashcard, error)
	// ListPage returns a page of the user's cards and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Flashcard, int64, error)
	// Update edits the front/back of one card.
	Update(ctx context.Context, userID, id, front, back string) (*domain.Flashcard, error)
	// Delete removes one card.
	Delete(ctx context.Context, userID, id string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for generations and flashcards. It depends
// on abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	genSvc  GenerationService
	cardSvc FlashcardService

	// IdempotencyTTL bounds how long a recorded Idempotency-Key stays
	// replayable. Zero falls back to 24h.
	IdempotencyTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(genSvc GenerationService, cardSvc FlashcardService) *Handlers {
	return &Handlers{genSvc: genSvc, cardSvc: cardSvc, IdempotencyTTL: 24 * time.Hour}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware), falling back to the "X-User-ID" header. It never touches
// c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

//
// DTOs
//

// CreateGenerationRequest is the JSON payload for submitting source text.
type CreateGenerationRequest struct {
	// Text is the raw source text to generate proposals from. It is
	// normalized server-side; the normalized length must fall within the
	// configured bounds (1000–20000 characters by default).
	Text string `json:"text" binding:"required,min=1" example:"Spaced repetition is a learning technique..."`
}

// CreateGenerationResponse is the JSON envelope for a completed submission.
type CreateGenerationResponse struct {
	// Generation is the recorded attempt.
	Generation *domain.Generation `json:"generation"`
	// Proposals are the candidate cards; empty on a low-quality verdict.
	Proposals []proposals.Proposal `json:"proposals"`
	// DailyLimit reflects the user's quota after this call.
	DailyLimit services.DailyUsage `json:"daily_limit"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListGenerationsResponse wraps a page of attempts and pagination information.
type ListGenerationsResponse struct {
	Generations []domain.Generation `json:"generations"`
	Pagination  Pagination          `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// idempotencyKey reads a client-provided Idempotency-Key header, if any.
func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("Idempotency-Key"))
}

// serviceDB exposes the GORM handle behind the concrete GenerationService,
// used for idempotency records and ETag stats. Returns nil when the service
// is a test fake.
func (h *Handlers) serviceDB() *gorm.DB {
	if svc, ok := h.genSvc.(*services.GenerationService); ok {
		return svc.DB
	}
	return nil
}

// failDailyLimit writes the 429 envelope carrying the quota snapshot so
// clients can render the reset time without another request.
func failDailyLimit(c *gin.Context, e *services.DailyLimitExceededError) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       ErrCodeDailyLimitExceeded,
		"message":    e.Error(),
		"daily_limit": services.DailyUsage{
			Limit:     e.Limit,
			Used:      e.Limit - e.Remaining,
			Remaining: e.Remaining,
			ResetsAt:  e.ResetsAt,
		},
	})
}

//
// Handlers
//

// CreateGeneration godoc
// @ID          createGeneration
// @Summary     Generate flashcard proposals from source text
// @Description Normalizes the submitted text, enforces the per-user daily quota,
// @Description records the attempt, and returns AI-generated proposals.
// @Description Supports idempotency via the Idempotency-Key header (same key → same attempt).
// @Tags        Generations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "User ID that owns the attempt"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateGenerationRequest  true  "Source text payload"
//
// @Success     201  {object}  handlers.CreateGenerationResponse  "Proposals generated"
// @Failure     400  {object}  handlers.ErrorResponse  "Input length out of bounds"
// @Failure     422  {object}  handlers.ErrorResponse  "Input judged too low quality"
// @Failure     429  {object}  handlers.ErrorResponse  "Daily generation limit reached"
// @Failure     500  {object}  handlers.ErrorResponse  "Generation failed"
// @Router      /generations [post]
func (h *Handlers) CreateGeneration(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	var req CreateGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	// Idempotency (replay path) – returns the recorded attempt without
	// consuming quota or calling the provider.
	key := idempotencyKey(c)
	if key != "" {
		if db := h.serviceDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, uid, key, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := h.genSvc.Get(ctx, uid, rec.GenerationID); err2 == nil {
					resp := CreateGenerationResponse{
						Generation: prev,
						Proposals:  []proposals.Proposal{},
					}
					// Replays consume no quota; report current usage rather
					// than a stale snapshot.
					if svc, live := h.genSvc.(*services.GenerationService); live {
						if u, uerr := svc.GetDailyUsage(ctx, uid, time.Now().UTC()); uerr == nil {
							resp.DailyLimit = u
						}
					}
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, resp)
					return
				}
			}
		}
	}

	res, err := h.genSvc.Generate(ctx, uid, req.Text, time.Now().UTC())
	if err != nil {
		var lenErr *services.InputLengthError
		var limitErr *services.DailyLimitExceededError
		switch {
		case errors.As(err, &lenErr):
			fail(c, http.StatusBadRequest, ErrCodeInputLength,
				fmt.Sprintf("text must be between %d and %d characters after normalization (got %d)",
					lenErr.Min, lenErr.Max, lenErr.Length))
		case errors.As(err, &limitErr):
			failDailyLimit(c, limitErr)
		case errors.Is(err, services.ErrProviderFailure):
			fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, services.ErrProviderFailure.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, services.ErrProviderFailure.Error())
		}
		return
	}

	if res.LowQuality {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"request_id":  c.Writer.Header().Get("X-Request-ID"),
			"code":        ErrCodeLowQualityInput,
			"message":     res.Message,
			"daily_limit": res.DailyLimit,
		})
		return
	}

	// Idempotency (store path) – best effort.
	if key != "" {
		if db := h.serviceDB(); db != nil {
			ttl := h.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			_, _ = repo.CreateIdempotency(ctx, db, uid, key, res.Generation.ID, ttl)
		}
	}

	ok(c, http.StatusCreated, CreateGenerationResponse{
		Generation: res.Generation,
		Proposals:  res.Proposals,
		DailyLimit: res.DailyLimit,
	})
}

// ListGenerations godoc
// @ID          listGenerations
// @Summary     List generation attempts (paginated)
// @Description Returns a page of the user's attempts, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Generations
// @Produce     json
//
// @Param       X-User-ID      header  string  true  "User ID"                     example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListGenerationsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /generations [get]
func (h *Handlers) ListGenerations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.serviceDB(); db != nil {
		count, maxTS, err := repo.GenerationsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"generations:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.genSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := utils.ComputeTotalPages(total, pageSize)
	ok(c, http.StatusOK, ListGenerationsResponse{
		Generations: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetGeneration godoc
// @ID          getGeneration
// @Summary     Get one generation attempt
// @Description Returns a single attempt owned by the current user, including
// @Description acceptance counters and failure details when present.
// @Tags        Generations
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"         example(user123)
// @Param       id         path    string  true  "Generation ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Generation
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Generation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /generations/{id} [get]
func (h *Handlers) GetGeneration(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "generation id must be a UUID")
		return
	}

	g, err := h.genSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGenerationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "generation not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, g)
}
