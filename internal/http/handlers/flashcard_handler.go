// Flashcard HTTP handlers.
//
// This file exposes REST endpoints for flashcard resources:
//   - POST   /flashcards       (batch save of accepted proposals)
//   - GET    /flashcards       (list, paginated, ETag support)
//   - PUT    /flashcards/{id}  (edit front/back)
//   - DELETE /flashcards/{id}  (remove)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Saving is all-or-nothing: a batch
// referencing a generation the user does not own is rejected with 403 and
// nothing is persisted.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmanix/damix-10x-cards-sub000/internal/domain"
	"github.com/dmanix/damix-10x-cards-sub000/internal/repo"
	"github.com/dmanix/damix-10x-cards-sub000/internal/services"
	"github.com/dmanix/damix-10x-cards-sub000/internal/utils"
)

//
// DTOs
//

// FlashcardItem is one card in a batch save request.
type FlashcardItem struct {
	// Front is the question side (1–200 chars).
	Front string `json:"front" binding:"required,min=1" example:"What is spaced repetition?"`
	// Back is the answer side (1–500 chars).
	Back string `json:"back" binding:"required,min=1" example:"A review technique with increasing intervals."`
	// Source must be one of ai-full, ai-edited, manual.
	Source string `json:"source" binding:"required" example:"ai-full"`
	// GenerationID references the producing attempt; required for ai-* sources.
	GenerationID *string `json:"generation_id,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// SaveFlashcardsRequest is the JSON payload for a batch save.
type SaveFlashcardsRequest struct {
	Flashcards []FlashcardItem `json:"flashcards" binding:"required,min=1,dive"`
}

// SaveFlashcardsResponse contains the persisted cards.
type SaveFlashcardsResponse struct {
	Flashcards []domain.Flashcard `json:"flashcards"`
}

// ListFlashcardsResponse contains a page of cards and pagination metadata.
type ListFlashcardsResponse struct {
	Flashcards []domain.Flashcard `json:"flashcards"`
	Pagination Pagination         `json:"pagination"`
}

// UpdateFlashcardRequest is the JSON payload for editing a card.
type UpdateFlashcardRequest struct {
	Front string `json:"front" binding:"required,min=1" example:"What is active recall?"`
	Back  string `json:"back" binding:"required,min=1" example:"Retrieving information from memory on purpose."`
}

// cardServiceDB exposes the GORM handle behind the concrete FlashcardService,
// used for ETag stats. Returns nil when the service is a test fake.
func (h *Handlers) cardServiceDB() *gorm.DB {
	if svc, ok := h.cardSvc.(*services.FlashcardService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// SaveFlashcards godoc
// @ID          saveFlashcards
// @Summary     Save a batch of flashcards
// @Description Persists accepted proposals (and manual cards) atomically and
// @Description increments acceptance counters on the referenced generations.
// @Tags        Flashcards
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       body       body    handlers.SaveFlashcardsRequest  true  "Batch of cards"
//
// @Success     201  {object} handlers.SaveFlashcardsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Generation not owned by user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /flashcards [post]
func (h *Handlers) SaveFlashcards(c *gin.Context) {
	var req SaveFlashcardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "flashcards required")
		return
	}

	inputs := make([]services.FlashcardInput, 0, len(req.Flashcards))
	for _, it := range req.Flashcards {
		inputs = append(inputs, services.FlashcardInput{
			Front:        it.Front,
			Back:         it.Back,
			Source:       it.Source,
			GenerationID: it.GenerationID,
		})
	}

	saved, err := h.cardSvc.Save(c.Request.Context(), userID(c), inputs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbiddenGeneration):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "referenced generation does not belong to you")
		case errors.Is(err, services.ErrEmptyCard),
			errors.Is(err, services.ErrCardTooLong),
			errors.Is(err, services.ErrInvalidSource),
			errors.Is(err, services.ErrMissingGenerationID):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, SaveFlashcardsResponse{Flashcards: saved})
}

// ListFlashcards godoc
// @ID          listFlashcards
// @Summary     List flashcards (paginated)
// @Description Returns a page of the user's cards, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Flashcards
// @Produce     json
//
// @Param       X-User-ID      header  string  true  "User ID"                     example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListFlashcardsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /flashcards [get]
func (h *Handlers) ListFlashcards(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.cardServiceDB(); db != nil {
		count, maxTS, err := repo.FlashcardsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"flashcards:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.cardSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := utils.ComputeTotalPages(total, pageSize)
	ok(c, http.StatusOK, ListFlashcardsResponse{
		Flashcards: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// UpdateFlashcard godoc
// @ID          updateFlashcard
// @Summary     Edit a flashcard
// @Description Updates the front/back of a card owned by the current user.
// @Description Editing an ai-full card reclassifies it as ai-edited.
// @Tags        Flashcards
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"             example(user123)
// @Param       id         path    string  true  "Flashcard ID (UUID)" format(uuid)
// @Param       body       body    handlers.UpdateFlashcardRequest  true  "New front/back"
//
// @Success     200  {object} domain.Flashcard
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Flashcard not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /flashcards/{id} [put]
func (h *Handlers) UpdateFlashcard(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "flashcard id must be a UUID")
		return
	}

	var req UpdateFlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Front) == "" || strings.TrimSpace(req.Back) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "front and back required")
		return
	}

	card, err := h.cardSvc.Update(c.Request.Context(), userID(c), id, req.Front, req.Back)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFlashcardNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "flashcard not found")
		case errors.Is(err, services.ErrEmptyCard), errors.Is(err, services.ErrCardTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, card)
}

// DeleteFlashcard godoc
// @ID          deleteFlashcard
// @Summary     Delete a flashcard
// @Description Removes a card owned by the current user.
// @Tags        Flashcards
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"             example(user123)
// @Param       id         path    string  true  "Flashcard ID (UUID)" format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Flashcard not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /flashcards/{id} [delete]
func (h *Handlers) DeleteFlashcard(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "flashcard id must be a UUID")
		return
	}

	if err := h.cardSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		switch {
		case errors.Is(err, services.ErrFlashcardNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "flashcard not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
