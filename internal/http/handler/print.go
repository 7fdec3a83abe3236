package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"printdesk/internal/http/middleware"
	"printdesk/internal/model"
	"printdesk/internal/service"
)

// PrintPagePath is the prefix of the page that redeems a print link.
const PrintPagePath = "/print/"

type issueResponse struct {
	Success   bool      `json:"success"`
	FileID    string    `json:"file_id"`
	ExpiresAt time.Time `json:"expires_at"`
	PrintURL  string    `json:"print_url"`
}

type redeemResponse struct {
	Success bool                     `json:"success"`
	File    *model.DocumentReference `json:"file"`
}

// IssuePrintLink creates a one-time print link for one of the caller's documents.
//
// @Summary Issue a print link
// @Tags print
// @Security BearerAuth
// @Produce json
// @Param id path string true "document id"
// @Success 201 {object} issueResponse
// @Failure 400 {object} printErrorPayload
// @Failure 404 {object} printErrorPayload
// @Router /api/v1/documents/{id}/print-links [post]
func IssuePrintLink(printSvc service.PrintService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writePrintError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		link, err := printSvc.Issue(c.UserContext(), middleware.UserIDFromCtx(c), id)
		if err != nil {
			// Foreign documents are hidden the same way the document API hides them.
			if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrForbidden) {
				return writePrintError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeInternal(c, err, writePrintError)
		}

		return c.Status(fiber.StatusCreated).JSON(issueResponse{
			Success:   true,
			FileID:    link.ID,
			ExpiresAt: link.ExpiresAt,
			PrintURL:  PrintPagePath + link.ID,
		})
	}
}

// RedeemPrintLink consumes a print link and returns the document reference.
//
// @Summary Redeem a print link
// @Tags print
// @Security BearerAuth
// @Produce json
// @Param fileId path string true "print link id"
// @Success 200 {object} redeemResponse
// @Failure 400 {object} printErrorPayload
// @Failure 401 {object} printErrorPayload
// @Failure 403 {object} printErrorPayload
// @Failure 404 {object} printErrorPayload
// @Failure 410 {object} printErrorPayload
// @Router /api/v1/print/{fileId} [get]
func RedeemPrintLink(printSvc service.PrintService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileID := c.Params("fileId")
		if _, err := uuid.Parse(fileID); err != nil {
			return writePrintError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		ref, err := printSvc.Redeem(c.UserContext(), middleware.UserIDFromCtx(c), fileID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrLinkUnavailable):
				return writePrintError(c, fiber.StatusGone, "LINK_UNAVAILABLE", "print link expired or already used")
			case errors.Is(err, service.ErrForbidden):
				return writePrintError(c, fiber.StatusForbidden, "FORBIDDEN", "print link belongs to another user")
			case errors.Is(err, service.ErrNotFound):
				return writePrintError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			default:
				return writeInternal(c, err, writePrintError)
			}
		}

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(redeemResponse{Success: true, File: ref})
	}
}
