package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"printdesk/internal/http/middleware"
	"printdesk/internal/service"
)

// ListDocuments returns a page of the caller's documents.
//
// @Summary List documents
// @Tags documents
// @Security BearerAuth
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} service.DocumentListResult
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /api/v1/documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), middleware.UserIDFromCtx(c), limit, offset)
		if err != nil {
			return writeInternal(c, err, writeError)
		}
		return c.JSON(res)
	}
}

// UploadDocument stores a multipart upload (field name: file).
//
// @Summary Upload a document
// @Tags documents
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "document"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /api/v1/documents [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := docSvc.Upload(c.UserContext(), middleware.UserIDFromCtx(c), f, fh.Filename, ct, fh.Size)
		if err != nil {
			if errors.Is(err, service.ErrInvalidPDF) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_PDF", "file is not a readable PDF")
			}
			return writeInternal(c, err, writeError)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns one of the caller's documents.
//
// @Summary Get a document
// @Tags documents
// @Security BearerAuth
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/v1/documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), middleware.UserIDFromCtx(c), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeInternal(c, err, writeError)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes one of the caller's documents.
//
// @Summary Delete a document
// @Tags documents
// @Security BearerAuth
// @Param id path string true "document id"
// @Success 204
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/v1/documents/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), middleware.UserIDFromCtx(c), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeInternal(c, err, writeError)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
