package http

import (
	"bytes"

	"plant-shop/internal/catalog/usecase"
	"plant-shop/internal/shared/errors"
	"plant-shop/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// CollectionHandler is the REST transport for the document store.
type CollectionHandler struct {
	collections usecase.CollectionUsecase
	log         logger.Logger
}

// NewCollectionHandler creates a CollectionHandler.
func NewCollectionHandler(uc usecase.CollectionUsecase, log logger.Logger) *CollectionHandler {
	return &CollectionHandler{collections: uc, log: log.WithComponent("collection-handler")}
}

// RegisterRoutes mounts the collection endpoints under /api/collections.
// Middlewares run before every route, typically optional authentication.
func (h *CollectionHandler) RegisterRoutes(router fiber.Router, middlewares ...fiber.Handler) {
	group := router.Group("/api/collections", middlewares...)

	group.Get("/:collection", h.ListDocuments)
	group.Post("/:collection", h.AddDocument)
	group.Delete("/:collection/:id", h.DeleteDocument)
}

// AddDocumentResponse is returned by a successful POST.
type AddDocumentResponse struct {
	ID string `json:"id"`
}

func (h *CollectionHandler) ListDocuments(c *fiber.Ctx) error {
	docs, err := h.collections.ListDocuments(c.UserContext(), c.Params("collection"))
	if err != nil {
		return writeError(c, err)
	}

	out := make([]map[string]interface{}, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Flatten())
	}
	return c.JSON(out)
}

func (h *CollectionHandler) AddDocument(c *fiber.Ctx) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 || body[0] != '{' {
		return writeError(c, errors.NewValidationError("request body must be a JSON object"))
	}

	var fields map[string]interface{}
	if err := c.App().Config().JSONDecoder(body, &fields); err != nil {
		h.log.WithContext(c.UserContext()).Debugf("Rejected malformed document body: %v", err)
		return writeError(c, errors.NewValidationError("request body must be a JSON object"))
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}

	id, err := h.collections.AddDocument(c.UserContext(), c.Params("collection"), fields)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(AddDocumentResponse{ID: id})
}

func (h *CollectionHandler) DeleteDocument(c *fiber.Ctx) error {
	if err := h.collections.DeleteDocument(c.UserContext(), c.Params("collection"), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
