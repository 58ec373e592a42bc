package http

import (
	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/usecase"
	"plant-shop/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the read-only products facade.
type ProductHandler struct {
	collections usecase.CollectionUsecase
	log         logger.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(uc usecase.CollectionUsecase, log logger.Logger) *ProductHandler {
	return &ProductHandler{collections: uc, log: log.WithComponent("product-handler")}
}

// RegisterRoutes mounts GET /api/products.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/api/products", h.ListProducts)
}

// ListProducts returns every product as a flat JSON object with its id merged in.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	docs, err := h.collections.ListDocuments(c.UserContext(), model.CollectionProducts)
	if err != nil {
		return writeError(c, err)
	}

	products := make([]map[string]interface{}, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.Flatten())
	}
	h.log.WithContext(c.UserContext()).Debugf("Listed %d products", len(products))
	return c.JSON(products)
}
