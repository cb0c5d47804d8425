package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mfuentes/plaza/internal/domain"
	"github.com/mfuentes/plaza/internal/middleware"
)

// ProductHandler serves the catalog's CRUD endpoints. Reads are open to any
// authenticated user; mutations are restricted to admins by route middleware.
type ProductHandler struct {
	products domain.ProductRepository
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products domain.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.products.List(c.Request().Context())
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to list products", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Could not load the catalog."})
	}
	return c.JSON(http.StatusOK, products)
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	product, err := h.products.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "Product not found."})
		}
		middleware.FromContext(c.Request().Context()).Error("Failed to load product", "error", err, "product_id", c.Param("id"))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Could not load the product."})
	}
	return c.JSON(http.StatusOK, product)
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(c echo.Context) error {
	req, ok := bindProduct(c)
	if !ok {
		return nil
	}

	product, err := h.products.Create(c.Request().Context(), req)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to create product", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Could not create the product."})
	}
	return c.JSON(http.StatusCreated, product)
}

// Update handles PUT /api/products/:id.
func (h *ProductHandler) Update(c echo.Context) error {
	req, ok := bindProduct(c)
	if !ok {
		return nil
	}

	product, err := h.products.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "Product not found."})
		}
		middleware.FromContext(c.Request().Context()).Error("Failed to update product", "error", err, "product_id", c.Param("id"))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Could not update the product."})
	}
	return c.JSON(http.StatusOK, product)
}

// Delete handles DELETE /api/products/:id.
func (h *ProductHandler) Delete(c echo.Context) error {
	if err := h.products.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "Product not found."})
		}
		middleware.FromContext(c.Request().Context()).Error("Failed to delete product", "error", err, "product_id", c.Param("id"))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "Could not delete the product."})
	}
	return c.NoContent(http.StatusNoContent)
}

// bindProduct decodes and validates the request body, writing the error
// response itself when the body is unusable.
func bindProduct(c echo.Context) (*domain.Product, bool) {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "Malformed request body."})
		return nil, false
	}
	if err := c.Validate(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
		return nil, false
	}
	return &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}, true
}
