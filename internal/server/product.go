package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perkhub/perkstore/internal/authorization"
	cataloguedomain "github.com/perkhub/perkstore/internal/catalogue/domain"
	"github.com/shopspring/decimal"
)

type createProductRequest struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	ShortDescription string  `json:"short_description"`
	Price            string  `json:"price"`
	IsActive         *bool   `json:"is_active"`
	IsDiscountable   *bool   `json:"is_discountable"`
}

type updateProductRequest struct {
	Name             *string `json:"name,omitempty"`
	Description      *string `json:"description,omitempty"`
	ShortDescription *string `json:"short_description,omitempty"`
	Price            *string `json:"price,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
	IsDiscountable   *bool   `json:"is_discountable,omitempty"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectProduct, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}

	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		AbortWithError(c, newValidationError("price", "invalid_price", "invalid price"))
		return
	}

	resp, err := s.catalogueSvc.Create(c.Request.Context(), cataloguedomain.CreateProductRequest{
		Name:             strings.TrimSpace(req.Name),
		Description:      strings.TrimSpace(req.Description),
		ShortDescription: strings.TrimSpace(req.ShortDescription),
		Price:            price,
		IsActive:         req.IsActive,
		IsDiscountable:   req.IsDiscountable,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if user, ok := currentUser(c); ok {
		actorID := user.ID
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), &actorID, "product.create", "product", &targetID, map[string]any{
			"name":  resp.Name,
			"price": resp.Price.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProducts(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectProduct, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}

	var query struct {
		Name   string `form:"name"`
		Active string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalBool(query.Active)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.catalogueSvc.List(c.Request.Context(), cataloguedomain.ListProductsRequest{
		Name:   strings.TrimSpace(query.Name),
		Active: active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProductByID(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectProduct, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.catalogueSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectProduct, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var price *decimal.Decimal
	if req.Price != nil {
		parsed, err := decimal.NewFromString(strings.TrimSpace(*req.Price))
		if err != nil {
			AbortWithError(c, newValidationError("price", "invalid_price", "invalid price"))
			return
		}
		price = &parsed
	}

	resp, err := s.catalogueSvc.Update(c.Request.Context(), id, cataloguedomain.UpdateProductRequest{
		Name:             trimOptionalString(req.Name),
		Description:      trimOptionalString(req.Description),
		ShortDescription: trimOptionalString(req.ShortDescription),
		Price:            price,
		IsActive:         req.IsActive,
		IsDiscountable:   req.IsDiscountable,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if user, ok := currentUser(c); ok {
		actorID := user.ID
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), &actorID, "product.update", "product", &targetID, map[string]any{
			"name":      resp.Name,
			"price":     resp.Price.String(),
			"is_active": resp.IsActive,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCategories(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectProduct, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogueSvc.ListCategories(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func trimOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
