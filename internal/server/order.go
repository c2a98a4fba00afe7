package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/perkhub/perkstore/internal/authorization"
	orderdomain "github.com/perkhub/perkstore/internal/order/domain"
	"github.com/perkhub/perkstore/pkg/db/pagination"
)

type checkoutLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type checkoutRequest struct {
	GuestEmail *string        `json:"guest_email,omitempty"`
	Lines      []checkoutLine `json:"lines"`
}

// Checkout places an order funded entirely from the caller's credit.
func (s *Server) Checkout(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectOrder, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	user, _ := currentUser(c)

	if !s.checkoutLimiter.Allow(user.ID) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Lines) == 0 {
		AbortWithError(c, newValidationError("lines", "required", "lines is required"))
		return
	}

	lines := make([]orderdomain.PlaceOrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		productID, err := parseID(line.ProductID)
		if err != nil {
			AbortWithError(c, newValidationError("product_id", "invalid_product_id", "invalid product id"))
			return
		}
		lines = append(lines, orderdomain.PlaceOrderLine{
			ProductID: productID,
			Quantity:  line.Quantity,
		})
	}

	resp, err := s.orderSvc.Place(c.Request.Context(), orderdomain.PlaceOrderRequest{
		UserID:     user.ID,
		GuestEmail: req.GuestEmail,
		Lines:      lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actorID := user.ID
	targetID := resp.ID.String()
	_ = s.auditSvc.AuditLog(c.Request.Context(), &actorID, "order.place", "order", &targetID, map[string]any{
		"order_number":   resp.Number,
		"total_incl_tax": resp.TotalInclTax.String(),
		"line_count":     len(resp.Lines),
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetOrder(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectOrder, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	user, _ := currentUser(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.orderSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if resp.UserID != user.ID && !user.IsSuperuser {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectOrder, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	user, _ := currentUser(c)

	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := orderdomain.ListOrdersRequest{
		UserID:    user.ID,
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	}
	if user.IsSuperuser {
		if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
			userID, err := parseID(raw)
			if err != nil {
				AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user id"))
				return
			}
			req.UserID = userID
		} else {
			req.UserID = 0
		}
	}

	resp, err := s.orderSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateOrderStatus(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectOrder, authorization.ActionUpdateStatus); err != nil {
		AbortWithError(c, err)
		return
	}
	user, _ := currentUser(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := orderdomain.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	resp, err := s.orderSvc.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actorID := user.ID
	targetID := resp.ID.String()
	_ = s.auditSvc.AuditLog(c.Request.Context(), &actorID, "order.update_status", "order", &targetID, map[string]any{
		"status": string(resp.Status),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
