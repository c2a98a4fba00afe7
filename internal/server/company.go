package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perkhub/perkstore/internal/authorization"
	companydomain "github.com/perkhub/perkstore/internal/company/domain"
	"github.com/shopspring/decimal"
)

type createCompanyRequest struct {
	Name string `json:"name"`
}

func (s *Server) CreateCompany(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectCompany, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}

	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.companySvc.CreateCompany(c.Request.Context(), companydomain.CreateCompanyRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if user, ok := currentUser(c); ok {
		actorID := user.ID
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), &actorID, "company.create", "company", &targetID, map[string]any{
			"name": resp.Name,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type productLimitRequest struct {
	ProductID     string `json:"product_id"`
	Amount        string `json:"amount"`
	AbsoluteLimit bool   `json:"absolute_limit"`
}

type createProjectRequest struct {
	CompanyID     string                `json:"company_id"`
	Name          string                `json:"name"`
	Code          string                `json:"code"`
	Description   string                `json:"description"`
	Priority      int                   `json:"priority"`
	StartDate     *time.Time            `json:"start_date,omitempty"`
	EndDate       *time.Time            `json:"end_date,omitempty"`
	ProductLimits []productLimitRequest `json:"product_limits"`
}

func (s *Server) CreateProject(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectProject, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	companyID, err := parseID(req.CompanyID)
	if err != nil {
		AbortWithError(c, newValidationError("company_id", "invalid_company_id", "invalid company id"))
		return
	}

	limits := make([]companydomain.ProductLimitRequest, 0, len(req.ProductLimits))
	for _, limit := range req.ProductLimits {
		productID, err := parseID(limit.ProductID)
		if err != nil {
			AbortWithError(c, newValidationError("product_id", "invalid_product_id", "invalid product id"))
			return
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(limit.Amount))
		if err != nil {
			AbortWithError(c, newValidationError("amount", "invalid_amount", "invalid amount"))
			return
		}
		limits = append(limits, companydomain.ProductLimitRequest{
			ProductID:     productID,
			Amount:        amount,
			AbsoluteLimit: limit.AbsoluteLimit,
		})
	}

	resp, err := s.companySvc.CreateProject(c.Request.Context(), companydomain.CreateProjectRequest{
		CompanyID:     companyID,
		Name:          strings.TrimSpace(req.Name),
		Code:          strings.TrimSpace(req.Code),
		Description:   strings.TrimSpace(req.Description),
		Priority:      req.Priority,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		ProductLimits: limits,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if user, ok := currentUser(c); ok {
		actorID := user.ID
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), &actorID, "project.create", "project", &targetID, map[string]any{
			"code":        resp.Code,
			"company_id":  resp.CompanyID.String(),
			"limit_count": len(limits),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type grantCreditRequest struct {
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id"`
	Amount    string `json:"amount"`
}

func (s *Server) GrantCredit(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectCredit, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}

	var req grantCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := parseID(req.UserID)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user id"))
		return
	}
	projectID, err := parseID(req.ProjectID)
	if err != nil {
		AbortWithError(c, newValidationError("project_id", "invalid_project_id", "invalid project id"))
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "invalid amount"))
		return
	}

	resp, err := s.companySvc.GrantCredit(c.Request.Context(), companydomain.GrantCreditRequest{
		UserID:    userID,
		ProjectID: projectID,
		Amount:    amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if user, ok := currentUser(c); ok {
		actorID := user.ID
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), &actorID, "credit.grant", "credit", &targetID, map[string]any{
			"user_id":    userID.String(),
			"project_id": projectID.String(),
			"amount":     amount.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ListMyCredits returns the caller's remaining per-project balances.
func (s *Server) ListMyCredits(c *gin.Context) {
	if err := s.authorizeAction(c, authorization.ObjectCredit, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	user, _ := currentUser(c)

	subjectID := user.ID
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" && user.IsSuperuser {
		parsed, err := parseID(raw)
		if err != nil {
			AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user id"))
			return
		}
		subjectID = parsed
	}

	resp, err := s.companySvc.ListCredits(c.Request.Context(), subjectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
