package httpapi

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/openfield/expensesync/internal/common"
	"github.com/openfield/expensesync/internal/server/auth"
	"github.com/openfield/expensesync/internal/server/models"
	"github.com/openfield/expensesync/internal/server/ocr"
	"github.com/openfield/expensesync/internal/server/sqlgate"
)

var currencyRe = regexp.MustCompile(`^[A-Za-z]{3}$`)

func (s *Server) registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	user, err := s.users.Create(c.Request.Context(), &models.User{Username: req.Username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
			return
		}
		s.log.Error(c.Request.Context(), "create user failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID})
}

func (s *Server) loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.IsAdmin, []byte(s.cfg.SecretKey), s.cfg.TokenValidity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) pingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) presignHandler(c *gin.Context) {
	var req struct {
		ProjectID   string `json:"project_id" binding:"required"`
		ContentType string `json:"content_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	key, url, err := s.storage.PresignReceiptPut(c.Request.Context(), userIDFromContext(c), req.ProjectID, req.ContentType)
	if err != nil {
		s.log.Error(c.Request.Context(), "presign failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presign failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "url": url, "public_url": s.storage.PublicURL(key)})
}

func (s *Server) createExpenseHandler(c *gin.Context) {
	var req struct {
		ProjectID   string `json:"project_id" binding:"required"`
		Amount      string `json:"amount" binding:"required"`
		Currency    string `json:"currency"`
		VendorName  string `json:"vendor_name"`
		Category    string `json:"category"`
		ExpenseDate string `json:"expense_date"`
		ReceiptKey  string `json:"receipt_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive decimal"})
		return
	}

	currency := s.cfg.DefaultCurrency
	if req.Currency != "" {
		if !currencyRe.MatchString(req.Currency) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "currency must be a 3-letter code"})
			return
		}
		currency = strings.ToUpper(req.Currency)
	}

	expenseDate := req.ExpenseDate
	if expenseDate == "" {
		expenseDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", expenseDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expense_date must be YYYY-MM-DD"})
		return
	}

	expense := &models.Expense{
		ID:          uuid.NewString(),
		UserID:      userIDFromContext(c),
		ProjectID:   req.ProjectID,
		Amount:      amount,
		Currency:    currency,
		VendorName:  req.VendorName,
		Category:    models.CoerceCategory(req.Category),
		ExpenseDate: expenseDate,
		ReceiptKey:  req.ReceiptKey,
		ReceiptURL:  s.storage.PublicURL(req.ReceiptKey),
	}

	if err := s.expenses.Create(c.Request.Context(), expense); err != nil {
		s.log.Error(c.Request.Context(), "create expense failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": expense.ID, "receipt_url": expense.ReceiptURL})
}

func (s *Server) listExpensesHandler(c *gin.Context) {
	var (
		items []*models.Expense
		err   error
	)
	if isAdminFromContext(c) {
		items, err = s.expenses.ListAll(c.Request.Context())
	} else {
		items, err = s.expenses.ListByUser(c.Request.Context(), userIDFromContext(c))
	}
	if err != nil {
		s.log.Error(c.Request.Context(), "list expenses failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenseViews(items)})
}

// transparencyHandler serves the public, unauthenticated read model for one
// project, ordered by expense date ascending.
func (s *Server) transparencyHandler(c *gin.Context) {
	projectID := c.Param("projectID")

	items, err := s.expenses.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		s.log.Error(c.Request.Context(), "transparency list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	views := make([]gin.H, 0, len(items))
	for _, e := range items {
		views = append(views, gin.H{
			"amount":            e.Amount,
			"currency":          e.Currency,
			"vendor_name":       e.VendorName,
			"category":          e.Category,
			"expense_date":      e.ExpenseDate,
			"receipt_image_url": e.ReceiptURL,
		})
	}

	c.JSON(http.StatusOK, gin.H{"project_id": projectID, "expenses": views})
}

func (s *Server) ocrHandler(c *gin.Context) {
	var req struct {
		ImageBase64 string `json:"imageBase64" binding:"required"`
		MimeType    string `json:"mimeType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := s.extractor.Extract(c.Request.Context(), req.ImageBase64, req.MimeType)
	if err != nil {
		s.log.Error(c.Request.Context(), "ocr extraction failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "extraction failed"})
		return
	}

	c.JSON(http.StatusOK, ocr.Normalize(raw))
}

// adminQueryHandler runs the NL→SQL analytics pipeline: generate, validate
// through the safety gate, execute read-only. Gate rejections surface
// verbatim; execution failures stay generic.
func (s *Server) adminQueryHandler(c *gin.Context) {
	if !isAdminFromContext(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}

	var req struct {
		Question string `json:"question" binding:"required,min=3,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidate, err := s.generator.GenerateSQL(c.Request.Context(), req.Question)
	if err != nil {
		s.log.Error(c.Request.Context(), "sql generation failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "query generation failed"})
		return
	}

	sanitized, err := s.gate.Validate(candidate)
	if err != nil {
		var rej *sqlgate.RejectionError
		if errors.As(err, &rej) {
			c.JSON(http.StatusBadRequest, gin.H{"error": rej.Reason})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "query validation failed"})
		return
	}

	rows, err := s.executor.Execute(c.Request.Context(), sanitized)
	if err != nil {
		s.log.Error(c.Request.Context(), "query execution failed", "sql", sanitized, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "query execution failed"})
		return
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	c.JSON(http.StatusOK, gin.H{"sql": sanitized, "rows": rows})
}

type expenseView struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	VendorName  string          `json:"vendor_name"`
	Category    string          `json:"category"`
	ExpenseDate string          `json:"expense_date"`
	ReceiptURL  string          `json:"receipt_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

func expenseViews(items []*models.Expense) []expenseView {
	views := make([]expenseView, 0, len(items))
	for _, e := range items {
		views = append(views, expenseView{
			ID:          e.ID,
			ProjectID:   e.ProjectID,
			Amount:      e.Amount,
			Currency:    e.Currency,
			VendorName:  e.VendorName,
			Category:    e.Category,
			ExpenseDate: e.ExpenseDate,
			ReceiptURL:  e.ReceiptURL,
			CreatedAt:   e.CreatedAt,
		})
	}
	return views
}
