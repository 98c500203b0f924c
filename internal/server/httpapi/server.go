// Package httpapi exposes the server's HTTP surface: auth, expense ingest,
// presigned receipt uploads, OCR extraction, admin NL analytics, and the
// public transparency read model.
package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/openfield/expensesync/internal/logging"
	"github.com/openfield/expensesync/internal/server/config"
	"github.com/openfield/expensesync/internal/server/llm"
	"github.com/openfield/expensesync/internal/server/ocr"
	"github.com/openfield/expensesync/internal/server/repositories/expenses"
	"github.com/openfield/expensesync/internal/server/repositories/users"
	"github.com/openfield/expensesync/internal/server/sqlgate"
)

// QueryExecutor abstracts the read-only analytics executor for testing.
type QueryExecutor interface {
	Execute(ctx context.Context, sanitized string) ([]map[string]any, error)
}

// Presigner abstracts the object-storage presign service for testing.
type Presigner interface {
	PresignReceiptPut(ctx context.Context, userID, projectID, contentType string) (string, string, error)
	PublicURL(key string) string
}

type Server struct {
	cfg       *config.Config
	log       logging.Logger
	users     users.Repository
	expenses  expenses.Repository
	storage   Presigner
	gate      *sqlgate.Gate
	executor  QueryExecutor
	generator llm.Generator
	extractor ocr.Extractor
}

func NewServer(
	cfg *config.Config,
	log logging.Logger,
	userRepo users.Repository,
	expenseRepo expenses.Repository,
	storage Presigner,
	gate *sqlgate.Gate,
	executor QueryExecutor,
	generator llm.Generator,
	extractor ocr.Extractor,
) *Server {
	return &Server{
		cfg:       cfg,
		log:       log,
		users:     userRepo,
		expenses:  expenseRepo,
		storage:   storage,
		gate:      gate,
		executor:  executor,
		generator: generator,
		extractor: extractor,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/register", s.registerHandler)
	api.POST("/login", s.loginHandler)
	api.GET("/ping", s.pingHandler)
	api.GET("/public/projects/:projectID/expenses", s.transparencyHandler)

	authGroup := api.Group("")
	authGroup.Use(s.authMiddleware())
	authGroup.POST("/uploads/presign", s.presignHandler)
	authGroup.POST("/expenses", s.createExpenseHandler)
	authGroup.GET("/expenses", s.listExpensesHandler)
	authGroup.POST("/ocr/extract", s.ocrHandler)
	authGroup.POST("/admin/query", s.adminQueryHandler)

	return r
}
