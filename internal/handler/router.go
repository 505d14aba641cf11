package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"creditdash/internal/db"
	"creditdash/internal/service"
	"creditdash/internal/session"
)

type Deps struct {
	DB             *db.DB
	Dashboard      *service.DashboardService
	Filters        *service.FilterResolver
	Chat           *service.ChatService
	Sessions       *session.Manager
	Tokens         session.Tokens
	Logger         *zap.Logger
	OriginPatterns []string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(d.Logger))
	engine.Use(CORS())

	auth := (&SessionAuth{Tokens: d.Tokens, Sessions: d.Sessions}).Middleware()

	(&HealthHandler{DB: d.DB}).Register(engine)
	RegisterDocs(engine)
	(&SessionHandler{Tokens: d.Tokens, Sessions: d.Sessions, Auth: auth, Logger: d.Logger}).Register(engine)
	(&DashboardHandler{Service: d.Dashboard, Sessions: d.Sessions, Auth: auth}).Register(engine)
	(&FilterHandler{Resolver: d.Filters, Auth: auth}).Register(engine)
	(&ChatHandler{
		Chat:           d.Chat,
		Sessions:       d.Sessions,
		Auth:           auth,
		Logger:         d.Logger,
		OriginPatterns: d.OriginPatterns,
	}).Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return engine
}
