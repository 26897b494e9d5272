package bootstrap

import (
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "github.com/stavlog/stavlog-backend/internal/api/http"
	"github.com/stavlog/stavlog-backend/internal/api/http/middleware"
	"github.com/stavlog/stavlog-backend/internal/auth"
	authmw "github.com/stavlog/stavlog-backend/internal/auth/middleware"
	"github.com/stavlog/stavlog-backend/internal/clients"
	"github.com/stavlog/stavlog-backend/internal/contractors"
	"github.com/stavlog/stavlog-backend/internal/invoices"
	"github.com/stavlog/stavlog-backend/internal/prefs"
	"github.com/stavlog/stavlog-backend/internal/pricelist"
	"github.com/stavlog/stavlog-backend/internal/projects"
	"github.com/stavlog/stavlog-backend/internal/remote"
	"github.com/stavlog/stavlog-backend/internal/rooms"
	"github.com/stavlog/stavlog-backend/internal/snapshot"
)

type RouterDeps struct {
	ServiceName string
	Version     string

	// Auth is nil in development; requests then fall back to the
	// X-User-Id header.
	Auth *firebaseauth.Client

	Store  *snapshot.Store
	Writer *remote.Client
	Photos projects.PhotoStorage
	Prefs  *prefs.Store

	// DB is the optional direct-Postgres pool, surfaced on the health
	// endpoint when the postgres sync backend is active.
	DB *pgxpool.Pool
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.Default())
	r.Use(middleware.RequestID())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Store)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	if dep.Auth != nil {
		api.Use(authmw.FirebaseAuthMiddleware(dep.Auth))
	} else {
		api.Use(auth.OptionalUser())
	}

	contractors.Register(api.Group("/contractors"),
		contractors.NewRepo(dep.Writer, dep.Store))
	clients.Register(api.Group("/clients"),
		clients.NewRepo(dep.Writer, dep.Store))
	projects.Register(api.Group("/projects"),
		projects.NewRepo(dep.Writer, dep.Photos, dep.Store))
	rooms.Register(api.Group("/rooms"),
		rooms.NewRepo(dep.Writer, dep.Store))
	invoices.Register(api.Group("/invoices"),
		invoices.NewRepo(dep.Writer, dep.Store))
	pricelist.Register(api.Group("/price-lists"),
		pricelist.NewRepo(dep.Writer, dep.Store))

	if dep.Prefs != nil {
		prefs.Register(api.Group("/prefs"), dep.Prefs, dep.Store)
	}

	return r
}
