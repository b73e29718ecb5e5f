package api

import (
	"database/sql"
	"net/http"
	"time"

	chiware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/erazemk/lumiere/internal/auth"
	"github.com/erazemk/lumiere/internal/funnel"
	"github.com/erazemk/lumiere/internal/live"
	"github.com/erazemk/lumiere/internal/model"
	"github.com/erazemk/lumiere/internal/upload"
)

// Config carries everything the handlers need.
type Config struct {
	DB          *sql.DB
	JWTSecret   string
	PINs        *auth.PINSet
	Funnel      *funnel.Funnel
	Broker      *live.Broker
	Uploader    upload.Uploader
	Location    *time.Location
	AlertFor    time.Duration
	CORSOrigins []string

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter creates the API router with all endpoints registered and the
// shared middleware applied.
func NewRouter(cfg Config) http.Handler {
	if cfg.Funnel == nil {
		cfg.Funnel = funnel.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: cfg.DB, JWTSecret: cfg.JWTSecret, PINs: cfg.PINs}
	menuHandler := &MenuHandler{DB: cfg.DB, Broker: cfg.Broker}
	ordersHandler := &OrdersHandler{DB: cfg.DB, Broker: cfg.Broker, Funnel: cfg.Funnel}
	stationsHandler := &StationsHandler{Broker: cfg.Broker, Funnel: cfg.Funnel, Location: cfg.Location, AlertFor: cfg.AlertFor, Now: cfg.Now}
	uploadHandler := &UploadHandler{Uploader: cfg.Uploader}

	authMW := AuthMiddleware(cfg.JWTSecret, cfg.DB)
	staff := func(h http.HandlerFunc, roles ...model.Role) http.Handler {
		if len(roles) == 0 {
			return authMW(h)
		}
		return authMW(RequireRole(roles...)(h))
	}

	// Public: customer menu and ordering, station unlock.
	mux.HandleFunc("POST /api/auth/unlock", authHandler.Unlock)
	mux.HandleFunc("GET /api/menu", menuHandler.List)
	mux.HandleFunc("GET /api/stream/menu", menuHandler.Stream)
	mux.HandleFunc("POST /api/orders", ordersHandler.Create)
	mux.HandleFunc("GET /api/orders/{id}", ordersHandler.Get)

	// Any unlocked station.
	mux.Handle("POST /api/auth/lock", staff(authHandler.Lock))
	mux.Handle("GET /api/auth/me", staff(authHandler.Me))
	mux.Handle("GET /api/funnel", staff(ordersHandler.Rules))
	mux.Handle("POST /api/orders/{id}/advance", staff(ordersHandler.Advance))

	// Station views.
	mux.Handle("GET /api/orders", staff(ordersHandler.List, model.RoleCashier, model.RoleKitchen, model.RoleAnalytics))
	mux.Handle("GET /api/orders/{id}/history", staff(ordersHandler.History, model.RoleCashier, model.RoleKitchen, model.RoleAnalytics))
	mux.Handle("GET /api/kitchen", staff(stationsHandler.Kitchen, model.RoleKitchen))
	mux.Handle("GET /api/cashier", staff(stationsHandler.Cashier, model.RoleCashier))
	mux.Handle("GET /api/analytics", staff(stationsHandler.Analytics, model.RoleAnalytics))
	mux.Handle("GET /api/analytics/export.csv", staff(stationsHandler.Export, model.RoleAnalytics))
	mux.Handle("GET /api/stream/{station}", staff(stationsHandler.Stream))

	// Menu admin.
	mux.Handle("GET /api/admin/menu", staff(menuHandler.AdminList, model.RoleAdmin))
	mux.Handle("POST /api/admin/menu", staff(menuHandler.Create, model.RoleAdmin))
	mux.Handle("PUT /api/admin/menu/{id}", staff(menuHandler.Update, model.RoleAdmin))
	mux.Handle("PATCH /api/admin/menu/{id}", staff(menuHandler.Patch, model.RoleAdmin))
	mux.Handle("DELETE /api/admin/menu/{id}", staff(menuHandler.Delete, model.RoleAdmin))
	mux.Handle("POST /api/upload", staff(uploadHandler.Upload, model.RoleAdmin))

	corsMW := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
	})

	var handler http.Handler = mux
	handler = corsMW.Handler(handler)
	handler = chiware.Recoverer(handler)
	handler = LoggingMiddleware(handler)
	handler = chiware.RealIP(handler)
	handler = chiware.RequestID(handler)
	return handler
}
