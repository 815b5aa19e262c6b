package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/auth"
	"github.com/KakraGeek/churchsuitegh/internal/config"
	"github.com/KakraGeek/churchsuitegh/internal/middleware"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth      *auth.AuthHandler
	APIKeys   *APIKeyHandler
	CheckIn   *CheckInHandler
	Codes     *CodeHandler
	Children  *ChildrenHandler
	Directory *DirectoryHandler
	Display   *DisplayHandler
	Limiter   *middleware.RateLimiter
}

const (
	validateLimit  = 60
	validateWindow = time.Minute
	loginLimit     = 20
)

func RegisterRoutes(r *chi.Mux, cfg *config.Config, logger *slog.Logger, h Handlers) huma.API {
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-KEY"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	apiConfig := huma.DefaultConfig("ChurchSuite Check-in API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, apiConfig)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Group(func(r chi.Router) {
		if h.Limiter != nil {
			r.Use(middleware.RateLimit(h.Limiter, middleware.ClientIP, loginLimit, time.Minute))
		}
		r.Get("/auth/discord/login", h.Auth.HandleLogin)
		r.Get("/auth/discord/callback", h.Auth.HandleCallback)
	})

	r.Get("/display/ws", h.Display.HandleDisplaySocket())
	r.With(h.Auth.AuthMiddleware).Get("/kiosk/ws", h.Display.HandleKioskSocket())

	RegisterAPI(api, h)
	return api
}

// RegisterAPI adds the JSON operations. Tests call it on a humatest API.
func RegisterAPI(api huma.API, h Handlers) {
	secured := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKeyAuth": {}}}
	}
	securedCreate := func(o *huma.Operation) {
		secured(o)
		created(o)
	}

	huma.Get(api, "/me", h.Auth.HandleMe, secured)

	huma.Post(api, "/api-keys", h.APIKeys.HandleCreate, securedCreate)
	huma.Get(api, "/api-keys", h.APIKeys.HandleList, secured)
	huma.Delete(api, "/api-keys/{id}", h.APIKeys.HandleDelete, secured)

	huma.Post(api, "/qr-codes", h.Codes.HandleCreate, securedCreate)
	huma.Get(api, "/qr-codes", h.Codes.HandleList, secured)
	huma.Patch(api, "/qr-codes/{code}", h.Codes.HandleSetActive, secured)
	huma.Get(api, "/qr-codes/{code}/validate", h.CheckIn.HandleValidate, func(o *huma.Operation) {
		if h.Limiter != nil {
			o.Middlewares = huma.Middlewares{rateLimited(api, h.Limiter, validateLimit, validateWindow)}
		}
	})

	huma.Post(api, "/attendance/check-in", h.CheckIn.HandleCheckIn, securedCreate)
	huma.Post(api, "/attendance/manual", h.CheckIn.HandleManual, securedCreate)
	huma.Get(api, "/attendance", h.CheckIn.HandleList, secured)

	huma.Post(api, "/children/check-ins", h.Children.HandleCheckIn, securedCreate)
	huma.Post(api, "/children/check-ins/{id}/check-out", h.Children.HandleCheckOut, secured)
	huma.Get(api, "/children/check-ins/open", h.Children.HandleOpen, secured)

	huma.Post(api, "/members", h.Directory.HandleCreateMember, securedCreate)
	huma.Get(api, "/members/{id}", h.Directory.HandleGetMember, secured)
	huma.Get(api, "/members/{id}/notifications", h.Directory.HandleNotifications, secured)
	huma.Post(api, "/children", h.Directory.HandleCreateChild, securedCreate)
	huma.Get(api, "/children/{id}", h.Directory.HandleGetChild, secured)
	huma.Post(api, "/events", h.Directory.HandleCreateEvent, securedCreate)

	huma.Get(api, "/display", h.Display.HandleGet)
	huma.Post(api, "/display/refresh", h.Display.HandleRefresh, func(o *huma.Operation) {
		o.DefaultStatus = http.StatusAccepted
	})
}

// rateLimited is the huma flavour of middleware.RateLimit, keyed by client address.
func rateLimited(api huma.API, limiter *middleware.RateLimiter, limit int, window time.Duration) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !limiter.Allow(middleware.HostOf(ctx.RemoteAddr()), limit, window) {
			huma.WriteErr(api, ctx, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next(ctx)
	}
}
