package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sentinelhq/gatekeep/internal/auth/registry"
	"github.com/sentinelhq/gatekeep/internal/auth/service"
	"github.com/sentinelhq/gatekeep/internal/auth/store"
	"github.com/sentinelhq/gatekeep/pkg/httpx"
	"github.com/sentinelhq/gatekeep/pkg/jwtx"
	"github.com/sentinelhq/gatekeep/pkg/slogx"

	_ "github.com/sentinelhq/gatekeep/api" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	accessVerifier jwtx.Verifier
	buildVersion   string
	startTime      time.Time
	logger         *slog.Logger
	secureCookies  bool

	store    store.Store
	registry registry.Registry

	TokenService *service.TokenService
	UserService  *service.UserService
}

func NewRouter(
	accessVerifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	reg registry.Registry,
	secureCookies bool,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:            http.NewServeMux(),
		accessVerifier: accessVerifier,
		buildVersion:   buildVersion,
		startTime:      time.Now(),
		store:          st,
		registry:       reg,
		secureCookies:  secureCookies,
		logger:         logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (rt *Router) ApplyRoutes() {
	rt.registerAuth()
	rt.registerIdentity()
	rt.registerSystem()

	rt.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Gatekeep Authentication Service API
//	@version		0.1.0
//	@description	Two-token authentication service: short-lived JWT access tokens
//	@description	plus long-lived one-time-use refresh tokens with rotation and a
//	@description	server-side revocation registry.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (rt *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(rt.Mux, rt.middlewares...).ServeHTTP(w, req)
}

func (rt *Router) registerAuth() {
	// POST /login - strict rate limit by IP (credential guessing surface)
	loginHandler := &LoginHandler{Router: rt}
	rt.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - moderate rate limit; rotation makes replay useless
	// but a stolen cookie can still be probed.
	refreshHandler := &RefreshHandler{Router: rt}
	rt.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - moderate rate limit, no authentication: the refresh
	// token itself is the credential being surrendered.
	logoutHandler := &LogoutHandler{Router: rt}
	rt.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout-all - bearer-authenticated, revokes the caller's whole
	// session fleet.
	logoutAllHandler := &LogoutAllHandler{Router: rt}
	rt.Mux.Handle("POST /v1/auth/logout-all",
		httpx.Chain(logoutAllHandler,
			httpx.AuthnMiddleware(rt.accessVerifier),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)
}

func (rt *Router) registerIdentity() {
	// GET /whoami - bearer-authenticated echo of the verified claims
	whoami := &WhoamiHandler{}
	rt.Mux.Handle("GET /v1/whoami",
		httpx.Chain(whoami,
			httpx.AuthnMiddleware(rt.accessVerifier),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)

	// GET /admin - bearer + admin role
	admin := &AdminHandler{}
	rt.Mux.Handle("GET /v1/admin",
		httpx.Chain(admin,
			httpx.AuthnMiddleware(rt.accessVerifier),
			httpx.RequireRole("admin"),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
}

func (rt *Router) registerSystem() {
	rt.Mux.Handle("GET /livez", LivezHandler(rt.buildVersion, rt.startTime))
	rt.Mux.Handle("GET /readyz", ReadyzHandler(rt.store, rt.registry))
}
