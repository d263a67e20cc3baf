package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sprintdeck/sprintdeck/internal/auth/service"
	"github.com/sprintdeck/sprintdeck/internal/auth/store"
	"github.com/sprintdeck/sprintdeck/pkg/httpx"
	"github.com/sprintdeck/sprintdeck/pkg/jwtx"
	"github.com/sprintdeck/sprintdeck/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	Sessions *service.SessionService
	Invites  *service.InviteService
	Authz    *service.AuthzService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerAccount()
	r.registerProjects()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	// POST /register and /login - strict rate limit by IP (credential
	// creation and authentication attempts)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(&RegisterHandler{Sessions: r.Sessions},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{Sessions: r.Sessions},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - moderate rate limit by IP (the token itself is the
	// credential, no authn middleware)
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{Sessions: r.Sessions},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - authenticated, lenient by user
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{Sessions: r.Sessions},
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAccount() {
	password := &PasswordHandler{Sessions: r.Sessions}
	verify := &VerifyHandler{Sessions: r.Sessions}

	// POST /change-password - authenticated, strict by user (carries the
	// old password, treat like a login attempt)
	r.Mux.Handle("POST /v1/auth/change-password",
		httpx.Chain(http.HandlerFunc(password.HandleChange),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// POST /forgot-password - strict by IP (public, triggers email)
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(password.HandleForgot),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /reset-password/{token} - strict by IP (public, consumes token)
	r.Mux.Handle("POST /v1/auth/reset-password/{token}",
		httpx.Chain(http.HandlerFunc(password.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /verify-email/{token} - moderate by IP (public, consumes token)
	r.Mux.Handle("POST /v1/auth/verify-email/{token}",
		httpx.Chain(http.HandlerFunc(verify.HandleVerify),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /resend-verification - authenticated, strict by user
	// (triggers email)
	r.Mux.Handle("POST /v1/auth/resend-verification",
		httpx.Chain(http.HandlerFunc(verify.HandleResend),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerProjects() {
	mint := &InviteMintHandler{Invites: r.Invites, Authz: r.Authz}
	accept := &InviteAcceptHandler{Invites: r.Invites}
	members := &MembershipsHandler{Authz: r.Authz}

	// POST /projects/{projectID}/invitations - authenticated, role gate
	// inside the handler, moderate by user
	r.Mux.Handle("POST /v1/projects/{projectID}/invitations",
		httpx.Chain(mint,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /invitations/{token}/accept - authenticated, moderate by user
	r.Mux.Handle("POST /v1/invitations/{token}/accept",
		httpx.Chain(accept,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /projects/{projectID}/members - authenticated, lenient by user
	r.Mux.Handle("GET /v1/projects/{projectID}/members",
		httpx.Chain(http.HandlerFunc(members.HandleList),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient, monitoring systems poll these
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
