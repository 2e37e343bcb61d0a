package http

import (
	"net/http"

	"github.com/praveen-kumars/pillremander-sub001/internal/delivery/http/handler"
	"github.com/praveen-kumars/pillremander-sub001/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router            *mux.Router
	authHandler       *handler.AuthHandler
	profileHandler    *handler.ProfileHandler
	onboardingHandler *handler.OnboardingHandler
	sessionMiddleware *middleware.SessionMiddleware
	corsMiddleware    *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	onboardingHandler *handler.OnboardingHandler,
	sessionMiddleware *middleware.SessionMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		authHandler:       authHandler,
		profileHandler:    profileHandler,
		onboardingHandler: onboardingHandler,
		sessionMiddleware: sessionMiddleware,
		corsMiddleware:    corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", r.authHandler.SignUp).Methods(http.MethodPost)
	auth.HandleFunc("/signin", r.authHandler.SignIn).Methods(http.MethodPost)
	auth.HandleFunc("/signout", r.authHandler.SignOut).Methods(http.MethodPost)
	auth.HandleFunc("/session", r.authHandler.GetSession).Methods(http.MethodGet)

	// Profile routes. Reads stay available without a session so the local
	// tier keeps serving when the backend is down; writes that target the
	// account require one.
	api.HandleFunc("/profile", r.profileHandler.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile", r.profileHandler.SaveProfile).Methods(http.MethodPut)
	api.HandleFunc("/preferences", r.profileHandler.GetPreference).Methods(http.MethodGet)
	api.HandleFunc("/preferences", r.profileHandler.SetPreference).Methods(http.MethodPut)

	// Session-gated routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.sessionMiddleware.RequireSession)
	protected.HandleFunc("/onboarding/status", r.onboardingHandler.GetStatus).Methods(http.MethodGet)
	protected.HandleFunc("/onboarding/complete", r.onboardingHandler.Complete).Methods(http.MethodPost)
	protected.HandleFunc("/account", r.profileHandler.DeleteAccount).Methods(http.MethodDelete)

	// Apply CORS to everything
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
