package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/monitoring"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/utils"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/auth"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/middleware"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/services"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/subscription"
	authutils "github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/utils"
	"github.com/go-chi/chi/v5"
)

const maxRequestBodyBytes = 1 << 20

// Gumroad form field names
const (
	formFieldEmail          = "email"
	formFieldFullName       = "full_name"
	formFieldSubscriptionID = "subscription_id"
	formFieldCancelledAt    = "subscription_cancelled_at"
)

// Handler serves the membership HTTP API
type Handler struct {
	authService        *services.AuthService
	webhookService     *services.WebhookService
	entitlementService *services.EntitlementService
	members            *services.MemberRepository
	tokens             *auth.TokenIssuer
}

// NewHandler creates a new handler
func NewHandler(
	authService *services.AuthService,
	webhookService *services.WebhookService,
	entitlementService *services.EntitlementService,
	members *services.MemberRepository,
	tokens *auth.TokenIssuer,
) *Handler {
	return &Handler{
		authService:        authService,
		webhookService:     webhookService,
		entitlementService: entitlementService,
		members:            members,
		tokens:             tokens,
	}
}

// SetupRoutes mounts every route on r
func (h *Handler) SetupRoutes(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Handle("/metrics", monitoring.Handler())

	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.With(middleware.JWTAuth(h.tokens)).Get("/me", h.handleMe)

	r.Post("/webhook/gumroad", h.handleGumroadWebhook)
	r.Get("/validate-user", h.handleValidateUser)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithSuccess(w, http.StatusOK, map[string]string{"status": "membership service running"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.members.Ping(r.Context()); err != nil {
		slog.Error("Database health check failed", "error", err)
		utils.RespondWithJSON(w, http.StatusServiceUnavailable, models.HealthResponse{
			Database: "error",
			Details:  err.Error(),
		})
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.HealthResponse{Database: "connected"})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var req models.RegisterRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case models.IsValidationError(err):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrDuplicateEmail):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "failed to register member")
		}
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, token)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var req models.LoginRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		switch {
		case models.IsValidationError(err):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrInvalidCredentials):
			utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "failed to log in")
		}
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, token)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	authenticated, err := authutils.GetAuthenticatedMember(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, models.ErrInvalidToken.Error())
		return
	}

	member, err := h.authService.CurrentMember(r.Context(), authenticated.Email)
	if err != nil {
		if errors.Is(err, models.ErrMemberNotFound) {
			utils.RespondWithError(w, http.StatusUnauthorized, models.ErrInvalidToken.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to load member")
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, models.MeResponse{
		Email:       member.Email,
		AccountType: member.AccountType,
	})
}

// handleGumroadWebhook answers 200 for every event it could read, so the provider does not
// retry rejected input. Only store failures surface as 500.
func (h *Handler) handleGumroadWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	if err := parseForm(r); err != nil {
		slog.Warn("Failed to parse webhook form", "error", err)
		utils.RespondWithError(w, http.StatusOK, "invalid form body")
		return
	}

	event := subscription.NewEvent(
		r.FormValue(formFieldEmail),
		r.FormValue(formFieldFullName),
		r.FormValue(formFieldSubscriptionID),
		r.FormValue(formFieldCancelledAt),
	)
	if event.Email == "" {
		slog.Warn("Webhook received without email")
		utils.RespondWithError(w, http.StatusOK, "email missing")
		return
	}

	if _, err := h.webhookService.ProcessEvent(r.Context(), event); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to process webhook")
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, models.WebhookResponse{Status: "webhook processed"})
}

func (h *Handler) handleValidateUser(w http.ResponseWriter, r *http.Request) {
	resp, err := h.entitlementService.ValidateUser(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to validate user")
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, resp)
}

// parseForm accepts urlencoded and multipart bodies
func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(maxRequestBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}
