package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"supachat-woocommerce-layer/internal/application"
	"supachat-woocommerce-layer/internal/domain"
	"supachat-woocommerce-layer/internal/infrastructure/metrics"
	"supachat-woocommerce-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler serves the admin REST API and the storefront widget endpoints.
type Handler struct {
	auth         *application.AuthService
	integrations *application.IntegrationService
	widgets      *application.WidgetService
	health       ports.ServiceHealth
	version      string
	storeURL     string
	logger       zerolog.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	auth *application.AuthService,
	integrations *application.IntegrationService,
	widgets *application.WidgetService,
	health ports.ServiceHealth,
	version, storeURL string,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		auth:         auth,
		integrations: integrations,
		widgets:      widgets,
		health:       health,
		version:      version,
		storeURL:     storeURL,
		logger:       logger,
	}
}

// Routes registers all endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Get("/session", h.session)
		r.Get("/chatbots", h.chatbots)
		r.Put("/chatbots/{chatbotID}/bubble", h.setBubble)
		r.Post("/integrations", h.provision)
		r.Get("/integrations/{chatbotID}", h.status)
		r.Delete("/integrations/{chatbotID}", h.deprovision)
		r.Post("/integrations/{chatbotID}/reconcile", h.reconcile)
		r.Get("/services/status", h.servicesStatus)
		r.Get("/environment", h.environment)
	})
	r.Get("/embed/{chatbotID}", h.embed)
	r.Get("/widget/bubble", h.bubbleScript)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	user, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"logged_in": true,
		"user":      user,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"logged_in": false})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	loggedIn, err := h.auth.IsLoggedIn(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := map[string]interface{}{"logged_in": loggedIn}
	if loggedIn {
		if user, err := h.auth.CurrentUser(r.Context()); err == nil {
			resp["user"] = user
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) chatbots(w http.ResponseWriter, r *http.Request) {
	chatbots, err := h.auth.Chatbots(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"chatbots": chatbots})
}

func (h *Handler) provision(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChatbotID string `json:"chatbot_id"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	result, err := h.integrations.Provision(r.Context(), body.ChatbotID, body.Name)
	if err != nil {
		metrics.ProvisionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		h.writeError(w, err)
		return
	}
	metrics.ProvisionsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) deprovision(w http.ResponseWriter, r *http.Request) {
	result, err := h.integrations.Deprovision(r.Context(), chi.URLParam(r, "chatbotID"))
	if err != nil {
		metrics.DeprovisionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		h.writeError(w, err)
		return
	}
	metrics.DeprovisionsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.integrations.Reconcile(r.Context(), chi.URLParam(r, "chatbotID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	metrics.ReconcilesTotal.Inc()
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	report, err := h.integrations.Status(r.Context(), chi.URLParam(r, "chatbotID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) setBubble(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}
	chatbotID := chi.URLParam(r, "chatbotID")
	if err := h.widgets.SetBubble(r.Context(), chatbotID, body.Enabled); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"chatbot_id": chatbotID,
		"enabled":    body.Enabled,
	})
}

func (h *Handler) servicesStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"user_service":    "ok",
		"chatbot_service": "ok",
	}
	if err := h.health.UserServiceHealth(r.Context()); err != nil {
		resp["user_service"] = err.Error()
	}
	if err := h.health.ChatbotServiceHealth(r.Context()); err != nil {
		resp["chatbot_service"] = err.Error()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) environment(w http.ResponseWriter, r *http.Request) {
	loggedIn, err := h.auth.IsLoggedIn(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":   h.version,
		"store_url": h.storeURL,
		"logged_in": loggedIn,
	})
}

func (h *Handler) embed(w http.ResponseWriter, r *http.Request) {
	markup, err := h.widgets.EmbedHTML(
		chi.URLParam(r, "chatbotID"),
		r.URL.Query().Get("width"),
		r.URL.Query().Get("height"),
	)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(markup))
}

func (h *Handler) bubbleScript(w http.ResponseWriter, r *http.Request) {
	script, err := h.widgets.BubbleScript(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if script == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(script))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps the domain failure classes onto HTTP statuses and renders
// the structured error body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrConnectivity):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRemoteRequest):
		status = http.StatusBadGateway
	}

	var integErr *domain.IntegrationError
	if !errors.As(err, &integErr) {
		integErr = &domain.IntegrationError{
			Code:    "INTERNAL_ERROR",
			Message: err.Error(),
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	h.writeJSON(w, status, map[string]interface{}{"error": integErr})
}
