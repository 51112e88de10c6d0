package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"supachat-woocommerce-layer/internal/application"
	"supachat-woocommerce-layer/internal/domain"
	"supachat-woocommerce-layer/internal/infrastructure/repository"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCredentialStore hands out sequential credentials.
type stubCredentialStore struct {
	nextID int64
	creds  map[int64]*domain.Credential
}

func (s *stubCredentialStore) Create(ctx context.Context, userID int64, description string, permissions domain.Permission) (*domain.Credential, error) {
	s.nextID++
	cred := &domain.Credential{
		ID:             s.nextID,
		UserID:         userID,
		Description:    description,
		Permissions:    permissions,
		ConsumerKey:    "ck_stub",
		ConsumerSecret: "cs_stub",
		TruncatedKey:   "stub007",
		CreatedAt:      time.Now(),
	}
	s.creds[cred.ID] = cred
	return cred, nil
}

func (s *stubCredentialStore) Get(ctx context.Context, id int64) (*domain.Credential, error) {
	return s.creds[id], nil
}

func (s *stubCredentialStore) Delete(ctx context.Context, id int64) error {
	delete(s.creds, id)
	return nil
}

func (s *stubCredentialStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Credential, error) {
	return nil, nil
}

func (s *stubCredentialStore) FindByDescription(ctx context.Context, fragment string) ([]*domain.Credential, error) {
	var out []*domain.Credential
	for _, cred := range s.creds {
		if strings.Contains(cred.Description, fragment) {
			out = append(out, cred)
		}
	}
	return out, nil
}

// stubChatbotClient serves a fixed chatbot list and accepts MCP servers.
type stubChatbotClient struct {
	servers map[string][]domain.MCPServer
}

func (s *stubChatbotClient) ListChatbots(ctx context.Context) ([]domain.Chatbot, error) {
	return []domain.Chatbot{{ID: "bot-1", Name: "Support"}}, nil
}

func (s *stubChatbotClient) CreateMCPServer(ctx context.Context, chatbotID string, req domain.MCPServerRequest) (*domain.MCPServer, error) {
	server := domain.MCPServer{
		ID:           "mcp-1",
		ChatbotID:    chatbotID,
		Name:         req.Name,
		MCPServerURL: "https://mcp.test/" + chatbotID,
		ToolsCount:   8,
	}
	s.servers[chatbotID] = append(s.servers[chatbotID], server)
	return &server, nil
}

func (s *stubChatbotClient) GetMCPServer(ctx context.Context, chatbotID, serverID string) (*domain.MCPServer, error) {
	return nil, domain.NewRemoteError("chatbot service", 404, "not found")
}

func (s *stubChatbotClient) ListMCPServers(ctx context.Context, chatbotID string) ([]domain.MCPServer, error) {
	return s.servers[chatbotID], nil
}

func (s *stubChatbotClient) DeleteMCPServer(ctx context.Context, chatbotID, serverID string) error {
	kept := s.servers[chatbotID][:0]
	for _, server := range s.servers[chatbotID] {
		if server.ID != serverID {
			kept = append(kept, server)
		}
	}
	s.servers[chatbotID] = kept
	return nil
}

// stubUserClient accepts any login.
type stubUserClient struct{}

func (stubUserClient) Login(ctx context.Context, email, password string) (*domain.AuthTokens, error) {
	return &domain.AuthTokens{Token: "tok-1", RefreshToken: "ref-1"}, nil
}

func (stubUserClient) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return &domain.User{ID: userID, Email: "owner@store.test", Name: "Owner"}, nil
}

func (stubUserClient) UserIDFromToken(token string) (string, error) {
	return "user-1", nil
}

// stubHealth reports both services healthy.
type stubHealth struct{}

func (stubHealth) UserServiceHealth(ctx context.Context) error    { return nil }
func (stubHealth) ChatbotServiceHealth(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	store := repository.NewMemoryOptionStore()
	ledger := repository.NewOptionLedger(store)
	bubbles := repository.NewOptionBubbleSettings(store)
	sessions := repository.NewOptionSessionStore(store)
	creds := &stubCredentialStore{creds: make(map[int64]*domain.Credential)}
	chatbots := &stubChatbotClient{servers: make(map[string][]domain.MCPServer)}

	logger := zerolog.Nop()
	integrations := application.NewIntegrationService(ledger, creds, chatbots, bubbles, "https://store.test", 1, logger)
	auth := application.NewAuthService(stubUserClient{}, chatbots, sessions, integrations, logger)
	widgets := application.NewWidgetService(bubbles, ledger, "https://widget.test", logger)

	handler := NewHandler(auth, integrations, widgets, stubHealth{}, "1.0.0", "https://store.test", logger)
	router := chi.NewRouter()
	handler.Routes(router)
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProvisionEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/integrations", `{"chatbot_id":"bot-1","name":"Support"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result domain.ProvisionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "bot-1", result.Record.ChatbotID)
	assert.Equal(t, "mcp-1", result.Record.MCPServerID)
	assert.Equal(t, 8, result.ToolsCount)

	// Second provision for the same chatbot is a conflict.
	rec = doRequest(t, router, http.MethodPost, "/api/integrations", `{"chatbot_id":"bot-1","name":"Support"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProvisionEndpointValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/integrations", `{"name":"Support"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/integrations", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeprovisionEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/integrations", `{"chatbot_id":"bot-1","name":"Support"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, "/api/integrations/bot-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/integrations/bot-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.StatusReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.IsIntegrated)
	assert.False(t, report.LocalExists)
}

func TestSessionEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"logged_in":false`)

	rec = doRequest(t, router, http.MethodPost, "/api/login", `{"email":"owner@store.test","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"logged_in":true`)

	rec = doRequest(t, router, http.MethodPost, "/api/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/session", "")
	assert.Contains(t, rec.Body.String(), `"logged_in":false`)
}

func TestChatbotsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/integrations", `{"chatbot_id":"bot-1","name":"Support"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/chatbots", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Chatbots []domain.ChatbotWithStatus `json:"chatbots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Chatbots, 1)
	assert.True(t, body.Chatbots[0].IntegrationStatus.IsIntegrated)
}

func TestBubbleEndpoints(t *testing.T) {
	router := newTestRouter(t)

	// No active bubble yet.
	rec := doRequest(t, router, http.MethodGet, "/widget/bubble", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/integrations", `{"chatbot_id":"bot-1","name":"Support"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/api/chatbots/bot-1/bubble", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/widget/bubble", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-chatbot-id="bot-1"`)
}

func TestEmbedEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/embed/bot-1?width=400px", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `src="https://widget.test/embed/bot-1"`)
	assert.Contains(t, rec.Body.String(), `width="400px"`)
}

func TestServicesStatusEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/services/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_service":"ok"`)
	assert.Contains(t, rec.Body.String(), `"chatbot_service":"ok"`)
}

func TestEnvironmentEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/environment", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.0.0"`)
	assert.Contains(t, rec.Body.String(), `"store_url":"https://store.test"`)
}
