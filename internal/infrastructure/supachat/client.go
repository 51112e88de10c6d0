package supachat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"supachat-woocommerce-layer/internal/domain"
	"supachat-woocommerce-layer/internal/infrastructure/metrics"
	"supachat-woocommerce-layer/internal/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	// ServiceUser and ServiceChatbot name the two SupaChat backends in
	// errors and health reports.
	ServiceUser    = "user service"
	ServiceChatbot = "chatbot service"

	requestTimeout = 30 * time.Second
	healthTimeout  = 10 * time.Second
)

// Client talks to the SupaChat user and chatbot services. Authenticated
// requests carry the current bearer token from the session store and retry
// exactly once after refreshing an expired token.
type Client struct {
	userURL    string
	chatbotURL string
	httpClient *http.Client
	healthHTTP *http.Client
	sessions   ports.SessionStore
	logger     zerolog.Logger
}

// NewClient creates a client adapter for both SupaChat services.
func NewClient(userURL, chatbotURL string, sessions ports.SessionStore, logger zerolog.Logger) *Client {
	return &Client{
		userURL:    userURL,
		chatbotURL: chatbotURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		healthHTTP: &http.Client{Timeout: healthTimeout},
		sessions:   sessions,
		logger:     logger,
	}
}

var (
	_ ports.UserServiceClient    = (*Client)(nil)
	_ ports.ChatbotServiceClient = (*Client)(nil)
	_ ports.ServiceHealth        = (*Client)(nil)
)

// User service

// Login exchanges credentials for a token pair. Tokens are not persisted
// here; the auth service decides whether to keep them.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthTokens, error) {
	payload, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.userURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewConnectivityError(ServiceUser, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.NewAuthError("invalid email or password")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewRemoteError(ServiceUser, resp.StatusCode, readErrorMessage(resp.Body))
	}

	var tokens domain.AuthTokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if tokens.Token == "" {
		return nil, domain.NewRemoteError(ServiceUser, resp.StatusCode, "login response carried no token")
	}
	return &tokens, nil
}

// GetUser fetches a user profile using the current session.
func (c *Client) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	resp, err := c.doAuthed(ctx, http.MethodGet, c.userURL+"/users/"+userID, nil, ServiceUser)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(ServiceUser, resp)
	}
	var user domain.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	return &user, nil
}

// UserIDFromToken extracts the user id claim without verifying the
// signature; the services verify tokens themselves, this is only used to
// address the profile endpoint.
func (c *Client) UserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("token carries no user id claim")
}

// Chatbot service

func (c *Client) ListChatbots(ctx context.Context) ([]domain.Chatbot, error) {
	resp, err := c.doAuthed(ctx, http.MethodGet, c.chatbotURL+"/chatbots", nil, ServiceChatbot)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(ServiceChatbot, resp)
	}
	// The chatbot service wraps the list under a capitalized key.
	var body struct {
		Chatbots []domain.Chatbot `json:"Chatbots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode chatbots response: %w", err)
	}
	return body.Chatbots, nil
}

// CreateMCPServer provisions a WordPress MCP server under the chatbot.
func (c *Client) CreateMCPServer(ctx context.Context, chatbotID string, serverReq domain.MCPServerRequest) (*domain.MCPServer, error) {
	payload, err := json.Marshal(serverReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mcp server request: %w", err)
	}
	url := fmt.Sprintf("%s/chatbots/%s/wordpress-mcp-servers", c.chatbotURL, chatbotID)
	resp, err := c.doAuthed(ctx, http.MethodPost, url, payload, ServiceChatbot)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.remoteError(ServiceChatbot, resp)
	}
	var server domain.MCPServer
	if err := json.NewDecoder(resp.Body).Decode(&server); err != nil {
		return nil, fmt.Errorf("failed to decode mcp server response: %w", err)
	}
	if server.ID == "" {
		return nil, domain.NewRemoteError(ServiceChatbot, resp.StatusCode, "mcp server response carried no id")
	}
	return &server, nil
}

func (c *Client) GetMCPServer(ctx context.Context, chatbotID, serverID string) (*domain.MCPServer, error) {
	url := fmt.Sprintf("%s/chatbots/%s/mcp-servers/%s", c.chatbotURL, chatbotID, serverID)
	resp, err := c.doAuthed(ctx, http.MethodGet, url, nil, ServiceChatbot)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &domain.IntegrationError{
			Code:       "NOT_FOUND",
			Message:    fmt.Sprintf("mcp server %s not found", serverID),
			StatusCode: resp.StatusCode,
			Err:        domain.ErrNotFound,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(ServiceChatbot, resp)
	}
	var server domain.MCPServer
	if err := json.NewDecoder(resp.Body).Decode(&server); err != nil {
		return nil, fmt.Errorf("failed to decode mcp server response: %w", err)
	}
	return &server, nil
}

func (c *Client) ListMCPServers(ctx context.Context, chatbotID string) ([]domain.MCPServer, error) {
	url := fmt.Sprintf("%s/chatbots/%s/mcp-servers", c.chatbotURL, chatbotID)
	resp, err := c.doAuthed(ctx, http.MethodGet, url, nil, ServiceChatbot)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(ServiceChatbot, resp)
	}
	var body struct {
		MCPServers []domain.MCPServer `json:"mcp_servers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode mcp servers response: %w", err)
	}
	return body.MCPServers, nil
}

// DeleteMCPServer removes a server. A 404 means the resource is already gone
// and is treated as success.
func (c *Client) DeleteMCPServer(ctx context.Context, chatbotID, serverID string) error {
	url := fmt.Sprintf("%s/chatbots/%s/mcp-servers/%s", c.chatbotURL, chatbotID, serverID)
	resp, err := c.doAuthed(ctx, http.MethodDelete, url, nil, ServiceChatbot)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return c.remoteError(ServiceChatbot, resp)
}

// Health

// UserServiceHealth probes the user service status endpoint.
func (c *Client) UserServiceHealth(ctx context.Context) error {
	return c.probe(ctx, c.userURL, ServiceUser)
}

// ChatbotServiceHealth probes the chatbot service status endpoint.
func (c *Client) ChatbotServiceHealth(ctx context.Context) error {
	return c.probe(ctx, c.chatbotURL, ServiceChatbot)
}

func (c *Client) probe(ctx context.Context, baseURL, service string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/status", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := c.healthHTTP.Do(req)
	if err != nil {
		return domain.NewConnectivityError(service, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.NewRemoteError(service, resp.StatusCode, "health check failed")
	}
	return nil
}

// doAuthed sends an authenticated request. On a 401 it refreshes the token
// pair and retries exactly once; the second response is returned as-is so
// callers see the 401 if the refreshed token is also rejected.
func (c *Client) doAuthed(ctx context.Context, method, url string, body []byte, service string) (*http.Response, error) {
	tokens, err := c.sessions.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, domain.NewAuthError("not logged in")
	}

	token := tokens.Token
	for attempt := 0; attempt < 2; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, domain.NewConnectivityError(service, err)
		}
		if resp.StatusCode != http.StatusUnauthorized || attempt > 0 {
			return resp, nil
		}
		resp.Body.Close()

		c.logger.Debug().Str("service", service).Msg("token rejected, refreshing")
		metrics.TokenRefreshesTotal.Inc()
		refreshed, err := c.refreshTokens(ctx, tokens.RefreshToken)
		if err != nil {
			return nil, err
		}
		token = refreshed.Token
	}
	// unreachable, the loop always returns
	return nil, domain.NewAuthError("request retry exhausted")
}

// refreshTokens exchanges the refresh token for a new pair and persists it.
// A rejected refresh clears the session; the admin must log in again.
func (c *Client) refreshTokens(ctx context.Context, refreshToken string) (*domain.AuthTokens, error) {
	if refreshToken == "" {
		return nil, domain.NewAuthError("session expired, please log in again")
	}
	payload, _ := json.Marshal(map[string]string{
		"refresh_token": refreshToken,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.userURL+"/refresh-token", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewConnectivityError(ServiceUser, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if err := c.sessions.Clear(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("failed to clear session after rejected refresh")
		}
		return nil, domain.NewAuthError("session expired, please log in again")
	}

	var tokens domain.AuthTokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if err := c.sessions.SaveTokens(ctx, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) remoteError(service string, resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return domain.NewAuthError("session rejected by " + service)
	}
	return domain.NewRemoteError(service, resp.StatusCode, readErrorMessage(resp.Body))
}

// readErrorMessage pulls the error text out of a JSON error body, accepting
// both {"error": ...} and {"message": ...} shapes.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
