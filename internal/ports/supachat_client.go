package ports

import (
	"context"

	"supachat-woocommerce-layer/internal/domain"
)

// UserServiceClient talks to the SupaChat user service.
type UserServiceClient interface {
	// Login exchanges credentials for a token pair. It does not persist the
	// tokens; that is the session store's job.
	Login(ctx context.Context, email, password string) (*domain.AuthTokens, error)

	// GetUser fetches the profile for a user id using the current session.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UserIDFromToken extracts the user id claim from an access token.
	UserIDFromToken(token string) (string, error)
}

// ChatbotServiceClient talks to the SupaChat chatbot service. Every call
// attaches the current bearer token and transparently refreshes it once on a
// 401 response.
type ChatbotServiceClient interface {
	ListChatbots(ctx context.Context) ([]domain.Chatbot, error)

	// CreateMCPServer provisions a WordPress MCP server under the chatbot.
	CreateMCPServer(ctx context.Context, chatbotID string, req domain.MCPServerRequest) (*domain.MCPServer, error)

	GetMCPServer(ctx context.Context, chatbotID, serverID string) (*domain.MCPServer, error)

	ListMCPServers(ctx context.Context, chatbotID string) ([]domain.MCPServer, error)

	// DeleteMCPServer removes a server. A 404 from the service means the
	// resource is already gone and is treated as success.
	DeleteMCPServer(ctx context.Context, chatbotID, serverID string) error
}

// ServiceHealth probes the unauthenticated status endpoints of both SupaChat
// services.
type ServiceHealth interface {
	UserServiceHealth(ctx context.Context) error
	ChatbotServiceHealth(ctx context.Context) error
}
