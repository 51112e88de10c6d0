package domain

import "time"

// Chatbot is a chatbot descriptor from the SupaChat chatbot service.
type Chatbot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChatbotWithStatus pairs a chatbot with its local integration status so the
// admin surface can render both in one pass.
type ChatbotWithStatus struct {
	Chatbot
	IntegrationStatus *StatusReport `json:"integration_status"`
}

// MCPServer is the remote connector resource the chatbot platform uses to
// query the store's REST API. It is owned by a chatbot; deletion is addressed
// by (chatbot id, server id).
type MCPServer struct {
	ID           string    `json:"id"`
	ChatbotID    string    `json:"chatbot_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	MCPServerURL string    `json:"mcp_server_url"`
	IsActive     bool      `json:"is_active"`
	IsValidated  bool      `json:"is_validated"`
	ToolsCount   int       `json:"tools_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// MCPServerRequest is the creation payload for a WordPress MCP server.
// The credential pair is embedded directly; the plaintext secret is not
// persisted locally.
type MCPServerRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	StoreURL       string `json:"store_url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

// User is the profile of the authenticated SupaChat account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthTokens is a bearer/refresh token pair issued by the user service.
// Both rotate together on refresh.
type AuthTokens struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}
