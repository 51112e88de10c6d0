package domain

import "time"

// StatusActive is the only persisted integration status. A missing record
// means the chatbot is not integrated; there is no inactive state.
const StatusActive = "active"

// IssueMissingRemoteID marks a ledger record whose remote MCP server id is
// empty or unresolvable. The record exists locally but cannot be used.
const IssueMissingRemoteID = "missing_remote_id"

// IntegrationRecord links a chatbot to the local API credential and the remote
// MCP server that were provisioned for it. One record per chatbot id.
type IntegrationRecord struct {
	ChatbotID         string    `json:"chatbot_id"`
	Name              string    `json:"name"`
	MCPServerID       string    `json:"mcp_server_id"`
	APIKeyID          int64     `json:"api_key_id"`
	ConsumerKeyPrefix string    `json:"consumer_key"` // truncated, display only
	CreatedAt         time.Time `json:"created_at"`
	Status            string    `json:"status"`
}

// Valid reports whether the record points at a resolvable remote resource.
// A record without an MCP server id is an orphan left by a failed provision.
func (r *IntegrationRecord) Valid() bool {
	return r != nil && r.MCPServerID != ""
}

// ProvisionResult is returned on a successful provision. It carries the
// connection details the admin needs to verify the chatbot side.
type ProvisionResult struct {
	Record       *IntegrationRecord `json:"integration"`
	MCPServerURL string             `json:"mcp_server_url"`
	ToolsCount   int                `json:"tools_count"`
}

// DeprovisionResult reports the outcome of removing an integration. Local
// state is always cleared; a remote deletion failure is downgraded to a
// warning so the admin can always forget an integration locally.
type DeprovisionResult struct {
	ChatbotID     string `json:"chatbot_id"`
	RemoteWarning string `json:"remote_warning,omitempty"`
}

// CleanupReport counts what orphan reconciliation removed for a chatbot id.
// Nothing to clean is a success, not an error.
type CleanupReport struct {
	ChatbotID      string `json:"chatbot_id"`
	ServersDeleted int    `json:"servers_deleted"`
	ServersFailed  int    `json:"servers_failed"`
	KeysDeleted    int    `json:"keys_deleted"`
	OptionsCleared int    `json:"options_cleared"`
}

// StatusReport describes the integration state of a chatbot as seen from the
// local ledger. The bubble setting is independent of integration state and is
// included for display only.
type StatusReport struct {
	ChatbotID     string             `json:"chatbot_id"`
	IsIntegrated  bool               `json:"is_integrated"`
	LocalExists   bool               `json:"local_exists"`
	Issue         string             `json:"issue,omitempty"`
	MCPServerID   string             `json:"mcp_server_id,omitempty"`
	BubbleEnabled bool               `json:"bubble_enabled"`
	Record        *IntegrationRecord `json:"integration,omitempty"`
}
