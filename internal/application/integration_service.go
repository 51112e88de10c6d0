package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"supachat-woocommerce-layer/internal/domain"
	"supachat-woocommerce-layer/internal/ports"

	"github.com/rs/zerolog"
)

// IntegrationService drives the provision/deprovision lifecycle that links a
// SupaChat chatbot to this store. Provisioning creates a local API credential
// first and a remote MCP server second; a remote failure triggers a
// compensating credential delete so no half-built integration survives.
type IntegrationService struct {
	ledger      ports.IntegrationLedger
	credentials ports.CredentialStore
	chatbots    ports.ChatbotServiceClient
	bubbles     ports.BubbleSettings
	storeURL    string
	adminUserID int64
	logger      zerolog.Logger
}

// NewIntegrationService creates a new integration lifecycle service.
// adminUserID owns the API credentials generated during provisioning and
// storeURL is the public base URL of this store's REST API.
func NewIntegrationService(
	ledger ports.IntegrationLedger,
	credentials ports.CredentialStore,
	chatbots ports.ChatbotServiceClient,
	bubbles ports.BubbleSettings,
	storeURL string,
	adminUserID int64,
	logger zerolog.Logger,
) *IntegrationService {
	return &IntegrationService{
		ledger:      ledger,
		credentials: credentials,
		chatbots:    chatbots,
		bubbles:     bubbles,
		storeURL:    storeURL,
		adminUserID: adminUserID,
		logger:      logger,
	}
}

// credentialDescription tags generated keys so orphan reconciliation can find
// them by chatbot id even after the ledger record is gone.
func credentialDescription(name, chatbotID string) string {
	return fmt.Sprintf("SupaChat %s [%s]", name, chatbotID)
}

// Provision creates the API credential and the remote MCP server for a
// chatbot and records the pairing in the ledger. A chatbot that already has
// a ledger record is rejected with a conflict.
func (s *IntegrationService) Provision(ctx context.Context, chatbotID, name string) (*domain.ProvisionResult, error) {
	if strings.TrimSpace(chatbotID) == "" {
		return nil, domain.NewValidationError("chatbot_id", "must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		name = "Chatbot " + chatbotID
	}

	existing, err := s.ledger.Get(ctx, chatbotID)
	if err != nil {
		return nil, domain.NewStorageError("read integration record", err)
	}
	if existing != nil {
		return nil, domain.NewConflictError(chatbotID)
	}

	cred, err := s.credentials.Create(ctx, s.adminUserID, credentialDescription(name, chatbotID), domain.PermissionRead)
	if err != nil {
		return nil, domain.NewStorageError("create api credential", err)
	}
	s.logger.Info().
		Str("chatbotId", chatbotID).
		Int64("keyId", cred.ID).
		Msg("API credential created")

	server, err := s.chatbots.CreateMCPServer(ctx, chatbotID, domain.MCPServerRequest{
		Name:           name + " WooCommerce",
		Description:    fmt.Sprintf("WooCommerce store connector for %s", name),
		StoreURL:       s.storeURL,
		ConsumerKey:    cred.ConsumerKey,
		ConsumerSecret: cred.ConsumerSecret,
	})
	if err != nil {
		// Compensate: the credential is useless without its server.
		if delErr := s.credentials.Delete(ctx, cred.ID); delErr != nil {
			s.logger.Error().
				Str("chatbotId", chatbotID).
				Int64("keyId", cred.ID).
				Err(delErr).
				Msg("compensating credential delete failed")
			return nil, domain.NewPartialProvisionError(err, delErr)
		}
		s.logger.Warn().
			Str("chatbotId", chatbotID).
			Err(err).
			Msg("MCP server creation failed, credential rolled back")
		return nil, err
	}

	record := &domain.IntegrationRecord{
		ChatbotID:         chatbotID,
		Name:              name,
		MCPServerID:       server.ID,
		APIKeyID:          cred.ID,
		ConsumerKeyPrefix: cred.TruncatedKey,
		CreatedAt:         time.Now(),
		Status:            domain.StatusActive,
	}
	if err := s.ledger.Put(ctx, record); err != nil {
		// Roll back both sides, best effort.
		if delErr := s.chatbots.DeleteMCPServer(ctx, chatbotID, server.ID); delErr != nil {
			s.logger.Warn().Str("chatbotId", chatbotID).Err(delErr).Msg("rollback of MCP server failed")
		}
		if delErr := s.credentials.Delete(ctx, cred.ID); delErr != nil {
			s.logger.Warn().Str("chatbotId", chatbotID).Err(delErr).Msg("rollback of credential failed")
		}
		return nil, domain.NewStorageError("write integration record", err)
	}

	s.logger.Info().
		Str("chatbotId", chatbotID).
		Str("mcpServerId", server.ID).
		Msg("integration provisioned")

	return &domain.ProvisionResult{
		Record:       record,
		MCPServerURL: server.MCPServerURL,
		ToolsCount:   server.ToolsCount,
	}, nil
}

// Deprovision removes the integration for a chatbot. Local state is always
// cleared; a failed remote delete is reported as a warning, never as an
// error. When no ledger record exists, orphaned remote resources are swept
// instead.
func (s *IntegrationService) Deprovision(ctx context.Context, chatbotID string) (*domain.DeprovisionResult, error) {
	if strings.TrimSpace(chatbotID) == "" {
		return nil, domain.NewValidationError("chatbot_id", "must not be empty")
	}

	record, err := s.ledger.Get(ctx, chatbotID)
	if err != nil {
		return nil, domain.NewStorageError("read integration record", err)
	}

	result := &domain.DeprovisionResult{ChatbotID: chatbotID}

	if record == nil {
		report, err := s.Reconcile(ctx, chatbotID)
		if err != nil {
			return nil, err
		}
		if report.ServersFailed > 0 {
			result.RemoteWarning = fmt.Sprintf("%d orphaned MCP server(s) could not be removed", report.ServersFailed)
		}
		return result, nil
	}

	if record.Valid() {
		if err := s.chatbots.DeleteMCPServer(ctx, chatbotID, record.MCPServerID); err != nil {
			s.logger.Warn().
				Str("chatbotId", chatbotID).
				Str("mcpServerId", record.MCPServerID).
				Err(err).
				Msg("remote MCP server delete failed, clearing local state anyway")
			result.RemoteWarning = fmt.Sprintf("remote MCP server %s could not be removed: %v", record.MCPServerID, err)
		}
	}

	if err := s.credentials.Delete(ctx, record.APIKeyID); err != nil {
		s.logger.Warn().
			Str("chatbotId", chatbotID).
			Int64("keyId", record.APIKeyID).
			Err(err).
			Msg("credential delete failed, clearing local state anyway")
	}
	if err := s.bubbles.Delete(ctx, chatbotID); err != nil {
		s.logger.Warn().Str("chatbotId", chatbotID).Err(err).Msg("bubble setting delete failed")
	}
	if err := s.ledger.Delete(ctx, chatbotID); err != nil {
		return nil, domain.NewStorageError("delete integration record", err)
	}

	s.logger.Info().Str("chatbotId", chatbotID).Msg("integration deprovisioned")
	return result, nil
}

// Reconcile sweeps resources left behind for a chatbot id that has no ledger
// record: MCP servers still registered remotely, credentials tagged with the
// chatbot id, and stale option keys. Nothing to clean is a success.
func (s *IntegrationService) Reconcile(ctx context.Context, chatbotID string) (*domain.CleanupReport, error) {
	if strings.TrimSpace(chatbotID) == "" {
		return nil, domain.NewValidationError("chatbot_id", "must not be empty")
	}

	report := &domain.CleanupReport{ChatbotID: chatbotID}

	servers, err := s.chatbots.ListMCPServers(ctx, chatbotID)
	if err != nil {
		s.logger.Warn().Str("chatbotId", chatbotID).Err(err).Msg("cannot list remote MCP servers, skipping remote sweep")
	}
	for _, server := range servers {
		if err := s.chatbots.DeleteMCPServer(ctx, chatbotID, server.ID); err != nil {
			s.logger.Warn().
				Str("chatbotId", chatbotID).
				Str("mcpServerId", server.ID).
				Err(err).
				Msg("orphaned MCP server delete failed")
			report.ServersFailed++
			continue
		}
		report.ServersDeleted++
	}

	creds, err := s.credentials.FindByDescription(ctx, "["+chatbotID+"]")
	if err != nil {
		s.logger.Warn().Str("chatbotId", chatbotID).Err(err).Msg("cannot scan for orphaned credentials, skipping key sweep")
	}
	for _, cred := range creds {
		if err := s.credentials.Delete(ctx, cred.ID); err != nil {
			s.logger.Warn().Int64("keyId", cred.ID).Err(err).Msg("orphaned credential delete failed")
			continue
		}
		report.KeysDeleted++
	}

	if err := s.ledger.Delete(ctx, chatbotID); err == nil {
		report.OptionsCleared++
	}
	if err := s.bubbles.Delete(ctx, chatbotID); err == nil {
		report.OptionsCleared++
	}

	s.logger.Info().
		Str("chatbotId", chatbotID).
		Int("serversDeleted", report.ServersDeleted).
		Int("keysDeleted", report.KeysDeleted).
		Msg("orphan reconciliation finished")
	return report, nil
}

// Status reports the integration state of a chatbot as recorded locally. A
// record without a remote server id is flagged instead of being treated as
// integrated.
func (s *IntegrationService) Status(ctx context.Context, chatbotID string) (*domain.StatusReport, error) {
	if strings.TrimSpace(chatbotID) == "" {
		return nil, domain.NewValidationError("chatbot_id", "must not be empty")
	}

	record, err := s.ledger.Get(ctx, chatbotID)
	if err != nil {
		return nil, domain.NewStorageError("read integration record", err)
	}
	bubbleOn, err := s.bubbles.Enabled(ctx, chatbotID)
	if err != nil {
		return nil, domain.NewStorageError("read bubble setting", err)
	}

	report := &domain.StatusReport{
		ChatbotID:     chatbotID,
		LocalExists:   record != nil,
		BubbleEnabled: bubbleOn,
		Record:        record,
	}
	if record != nil {
		if record.Valid() {
			report.IsIntegrated = true
			report.MCPServerID = record.MCPServerID
		} else {
			report.Issue = domain.IssueMissingRemoteID
		}
	}
	return report, nil
}
