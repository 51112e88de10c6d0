package application

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"supachat-woocommerce-layer/internal/domain"
	"supachat-woocommerce-layer/internal/ports"

	"github.com/rs/zerolog"
)

// WidgetService renders the storefront chat surfaces: the floating bubble
// loader and the inline iframe embed. At most one bubble is active at a
// time; enabling one implicitly disables the rest for rendering purposes.
type WidgetService struct {
	bubbles   ports.BubbleSettings
	ledger    ports.IntegrationLedger
	widgetURL string
	logger    zerolog.Logger
}

// NewWidgetService creates a widget service. widgetURL is the public base
// URL of the SupaChat widget host.
func NewWidgetService(bubbles ports.BubbleSettings, ledger ports.IntegrationLedger, widgetURL string, logger zerolog.Logger) *WidgetService {
	return &WidgetService{
		bubbles:   bubbles,
		ledger:    ledger,
		widgetURL: strings.TrimRight(widgetURL, "/"),
		logger:    logger,
	}
}

// SetBubble toggles the floating bubble for a chatbot. The flag is
// independent of integration state so it survives deprovision/reprovision
// cycles only through explicit re-enabling.
func (s *WidgetService) SetBubble(ctx context.Context, chatbotID string, enabled bool) error {
	if strings.TrimSpace(chatbotID) == "" {
		return domain.NewValidationError("chatbot_id", "must not be empty")
	}
	if err := s.bubbles.SetEnabled(ctx, chatbotID, enabled); err != nil {
		return domain.NewStorageError("save bubble setting", err)
	}
	s.logger.Info().Str("chatbotId", chatbotID).Bool("enabled", enabled).Msg("bubble setting changed")
	return nil
}

// ActiveBubble returns the chatbot id whose bubble should render, or ""
// when none is enabled. When several flags are on, the lexicographically
// first id wins so rendering is deterministic.
func (s *WidgetService) ActiveBubble(ctx context.Context) (string, error) {
	ids, err := s.bubbles.EnabledChatbots(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	sort.Strings(ids)
	return ids[0], nil
}

// BubbleScript returns the loader snippet for the active bubble, or "" when
// no bubble is enabled or the chatbot is not integrated.
func (s *WidgetService) BubbleScript(ctx context.Context) (string, error) {
	chatbotID, err := s.ActiveBubble(ctx)
	if err != nil {
		return "", err
	}
	if chatbotID == "" {
		return "", nil
	}
	record, err := s.ledger.Get(ctx, chatbotID)
	if err != nil {
		return "", err
	}
	if !record.Valid() {
		s.logger.Debug().Str("chatbotId", chatbotID).Msg("bubble enabled but chatbot not integrated, skipping")
		return "", nil
	}
	return fmt.Sprintf(
		`<script src="%s/bubble.js" data-chatbot-id="%s" async></script>`,
		s.widgetURL, html.EscapeString(chatbotID),
	), nil
}

// EmbedHTML returns the inline iframe markup for a chatbot. Width and height
// default to a full-width 600px frame.
func (s *WidgetService) EmbedHTML(chatbotID, width, height string) (string, error) {
	if strings.TrimSpace(chatbotID) == "" {
		return "", domain.NewValidationError("chatbot_id", "must not be empty")
	}
	if width == "" {
		width = "100%"
	}
	if height == "" {
		height = "600px"
	}
	src := fmt.Sprintf("%s/embed/%s", s.widgetURL, html.EscapeString(chatbotID))
	return fmt.Sprintf(
		`<iframe src="%s" width="%s" height="%s" frameborder="0" title="SupaChat chatbot" allow="clipboard-write"></iframe>`,
		src, html.EscapeString(width), html.EscapeString(height),
	), nil
}
