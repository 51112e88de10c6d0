package application

import (
	"context"
	"strings"

	"supachat-woocommerce-layer/internal/domain"
	"supachat-woocommerce-layer/internal/ports"

	"github.com/rs/zerolog"
)

// AuthService manages the single admin session against the SupaChat user
// service and exposes the chatbot catalogue decorated with local integration
// status.
type AuthService struct {
	users        ports.UserServiceClient
	chatbots     ports.ChatbotServiceClient
	sessions     ports.SessionStore
	integrations *IntegrationService
	logger       zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users ports.UserServiceClient,
	chatbots ports.ChatbotServiceClient,
	sessions ports.SessionStore,
	integrations *IntegrationService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:        users,
		chatbots:     chatbots,
		sessions:     sessions,
		integrations: integrations,
		logger:       logger,
	}
}

// Login authenticates against the user service and persists the token pair.
// The profile fetch after login is best effort; a login with an unreachable
// profile endpoint still establishes a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.NewValidationError("email", "must not be empty")
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "must not be empty")
	}

	tokens, err := s.users.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SaveTokens(ctx, tokens); err != nil {
		return nil, domain.NewStorageError("save session tokens", err)
	}

	user := s.fetchProfile(ctx, tokens.Token)
	if user != nil {
		if err := s.sessions.SaveUser(ctx, user); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache user profile")
		}
	}

	s.logger.Info().Str("email", email).Msg("admin logged in")
	return user, nil
}

func (s *AuthService) fetchProfile(ctx context.Context, token string) *domain.User {
	userID, err := s.users.UserIDFromToken(token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cannot extract user id from token")
		return nil
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.logger.Warn().Str("userId", userID).Err(err).Msg("profile fetch failed")
		return nil
	}
	return user
}

// Logout drops the session. Integrations and their credentials survive a
// logout; only the token pair and cached profile are removed.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return domain.NewStorageError("clear session", err)
	}
	s.logger.Info().Msg("admin logged out")
	return nil
}

// IsLoggedIn reports whether a token pair is stored. It does not validate
// the tokens; an expired pair surfaces on the next authenticated call.
func (s *AuthService) IsLoggedIn(ctx context.Context) (bool, error) {
	tokens, err := s.sessions.Tokens(ctx)
	if err != nil {
		return false, err
	}
	return tokens != nil, nil
}

// CurrentUser returns the cached profile, fetching it once when a session
// exists but the cache is empty.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	user, err := s.sessions.User(ctx)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	tokens, err := s.sessions.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, domain.NewAuthError("not logged in")
	}
	user = s.fetchProfile(ctx, tokens.Token)
	if user == nil {
		return nil, domain.NewAuthError("cannot resolve current user")
	}
	if err := s.sessions.SaveUser(ctx, user); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache user profile")
	}
	return user, nil
}

// Chatbots lists the account's chatbots with the local integration status of
// each attached.
func (s *AuthService) Chatbots(ctx context.Context) ([]domain.ChatbotWithStatus, error) {
	chatbots, err := s.chatbots.ListChatbots(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.ChatbotWithStatus, 0, len(chatbots))
	for _, bot := range chatbots {
		status, err := s.integrations.Status(ctx, bot.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, domain.ChatbotWithStatus{
			Chatbot:           bot,
			IntegrationStatus: status,
		})
	}
	return result, nil
}
