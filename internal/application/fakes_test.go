package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"supachat-woocommerce-layer/internal/domain"
	"supachat-woocommerce-layer/internal/ports"
)

// fakeCredentialStore is an in-memory CredentialStore with failure injection.
type fakeCredentialStore struct {
	mu         sync.Mutex
	nextID     int64
	creds      map[int64]*domain.Credential
	createErr  error
	deleteErr  error
	findErr    error
	deletedIDs []int64
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{creds: make(map[int64]*domain.Credential)}
}

func (f *fakeCredentialStore) Create(ctx context.Context, userID int64, description string, permissions domain.Permission) (*domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	cred := &domain.Credential{
		ID:           f.nextID,
		UserID:       userID,
		Description:  description,
		Permissions:  permissions,
		TruncatedKey: "abcdef7",
		CreatedAt:    time.Now(),
	}
	f.creds[cred.ID] = cred
	out := *cred
	out.ConsumerKey = "ck_test"
	out.ConsumerSecret = "cs_test"
	return &out, nil
}

func (f *fakeCredentialStore) Get(ctx context.Context, id int64) (*domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.creds[id]
	if !ok {
		return nil, nil
	}
	out := *cred
	return &out, nil
}

func (f *fakeCredentialStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.creds, id)
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeCredentialStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Credential
	for _, cred := range f.creds {
		if cred.UserID == userID {
			c := *cred
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeCredentialStore) FindByDescription(ctx context.Context, fragment string) ([]*domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []*domain.Credential
	for _, cred := range f.creds {
		if strings.Contains(cred.Description, fragment) {
			c := *cred
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeCredentialStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creds)
}

var _ ports.CredentialStore = (*fakeCredentialStore)(nil)

// fakeChatbotClient is an in-memory ChatbotServiceClient with failure
// injection.
type fakeChatbotClient struct {
	mu          sync.Mutex
	nextID      int
	chatbots    []domain.Chatbot
	servers     map[string][]domain.MCPServer // keyed by chatbot id
	createErr   error
	deleteErr   error
	listErr     error
	deleteCalls []string
}

func newFakeChatbotClient() *fakeChatbotClient {
	return &fakeChatbotClient{servers: make(map[string][]domain.MCPServer)}
}

func (f *fakeChatbotClient) ListChatbots(ctx context.Context) ([]domain.Chatbot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Chatbot(nil), f.chatbots...), nil
}

func (f *fakeChatbotClient) CreateMCPServer(ctx context.Context, chatbotID string, req domain.MCPServerRequest) (*domain.MCPServer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	server := domain.MCPServer{
		ID:           fmt.Sprintf("mcp-%d", f.nextID),
		ChatbotID:    chatbotID,
		Name:         req.Name,
		MCPServerURL: "https://mcp.test/" + chatbotID,
		IsActive:     true,
		ToolsCount:   12,
		CreatedAt:    time.Now(),
	}
	f.servers[chatbotID] = append(f.servers[chatbotID], server)
	return &server, nil
}

func (f *fakeChatbotClient) GetMCPServer(ctx context.Context, chatbotID, serverID string) (*domain.MCPServer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, server := range f.servers[chatbotID] {
		if server.ID == serverID {
			s := server
			return &s, nil
		}
	}
	return nil, domain.NewRemoteError("chatbot service", 404, "not found")
}

func (f *fakeChatbotClient) ListMCPServers(ctx context.Context, chatbotID string) ([]domain.MCPServer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.MCPServer(nil), f.servers[chatbotID]...), nil
}

func (f *fakeChatbotClient) DeleteMCPServer(ctx context.Context, chatbotID, serverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, serverID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.servers[chatbotID][:0]
	for _, server := range f.servers[chatbotID] {
		if server.ID != serverID {
			kept = append(kept, server)
		}
	}
	f.servers[chatbotID] = kept
	return nil
}

func (f *fakeChatbotClient) serverCount(chatbotID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.servers[chatbotID])
}

var _ ports.ChatbotServiceClient = (*fakeChatbotClient)(nil)

// fakeUserClient implements UserServiceClient for auth service tests.
type fakeUserClient struct {
	loginErr   error
	tokens     domain.AuthTokens
	user       domain.User
	getUserErr error
}

func (f *fakeUserClient) Login(ctx context.Context, email, password string) (*domain.AuthTokens, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	t := f.tokens
	return &t, nil
}

func (f *fakeUserClient) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	u := f.user
	return &u, nil
}

func (f *fakeUserClient) UserIDFromToken(token string) (string, error) {
	return f.user.ID, nil
}

var _ ports.UserServiceClient = (*fakeUserClient)(nil)
