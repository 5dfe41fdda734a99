package scoreboardapi

import (
	"context"
	"sync"
)

// MockClient is an in-memory Client for testing
type MockClient struct {
	mu       sync.Mutex
	baseURL  string
	stored   map[string][]byte
	posts    []Post
	postErr  error
	getErr   error
	postHook func(courtID string)
}

// Post records one call to MockClient.Post.
type Post struct {
	CourtID string
	Payload []byte
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithStored seeds the payload returned by Get for a court
func WithStored(courtID string, payload []byte) MockOption {
	return func(m *MockClient) {
		m.stored[courtID] = payload
	}
}

// WithPostError sets an error to return from Post
func WithPostError(err error) MockOption {
	return func(m *MockClient) {
		m.postErr = err
	}
}

// WithGetError sets an error to return from Get
func WithGetError(err error) MockOption {
	return func(m *MockClient) {
		m.getErr = err
	}
}

// WithPostHook runs fn after every Post, successful or not
func WithPostHook(fn func(courtID string)) MockOption {
	return func(m *MockClient) {
		m.postHook = fn
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a new mock client with the given options
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL: "http://mock-scoreboard.local",
		stored:  make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockClient) Post(_ context.Context, courtID string, payload []byte) error {
	m.mu.Lock()
	m.posts = append(m.posts, Post{CourtID: courtID, Payload: append([]byte(nil), payload...)})
	err := m.postErr
	if err == nil {
		m.stored[courtID] = append([]byte(nil), payload...)
	}
	hook := m.postHook
	m.mu.Unlock()

	if hook != nil {
		hook(courtID)
	}
	return err
}

func (m *MockClient) Get(_ context.Context, courtID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	payload, ok := m.stored[courtID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (m *MockClient) BaseURL() string {
	return m.baseURL
}

// SetStored replaces the payload returned by Get
func (m *MockClient) SetStored(courtID string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored[courtID] = payload
}

// SetGetError changes the error returned by Get
func (m *MockClient) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// Posts returns every Post call so far
func (m *MockClient) Posts() []Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Post(nil), m.posts...)
}

// Ensure both clients implement Client
var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*MockClient)(nil)
)
