package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"receipt_relay/internal/models"
	"receipt_relay/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockConnectionManager struct {
	state         models.ConnectionState
	connectState  models.ConnectionState
	connectErr    error
	disconnectErr error

	connectCalls    int
	disconnectCalls int
}

func (m *mockConnectionManager) State() models.ConnectionState { return m.state }
func (m *mockConnectionManager) Connect(ctx context.Context) (models.ConnectionState, error) {
	m.connectCalls++
	return m.connectState, m.connectErr
}
func (m *mockConnectionManager) Disconnect(ctx context.Context) error {
	m.disconnectCalls++
	return m.disconnectErr
}
func (m *mockConnectionManager) OnConnectionChange(fn func(bool)) int { return 1 }
func (m *mockConnectionManager) OffConnectionChange(id int)          {}

type mockSubscriber struct {
	activateErr     error
	active          bool
	activateCalls   int
	deactivateCalls int
}

func (m *mockSubscriber) Activate(ctx context.Context) error {
	m.activateCalls++
	m.active = true
	return m.activateErr
}
func (m *mockSubscriber) Deactivate() {
	m.deactivateCalls++
	m.active = false
}
func (m *mockSubscriber) IsActive() bool { return m.active }

type mockActivityLog struct {
	entries []models.LogEntry
	ch      chan models.LogEntry
}

func (m *mockActivityLog) Append(severity, message string) {
	m.entries = append(m.entries, models.LogEntry{
		OccurredAt: time.Now().UTC(),
		Severity:   severity,
		Message:    message,
	})
}
func (m *mockActivityLog) Entries() []models.LogEntry { return m.entries }
func (m *mockActivityLog) Reset()                     { m.entries = nil }
func (m *mockActivityLog) Subscribe() (int, <-chan models.LogEntry) {
	if m.ch == nil {
		m.ch = make(chan models.LogEntry, 8)
	}
	return 1, m.ch
}
func (m *mockActivityLog) Unsubscribe(id int) {}

type mockLogHistory struct {
	resp         []models.LogEntry
	err          error
	lastFrom     time.Time
	lastTo       time.Time
	lastSeverity string
}

func (m *mockLogHistory) List(ctx context.Context, f service.LogFilter) ([]models.LogEntry, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastSeverity = f.Severity
	return m.resp, m.err
}

type mockStatus struct {
	status models.PipelineStatus
}

func (m *mockStatus) GetStatus() models.PipelineStatus { return m.status }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
