package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/audit"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/auth"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// recordingAuditor captures audit events in memory
type recordingAuditor struct {
	mu     sync.Mutex
	events []*audit.AuditLogRequest
}

func (a *recordingAuditor) LogEvent(_ context.Context, event *audit.AuditLogRequest) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAuditor) IsEnabled() bool { return true }

func (a *recordingAuditor) statuses(eventType string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.events {
		if e.EventType != nil && *e.EventType == eventType {
			out = append(out, e.Status)
		}
	}
	return out
}

// setupMockDB creates a gorm DB over sqlmock with the postgres dialector
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func newTestTokenIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("test-secret-with-enough-length", "membership-backend", time.Hour)
	require.NoError(t, err)
	return issuer
}
