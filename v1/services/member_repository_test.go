package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMemberRepository_CreateAndGet(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	member := &models.Member{
		MemberID:           "mem_1",
		Email:              "a@b.com",
		PasswordHash:       strPtr("hash"),
		SubscriptionStatus: models.SubscriptionStatusInactive,
		AccountType:        models.AccountTypeFree,
		AuthProvider:       models.AuthProviderEmail,
	}
	require.NoError(t, repo.Create(ctx, member))

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "mem_1", got.MemberID)
	assert.True(t, got.HasPassword())
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.GetByEmail(ctx, "missing@b.com")
	assert.ErrorIs(t, err, models.ErrMemberNotFound)
}

func TestMemberRepository_CreateDuplicateLeavesRowUntouched(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Member{
		MemberID: "mem_1", Email: "a@b.com", PasswordHash: strPtr("original"),
		SubscriptionStatus: "inactive", AccountType: models.AccountTypeFree, AuthProvider: models.AuthProviderEmail,
	}))

	err := repo.Create(ctx, &models.Member{
		MemberID: "mem_2", Email: "a@b.com", PasswordHash: strPtr("replacement"),
		SubscriptionStatus: "inactive", AccountType: models.AccountTypeFree, AuthProvider: models.AuthProviderEmail,
	})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "mem_1", got.MemberID)
	assert.Equal(t, "original", *got.PasswordHash)
}

func TestMemberRepository_UpsertPreservesCredentialsAndProvider(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := &models.Member{
		MemberID: "mem_1", Email: "a@b.com", PasswordHash: strPtr("hash"), Name: strPtr("Stored"),
		SubscriptionStatus: "inactive", AccountType: models.AccountTypeFree, AuthProvider: models.AuthProviderEmail,
		BaseModel: models.BaseModel{CreatedAt: created, UpdatedAt: created},
	}
	require.NoError(t, repo.Create(ctx, existing))

	end := testNow.Add(30 * 24 * time.Hour)
	require.NoError(t, repo.Upsert(ctx, &models.Member{
		MemberID:           "mem_new",
		Email:              "a@b.com",
		Name:               strPtr("From Provider"),
		SubscriptionStatus: "active",
		SubscriptionStart:  &testNow,
		SubscriptionEnd:    &end,
		AccountType:        models.AccountTypePaid,
		SubscriptionEvent:  models.EventLabelGumroadWebhook,
		AuthProvider:       models.AuthProviderGumroad,
		BaseModel:          models.BaseModel{CreatedAt: testNow, UpdatedAt: testNow},
	}))

	var count int64
	require.NoError(t, db.Model(&models.Member{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "mem_1", got.MemberID)
	assert.Equal(t, "hash", *got.PasswordHash)
	assert.Equal(t, models.AuthProviderEmail, got.AuthProvider)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, "From Provider", got.DisplayName())
	assert.Equal(t, "active", got.SubscriptionStatus)
	assert.Equal(t, models.AccountTypePaid, got.AccountType)
	require.NotNil(t, got.SubscriptionEnd)
	assert.True(t, got.SubscriptionEnd.Equal(end))
	assert.True(t, got.UpdatedAt.Equal(testNow))
}

func TestMemberRepository_UpsertInsertsNewRow(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Member{
		MemberID: "mem_1", Email: "new@b.com", SubscriptionStatus: "active",
		AccountType: models.AccountTypePaid, AuthProvider: models.AuthProviderGumroad,
	}))

	got, err := repo.GetByEmail(ctx, "new@b.com")
	require.NoError(t, err)
	assert.Equal(t, models.AuthProviderGumroad, got.AuthProvider)
	assert.False(t, got.HasPassword())
}

func TestMemberRepository_LogEventAndPing(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.LogEvent(ctx, &models.SubscriptionEventLog{
		EventID: "evt_1", Email: "a@b.com", Provider: "gumroad", EventLabel: "gumroad_webhook", ReceivedAt: testNow,
	}))

	var logged models.SubscriptionEventLog
	require.NoError(t, db.First(&logged, "event_id = ?", "evt_1").Error)
	assert.Equal(t, "a@b.com", logged.Email)
}

func TestMemberRepository_UpsertSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMemberRepository(db)

	conflict := `ON CONFLICT ("email") DO UPDATE SET "name"="excluded"."name",` +
		`"subscription_status"="excluded"."subscription_status",` +
		`"subscription_start"="excluded"."subscription_start",` +
		`"subscription_end"="excluded"."subscription_end",` +
		`"cancelled_at"="excluded"."cancelled_at",` +
		`"gumroad_subscription_id"="excluded"."gumroad_subscription_id",` +
		`"subscription_event"="excluded"."subscription_event",` +
		`"account_type"="excluded"."account_type",` +
		`"updated_at"="excluded"."updated_at"`
	mock.ExpectExec(`INSERT INTO "members" .*` + regexp.QuoteMeta(conflict)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Member{
		MemberID: "mem_1", Email: "a@b.com", SubscriptionStatus: "active",
		AccountType: models.AccountTypePaid, AuthProvider: models.AuthProviderGumroad,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_CreateSQLDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMemberRepository(db)

	mock.ExpectExec(`INSERT INTO "members" .*` + regexp.QuoteMeta(`ON CONFLICT ("email") DO NOTHING`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), &models.Member{
		MemberID: "mem_1", Email: "a@b.com", SubscriptionStatus: "inactive",
		AccountType: models.AccountTypeFree, AuthProvider: models.AuthProviderEmail,
	})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_GetByEmailStoreError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMemberRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "members" WHERE email = \$1`).
		WithArgs("a@b.com", 1).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByEmail(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrMemberNotFound)
	assert.Contains(t, err.Error(), "failed to get member")
	assert.NoError(t, mock.ExpectationsWereMet())
}
