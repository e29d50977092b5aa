package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntitlementService_EmptyEmailSkipsStore(t *testing.T) {
	db, mock := setupMockDB(t)
	service := NewEntitlementService(NewMemberRepository(db))

	resp, err := service.ValidateUser(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, resp.Active)
	assert.Equal(t, models.ReasonEmailRequired, resp.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntitlementService_StoreFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	service := NewEntitlementService(NewMemberRepository(db))

	mock.ExpectQuery(`SELECT \* FROM "members"`).
		WithArgs("a@b.com", 1).
		WillReturnError(errors.New("connection refused"))

	resp, err := service.ValidateUser(context.Background(), "A@b.com")
	assert.Nil(t, resp)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntitlementService_ValidateUser(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	repo := NewMemberRepository(db)
	service := NewEntitlementService(repo)
	service.now = func() time.Time { return testNow }
	ctx := context.Background()

	future := testNow.Add(24 * time.Hour)
	past := testNow.Add(-24 * time.Hour)
	seed := []*models.Member{
		{MemberID: "m1", Email: "active@b.com", SubscriptionStatus: "active", SubscriptionEnd: &future, AccountType: models.AccountTypePaid, AuthProvider: models.AuthProviderGumroad},
		{MemberID: "m2", Email: "cancelled@b.com", SubscriptionStatus: "cancelled", SubscriptionEnd: &future, AccountType: models.AccountTypePaid, AuthProvider: models.AuthProviderGumroad},
		{MemberID: "m3", Email: "expired@b.com", SubscriptionStatus: "active", SubscriptionEnd: &past, AccountType: models.AccountTypePaid, AuthProvider: models.AuthProviderGumroad},
		{MemberID: "m4", Email: "free@b.com", SubscriptionStatus: "inactive", AccountType: models.AccountTypeFree, AuthProvider: models.AuthProviderEmail},
	}
	for _, m := range seed {
		require.NoError(t, repo.Upsert(ctx, m))
	}

	tests := []struct {
		email       string
		wantActive  bool
		wantReason  string
		wantAccount models.AccountType
	}{
		{"active@b.com", true, "active", models.AccountTypePaid},
		{" Cancelled@B.com ", true, "cancelled", models.AccountTypePaid},
		{"expired@b.com", false, "subscription_expired", models.AccountTypePaid},
		{"free@b.com", false, "inactive", models.AccountTypeFree},
		{"unknown@b.com", false, "user_not_found", ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			resp, err := service.ValidateUser(ctx, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.wantActive, resp.Active)
			assert.Equal(t, tt.wantReason, resp.Reason)
			assert.Equal(t, tt.wantAccount, resp.AccountType)
		})
	}
}

func TestEntitlementService_NotFoundQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	service := NewEntitlementService(NewMemberRepository(db))

	mock.ExpectQuery(`SELECT \* FROM "members" WHERE email = \$1`).
		WithArgs("ghost@b.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"member_id", "email"}))

	resp, err := service.ValidateUser(context.Background(), "ghost@b.com")
	require.NoError(t, err)
	assert.Equal(t, models.ReasonUserNotFound, resp.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}
