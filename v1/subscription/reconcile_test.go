package subscription

import (
	"testing"
	"time"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestNewEvent(t *testing.T) {
	e := NewEvent("  Buyer@Example.COM ", " Ada ", " sub_1 ", "")
	assert.Equal(t, "buyer@example.com", e.Email)
	assert.Equal(t, "Ada", e.Name)
	assert.Equal(t, "sub_1", e.ExternalSubscriptionID)
	assert.False(t, e.IsCancellation())

	cancel := NewEvent("a@b.com", "", "", "2025-03-01T00:00:00Z")
	assert.True(t, cancel.IsCancellation())
}

func TestReconcile_EmptyEmail(t *testing.T) {
	_, err := Reconcile(nil, NewEvent("   ", "Ada", "", ""), testNow)
	require.ErrorIs(t, err, models.ErrEmailRequired)
	assert.True(t, models.IsValidationError(err))
}

func TestReconcile_NewMember(t *testing.T) {
	update, err := Reconcile(nil, NewEvent("new@example.com", "New Buyer", "sub_123", ""), testNow)
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", update.Email)
	assert.Equal(t, models.SubscriptionStatusActive, update.SubscriptionStatus)
	assert.Equal(t, testNow, update.SubscriptionStart)
	assert.Equal(t, testNow.Add(30*24*time.Hour), update.SubscriptionEnd)
	assert.Nil(t, update.CancelledAt)
	assert.Equal(t, models.AccountTypePaid, update.AccountType)
	assert.Equal(t, "gumroad_webhook", update.SubscriptionEvent)
	assert.Equal(t, models.AuthProviderGumroad, update.AuthProvider)
	require.NotNil(t, update.Name)
	assert.Equal(t, "New Buyer", *update.Name)
	require.NotNil(t, update.ExternalSubscriptionID)
	assert.Equal(t, "sub_123", *update.ExternalSubscriptionID)
}

func TestReconcile_SubscriptionEnd(t *testing.T) {
	tests := []struct {
		name        string
		current     *models.Member
		cancelledAt string
		wantEnd     time.Time
	}{
		{
			name:    "renewal stacks onto unexpired window",
			current: &models.Member{Email: "a@b.com", SubscriptionStatus: "active", SubscriptionEnd: timePtr(testNow.Add(10 * 24 * time.Hour))},
			wantEnd: testNow.Add(40 * 24 * time.Hour),
		},
		{
			name:    "lapsed member restarts from now",
			current: &models.Member{Email: "a@b.com", SubscriptionStatus: "active", SubscriptionEnd: timePtr(testNow.Add(-5 * 24 * time.Hour))},
			wantEnd: testNow.Add(30 * 24 * time.Hour),
		},
		{
			name:    "end equal to now is unexpired and stacks",
			current: &models.Member{Email: "a@b.com", SubscriptionStatus: "active", SubscriptionEnd: timePtr(testNow)},
			wantEnd: testNow.Add(30 * 24 * time.Hour),
		},
		{
			name:    "existing member without end restarts from now",
			current: &models.Member{Email: "a@b.com", SubscriptionStatus: "inactive"},
			wantEnd: testNow.Add(30 * 24 * time.Hour),
		},
		{
			name:        "cancellation never stacks",
			current:     &models.Member{Email: "a@b.com", SubscriptionStatus: "active", SubscriptionEnd: timePtr(testNow.Add(20 * 24 * time.Hour))},
			cancelledAt: "2025-03-01",
			wantEnd:     testNow.Add(30 * 24 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := Reconcile(tt.current, NewEvent("a@b.com", "", "", tt.cancelledAt), testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnd, update.SubscriptionEnd)
		})
	}
}

func TestReconcile_Cancellation(t *testing.T) {
	current := &models.Member{
		Email:                 "a@b.com",
		Name:                  strPtr("Stored"),
		SubscriptionStatus:    "active",
		GumroadSubscriptionID: strPtr("sub_old"),
		AuthProvider:          models.AuthProviderEmail,
	}

	update, err := Reconcile(current, NewEvent("a@b.com", "", "", "yes"), testNow)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusCancelled, update.SubscriptionStatus)
	require.NotNil(t, update.CancelledAt)
	assert.Equal(t, testNow, *update.CancelledAt)
	assert.Equal(t, models.AccountTypePaid, update.AccountType)
	assert.Equal(t, "Stored", *update.Name)
	assert.Equal(t, "sub_old", *update.ExternalSubscriptionID)
	assert.Equal(t, models.AuthProviderEmail, update.AuthProvider)
}

func TestReconcile_ActiveClearsCancelledAt(t *testing.T) {
	current := &models.Member{
		Email:              "a@b.com",
		SubscriptionStatus: "cancelled",
		CancelledAt:        timePtr(testNow.Add(-24 * time.Hour)),
		SubscriptionEnd:    timePtr(testNow.Add(24 * time.Hour)),
	}

	update, err := Reconcile(current, NewEvent("a@b.com", "", "", ""), testNow)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, update.SubscriptionStatus)
	assert.Nil(t, update.CancelledAt)
	assert.Equal(t, testNow.Add(31*24*time.Hour), update.SubscriptionEnd)
}

func TestReconcile_EventValuesWin(t *testing.T) {
	current := &models.Member{Email: "a@b.com", Name: strPtr("Old"), GumroadSubscriptionID: strPtr("sub_old")}

	update, err := Reconcile(current, NewEvent("a@b.com", "New", "sub_new", ""), testNow)
	require.NoError(t, err)
	assert.Equal(t, "New", *update.Name)
	assert.Equal(t, "sub_new", *update.ExternalSubscriptionID)
}

func TestReconcile_TwoRenewalsStack(t *testing.T) {
	first, err := Reconcile(nil, NewEvent("a@b.com", "", "", ""), testNow)
	require.NoError(t, err)

	var member models.Member
	first.Apply(&member)

	second, err := Reconcile(&member, NewEvent("a@b.com", "", "", ""), testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(60*24*time.Hour), second.SubscriptionEnd)
}

func TestMemberUpdate_Apply(t *testing.T) {
	hash := "hash"
	member := &models.Member{
		MemberID:     "mem_1",
		Email:        "a@b.com",
		PasswordHash: &hash,
		AuthProvider: models.AuthProviderEmail,
	}

	update, err := Reconcile(member, NewEvent("a@b.com", "Ada", "sub_1", ""), testNow)
	require.NoError(t, err)
	update.Apply(member)

	assert.Equal(t, "mem_1", member.MemberID)
	assert.Equal(t, &hash, member.PasswordHash)
	assert.Equal(t, models.AuthProviderEmail, member.AuthProvider)
	assert.Equal(t, models.SubscriptionStatusActive, member.SubscriptionStatus)
	assert.Equal(t, testNow, *member.SubscriptionStart)
	assert.Equal(t, testNow.Add(30*24*time.Hour), *member.SubscriptionEnd)
	assert.Equal(t, "Ada", member.DisplayName())

	fresh := &models.Member{}
	update.Apply(fresh)
	assert.Equal(t, models.AuthProviderEmail, fresh.AuthProvider)
}

func TestAccountTypeFor(t *testing.T) {
	assert.Equal(t, models.AccountTypePaid, AccountTypeFor("active"))
	assert.Equal(t, models.AccountTypePaid, AccountTypeFor("cancelled"))
	assert.Equal(t, models.AccountTypeFree, AccountTypeFor("inactive"))
	assert.Equal(t, models.AccountTypeFree, AccountTypeFor(""))
}

func TestSubscriptionBoundary_EndEqualsNow(t *testing.T) {
	current := &models.Member{Email: "a@b.com", SubscriptionStatus: "active", SubscriptionEnd: timePtr(testNow)}

	assert.False(t, windowExpired(current.SubscriptionEnd, testNow))
	assert.True(t, windowExpired(current.SubscriptionEnd, testNow.Add(time.Nanosecond)))
	assert.False(t, windowExpired(nil, testNow))

	assert.Equal(t, Entitlement{Active: true, Reason: models.ReasonActive}, MemberEntitlement(current, testNow))

	update, err := Reconcile(current, NewEvent("a@b.com", "", "", ""), testNow)
	require.NoError(t, err)
	assert.Equal(t, current.SubscriptionEnd.Add(models.RenewalPeriod), update.SubscriptionEnd)

	// One nanosecond later the window has lapsed and the renewal restarts from now
	later := testNow.Add(time.Nanosecond)
	update, err = Reconcile(current, NewEvent("a@b.com", "", "", ""), later)
	require.NoError(t, err)
	assert.Equal(t, later.Add(models.RenewalPeriod), update.SubscriptionEnd)
	assert.Equal(t, Entitlement{Active: false, Reason: models.ReasonSubscriptionExpired}, MemberEntitlement(current, later))
}
