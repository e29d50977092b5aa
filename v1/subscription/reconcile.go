// Package subscription holds the pure subscription policy: how a provider event combines with
// a stored member record, and whether a stored record grants access at a given instant.
// Nothing in this package performs I/O.
package subscription

import (
	"strings"
	"time"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
)

// Event is a provider lifecycle notification normalized at the HTTP boundary
type Event struct {
	Email                  string
	Name                   string
	ExternalSubscriptionID string
	// CancelledAt is the raw provider value. Any non-empty value marks a cancellation notice.
	CancelledAt string
}

// NewEvent trims every field and normalizes the email
func NewEvent(email, name, externalSubscriptionID, cancelledAt string) Event {
	return Event{
		Email:                  strings.ToLower(strings.TrimSpace(email)),
		Name:                   strings.TrimSpace(name),
		ExternalSubscriptionID: strings.TrimSpace(externalSubscriptionID),
		CancelledAt:            strings.TrimSpace(cancelledAt),
	}
}

// IsCancellation reports whether the event is a cancellation notice
func (e Event) IsCancellation() bool {
	return e.CancelledAt != ""
}

// MemberUpdate is the full set of fields to upsert for one event
type MemberUpdate struct {
	Email                  string
	Name                   *string
	SubscriptionStatus     string
	SubscriptionStart      time.Time
	SubscriptionEnd        time.Time
	CancelledAt            *time.Time
	AccountType            models.AccountType
	SubscriptionEvent      string
	ExternalSubscriptionID *string
	// AuthProvider only applies when the upsert inserts a new row
	AuthProvider models.AuthProvider
}

// Reconcile computes the next stored state for the event's member.
// current is nil on first contact. The only error is a missing email.
func Reconcile(current *models.Member, event Event, now time.Time) (MemberUpdate, error) {
	if event.Email == "" {
		return MemberUpdate{}, models.ErrEmailRequired
	}

	status := models.SubscriptionStatusActive
	if event.IsCancellation() {
		status = models.SubscriptionStatusCancelled
	}

	update := MemberUpdate{
		Email:              event.Email,
		SubscriptionStatus: status,
		SubscriptionStart:  now,
		SubscriptionEnd:    nextSubscriptionEnd(current, status, now),
		AccountType:        AccountTypeFor(status),
		SubscriptionEvent:  models.EventLabelGumroadWebhook,
		AuthProvider:       models.AuthProviderGumroad,
	}

	if status == models.SubscriptionStatusCancelled {
		cancelledAt := now
		update.CancelledAt = &cancelledAt
	}

	if event.Name != "" {
		name := event.Name
		update.Name = &name
	} else if current != nil {
		update.Name = current.Name
	}

	if event.ExternalSubscriptionID != "" {
		id := event.ExternalSubscriptionID
		update.ExternalSubscriptionID = &id
	} else if current != nil {
		update.ExternalSubscriptionID = current.GumroadSubscriptionID
	}

	if current != nil && current.AuthProvider != "" {
		update.AuthProvider = current.AuthProvider
	}

	return update, nil
}

// nextSubscriptionEnd stacks an active renewal onto an unexpired window and restarts the clock otherwise
func nextSubscriptionEnd(current *models.Member, status string, now time.Time) time.Time {
	if status == models.SubscriptionStatusActive &&
		current != nil &&
		current.SubscriptionEnd != nil &&
		!windowExpired(current.SubscriptionEnd, now) {
		return current.SubscriptionEnd.Add(models.RenewalPeriod)
	}
	return now.Add(models.RenewalPeriod)
}

// AccountTypeFor maps a subscription status to its tier. Cancelled members keep the paid tier until expiry.
func AccountTypeFor(status string) models.AccountType {
	switch status {
	case models.SubscriptionStatusActive, models.SubscriptionStatusCancelled:
		return models.AccountTypePaid
	default:
		return models.AccountTypeFree
	}
}

// Apply copies the update onto a member row, leaving credentials and bookkeeping alone
func (u MemberUpdate) Apply(m *models.Member) {
	start := u.SubscriptionStart
	end := u.SubscriptionEnd

	m.Email = u.Email
	m.Name = u.Name
	m.SubscriptionStatus = u.SubscriptionStatus
	m.SubscriptionStart = &start
	m.SubscriptionEnd = &end
	m.CancelledAt = u.CancelledAt
	m.AccountType = u.AccountType
	m.SubscriptionEvent = u.SubscriptionEvent
	m.GumroadSubscriptionID = u.ExternalSubscriptionID
	if m.AuthProvider == "" {
		m.AuthProvider = u.AuthProvider
	}
}
