package subscription

import (
	"time"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
)

// Entitlement is an access decision plus the reason behind it
type Entitlement struct {
	Active bool
	Reason string
}

// DeriveEntitlement decides access from a stored status and window end.
// The window end is checked first, so an expired window denies access whatever the status says.
func DeriveEntitlement(status string, subscriptionEnd *time.Time, now time.Time) Entitlement {
	if windowExpired(subscriptionEnd, now) {
		return Entitlement{Active: false, Reason: models.ReasonSubscriptionExpired}
	}

	switch status {
	case models.SubscriptionStatusActive:
		return Entitlement{Active: true, Reason: models.ReasonActive}
	case models.SubscriptionStatusCancelled:
		return Entitlement{Active: true, Reason: models.ReasonCancelled}
	case "":
		return Entitlement{Active: false, Reason: models.ReasonInactive}
	default:
		return Entitlement{Active: false, Reason: status}
	}
}

// windowExpired reports whether a paid window ended strictly before now. A window ending exactly at now is still open.
func windowExpired(subscriptionEnd *time.Time, now time.Time) bool {
	return subscriptionEnd != nil && subscriptionEnd.Before(now)
}

// MemberEntitlement derives the entitlement of a stored member
func MemberEntitlement(m *models.Member, now time.Time) Entitlement {
	if m == nil {
		return Entitlement{Active: false, Reason: models.ReasonUserNotFound}
	}
	return DeriveEntitlement(m.SubscriptionStatus, m.SubscriptionEnd, now)
}
