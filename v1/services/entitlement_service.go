package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/monitoring"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/utils"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/subscription"
)

// EntitlementService answers whether a member currently has access
type EntitlementService struct {
	members *MemberRepository
	now     func() time.Time
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(members *MemberRepository) *EntitlementService {
	return &EntitlementService{members: members, now: nowUTC}
}

// ValidateUser derives the entitlement for an email. An empty email is answered without touching the store.
func (s *EntitlementService) ValidateUser(ctx context.Context, email string) (*models.EntitlementResponse, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return &models.EntitlementResponse{Active: false, Reason: models.ReasonEmailRequired}, nil
	}

	member, err := s.members.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrMemberNotFound) {
			monitoring.RecordBusinessEvent(eventEntitlementChecked, outcomeDenied)
			return &models.EntitlementResponse{Active: false, Reason: models.ReasonUserNotFound}, nil
		}
		slog.Error("Failed to load member for entitlement check", "email", email, "error", err)
		return nil, err
	}

	entitlement := subscription.MemberEntitlement(member, s.now())
	outcome := outcomeDenied
	if entitlement.Active {
		outcome = outcomeGranted
	}
	monitoring.RecordBusinessEvent(eventEntitlementChecked, outcome)

	return &models.EntitlementResponse{
		Active:          entitlement.Active,
		Reason:          entitlement.Reason,
		AccountType:     member.AccountType,
		SubscriptionEnd: member.SubscriptionEnd,
	}, nil
}
