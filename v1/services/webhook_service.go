package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/audit"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/monitoring"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/subscription"
	"github.com/google/uuid"
)

// DefaultWebhookLockTTL bounds how long a crashed holder can block a member
const DefaultWebhookLockTTL = 10 * time.Second

const lockTarget = "member_lock"

// WebhookService applies provider subscription events to member records
type WebhookService struct {
	members *MemberRepository
	locker  MemberLocker
	lockTTL time.Duration
	auditor audit.Auditor
	now     func() time.Time
}

// NewWebhookService creates a new webhook service
func NewWebhookService(members *MemberRepository, locker MemberLocker, lockTTL time.Duration, auditor audit.Auditor) *WebhookService {
	if lockTTL <= 0 {
		lockTTL = DefaultWebhookLockTTL
	}
	return &WebhookService{
		members: members,
		locker:  locker,
		lockTTL: lockTTL,
		auditor: auditor,
		now:     nowUTC,
	}
}

// ProcessEvent reconciles one provider event into the member record and returns the stored state.
// Events for the same email are applied one at a time, so concurrent renewals stack like sequential ones.
func (s *WebhookService) ProcessEvent(ctx context.Context, event subscription.Event) (*models.Member, error) {
	if event.Email == "" {
		return nil, models.ErrEmailRequired
	}

	var release func()
	err := monitoring.TrackExternalCall(lockTarget, "acquire", func() error {
		var acquireErr error
		release, acquireErr = s.locker.Acquire(ctx, event.Email, s.lockTTL)
		return acquireErr
	})
	if err != nil {
		monitoring.RecordBusinessEvent(eventWebhookProcessed, outcomeFailure)
		return nil, fmt.Errorf("failed to lock member: %w", err)
	}
	defer release()

	member, err := s.apply(ctx, event)
	if err != nil {
		slog.Error("Failed to apply subscription event", "email", event.Email, "error", err)
		monitoring.RecordBusinessEvent(eventWebhookProcessed, outcomeFailure)
		s.recordEvent(ctx, event, nil, err)
		s.logAudit(ctx, event, nil, audit.StatusFailure)
		return nil, err
	}

	slog.Info("Subscription event applied",
		"email", member.Email,
		"status", member.SubscriptionStatus,
		"subscriptionEnd", member.SubscriptionEnd)
	monitoring.RecordBusinessEvent(eventWebhookProcessed, outcomeSuccess)
	s.recordEvent(ctx, event, member, nil)
	s.logAudit(ctx, event, member, audit.StatusSuccess)
	return member, nil
}

// apply runs read, reconcile and upsert. The caller holds the member lock.
func (s *WebhookService) apply(ctx context.Context, event subscription.Event) (*models.Member, error) {
	current, err := s.members.GetByEmail(ctx, event.Email)
	if err != nil {
		if !errors.Is(err, models.ErrMemberNotFound) {
			return nil, err
		}
		current = nil
	}

	now := s.now()
	update, err := subscription.Reconcile(current, event, now)
	if err != nil {
		return nil, err
	}

	// A fresh id is only used when the upsert inserts
	row := &models.Member{MemberID: newMemberID()}
	update.Apply(row)
	row.CreatedAt = now
	row.UpdatedAt = now
	if err := s.members.Upsert(ctx, row); err != nil {
		return nil, err
	}

	if current == nil {
		return row, nil
	}
	update.Apply(current)
	current.UpdatedAt = now
	return current, nil
}

// recordEvent appends to the provider event log. Failures are logged and never fail the webhook.
func (s *WebhookService) recordEvent(ctx context.Context, event subscription.Event, member *models.Member, procErr error) {
	entry := &models.SubscriptionEventLog{
		EventID:    uuid.New().String(),
		Email:      event.Email,
		Provider:   models.ProviderGumroad,
		EventLabel: models.EventLabelGumroadWebhook,
		Cancelled:  event.IsCancellation(),
		ReceivedAt: s.now(),
	}
	if event.ExternalSubscriptionID != "" {
		id := event.ExternalSubscriptionID
		entry.ExternalSubscriptionID = &id
	}
	if member != nil {
		entry.ResultingStatus = member.SubscriptionStatus
		entry.ResultingEnd = member.SubscriptionEnd
	}
	if procErr != nil {
		entry.ProcessingError = procErr.Error()
	}

	if err := s.members.LogEvent(ctx, entry); err != nil {
		slog.Warn("Failed to record subscription event", "email", event.Email, "error", err)
	}
}

func (s *WebhookService) logAudit(ctx context.Context, event subscription.Event, member *models.Member, status string) {
	if s.auditor == nil || !s.auditor.IsEnabled() {
		return
	}
	metadata := map[string]interface{}{
		"provider":  models.ProviderGumroad,
		"cancelled": event.IsCancellation(),
	}
	if member != nil {
		metadata["subscriptionStatus"] = member.SubscriptionStatus
		metadata["accountType"] = member.AccountType
	}
	auditEvent := audit.NewEvent(audit.EventTypeSubscriptionWebhook, audit.ActionUpdate, audit.ActorTypeService,
		models.ProviderGumroad, models.ResourceTypeMembers, status).
		WithTraceID(monitoring.GetTraceIDFromContext(ctx)).
		WithMetadata(metadata)
	s.auditor.LogEvent(ctx, auditEvent)
}
