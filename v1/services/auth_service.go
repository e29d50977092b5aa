package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/audit"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/monitoring"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/utils"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/auth"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Business event names recorded by the services
const (
	eventMemberRegistered   = "member_registered"
	eventMemberLogin        = "member_login"
	eventWebhookProcessed   = "webhook_processed"
	eventEntitlementChecked = "entitlement_checked"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeGranted = "granted"
	outcomeDenied  = "denied"
)

// dummyHash stands in for a missing hash so every login pays one bcrypt comparison
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("membership-timing-equalizer"), bcrypt.DefaultCost)

// AuthService handles member registration and login
type AuthService struct {
	members    *MemberRepository
	tokens     *auth.TokenIssuer
	auditor    audit.Auditor
	bcryptCost int
}

// NewAuthService creates a new auth service
func NewAuthService(members *MemberRepository, tokens *auth.TokenIssuer, auditor audit.Auditor) *AuthService {
	return &AuthService{
		members:    members,
		tokens:     tokens,
		auditor:    auditor,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register creates a credentialed member and returns an access token.
// Any existing record for the email, including one created by a provider event, is a duplicate.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenResponse, error) {
	email := utils.NormalizeEmail(req.Email)
	if err := validateCredentials(email, req.Password); err != nil {
		return nil, err
	}
	if len(req.Password) < models.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidInput, models.MinPasswordLength)
	}

	var name *string
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if len(trimmed) > models.MaxNameLength {
			return nil, fmt.Errorf("%w: name exceeds %d characters", models.ErrInvalidInput, models.MaxNameLength)
		}
		if trimmed != "" {
			name = &trimmed
		}
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashBytes)

	member := &models.Member{
		MemberID:           newMemberID(),
		Email:              email,
		Name:               name,
		PasswordHash:       &hash,
		SubscriptionStatus: models.SubscriptionStatusInactive,
		AccountType:        models.AccountTypeFree,
		AuthProvider:       models.AuthProviderEmail,
	}

	if err := s.members.Create(ctx, member); err != nil {
		monitoring.RecordBusinessEvent(eventMemberRegistered, outcomeFailure)
		if errors.Is(err, models.ErrDuplicateEmail) {
			slog.Warn("Registration rejected for existing email", "email", email)
			s.logAudit(ctx, audit.EventTypeMemberRegistered, audit.ActionCreate, email, audit.StatusFailure, "duplicate_email")
			return nil, err
		}
		slog.Error("Failed to create member", "email", email, "error", err)
		return nil, err
	}

	token, err := s.tokens.Issue(member)
	if err != nil {
		return nil, err
	}

	slog.Info("Member registered", "memberId", member.MemberID, "email", email)
	monitoring.RecordBusinessEvent(eventMemberRegistered, outcomeSuccess)
	s.logAudit(ctx, audit.EventTypeMemberRegistered, audit.ActionCreate, email, audit.StatusSuccess, "")
	return token, nil
}

// Login verifies the password and returns an access token.
// Every failure, including a provider-created record without a password, is ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	email := utils.NormalizeEmail(req.Email)
	if email == "" {
		return nil, models.ErrEmailRequired
	}
	if req.Password == "" {
		return nil, models.ErrPasswordRequired
	}

	// Malformed input is a credential failure like any other, so no lookup is made for it
	var member *models.Member
	if validateCredentials(email, req.Password) == nil {
		var err error
		member, err = s.members.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, models.ErrMemberNotFound) {
			slog.Error("Failed to load member for login", "email", email, "error", err)
			return nil, err
		}
	}

	hash := dummyHash
	if member != nil && member.HasPassword() {
		hash = []byte(*member.PasswordHash)
	}
	compareErr := bcrypt.CompareHashAndPassword(hash, []byte(req.Password))

	if member == nil || !member.HasPassword() || compareErr != nil {
		slog.Warn("Login rejected", "email", email)
		monitoring.RecordBusinessEvent(eventMemberLogin, outcomeFailure)
		s.logAudit(ctx, audit.EventTypeMemberLogin, audit.ActionRead, email, audit.StatusFailure, "invalid_credentials")
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(member)
	if err != nil {
		return nil, err
	}

	monitoring.RecordBusinessEvent(eventMemberLogin, outcomeSuccess)
	s.logAudit(ctx, audit.EventTypeMemberLogin, audit.ActionRead, email, audit.StatusSuccess, "")
	return token, nil
}

// CurrentMember loads the member behind an authenticated token
func (s *AuthService) CurrentMember(ctx context.Context, email string) (*models.Member, error) {
	return s.members.GetByEmail(ctx, utils.NormalizeEmail(email))
}

func (s *AuthService) logAudit(ctx context.Context, eventType, action, email, status, reason string) {
	if s.auditor == nil || !s.auditor.IsEnabled() {
		return
	}
	event := audit.NewEvent(eventType, action, audit.ActorTypeMember, email, models.ResourceTypeMembers, status).
		WithTraceID(monitoring.GetTraceIDFromContext(ctx))
	if reason != "" {
		event.WithMetadata(map[string]interface{}{"reason": reason})
	}
	s.auditor.LogEvent(ctx, event)
}

// validateCredentials checks the presence and size of register/login input
func validateCredentials(email, password string) error {
	if email == "" {
		return models.ErrEmailRequired
	}
	if password == "" {
		return models.ErrPasswordRequired
	}
	if len(email) > models.MaxEmailLength || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: malformed email", models.ErrInvalidInput)
	}
	if len(password) > models.MaxPasswordLength {
		return fmt.Errorf("%w: password exceeds %d bytes", models.ErrInvalidInput, models.MaxPasswordLength)
	}
	return nil
}

func newMemberID() string {
	return "mem_" + uuid.New().String()
}

// nowUTC is the default clock for services that stamp records
func nowUTC() time.Time {
	return time.Now().UTC()
}
