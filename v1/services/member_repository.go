package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/monitoring"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const storeTarget = "postgres"

// upsertColumns are overwritten when a webhook upsert hits an existing email.
// member_id, email, password_hash, auth_provider and created_at keep their stored values.
var upsertColumns = []string{
	"name",
	"subscription_status",
	"subscription_start",
	"subscription_end",
	"cancelled_at",
	"gumroad_subscription_id",
	"subscription_event",
	"account_type",
	"updated_at",
}

// MemberRepository is the member record store
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a repository over the given connection pool
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// GetByEmail loads the member for a normalized email, or ErrMemberNotFound
func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	err := monitoring.TrackExternalCall(storeTarget, "get_member", func() error {
		return r.db.WithContext(ctx).Where("email = ?", email).First(&member).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &member, nil
}

// Upsert inserts the member or, on an email conflict, overwrites the subscription columns
func (r *MemberRepository) Upsert(ctx context.Context, member *models.Member) error {
	err := monitoring.TrackExternalCall(storeTarget, "upsert_member", func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoUpdates: clause.AssignmentColumns(upsertColumns),
			}).
			Create(member).Error
	})
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// Create inserts a new member. An existing row for the email yields ErrDuplicateEmail and is left untouched.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	var rowsAffected int64
	err := monitoring.TrackExternalCall(storeTarget, "create_member", func() error {
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
			Create(member)
		rowsAffected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrDuplicateEmail
	}
	return nil
}

// LogEvent appends a provider event to the event log
func (r *MemberRepository) LogEvent(ctx context.Context, event *models.SubscriptionEventLog) error {
	err := monitoring.TrackExternalCall(storeTarget, "log_subscription_event", func() error {
		return r.db.WithContext(ctx).Create(event).Error
	})
	if err != nil {
		return fmt.Errorf("failed to log subscription event: %w", err)
	}
	return nil
}

// Ping checks that the store accepts connections
func (r *MemberRepository) Ping(ctx context.Context) error {
	return monitoring.TrackExternalCall(storeTarget, "ping", func() error {
		sqlDB, err := r.db.DB()
		if err != nil {
			return fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		return sqlDB.PingContext(ctx)
	})
}
