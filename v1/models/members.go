package models

import "time"

// Member is the single authoritative record per normalized email
type Member struct {
	MemberID              string       `gorm:"primarykey;column:member_id" json:"memberId"`
	Email                 string       `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name                  *string      `gorm:"column:name" json:"name,omitempty"`
	PasswordHash          *string      `gorm:"column:password_hash" json:"-"`
	SubscriptionStatus    string       `gorm:"column:subscription_status;not null;default:inactive" json:"subscriptionStatus"`
	SubscriptionStart     *time.Time   `gorm:"column:subscription_start" json:"subscriptionStart,omitempty"`
	SubscriptionEnd       *time.Time   `gorm:"column:subscription_end" json:"subscriptionEnd,omitempty"`
	CancelledAt           *time.Time   `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	GumroadSubscriptionID *string      `gorm:"column:gumroad_subscription_id" json:"gumroadSubscriptionId,omitempty"`
	SubscriptionEvent     string       `gorm:"column:subscription_event" json:"subscriptionEvent,omitempty"`
	AccountType           AccountType  `gorm:"column:account_type;not null;default:free" json:"accountType"`
	AuthProvider          AuthProvider `gorm:"column:auth_provider;not null;default:email" json:"authProvider"`
	BaseModel
}

// TableName sets the table name for GORM
func (Member) TableName() string {
	return "members"
}

// HasPassword reports whether the member has set a credential
func (m *Member) HasPassword() bool {
	return m.PasswordHash != nil && *m.PasswordHash != ""
}

// DisplayName returns the stored name or an empty string
func (m *Member) DisplayName() string {
	if m.Name == nil {
		return ""
	}
	return *m.Name
}
