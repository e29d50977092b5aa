package models

import "time"

// SubscriptionEventLog records every provider event the webhook accepted, together with its outcome
type SubscriptionEventLog struct {
	EventID                string     `gorm:"primarykey;column:event_id" json:"eventId"`
	Email                  string     `gorm:"column:email;not null;index" json:"email"`
	Provider               string     `gorm:"column:provider;not null" json:"provider"`
	EventLabel             string     `gorm:"column:event_label;not null" json:"eventLabel"`
	ExternalSubscriptionID *string    `gorm:"column:external_subscription_id" json:"externalSubscriptionId,omitempty"`
	Cancelled              bool       `gorm:"column:cancelled;not null" json:"cancelled"`
	ResultingStatus        string     `gorm:"column:resulting_status" json:"resultingStatus,omitempty"`
	ResultingEnd           *time.Time `gorm:"column:resulting_end" json:"resultingEnd,omitempty"`
	ProcessingError        string     `gorm:"column:processing_error" json:"processingError,omitempty"`
	ReceivedAt             time.Time  `gorm:"column:received_at;not null;index" json:"receivedAt"`
}

// TableName sets the table name for GORM
func (SubscriptionEventLog) TableName() string {
	return "subscription_events"
}
