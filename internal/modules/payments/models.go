package payments

import (
	"time"

	"gorm.io/datatypes"
)

// ProviderEvent is an audit row per verified webhook delivery. It does not
// gate processing: redeliveries are applied again (the overwrite semantics
// make that safe for identical events), this table only keeps the trail.
type ProviderEvent struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	Provider    string         `gorm:"type:varchar(64);not null;index:ix_provider_events_provider"`
	EventID     string         `gorm:"type:varchar(128);not null;index:ix_provider_events_event_id"`
	EventType   string         `gorm:"type:varchar(64);not null"`
	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`

	ReceivedAt   time.Time  `gorm:"type:datetime(3);not null"`
	ProcessedAt  *time.Time `gorm:"type:datetime(3)"`
	ProcessError *string    `gorm:"type:varchar(255)"`
}

func (ProviderEvent) TableName() string { return "provider_events" }
