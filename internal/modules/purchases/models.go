package purchases

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
	StatusCancelled Status = "CANCELLED"
)

// transitions is the table consulted by explicit status updates only.
// Webhook reconciliation overwrites statuses without consulting it, and
// CANCELLED is reachable through that path alone.
var transitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusRefunded},
	StatusFailed:    {},
	StatusRefunded:  {},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// Active: a purchase that blocks buying the same course again.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusCompleted
}

type Purchase struct {
	ID       string          `gorm:"type:char(36);primaryKey"`
	UserID   string          `gorm:"type:char(36);not null;index:ix_purchases_user_course,priority:1"`
	CourseID string          `gorm:"type:char(36);not null;index:ix_purchases_user_course,priority:2"`
	Amount   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency string          `gorm:"type:char(3);not null"`
	Status   Status          `gorm:"type:varchar(32);not null"`

	PaymentMethod        string  `gorm:"type:varchar(64);not null"`
	PaymentOrderID       *string `gorm:"type:varchar(128);uniqueIndex:ux_purchases_payment_order"`
	PaymentTransactionID *string `gorm:"type:varchar(128)"`
	RefundTransactionID  *string `gorm:"type:varchar(128)"`

	// ActiveKey is user_id:course_id while the purchase is PENDING/COMPLETED
	// and NULL otherwise. Its unique index closes the create/create race at
	// the database level.
	ActiveKey *string `gorm:"type:varchar(80);uniqueIndex:ux_purchases_active_key"`

	CreatedAt time.Time      `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time      `gorm:"type:datetime(3);not null"`
	DeletedAt gorm.DeletedAt `gorm:"type:datetime(3);index"`
}

func (Purchase) TableName() string { return "purchases" }

// SyncActiveKey must run before every insert or save.
func (p *Purchase) SyncActiveKey() {
	if p.Status.Active() {
		key := p.UserID + ":" + p.CourseID
		p.ActiveKey = &key
		return
	}
	p.ActiveKey = nil
}
