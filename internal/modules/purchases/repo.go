package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"learnport.com/app/internal/shared/apperr"
)

// Store is the purchase persistence contract. Find* return nil when absent;
// Get* fail not-found with the offending key in the message.
type Store interface {
	FindActive(ctx context.Context, userID, courseID string) (*Purchase, error)
	FindByPaymentOrderID(ctx context.Context, orderID string) (*Purchase, error)
	GetByPaymentOrderID(ctx context.Context, orderID string) (*Purchase, error)
	GetByID(ctx context.Context, id string) (*Purchase, error)
	ListByUser(ctx context.Context, userID string) ([]Purchase, error)
	Create(ctx context.Context, p *Purchase) error
	Save(ctx context.Context, p *Purchase) error
}

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

var _ Store = (*Repo)(nil)

func (r *Repo) FindActive(ctx context.Context, userID, courseID string) (*Purchase, error) {
	var p Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND status IN ?", userID, courseID,
			[]Status{StatusPending, StatusCompleted}).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) FindByPaymentOrderID(ctx context.Context, orderID string) (*Purchase, error) {
	var p Purchase
	err := r.db.WithContext(ctx).First(&p, "payment_order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetByPaymentOrderID(ctx context.Context, orderID string) (*Purchase, error) {
	p, err := r.FindByPaymentOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFoundErr(fmt.Sprintf("purchase with payment order %s not found", orderID))
	}
	return p, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Purchase, error) {
	var p Purchase
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundErr(fmt.Sprintf("purchase %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Purchase, error) {
	var items []Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repo) Create(ctx context.Context, p *Purchase) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.SyncActiveKey()

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDup(err) {
			// Lost the race after the pre-check: report the winner's status.
			if existing, ferr := r.FindActive(ctx, p.UserID, p.CourseID); ferr == nil && existing != nil {
				return &AlreadyPurchasedError{Status: existing.Status}
			}
			return &AlreadyPurchasedError{Status: StatusPending}
		}
		return err
	}
	return nil
}

func (r *Repo) Save(ctx context.Context, p *Purchase) error {
	p.UpdatedAt = time.Now()
	p.SyncActiveKey()
	return r.db.WithContext(ctx).Save(p).Error
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
