package purchases

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"learnport.com/app/internal/modules/catalog"
	"learnport.com/app/internal/modules/payments"
)

// CourseCatalog is the narrow slice of the catalog the lifecycle needs:
// price, owning instructor and publish status.
type CourseCatalog interface {
	GetCourseOrFail(ctx context.Context, id string) (catalog.Course, error)
}

type Service struct {
	store    Store
	catalog  CourseCatalog
	registry *payments.Registry
	logger   *slog.Logger
}

func NewService(store Store, cat CourseCatalog, registry *payments.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, catalog: cat, registry: registry, logger: logger}
}

type CreateInput struct {
	UserID        string
	CourseID      string
	PaymentMethod string
}

type CreateResult struct {
	Purchase   *Purchase
	ApproveURL string
}

// Create validates and persists a new PENDING purchase, then opens the
// provider-side payment order and links it to the row.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	course, err := s.catalog.GetCourseOrFail(ctx, in.CourseID)
	if err != nil {
		return CreateResult{}, err
	}
	if !course.Published() {
		return CreateResult{}, ErrCourseNotPublished
	}
	if course.InstructorID == in.UserID {
		return CreateResult{}, ErrSelfPurchase
	}

	if existing, err := s.store.FindActive(ctx, in.UserID, in.CourseID); err != nil {
		return CreateResult{}, err
	} else if existing != nil {
		return CreateResult{}, &AlreadyPurchasedError{Status: existing.Status}
	}

	gw, err := s.registry.Resolve(in.PaymentMethod)
	if err != nil {
		// Unregistered method keys are a wiring bug, not caller input.
		return CreateResult{}, err
	}

	p := &Purchase{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		CourseID:      in.CourseID,
		Amount:        course.Price, // snapshot; never re-read
		Currency:      course.Currency,
		Status:        StatusPending,
		PaymentMethod: in.PaymentMethod,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return CreateResult{}, err
	}

	order, err := gw.CreateOrder(ctx, payments.CreateOrderRequest{
		ReferenceID: p.ID,
		Currency:    p.Currency,
		Amount:      p.Amount,
	})
	if err != nil {
		// Release the active slot; the caller may retry with a fresh purchase.
		p.Status = StatusFailed
		if saveErr := s.store.Save(ctx, p); saveErr != nil {
			s.logger.ErrorContext(ctx, "failed to mark purchase FAILED after gateway error",
				"purchase_id", p.ID, "err", saveErr)
		}
		return CreateResult{}, err
	}

	p.PaymentOrderID = &order.OrderID
	if err := s.store.Save(ctx, p); err != nil {
		return CreateResult{}, err
	}

	s.logger.InfoContext(ctx, "purchase created",
		"purchase_id", p.ID, "course_id", p.CourseID, "user_id", p.UserID,
		"payment_order_id", order.OrderID)
	return CreateResult{Purchase: p, ApproveURL: order.ApproveURL}, nil
}

// UpdateStatus applies an explicit, table-validated status change.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status, paymentTransactionID *string) (*Purchase, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(p.Status, next) {
		return nil, &InvalidTransitionError{From: p.Status, To: next}
	}

	p.Status = next
	if paymentTransactionID != nil {
		p.PaymentTransactionID = paymentTransactionID
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "purchase status updated", "purchase_id", p.ID, "status", string(next))
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Purchase, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Purchase, error) {
	return s.store.ListByUser(ctx, userID)
}
