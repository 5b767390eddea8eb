package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"learnport.com/app/internal/http/middleware"
	"learnport.com/app/internal/http/validation"
	"learnport.com/app/internal/modules/authz"
	"learnport.com/app/internal/modules/payments"
	"learnport.com/app/internal/modules/purchases"
	"learnport.com/app/internal/shared/apperr"
)

type PurchaseHandler struct {
	Purchases *purchases.Service
}

func NewPurchaseHandler(svc *purchases.Service) *PurchaseHandler {
	return &PurchaseHandler{Purchases: svc}
}

type purchaseJSON struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	CourseID             string    `json:"course_id"`
	Amount               string    `json:"amount"`
	Currency             string    `json:"currency"`
	Status               string    `json:"status"`
	PaymentMethod        string    `json:"payment_method"`
	PaymentOrderID       *string   `json:"payment_order_id"`
	PaymentTransactionID *string   `json:"payment_transaction_id"`
	RefundTransactionID  *string   `json:"refund_transaction_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toPurchaseJSON(p *purchases.Purchase) purchaseJSON {
	return purchaseJSON{
		ID:                   p.ID,
		UserID:               p.UserID,
		CourseID:             p.CourseID,
		Amount:               p.Amount.StringFixed(2),
		Currency:             p.Currency,
		Status:               string(p.Status),
		PaymentMethod:        p.PaymentMethod,
		PaymentOrderID:       p.PaymentOrderID,
		PaymentTransactionID: p.PaymentTransactionID,
		RefundTransactionID:  p.RefundTransactionID,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

type createPurchaseInput struct {
	CourseID      string `json:"course_id" binding:"required,uuid"`
	PaymentMethod string `json:"payment_method" binding:"required,max=64"`
}

// POST /api/purchases
func (h *PurchaseHandler) Create(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var in createPurchaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("invalid purchase payload", validation.FromBindError(err, &in)))
		return
	}

	res, err := h.Purchases.Create(c.Request.Context(), purchases.CreateInput{
		UserID:        u.ID,
		CourseID:      in.CourseID,
		PaymentMethod: in.PaymentMethod,
	})
	if err != nil {
		failPurchase(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"purchase":    toPurchaseJSON(res.Purchase),
		"approve_url": res.ApproveURL,
	})
}

// GET /api/purchases
func (h *PurchaseHandler) List(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	items, err := h.Purchases.ListByUser(c.Request.Context(), u.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := make([]purchaseJSON, len(items))
	for i := range items {
		out[i] = toPurchaseJSON(&items[i])
	}
	c.JSON(http.StatusOK, gin.H{"purchases": out})
}

// GET /api/purchases/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	p, err := h.Purchases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failPurchase(c, err)
		return
	}

	if !authz.IsAllowed(u, authz.PurchaseRead, authz.Subject{OwnerUserID: p.UserID}) {
		middleware.Fail(c, apperr.ForbiddenErr("forbidden"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchase": toPurchaseJSON(p)})
}

type updateStatusInput struct {
	Status               string  `json:"status" binding:"required"`
	PaymentTransactionID *string `json:"payment_transaction_id" binding:"omitempty,max=128"`
}

// PATCH /api/purchases/:id/status
func (h *PurchaseHandler) UpdateStatus(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	if !authz.IsAllowed(u, authz.PurchaseManage, authz.Subject{}) {
		middleware.Fail(c, apperr.ForbiddenErr("forbidden"))
		return
	}

	var in updateStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("invalid status payload", validation.FromBindError(err, &in)))
		return
	}

	next := purchases.Status(in.Status)
	if !purchases.ValidStatus(next) {
		middleware.Fail(c, apperr.InvalidErr("unknown purchase status "+in.Status, nil))
		return
	}

	p, err := h.Purchases.UpdateStatus(c.Request.Context(), c.Param("id"), next, in.PaymentTransactionID)
	if err != nil {
		failPurchase(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchase": toPurchaseJSON(p)})
}

// failPurchase translates purchase/payment domain errors into apperr kinds.
func failPurchase(c *gin.Context, err error) {
	var (
		already    *purchases.AlreadyPurchasedError
		transition *purchases.InvalidTransitionError
		provider   *payments.ProviderError
	)

	switch {
	case errors.Is(err, purchases.ErrCourseNotPublished),
		errors.Is(err, purchases.ErrSelfPurchase):
		middleware.Fail(c, apperr.ForbiddenErr(err.Error()))
	case errors.As(err, &already):
		middleware.Fail(c, apperr.ConflictErr(already.Error()))
	case errors.As(err, &transition):
		middleware.Fail(c, apperr.InvalidErr(transition.Error(), nil))
	case errors.As(err, &provider):
		// Keep the provider's own diagnostics in the response.
		middleware.Fail(c, &apperr.AppError{Kind: apperr.Internal, PublicMsg: provider.Error(), Err: err})
	default:
		if _, ok := apperr.As(err); ok {
			middleware.Fail(c, err)
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
	}
}
