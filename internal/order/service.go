package order

import (
	"context"
	"time"

	"kirana-be/internal/logger"
	"kirana-be/internal/loyalty"
	"kirana-be/internal/metrics"
	"kirana-be/internal/notify"
	"kirana-be/internal/sequence"
	"kirana-be/internal/utils"

	"go.uber.org/zap"
)

type PlaceOrderInput struct {
	UserID       *uint
	CustomerName string
	Email        string
	Phone        string
	Address      string
	DeliverySlot string
	Items        []OrderItem
	ServiceFee   float64
	DeliveryFee  float64
}

type Service interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error)
	ListForOperator(ctx context.Context) ([]*Order, error)
	ListForCustomer(ctx context.Context, userID uint) ([]*Order, error)
	GetDetail(ctx context.Context, id uint) (*Order, error)
	UpdateStatus(ctx context.Context, id uint, target OrderStatus) (*Order, error)
}

type service struct {
	repo     Repository
	codes    *sequence.CodeGenerator
	mailer   notify.Mailer
	dispatch notify.Runner
	creditor loyalty.Creditor
	stats    *metrics.Metrics

	policy     TransitionPolicy
	storeName  string
	adminEmail string
}

func NewService(
	repo Repository,
	codes *sequence.CodeGenerator,
	mailer notify.Mailer,
	dispatch notify.Runner,
	creditor loyalty.Creditor,
	stats *metrics.Metrics,
	policy TransitionPolicy,
	storeName, adminEmail string,
) Service {
	return &service{
		repo:       repo,
		codes:      codes,
		mailer:     mailer,
		dispatch:   dispatch,
		creditor:   creditor,
		stats:      stats,
		policy:     policy,
		storeName:  storeName,
		adminEmail: adminEmail,
	}
}

// PlaceOrder validates the checkout payload, assigns the external order
// code, renders the bill snapshot and persists everything. Creation is
// all-or-nothing: a failure after code allocation leaves a gap in the
// sequence, never a partial order.
func (s *service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.Int("item_count", len(in.Items)),
	)

	if err := validatePlaceOrder(in); err != nil {
		log.Warn("rejected checkout payload", zap.Error(err))
		return nil, err
	}

	now := time.Now().UTC()

	code, err := s.codes.Generate(ctx, now)
	if err != nil {
		return nil, err
	}

	var subtotal float64
	for _, it := range in.Items {
		subtotal += it.Price * float64(it.Quantity)
	}

	o := &Order{
		Code:         code,
		UserID:       in.UserID,
		CustomerName: in.CustomerName,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		DeliverySlot: in.DeliverySlot,
		Items:        in.Items,
		Subtotal:     subtotal,
		ServiceFee:   in.ServiceFee,
		DeliveryFee:  in.DeliveryFee,
		Total:        subtotal + in.ServiceFee + in.DeliveryFee,
		Status:       StatusPending,
		CreatedAt:    now,
	}

	o.BillHTML, err = RenderBill(s.storeName, o)
	if err != nil {
		log.Error("failed to render bill", zap.Error(err))
		return nil, err
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	if s.stats != nil {
		s.stats.OrdersCreated.Inc()
	}

	if s.adminEmail != "" {
		subject := newOrderEmailSubject(o)
		body := newOrderEmailHTML(s.storeName, o)
		to := s.adminEmail
		s.dispatch.Go("admin-new-order-mail", func(ctx context.Context) error {
			err := s.mailer.Send(ctx, to, subject, body)
			s.countEmail(err)
			return err
		})
	}

	log.Info("order placed",
		zap.Uint("order_id", o.ID),
		zap.String("order_code", o.Code),
		zap.Float64("total", o.Total),
	)
	return o, nil
}

func validatePlaceOrder(in PlaceOrderInput) error {
	if len(in.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, it := range in.Items {
		if it.Name == "" || it.Quantity <= 0 || it.Price < 0 {
			return ErrInvalidItem
		}
	}
	if in.CustomerName == "" || in.Address == "" || in.Phone == "" {
		return ErrMissingContact
	}
	return nil
}

func (s *service) ListForOperator(ctx context.Context) ([]*Order, error) {
	if !isOperator(ctx) {
		return nil, ErrUnauthorized
	}
	return s.repo.ListAll(ctx)
}

func (s *service) ListForCustomer(ctx context.Context, userID uint) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetDetail returns a single order, visible to the operator or the owner.
func (s *service) GetDetail(ctx context.Context, id uint) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if isOperator(ctx) {
		return o, nil
	}
	callerID, ok := utils.GetUserIDFromContext(ctx)
	if !ok || o.UserID == nil || *o.UserID != callerID {
		return nil, ErrUnauthorized
	}
	return o, nil
}

// UpdateStatus applies a lifecycle transition. The previous status is read
// before mutating and guards the delivered side effects, so repeating the
// same transition re-asserts the status without double-firing anything.
func (s *service) UpdateStatus(ctx context.Context, id uint, target OrderStatus) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.Uint("order_id", id),
		zap.String("target", string(target)),
	)

	if !isOperator(ctx) {
		return nil, ErrUnauthorized
	}
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := o.Status
	if !s.policy.Allows(prev, target) {
		log.Warn("transition rejected by policy", zap.String("from", string(prev)))
		return nil, ErrTransitionNotAllowed
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}

	if s.stats != nil {
		s.stats.StatusTransitions.WithLabelValues(string(target)).Inc()
	}

	now := time.Now().UTC()
	o.Status = target
	switch target {
	case StatusAccepted:
		if o.AcceptedAt == nil {
			o.AcceptedAt = &now
		}
	case StatusDispatched:
		if o.DispatchedAt == nil {
			o.DispatchedAt = &now
		}
	case StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	case StatusCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = &now
		}
	}

	if target == StatusDelivered && prev != StatusDelivered {
		s.fireDeliveredEffects(o)
	}

	log.Info("order status updated", zap.String("from", string(prev)))
	return o, nil
}

// fireDeliveredEffects runs the first-delivery side effects detached from
// the request: confirmation mail to the customer (skipped without an email
// on file) and loyalty cashback for a known owner. Failures are logged and
// never revert the committed status change.
func (s *service) fireDeliveredEffects(o *Order) {
	if o.Email != "" {
		to := o.Email
		subject := deliveredEmailSubject(s.storeName, o)
		body := deliveredEmailHTML(s.storeName, o)
		s.dispatch.Go("delivery-confirmation-mail", func(ctx context.Context) error {
			err := s.mailer.Send(ctx, to, subject, body)
			s.countEmail(err)
			return err
		})
	}

	if o.UserID != nil && s.creditor != nil {
		userID := *o.UserID
		total := o.Total
		s.dispatch.Go("loyalty-credit", func(ctx context.Context) error {
			amount, err := s.creditor.CreditForOrder(ctx, userID, total)
			if err == nil && amount > 0 && s.stats != nil {
				s.stats.LoyaltyCredited.Inc()
			}
			return err
		})
	}
}

func (s *service) countEmail(err error) {
	if s.stats == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	s.stats.EmailsTotal.WithLabelValues(outcome).Inc()
}

func isOperator(ctx context.Context) bool {
	return utils.GetUserRoleFromContext(ctx) == "ADMIN"
}
