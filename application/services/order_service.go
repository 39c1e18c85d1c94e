package services

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"storefront-backend/application/dto"
	"storefront-backend/application/listcache"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/domain/events"
	"storefront-backend/pkg/auth"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/utils"
)

// amountTolerance absorbs float rounding in client-computed totals
const amountTolerance = 0.01

// PlaceOrderInput is a checkout request
type PlaceOrderInput struct {
	PaymentMethod  string               `json:"paymentMethod" validate:"required,oneof=card cash"`
	Items          []entities.OrderItem `json:"items" validate:"required,min=1,dive"`
	DiscountAmount float64              `json:"discountAmount" validate:"gte=0"`
	AmountToCharge float64              `json:"amountToCharge" validate:"required,gt=0"`
	Note           string               `json:"note" validate:"max=500"`
}

// PlacedOrder is the result of a checkout
type PlacedOrder struct {
	Order        dto.Order                  `json:"newOrder"`
	Notification entities.OrderNotification `json:"orderNotification"`
}

// OrderMetrics counts business events
type OrderMetrics interface {
	OrderPlaced()
}

type nopOrderMetrics struct{}

func (nopOrderMetrics) OrderPlaced() {}

// OrderService places orders and moves them through their lifecycle
type OrderService struct {
	stores   ports.Stores
	lists    *Collections
	proj     *projector
	payments ports.PaymentGateway
	events   ports.EventPublisher
	metrics  OrderMetrics
	currency string
	logger   *zap.Logger
	now      utils.Clock
}

// NewOrderService creates a new order service. metrics may be nil.
func NewOrderService(
	stores ports.Stores,
	lists *Collections,
	payments ports.PaymentGateway,
	publisher ports.EventPublisher,
	metrics OrderMetrics,
	currency string,
	logger *zap.Logger,
	clock utils.Clock,
) *OrderService {
	if metrics == nil {
		metrics = nopOrderMetrics{}
	}
	if currency == "" {
		currency = "usd"
	}
	return &OrderService{
		stores:   stores,
		lists:    lists,
		proj:     &projector{stores: stores},
		payments: payments,
		events:   publisher,
		metrics:  metrics,
		currency: currency,
		logger:   logger.Named("order"),
		now:      clock,
	}
}

// expectedCharge is the item total minus the discount plus delivery
func expectedCharge(items []entities.OrderItem, discount float64) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Product.UnitPrice() * float64(item.Quantity)
	}
	return total - discount + entities.DeliveryCharge
}

// Place charges card orders, stores the order and notifies administrators.
// The user's cart is cleared once the order is committed.
func (s *OrderService) Place(ctx context.Context, userID string, in PlaceOrderInput) (PlacedOrder, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return PlacedOrder{}, err
	}
	if expected := expectedCharge(in.Items, in.DiscountAmount); math.Abs(expected-in.AmountToCharge) > amountTolerance {
		return PlacedOrder{}, errors.NewValidationError("amountToCharge does not match the order items").
			WithCode("CHARGE_MISMATCH").
			WithDetails(map[string]interface{}{"expected": expected, "received": in.AmountToCharge})
	}
	customer, err := s.stores.Users.Get(ctx, userID)
	if err != nil {
		return PlacedOrder{}, err
	}

	order := entities.Order{
		ID:             entities.NewID(),
		UserID:         userID,
		PaymentMethod:  in.PaymentMethod,
		Status:         entities.OrderPending,
		Items:          in.Items,
		DiscountAmount: in.DiscountAmount,
		AmountToCharge: in.AmountToCharge,
		Note:           in.Note,
	}
	order.Touch(s.now())

	if in.PaymentMethod == entities.PaymentCard {
		receipt, err := s.payments.Charge(ctx, ports.PaymentRequest{
			OrderID:  order.ID,
			UserID:   userID,
			Amount:   in.AmountToCharge,
			Currency: s.currency,
		})
		if err != nil {
			if errors.IsAppError(err) {
				return PlacedOrder{}, err
			}
			return PlacedOrder{}, errors.NewExternalError("payments", err)
		}
		order.PaymentReceived = receipt.Captured
	}

	if err := s.stores.Orders.Create(ctx, order); err != nil {
		return PlacedOrder{}, err
	}
	out := dto.NewOrder(order, customer)
	s.lists.Orders.Created(ctx, out)

	if _, err := s.stores.Carts.Delete(ctx, userID); err != nil && !errors.IsNotFound(err) {
		s.logger.Warn("failed to clear cart", zap.String("user_id", userID), zap.Error(err))
	}

	notification := entities.OrderNotification{ID: order.ID, CustomerName: customer.Name}
	notification.Touch(s.now())
	if err := s.stores.Notifications.Put(ctx, notification); err != nil {
		s.logger.Warn("failed to store order notification", zap.String("order_id", order.ID), zap.Error(err))
	}

	s.publish(ctx, events.NewOrderPlaced(order.ID, userID, customer.Name, order.PaymentMethod, order.AmountToCharge, order.CreatedAt))
	s.metrics.OrderPlaced()
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Float64("amount", order.AmountToCharge),
	)
	return PlacedOrder{Order: out, Notification: notification}, nil
}

func (s *OrderService) publish(ctx context.Context, event events.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", event.GetEventType()),
			zap.String("aggregate_id", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

// UserOrders returns a page of the user's own orders. TotalCount of the
// page is the number of orders the user has.
func (s *OrderService) UserOrders(ctx context.Context, userID string, w common.PageWindow) (listcache.Page[dto.Order], error) {
	page, err := s.lists.Orders.WindowWhere(ctx, w, listcache.FieldEquals(func(o dto.Order) string { return o.User.ID }, userID))
	if err != nil {
		return page, err
	}
	if page.MatchedCount != nil {
		page.TotalCount = *page.MatchedCount
	}
	return page, nil
}

// AdminOrders returns a page of every order, optionally narrowed by
// customer name
func (s *OrderService) AdminOrders(ctx context.Context, q common.ListQuery) (listcache.Page[dto.Order], error) {
	return s.lists.Orders.Window(ctx, q.Window, q.Search)
}

// Get reads one order. Customers only see their own orders. The first
// administrator view marks the order notification as seen.
func (s *OrderService) Get(ctx context.Context, id string, viewer *auth.UserContext) (dto.Order, error) {
	order, err := s.lists.Orders.Get(ctx, id)
	if err != nil {
		return dto.Order{}, err
	}
	if !viewer.IsAdmin() {
		if viewer == nil || order.User.ID != viewer.UserID {
			return dto.Order{}, errors.NewNotFoundError("order")
		}
		return order, nil
	}
	if order.NotificationViewed {
		return order, nil
	}

	if _, err := s.stores.Notifications.Delete(ctx, id); err != nil && !errors.IsNotFound(err) {
		return dto.Order{}, err
	}
	doc, err := s.stores.Orders.Get(ctx, id)
	if err != nil {
		return dto.Order{}, err
	}
	doc.NotificationViewed = true
	if err := s.stores.Orders.Update(ctx, doc); err != nil {
		return dto.Order{}, err
	}

	order.NotificationViewed = true
	s.lists.Orders.Updated(ctx, order)
	return order, nil
}

// UpdateStatus moves an order to a new status. Delivering an order takes
// its quantities out of stock.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (dto.Order, error) {
	if status == "" {
		return dto.Order{}, errors.NewValidationError("Order status is missing")
	}
	if !entities.ValidOrderStatus(status) {
		return dto.Order{}, errors.NewValidationError("Invalid order status")
	}

	doc, err := s.stores.Orders.Get(ctx, id)
	if err != nil {
		return dto.Order{}, err
	}
	previous := doc.Status
	doc.Status = status
	doc.Touch(s.now())
	if err := s.stores.Orders.Update(ctx, doc); err != nil {
		return dto.Order{}, err
	}

	out, err := s.proj.order(ctx, doc)
	if err != nil {
		return dto.Order{}, err
	}
	s.lists.Orders.Updated(ctx, out)

	if status == entities.OrderDelivered && previous != entities.OrderDelivered {
		if err := s.decrementStock(ctx, doc.Items); err != nil {
			return dto.Order{}, err
		}
	}

	if previous != status {
		s.publish(ctx, events.NewOrderStatusChanged(doc.ID, doc.UserID, previous, status, doc.UpdatedAt))
	}
	return out, nil
}

func (s *OrderService) decrementStock(ctx context.Context, items []entities.OrderItem) error {
	for _, item := range items {
		product, err := s.stores.Products.Get(ctx, item.Product.ID)
		if errors.IsNotFound(err) {
			s.logger.Warn("delivered product no longer exists", zap.String("product_id", item.Product.ID))
			continue
		}
		if err != nil {
			return err
		}
		product.Stock -= item.Quantity
		product.Touch(s.now())
		if err := s.stores.Products.Update(ctx, product); err != nil {
			return err
		}

		projected, err := s.proj.product(ctx, product)
		if err != nil {
			return err
		}
		s.lists.Products.Updated(ctx, projected)
	}
	return nil
}

// Notifications lists unseen order notifications, newest first
func (s *OrderService) Notifications(ctx context.Context) ([]entities.OrderNotification, error) {
	notifications, err := s.stores.Notifications.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}
