package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxOrderIDAttempts bounds regeneration when a generated identifier collides
// with the unique index.
const maxOrderIDAttempts = 3

// OrderService coordinates the order workflow: structural validation,
// reference resolution, identifier generation, persistence and projection.
type OrderService struct {
	store     Storage
	resolver  *Resolver
	projector *Projector
	cache     ViewCache
	events    EventPublisher
	viewTTL   time.Duration
	logger    *zap.Logger
}

// NewOrderService creates a new order service. cache and events may be nil;
// both are best-effort collaborators.
func NewOrderService(storage Storage, cache ViewCache, events EventPublisher, viewTTL time.Duration) *OrderService {
	return &OrderService{
		store:     storage,
		resolver:  NewResolver(storage),
		projector: NewProjector(storage),
		cache:     cache,
		events:    events,
		viewTTL:   viewTTL,
		logger:    util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Items   []OrderItemRequest `json:"items"`
	StoreID string             `json:"store_id"`
	UserID  string             `json:"user_id"`
}

// OrderItemRequest represents a line item in an order request
type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrder validates the request, resolves every reference, generates the
// order identifier and persists the order with status pending. The insert is
// a single document write; a validation failure leaves no partial state.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	items, storeID, userID, err := s.validateCreateRequest(req)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	productIDs := make([]primitive.ObjectID, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}

	refs, err := s.resolver.Resolve(ctx, productIDs, storeID, userID)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	order := &models.Order{
		Items:     items,
		StoreID:   storeID,
		UserID:    userID,
		Status:    models.OrderStatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.insertWithFreshID(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.Int("items", len(order.Items)))

	s.publishOrderCreated(ctx, order)

	view := ProjectResolved(order, refs)
	s.cacheView(ctx, view)
	return view, nil
}

// insertWithFreshID persists the order, regenerating the identifier on a
// unique-index collision.
func (s *OrderService) insertWithFreshID(ctx context.Context, order *models.Order) error {
	for attempt := 0; attempt < maxOrderIDAttempts; attempt++ {
		order.OrderID = NewOrderID()
		err := s.store.InsertOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicateKey) {
			return apperr.Wrap(apperr.KindStorageUnavailable, "failed to insert order", err)
		}
		s.logger.Warn("Order id collision, regenerating",
			zap.String("order_id", order.OrderID),
			zap.Int("attempt", attempt+1))
	}
	return apperr.Newf(apperr.KindDuplicateOrderID,
		"order id generation collided %d times", maxOrderIDAttempts)
}

func (s *OrderService) validateCreateRequest(req *CreateOrderRequest) ([]models.OrderItem, primitive.ObjectID, primitive.ObjectID, error) {
	var zero primitive.ObjectID

	if len(req.Items) == 0 {
		return nil, zero, zero, apperr.New(apperr.KindInvalidRequest,
			"items must be a non-empty array of {product_id, quantity}")
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID == "" {
			return nil, zero, zero, apperr.Newf(apperr.KindInvalidRequest,
				"items[%d]: product_id is required", i)
		}
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, zero, zero, apperr.Newf(apperr.KindInvalidRequest,
				"items[%d]: product_id %q is not a valid id", i, item.ProductID)
		}
		if item.Quantity < 1 {
			return nil, zero, zero, apperr.Newf(apperr.KindInvalidRequest,
				"items[%d]: quantity must be an integer >= 1", i)
		}
		items = append(items, models.OrderItem{ProductID: productID, Quantity: item.Quantity})
	}

	if req.StoreID == "" {
		return nil, zero, zero, apperr.New(apperr.KindInvalidRequest, "store_id is required")
	}
	storeID, err := primitive.ObjectIDFromHex(req.StoreID)
	if err != nil {
		return nil, zero, zero, apperr.Newf(apperr.KindInvalidRequest,
			"store_id %q is not a valid id", req.StoreID)
	}

	if req.UserID == "" {
		return nil, zero, zero, apperr.New(apperr.KindInvalidRequest, "user_id is required")
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return nil, zero, zero, apperr.Newf(apperr.KindInvalidRequest,
			"user_id %q is not a valid id", req.UserID)
	}

	return items, storeID, userID, nil
}

// GetOrder fetches a single order by its human-readable identifier, serving
// the projected view from cache when possible.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	if view := s.cachedView(ctx, orderID); view != nil {
		return view, nil
	}

	order, err := s.store.GetOrderByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "order not found: %s", orderID)
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to fetch order", err)
	}

	view, err := s.projector.ProjectOrder(ctx, order)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to project order", err)
	}

	s.cacheView(ctx, view)
	return view, nil
}

// ListOrders returns all orders newest first, projected.
func (s *OrderService) ListOrders(ctx context.Context) ([]OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to list orders", err)
	}
	return s.projectList(ctx, orders)
}

// ListOrdersByStore returns all orders for a store newest first, projected.
func (s *OrderService) ListOrdersByStore(ctx context.Context, storeID string) ([]OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrdersByStore")
	defer span.End()

	id, err := primitive.ObjectIDFromHex(storeID)
	if err != nil {
		return nil, apperr.Newf(apperr.KindNotFound, "store not found: %s", storeID)
	}

	orders, err := s.store.ListOrdersByStore(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to list orders", err)
	}
	return s.projectList(ctx, orders)
}

// ListOrdersByUser returns all orders for a user newest first, projected.
func (s *OrderService) ListOrdersByUser(ctx context.Context, userID string) ([]OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrdersByUser")
	defer span.End()

	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Newf(apperr.KindNotFound, "user not found: %s", userID)
	}

	orders, err := s.store.ListOrdersByUser(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to list orders", err)
	}
	return s.projectList(ctx, orders)
}

func (s *OrderService) projectList(ctx context.Context, orders []models.Order) ([]OrderView, error) {
	views, err := s.projector.ProjectOrders(ctx, orders)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to project orders", err)
	}
	return views, nil
}

// UpdateStatus overwrites the status of an order. Membership in the closed
// status set is enforced; transitions between members are not.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if status == "" {
		return nil, apperr.Newf(apperr.KindInvalidRequest,
			"status is required (valid values: %s)", strings.Join(models.ValidOrderStatuses, ", "))
	}
	if !models.IsValidOrderStatus(status) {
		return nil, apperr.Newf(apperr.KindInvalidRequest,
			"invalid status %q (valid values: %s)", status, strings.Join(models.ValidOrderStatuses, ", "))
	}

	current, err := s.store.GetOrderByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "order not found: %s", orderID)
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to fetch order", err)
	}

	updated, err := s.store.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "order not found: %s", orderID)
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to update order status", err)
	}

	util.OrderStatusUpdatesTotal.WithLabelValues(status).Inc()
	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("from", current.Status),
		zap.String("to", status))

	s.invalidateView(ctx, orderID)
	s.publishStatusChanged(ctx, orderID, current.Status, status)

	view, err := s.projector.ProjectOrder(ctx, updated)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to project order", err)
	}
	return view, nil
}

// DeleteOrder removes an order. Line items are embedded, so nothing is
// orphaned.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	err := s.store.DeleteOrderByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Newf(apperr.KindNotFound, "order not found: %s", orderID)
		}
		return apperr.Wrap(apperr.KindStorageUnavailable, "failed to delete order", err)
	}

	util.OrdersDeletedTotal.Inc()
	s.logger.Info("Order deleted", zap.String("order_id", orderID))

	s.invalidateView(ctx, orderID)
	s.publishDeleted(ctx, orderID)
	return nil
}

func (s *OrderService) cachedView(ctx context.Context, orderID string) *OrderView {
	if s.cache == nil {
		return nil
	}
	payload, err := s.cache.GetOrderView(ctx, orderID)
	if err != nil {
		s.logger.Warn("Order view cache read failed", zap.Error(err))
		return nil
	}
	if payload == nil {
		util.OrderViewCacheMisses.Inc()
		return nil
	}
	var view OrderView
	if err := json.Unmarshal(payload, &view); err != nil {
		s.logger.Warn("Order view cache payload corrupt", zap.Error(err))
		return nil
	}
	util.OrderViewCacheHits.Inc()
	return &view
}

func (s *OrderService) cacheView(ctx context.Context, view *OrderView) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := s.cache.SetOrderView(ctx, view.OrderID, payload, s.viewTTL); err != nil {
		s.logger.Warn("Order view cache write failed", zap.Error(err))
	}
}

func (s *OrderService) invalidateView(ctx context.Context, orderID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOrderView(ctx, orderID); err != nil {
		s.logger.Warn("Order view cache invalidation failed", zap.Error(err))
	}
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order *models.Order) {
	if s.events == nil {
		return
	}
	items := make([]models.OrderItemData, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.OrderItemData{
			ProductID: item.ProductID.Hex(),
			Quantity:  item.Quantity,
		})
	}
	event := &models.OrderCreatedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderCreated),
		OrderID:   order.OrderID,
		StoreID:   order.StoreID.Hex(),
		UserID:    order.UserID.Hex(),
		Items:     items,
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
		return
	}
	util.EventsPublishedTotal.WithLabelValues(models.EventTypeOrderCreated).Inc()
}

func (s *OrderService) publishStatusChanged(ctx context.Context, orderID, from, to string) {
	if s.events == nil {
		return
	}
	event := &models.OrderStatusChangedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		return
	}
	util.EventsPublishedTotal.WithLabelValues(models.EventTypeOrderStatusChanged).Inc()
}

func (s *OrderService) publishDeleted(ctx context.Context, orderID string) {
	if s.events == nil {
		return
	}
	event := &models.OrderDeletedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderDeleted),
		OrderID:   orderID,
	}
	if err := s.events.PublishOrderDeleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderDeleted event", zap.Error(err))
		return
	}
	util.EventsPublishedTotal.WithLabelValues(models.EventTypeOrderDeleted).Inc()
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func failureReason(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindProductsNotFound:
		return "products_not_found"
	case apperr.KindStoreNotFound:
		return "store_not_found"
	case apperr.KindUserNotFound:
		return "user_not_found"
	case apperr.KindDuplicateOrderID:
		return "duplicate_order_id"
	case apperr.KindInvalidRequest:
		return "invalid_request"
	default:
		return "storage_error"
	}
}
