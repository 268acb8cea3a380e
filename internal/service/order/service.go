package order

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/stocktide/stocktide/internal/audit"
	"github.com/stocktide/stocktide/internal/config"
	"github.com/stocktide/stocktide/internal/dto"
	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/messaging"
	"github.com/stocktide/stocktide/internal/notify"
	"github.com/stocktide/stocktide/internal/pricing"
	orderrepo "github.com/stocktide/stocktide/internal/repository/order"
	productrepo "github.com/stocktide/stocktide/internal/repository/product"
	promotionrepo "github.com/stocktide/stocktide/internal/repository/promotion"
	"github.com/stocktide/stocktide/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/stocktide/stocktide/service/order")

// StatusPending is assigned to orders created without an explicit status.
const StatusPending = "pending"

// Service is the order transaction manager: it validates, prices, and commits
// new orders, keeps the secondary indexes consistent through updates and
// deletes, and answers the index-backed queries.
type Service struct {
	orders     *orderrepo.Repository
	products   *productrepo.Repository
	promotions *promotionrepo.Repository
	trail      *audit.Trail
	notifier   *notify.Notifier
	publisher  messaging.Client
	logger     *zap.Logger
	messaging  messagingConfig
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders     *orderrepo.Repository
	Products   *productrepo.Repository
	Promotions *promotionrepo.Repository
	Trail      *audit.Trail
	Notifier   *notify.Notifier
	Publisher  messaging.Client
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		orders:     p.Orders,
		products:   p.Products,
		promotions: p.Promotions,
		trail:      p.Trail,
		notifier:   p.Notifier,
		publisher:  p.Publisher,
		logger:     p.Logger,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// Create validates every line item, prices the order against the active
// promotion catalog, and commits the record, its index memberships, and the
// stock decrements as one conditional transaction. Validation failures abort
// with zero side effects; a commit-time conflict surfaces as a retryable
// conflict the caller may re-run from scratch.
func (s *Service) Create(ctx context.Context, tenant string, req dto.CreateOrderRequest) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.Int("order.items", len(req.Items))))
	defer span.End()

	if len(req.Items) == 0 {
		return nil, errorbank.BadRequest("order must contain at least one item")
	}

	priced := make([]pricing.Item, 0, len(req.Items))
	demands := make([]orderrepo.Demand, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, errorbank.BadRequest("item quantity must be positive",
				errorbank.WithDetail("product_id", item.ProductID))
		}
		product, err := s.products.Get(ctx, tenant, item.ProductID)
		if errors.Is(err, productrepo.ErrNotFound) {
			return nil, errorbank.ProductNotFound(item.ProductID)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "product lookup failed")
			return nil, errorbank.Internal("failed to resolve product", errorbank.WithCause(err))
		}
		priced = append(priced, pricing.Item{
			ProductID: product.ID,
			Name:      product.Name,
			Category:  product.Category,
			Price:     product.Price,
			Quantity:  item.Quantity,
		})
		demands = append(demands, orderrepo.Demand{
			ProductID:   item.ProductID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
		})
	}

	promotions, err := s.promotions.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "promotion lookup failed")
		return nil, errorbank.Internal("failed to load promotions", errorbank.WithCause(err))
	}
	quote := pricing.Evaluate(priced, promotions)

	status := req.Status
	if status == "" {
		status = StatusPending
	}

	ord := &entity.Order{
		ID:                uuid.NewString(),
		Items:             req.Items,
		Status:            status,
		Supplier:          req.Supplier,
		CustomerID:        req.CustomerID,
		CreatedAt:         time.Now().UTC(),
		OriginalTotal:     quote.OriginalTotal,
		Discount:          quote.Discount,
		Total:             quote.Total,
		AppliedPromotions: quote.AppliedPromotions,
	}

	if err := s.orders.Create(ctx, tenant, ord, demands); err != nil {
		var appErr *errorbank.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	s.publishOrderCreated(ctx, tenant, ord)
	s.trail.RecordAsync(ctx, tenant, "CREATE_ORDER", map[string]any{
		"orderId": ord.ID,
		"total":   ord.Total,
	})
	return ord, nil
}

// Get fetches an order by id.
func (s *Service) Get(ctx context.Context, tenant, orderID string) (*entity.Order, error) {
	ord, err := s.orders.Get(ctx, tenant, orderID)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return nil, errorbank.OrderNotFound(orderID)
	}
	if err != nil {
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	return ord, nil
}

// Update merges the given fields over the stored order and moves any index
// memberships whose backing field changed. A status change addressed to an
// owning customer emits a best-effort notification; its failure never fails
// the update. Stock is untouched.
func (s *Service) Update(ctx context.Context, tenant, orderID string, upd dto.OrderUpdate) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	prev, err := s.orders.Get(ctx, tenant, orderID)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return nil, errorbank.OrderNotFound(orderID)
	}
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	next := *prev
	if upd.Items != nil {
		next.Items = *upd.Items
	}
	if upd.Status != nil {
		next.Status = *upd.Status
	}
	if upd.CustomerID != nil {
		next.CustomerID = *upd.CustomerID
	}
	if upd.Supplier.Set {
		if upd.Supplier.Valid {
			supplier := upd.Supplier.Value
			next.Supplier = &supplier
		} else {
			next.Supplier = nil
		}
	}

	if err := s.orders.Update(ctx, tenant, prev, &next); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, errorbank.Internal("failed to update order", errorbank.WithCause(err))
	}

	if prev.Status != next.Status && next.CustomerID != "" {
		s.notifier.StatusChanged(ctx, next.CustomerID, next.ID, prev.Status, next.Status)
	}
	s.trail.RecordAsync(ctx, tenant, "UPDATE_ORDER", map[string]any{"orderId": orderID})
	return &next, nil
}

// Delete removes the order and every index membership. The boolean reports
// whether anything existed to delete.
func (s *Service) Delete(ctx context.Context, tenant, orderID string) (bool, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	ord, err := s.orders.Get(ctx, tenant, orderID)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		return false, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.orders.Delete(ctx, tenant, ord); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return false, errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}

	s.trail.RecordAsync(ctx, tenant, "DELETE_ORDER", map[string]any{"orderId": orderID})
	return true, nil
}

// List returns every order for the tenant, optionally sorted by a field.
// Ties keep the storage order; direction defaults to ascending.
func (s *Service) List(ctx context.Context, tenant, sortBy, direction string) ([]entity.Order, error) {
	orders, err := s.orders.List(ctx, tenant)
	if err != nil {
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	sortOrders(orders, sortBy, direction)
	return orders, nil
}

// ListByStatus returns the tenant's orders currently in the given status.
func (s *Service) ListByStatus(ctx context.Context, tenant, status string) ([]entity.Order, error) {
	orders, err := s.orders.ListByStatus(ctx, tenant, status)
	if err != nil {
		return nil, errorbank.Internal("failed to list orders by status", errorbank.WithCause(err))
	}
	return orders, nil
}

// ListBySupplier returns the tenant's orders referencing the given supplier.
func (s *Service) ListBySupplier(ctx context.Context, tenant, supplierID string) ([]entity.Order, error) {
	orders, err := s.orders.ListBySupplier(ctx, tenant, supplierID)
	if err != nil {
		return nil, errorbank.Internal("failed to list orders by supplier", errorbank.WithCause(err))
	}
	return orders, nil
}

func (s *Service) publishOrderCreated(ctx context.Context, tenant string, ord *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := CreatedEvent{
		Type:      EventOrderCreated,
		ID:        ord.ID,
		Tenant:    tenant,
		Status:    ord.Status,
		Total:     ord.Total,
		CreatedAt: ord.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order created", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(ord.ID), payload); err != nil {
		s.logger.Error("publish order created", zap.Error(err))
	}
}

// sortOrders sorts in place by the named field; an unknown field leaves the
// storage order untouched, matching the permissive query contract.
func sortOrders(orders []entity.Order, sortBy, direction string) {
	if sortBy == "" {
		return
	}
	desc := strings.EqualFold(direction, "desc")
	sort.SliceStable(orders, func(i, j int) bool {
		if desc {
			return orderFieldLess(&orders[j], &orders[i], sortBy)
		}
		return orderFieldLess(&orders[i], &orders[j], sortBy)
	})
}

func orderFieldLess(a, b *entity.Order, field string) bool {
	switch field {
	case "id":
		return a.ID < b.ID
	case "status":
		return a.Status < b.Status
	case "createdAt":
		return a.CreatedAt.Before(b.CreatedAt)
	case "total":
		return a.Total < b.Total
	case "originalTotal":
		return a.OriginalTotal < b.OriginalTotal
	case "discount":
		return a.Discount < b.Discount
	default:
		return false
	}
}
