package order

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/store"
	"github.com/stocktide/stocktide/pkg/errorbank"
)

var repoTracer = otel.Tracer("github.com/stocktide/stocktide/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Demand is one stock requirement of an order being created: the quantity to
// reserve for a product, plus the name used in shortfall messages.
type Demand struct {
	ProductID   string
	ProductName string
	Quantity    int
}

// Repository persists orders and keeps the all/status/supplier index sets in
// lockstep with the record.
type Repository struct {
	client *goredis.Client
}

// NewRepository wires a repository backed by the store client.
func NewRepository(client *goredis.Client) *Repository {
	return &Repository{client: client}
}

// Create commits a priced order under optimistic concurrency. The stock key
// of every demanded product is watched; stocks are then read and validated,
// and the order record, its index memberships, and the decremented stocks are
// applied in a single conditional transaction. If any watched key changed in
// between, nothing is written and a retryable conflict is returned. A
// validation failure likewise aborts with zero writes.
func (r *Repository) Create(ctx context.Context, tenant string, ord *entity.Order, demands []Demand) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.id", ord.ID)))
	defer span.End()

	pids := make([]string, 0, len(demands))
	stockKeys := make([]string, 0, len(demands))
	seen := make(map[string]bool, len(demands))
	for _, d := range demands {
		if seen[d.ProductID] {
			continue
		}
		seen[d.ProductID] = true
		pids = append(pids, d.ProductID)
		stockKeys = append(stockKeys, store.StockKey(tenant, d.ProductID))
	}

	err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
		remaining := make(map[string]int, len(pids))
		for _, pid := range pids {
			raw, err := tx.Get(ctx, store.StockKey(tenant, pid)).Bytes()
			if errors.Is(err, goredis.Nil) {
				remaining[pid] = 0
				continue
			}
			if err != nil {
				return err
			}
			var st entity.Stock
			if err := json.Unmarshal(raw, &st); err != nil {
				return err
			}
			remaining[pid] = st.Quantity
		}

		for _, d := range demands {
			if remaining[d.ProductID] < d.Quantity {
				return errorbank.InsufficientStock(d.ProductName, remaining[d.ProductID], d.Quantity)
			}
			remaining[d.ProductID] -= d.Quantity
		}

		payload, err := json.Marshal(ord)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, store.OrderKey(tenant, ord.ID), payload, 0)
			pipe.SAdd(ctx, store.OrdersAllKey(tenant), ord.ID)
			pipe.SAdd(ctx, store.OrdersStatusKey(tenant, ord.Status), ord.ID)
			if sid := ord.SupplierID(); sid != "" {
				pipe.SAdd(ctx, store.OrdersSupplierKey(tenant, sid), ord.ID)
			}
			for _, pid := range pids {
				st, err := json.Marshal(entity.Stock{ProductID: pid, Quantity: remaining[pid]})
				if err != nil {
					return err
				}
				pipe.Set(ctx, store.StockKey(tenant, pid), st, 0)
			}
			return nil
		})
		return err
	}, stockKeys...)

	if errors.Is(err, goredis.TxFailedErr) {
		span.SetStatus(codes.Error, "commit conflict")
		return errorbank.ConflictRetryable("order creation conflicted with a concurrent stock update", errorbank.WithCause(err))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
	}
	return err
}

// Get fetches an order by id.
func (r *Repository) Get(ctx context.Context, tenant, orderID string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Get", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	raw, err := r.client.Get(ctx, store.OrderKey(tenant, orderID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var ord entity.Order
	if err := json.Unmarshal(raw, &ord); err != nil {
		return nil, err
	}
	return &ord, nil
}

// Update persists the merged record and moves any index memberships whose
// backing field changed, batched as one pipeline. Stock is untouched.
func (r *Repository) Update(ctx context.Context, tenant string, prev, next *entity.Order) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.String("order.id", next.ID)))
	defer span.End()

	payload, err := json.Marshal(next)
	if err != nil {
		return err
	}

	_, err = r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		if prev.Status != next.Status {
			pipe.SRem(ctx, store.OrdersStatusKey(tenant, prev.Status), next.ID)
			pipe.SAdd(ctx, store.OrdersStatusKey(tenant, next.Status), next.ID)
		}
		if prevSID, nextSID := prev.SupplierID(), next.SupplierID(); prevSID != nextSID {
			if prevSID != "" {
				pipe.SRem(ctx, store.OrdersSupplierKey(tenant, prevSID), next.ID)
			}
			if nextSID != "" {
				pipe.SAdd(ctx, store.OrdersSupplierKey(tenant, nextSID), next.ID)
			}
		}
		pipe.Set(ctx, store.OrderKey(tenant, next.ID), payload, 0)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// Delete removes the record and every index membership in one pipeline.
func (r *Repository) Delete(ctx context.Context, tenant string, ord *entity.Order) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.String("order.id", ord.ID)))
	defer span.End()

	_, err := r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		if ord.Status != "" {
			pipe.SRem(ctx, store.OrdersStatusKey(tenant, ord.Status), ord.ID)
		}
		if sid := ord.SupplierID(); sid != "" {
			pipe.SRem(ctx, store.OrdersSupplierKey(tenant, sid), ord.ID)
		}
		pipe.SRem(ctx, store.OrdersAllKey(tenant), ord.ID)
		pipe.Del(ctx, store.OrderKey(tenant, ord.ID))
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
	}
	return err
}

// List returns every order owned by the tenant, oldest first.
func (r *Repository) List(ctx context.Context, tenant string) ([]entity.Order, error) {
	return r.listSet(ctx, tenant, store.OrdersAllKey(tenant))
}

// ListByStatus resolves the status index and batch-fetches its orders.
func (r *Repository) ListByStatus(ctx context.Context, tenant, status string) ([]entity.Order, error) {
	return r.listSet(ctx, tenant, store.OrdersStatusKey(tenant, status))
}

// ListBySupplier resolves the supplier index and batch-fetches its orders.
func (r *Repository) ListBySupplier(ctx context.Context, tenant, supplierID string) ([]entity.Order, error) {
	return r.listSet(ctx, tenant, store.OrdersSupplierKey(tenant, supplierID))
}

// listSet fetches the orders indexed by a set key. Index entries whose record
// is gone are treated as already deleted and skipped; an absent index yields
// an empty result.
func (r *Repository) listSet(ctx context.Context, tenant, setKey string) ([]entity.Order, error) {
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []entity.Order{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = store.OrderKey(tenant, id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	orders := make([]entity.Order, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var ord entity.Order
		if err := json.Unmarshal([]byte(raw), &ord); err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}

	// Set membership carries no order; creation time stands in for storage
	// order so callers get a stable base ordering.
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}
