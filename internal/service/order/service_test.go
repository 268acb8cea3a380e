package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stocktide/stocktide/internal/audit"
	"github.com/stocktide/stocktide/internal/config"
	"github.com/stocktide/stocktide/internal/dto"
	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/messaging"
	"github.com/stocktide/stocktide/internal/notify"
	orderrepo "github.com/stocktide/stocktide/internal/repository/order"
	productrepo "github.com/stocktide/stocktide/internal/repository/product"
	promotionrepo "github.com/stocktide/stocktide/internal/repository/promotion"
	stockrepo "github.com/stocktide/stocktide/internal/repository/stock"
	"github.com/stocktide/stocktide/internal/store"
	"github.com/stocktide/stocktide/pkg/errorbank"
)

const testTenant = "acme"

type fixture struct {
	svc        *Service
	client     *goredis.Client
	products   *productrepo.Repository
	stocks     *stockrepo.Repository
	promotions *promotionrepo.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	bus := messaging.NewNoop("orders.events")

	f := &fixture{
		client:     client,
		products:   productrepo.NewRepository(client),
		stocks:     stockrepo.NewRepository(client),
		promotions: promotionrepo.NewRepository(client),
	}
	f.svc = NewService(Params{
		Orders:     orderrepo.NewRepository(client),
		Products:   f.products,
		Promotions: f.promotions,
		Trail:      audit.NewTrail(client, logger),
		Notifier:   notify.NewNotifier(bus, logger),
		Publisher:  bus,
		Config:     config.Config{},
		Logger:     logger,
	})
	return f
}

func (f *fixture) seedProduct(t *testing.T, p entity.Product, stock int) {
	t.Helper()
	ctx := context.Background()
	if err := f.products.Save(ctx, testTenant, &p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := f.stocks.Set(ctx, testTenant, p.ID, stock); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func (f *fixture) seedPromotion(t *testing.T, p entity.Promotion) {
	t.Helper()
	if err := f.promotions.Save(context.Background(), &p); err != nil {
		t.Fatalf("seed promotion: %v", err)
	}
}

func (f *fixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	st, err := f.stocks.Get(context.Background(), testTenant, productID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if st == nil {
		t.Fatalf("stock record for %s is gone", productID)
	}
	return st.Quantity
}

func TestCreateAppliesCategoryPromotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedProduct(t, entity.Product{ID: "p1", Name: "Laptop", Price: 100, Category: "Electronics"}, 10)
	f.seedPromotion(t, entity.Promotion{ID: "promo-1", Type: entity.PromotionTypePercentage, Category: "Electronics", DiscountPercent: 10})

	ord, err := f.svc.Create(ctx, testTenant, dto.CreateOrderRequest{
		Items: []entity.LineItem{{ProductID: "p1", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if ord.ID == "" {
		t.Fatal("order id must be generated")
	}
	if ord.Status != StatusPending {
		t.Fatalf("status = %s, want %s", ord.Status, StatusPending)
	}
	if ord.OriginalTotal != 200 || ord.Discount != 20 || ord.Total != 180 {
		t.Fatalf("pricing = %v/%v/%v, want 200/20/180", ord.OriginalTotal, ord.Discount, ord.Total)
	}
	if len(ord.AppliedPromotions) != 1 || ord.AppliedPromotions[0].ID != "promo-1" {
		t.Fatalf("applied promotions = %+v", ord.AppliedPromotions)
	}
	if got := f.stockOf(t, "p1"); got != 8 {
		t.Fatalf("stock = %d, want 8", got)
	}

	stored, err := f.svc.Get(ctx, testTenant, ord.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Total != 180 {
		t.Fatalf("stored total = %v, want 180", stored.Total)
	}
}

func TestCreateRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, entity.Product{ID: "p1", Name: "Laptop", Price: 100}, 10)

	_, err := f.svc.Create(ctx, testTenant, dto.CreateOrderRequest{})
	var appErr *errorbank.AppError
	if !errors.As(err, &appErr) || appErr.Kind() != errorbank.KindBadRequest {
		t.Fatalf("empty order: got %v", err)
	}

	_, err = f.svc.Create(ctx, testTenant, dto.CreateOrderRequest{
		Items: []entity.LineItem{{ProductID: "p1", Quantity: 0}},
	})
	if !errors.As(err, &appErr) || appErr.Kind() != errorbank.KindBadRequest {
		t.Fatalf("zero quantity: got %v", err)
	}
}

func TestCreateUnknownProductWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, testTenant, dto.CreateOrderRequest{
		Items: []entity.LineItem{{ProductID: "ghost", Quantity: 1}},
	})
	var appErr *errorbank.AppError
	if !errors.As(err, &appErr) || appErr.Kind() != errorbank.KindNotFound {
		t.Fatalf("got %v, want not found", err)
	}

	ids, err := f.client.SMembers(ctx, store.OrdersAllKey(testTenant)).Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("no order must be indexed, got %v", ids)
	}
}

func TestCreateInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, entity.Product{ID: "p1", Name: "Laptop", Price: 100}, 1)

	_, err := f.svc.Create(ctx, testTenant, dto.CreateOrderRequest{
		Items: []entity.LineItem{{ProductID: "p1", Quantity: 2}},
	})
	var appErr *errorbank.AppError
	if !errors.As(err, &appErr) || appErr.Kind() != errorbank.KindUnprocessableEntity {
		t.Fatalf("got %v, want unprocessable", err)
	}
	if got := f.stockOf(t, "p1"); got != 1 {
		t.Fatalf("stock = %d, want 1 untouched", got)
	}
}

func TestConcurrentCreatesSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, entity.Product{ID: "p1", Name: "Laptop", Price: 100}, 5)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.Create(ctx, testTenant, dto.CreateOrderRequest{
				Items: []entity.LineItem{{ProductID: "p1", Quantity: 5}},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one create must win, got %d (errors: %v)", succeeded, results)
	}
	if got := f.stockOf(t, "p1"); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}
}

func TestUpdateMergesFieldsAndDetachesSupplier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, entity.Product{ID: "p1", Name: "Laptop", Price: 100}, 10)

	ord, err := f.svc.Create(ctx, testTenant, dto.CreateOrderRequest{
		Items:    []entity.LineItem{{ProductID: "p1", Quantity: 1}},
		Supplier: &entity.SupplierRef{ID: "sup-1", Name: "Northwind"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	status := "shipped"
	customer := "cust-9"
	updated, err := f.svc.Update(ctx, testTenant, ord.ID, dto.OrderUpdate{
		Status:     &status,
		CustomerID: &customer,
		Supplier:   dto.Optional[entity.SupplierRef]{Set: true, Valid: false},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != "shipped" || updated.CustomerID != "cust-9" {
		t.Fatalf("fields not merged: %+v", updated)
	}
	if updated.Supplier != nil {
		t.Fatal("supplier must be detached")
	}
	if updated.Total != ord.Total {
		t.Fatalf("untouched fields must survive, total = %v want %v", updated.Total, ord.Total)
	}

	byStatus, err := f.svc.ListByStatus(ctx, testTenant, "shipped")
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != ord.ID {
		t.Fatalf("status index not moved: %+v", byStatus)
	}
	bySupplier, err := f.svc.ListBySupplier(ctx, testTenant, "sup-1")
	if err != nil {
		t.Fatalf("list by supplier: %v", err)
	}
	if len(bySupplier) != 0 {
		t.Fatalf("supplier index must be empty after detach: %+v", bySupplier)
	}
}

func TestUpdateUnknownOrder(t *testing.T) {
	f := newFixture(t)

	status := "shipped"
	_, err := f.svc.Update(context.Background(), testTenant, "ghost", dto.OrderUpdate{Status: &status})
	var appErr *errorbank.AppError
	if !errors.As(err, &appErr) || appErr.Kind() != errorbank.KindNotFound {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, entity.Product{ID: "p1", Name: "Laptop", Price: 100}, 10)

	ord, err := f.svc.Create(ctx, testTenant, dto.CreateOrderRequest{
		Items: []entity.LineItem{{ProductID: "p1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := f.svc.Delete(ctx, testTenant, ord.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !found {
		t.Fatal("first delete must report the order existed")
	}

	found, err = f.svc.Delete(ctx, testTenant, ord.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if found {
		t.Fatal("second delete must report nothing existed")
	}
}

func TestListSortsByRequestedField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, entity.Product{ID: "p1", Name: "Laptop", Price: 100}, 100)

	quantities := []int{3, 1, 2}
	for _, q := range quantities {
		if _, err := f.svc.Create(ctx, testTenant, dto.CreateOrderRequest{
			Items: []entity.LineItem{{ProductID: "p1", Quantity: q}},
		}); err != nil {
			t.Fatalf("create qty %d: %v", q, err)
		}
	}

	orders, err := f.svc.List(ctx, testTenant, "total", "desc")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("len = %d, want 3", len(orders))
	}
	if orders[0].Total != 300 || orders[1].Total != 200 || orders[2].Total != 100 {
		t.Fatalf("not sorted desc by total: %v %v %v", orders[0].Total, orders[1].Total, orders[2].Total)
	}

	// Unknown sort field keeps the storage order rather than failing.
	if _, err := f.svc.List(ctx, testTenant, "bogus", "asc"); err != nil {
		t.Fatalf("unknown sort field must not fail: %v", err)
	}
}

func TestQueriesOnEmptyTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orders, err := f.svc.List(ctx, testTenant, "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("want empty, got %+v", orders)
	}

	orders, err = f.svc.ListByStatus(ctx, testTenant, "pending")
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("want empty, got %+v", orders)
	}
}

func TestTenantsAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, entity.Product{ID: "p1", Name: "Laptop", Price: 100}, 10)

	ord, err := f.svc.Create(ctx, testTenant, dto.CreateOrderRequest{
		Items: []entity.LineItem{{ProductID: "p1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Get(ctx, "other", ord.ID); err == nil {
		t.Fatal("order must not be visible to another tenant")
	}
	others, err := f.svc.List(ctx, "other", "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(others) != 0 {
		t.Fatalf("tenant isolation broken: %+v", others)
	}
}
