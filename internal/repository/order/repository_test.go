package order

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/stocktide/stocktide/internal/entity"
	"github.com/stocktide/stocktide/internal/store"
	"github.com/stocktide/stocktide/pkg/errorbank"
)

const testTenant = "acme"

func newTestRepo(t *testing.T) (*Repository, *goredis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRepository(client), client
}

func seedStock(t *testing.T, client *goredis.Client, productID string, quantity int) {
	t.Helper()
	payload, err := json.Marshal(entity.Stock{ProductID: productID, Quantity: quantity})
	if err != nil {
		t.Fatalf("marshal stock: %v", err)
	}
	if err := client.Set(context.Background(), store.StockKey(testTenant, productID), payload, 0).Err(); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func readStock(t *testing.T, client *goredis.Client, productID string) int {
	t.Helper()
	raw, err := client.Get(context.Background(), store.StockKey(testTenant, productID)).Bytes()
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	var st entity.Stock
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("unmarshal stock: %v", err)
	}
	return st.Quantity
}

func isMember(t *testing.T, client *goredis.Client, key, member string) bool {
	t.Helper()
	ok, err := client.SIsMember(context.Background(), key, member).Result()
	if err != nil {
		t.Fatalf("sismember %s: %v", key, err)
	}
	return ok
}

func TestCreateCommitsRecordIndexesAndStock(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()

	seedStock(t, client, "p1", 10)
	seedStock(t, client, "p2", 3)

	ord := &entity.Order{
		ID:        "ord-1",
		Items:     []entity.LineItem{{ProductID: "p1", Quantity: 4}, {ProductID: "p2", Quantity: 3}},
		Status:    "pending",
		Supplier:  &entity.SupplierRef{ID: "sup-1", Name: "Northwind"},
		CreatedAt: time.Now().UTC(),
		Total:     100,
	}
	demands := []Demand{
		{ProductID: "p1", ProductName: "Laptop", Quantity: 4},
		{ProductID: "p2", ProductName: "Desk", Quantity: 3},
	}

	if err := repo.Create(ctx, testTenant, ord, demands); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, testTenant, "ord-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "pending" || got.Total != 100 {
		t.Fatalf("unexpected stored order: %+v", got)
	}

	if !isMember(t, client, store.OrdersAllKey(testTenant), "ord-1") {
		t.Fatal("order missing from all index")
	}
	if !isMember(t, client, store.OrdersStatusKey(testTenant, "pending"), "ord-1") {
		t.Fatal("order missing from status index")
	}
	if !isMember(t, client, store.OrdersSupplierKey(testTenant, "sup-1"), "ord-1") {
		t.Fatal("order missing from supplier index")
	}

	if got := readStock(t, client, "p1"); got != 6 {
		t.Fatalf("p1 stock = %d, want 6", got)
	}
	if got := readStock(t, client, "p2"); got != 0 {
		t.Fatalf("p2 stock = %d, want 0", got)
	}
}

func TestCreateDuplicateProductAcrossItems(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()

	seedStock(t, client, "p1", 5)

	ord := &entity.Order{
		ID:        "ord-dup",
		Items:     []entity.LineItem{{ProductID: "p1", Quantity: 3}, {ProductID: "p1", Quantity: 2}},
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}
	demands := []Demand{
		{ProductID: "p1", ProductName: "Laptop", Quantity: 3},
		{ProductID: "p1", ProductName: "Laptop", Quantity: 2},
	}

	if err := repo.Create(ctx, testTenant, ord, demands); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := readStock(t, client, "p1"); got != 0 {
		t.Fatalf("p1 stock = %d, want 0", got)
	}
}

func TestCreateInsufficientStockWritesNothing(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()

	seedStock(t, client, "p1", 10)
	seedStock(t, client, "p2", 2)

	ord := &entity.Order{
		ID:        "ord-2",
		Items:     []entity.LineItem{{ProductID: "p1", Quantity: 4}, {ProductID: "p2", Quantity: 3}},
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}
	demands := []Demand{
		{ProductID: "p1", ProductName: "Laptop", Quantity: 4},
		{ProductID: "p2", ProductName: "Desk", Quantity: 3},
	}

	err := repo.Create(ctx, testTenant, ord, demands)
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	var appErr *errorbank.AppError
	if !errors.As(err, &appErr) || appErr.Kind() != errorbank.KindUnprocessableEntity {
		t.Fatalf("unexpected error: %v", err)
	}
	if appErr.Details()["available"] != 2 || appErr.Details()["required"] != 3 {
		t.Fatalf("unexpected shortfall details: %v", appErr.Details())
	}

	if _, err := repo.Get(ctx, testTenant, "ord-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("order record should not exist, got %v", err)
	}
	if got := readStock(t, client, "p1"); got != 10 {
		t.Fatalf("p1 stock = %d, want 10 untouched", got)
	}
	if got := readStock(t, client, "p2"); got != 2 {
		t.Fatalf("p2 stock = %d, want 2 untouched", got)
	}
	if isMember(t, client, store.OrdersAllKey(testTenant), "ord-2") {
		t.Fatal("failed order must not be indexed")
	}
}

func TestCreateMissingStockRecordTreatedAsZero(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	ord := &entity.Order{ID: "ord-3", Items: []entity.LineItem{{ProductID: "ghost", Quantity: 1}}, Status: "pending"}
	demands := []Demand{{ProductID: "ghost", ProductName: "Ghost", Quantity: 1}}

	err := repo.Create(ctx, testTenant, ord, demands)
	var appErr *errorbank.AppError
	if !errors.As(err, &appErr) || appErr.Kind() != errorbank.KindUnprocessableEntity {
		t.Fatalf("expected unprocessable error, got %v", err)
	}
	if appErr.Details()["available"] != 0 {
		t.Fatalf("missing stock should read as zero: %v", appErr.Details())
	}
}

func TestConcurrentCreatesNeverOversell(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()

	seedStock(t, client, "p1", 5)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ord := &entity.Order{
				ID:        "ord-race-" + string(rune('a'+i)),
				Items:     []entity.LineItem{{ProductID: "p1", Quantity: 5}},
				Status:    "pending",
				CreatedAt: time.Now().UTC(),
			}
			results[i] = repo.Create(ctx, testTenant, ord, []Demand{{ProductID: "p1", ProductName: "Laptop", Quantity: 5}})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var appErr *errorbank.AppError
		if !errors.As(err, &appErr) {
			t.Fatalf("loser must fail with an app error, got %v", err)
		}
		switch appErr.Kind() {
		case errorbank.KindConflict, errorbank.KindUnprocessableEntity:
		default:
			t.Fatalf("unexpected loser kind %s", appErr.Kind())
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one create must win, got %d", succeeded)
	}
	if got := readStock(t, client, "p1"); got != 0 {
		t.Fatalf("p1 stock = %d, want 0", got)
	}

	ids, err := client.SMembers(ctx, store.OrdersAllKey(testTenant)).Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("exactly one order must be indexed, got %v", ids)
	}
}

func TestUpdateMovesIndexMemberships(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()

	seedStock(t, client, "p1", 10)
	prev := &entity.Order{
		ID:        "ord-4",
		Items:     []entity.LineItem{{ProductID: "p1", Quantity: 1}},
		Status:    "pending",
		Supplier:  &entity.SupplierRef{ID: "sup-1"},
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, testTenant, prev, []Demand{{ProductID: "p1", ProductName: "Laptop", Quantity: 1}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	next := *prev
	next.Status = "shipped"
	next.Supplier = &entity.SupplierRef{ID: "sup-2"}
	if err := repo.Update(ctx, testTenant, prev, &next); err != nil {
		t.Fatalf("update: %v", err)
	}

	if isMember(t, client, store.OrdersStatusKey(testTenant, "pending"), "ord-4") {
		t.Fatal("order left in old status index")
	}
	if !isMember(t, client, store.OrdersStatusKey(testTenant, "shipped"), "ord-4") {
		t.Fatal("order missing from new status index")
	}
	if isMember(t, client, store.OrdersSupplierKey(testTenant, "sup-1"), "ord-4") {
		t.Fatal("order left in old supplier index")
	}
	if !isMember(t, client, store.OrdersSupplierKey(testTenant, "sup-2"), "ord-4") {
		t.Fatal("order missing from new supplier index")
	}
	if !isMember(t, client, store.OrdersAllKey(testTenant), "ord-4") {
		t.Fatal("order must stay in all index")
	}

	got, err := repo.Get(ctx, testTenant, "ord-4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "shipped" || got.SupplierID() != "sup-2" {
		t.Fatalf("record not rewritten: %+v", got)
	}
}

func TestUpdateDetachesSupplier(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()

	seedStock(t, client, "p1", 5)
	prev := &entity.Order{
		ID:        "ord-5",
		Items:     []entity.LineItem{{ProductID: "p1", Quantity: 1}},
		Status:    "pending",
		Supplier:  &entity.SupplierRef{ID: "sup-1"},
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, testTenant, prev, []Demand{{ProductID: "p1", ProductName: "Laptop", Quantity: 1}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	next := *prev
	next.Supplier = nil
	if err := repo.Update(ctx, testTenant, prev, &next); err != nil {
		t.Fatalf("update: %v", err)
	}
	if isMember(t, client, store.OrdersSupplierKey(testTenant, "sup-1"), "ord-5") {
		t.Fatal("order left in supplier index after detach")
	}
}

func TestDeleteRemovesRecordAndIndexes(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()

	seedStock(t, client, "p1", 5)
	ord := &entity.Order{
		ID:        "ord-6",
		Items:     []entity.LineItem{{ProductID: "p1", Quantity: 2}},
		Status:    "pending",
		Supplier:  &entity.SupplierRef{ID: "sup-1"},
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, testTenant, ord, []Demand{{ProductID: "p1", ProductName: "Laptop", Quantity: 2}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete(ctx, testTenant, ord); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.Get(ctx, testTenant, "ord-6"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record should be gone, got %v", err)
	}
	if isMember(t, client, store.OrdersAllKey(testTenant), "ord-6") ||
		isMember(t, client, store.OrdersStatusKey(testTenant, "pending"), "ord-6") ||
		isMember(t, client, store.OrdersSupplierKey(testTenant, "sup-1"), "ord-6") {
		t.Fatal("index memberships should be gone")
	}
	// Deletion never restocks.
	if got := readStock(t, client, "p1"); got != 3 {
		t.Fatalf("p1 stock = %d, want 3", got)
	}
}

func TestListSkipsDanglingIndexEntries(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()

	seedStock(t, client, "p1", 5)
	ord := &entity.Order{
		ID:        "ord-7",
		Items:     []entity.LineItem{{ProductID: "p1", Quantity: 1}},
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, testTenant, ord, []Demand{{ProductID: "p1", ProductName: "Laptop", Quantity: 1}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := client.SAdd(ctx, store.OrdersAllKey(testTenant), "gone").Err(); err != nil {
		t.Fatalf("sadd: %v", err)
	}

	orders, err := repo.List(ctx, testTenant)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "ord-7" {
		t.Fatalf("dangling id must be skipped, got %+v", orders)
	}
}

func TestListEmptyIndexYieldsEmptySlice(t *testing.T) {
	repo, _ := newTestRepo(t)

	orders, err := repo.List(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if orders == nil || len(orders) != 0 {
		t.Fatalf("want empty slice, got %#v", orders)
	}
}

func TestListOrdersByCreationTime(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()

	seedStock(t, client, "p1", 10)
	base := time.Now().UTC()
	for i, id := range []string{"ord-c", "ord-a", "ord-b"} {
		ord := &entity.Order{
			ID:        id,
			Items:     []entity.LineItem{{ProductID: "p1", Quantity: 1}},
			Status:    "pending",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(ctx, testTenant, ord, []Demand{{ProductID: "p1", ProductName: "Laptop", Quantity: 1}}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	orders, err := repo.List(ctx, testTenant)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := []string{orders[0].ID, orders[1].ID, orders[2].ID}
	want := []string{"ord-c", "ord-a", "ord-b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %d = %s, want %s", i, got[i], want[i])
		}
	}
}
