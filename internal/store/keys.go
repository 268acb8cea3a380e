package store

import "fmt"

// Tenant-scoped keys live under s:user:<tenant>:. Promotions and the audit
// trail are shared across tenants.
const (
	tenantPrefix = "s:user:%s"

	// PromotionsSetKey indexes every promotion id.
	PromotionsSetKey = "promotions"

	// AuditLogKey is the list of audit entries, newest first.
	AuditLogKey = "audit-log"
)

// OrderKey addresses a single order record.
func OrderKey(tenant, orderID string) string {
	return fmt.Sprintf(tenantPrefix+":order:%s", tenant, orderID)
}

// OrdersAllKey is the set of every order id owned by the tenant.
func OrdersAllKey(tenant string) string {
	return fmt.Sprintf(tenantPrefix+":orders:all", tenant)
}

// OrdersStatusKey is the set of order ids currently in the given status.
func OrdersStatusKey(tenant, status string) string {
	return fmt.Sprintf(tenantPrefix+":orders:status:%s", tenant, status)
}

// OrdersSupplierKey is the set of order ids referencing the given supplier.
func OrdersSupplierKey(tenant, supplierID string) string {
	return fmt.Sprintf(tenantPrefix+":orders:supplier:%s", tenant, supplierID)
}

// ProductKey addresses a single product record.
func ProductKey(tenant, productID string) string {
	return fmt.Sprintf(tenantPrefix+":product:%s", tenant, productID)
}

// StockKey addresses the stock record for a product.
func StockKey(tenant, productID string) string {
	return fmt.Sprintf(tenantPrefix+":stock:%s", tenant, productID)
}

// PromotionKey addresses a single promotion record.
func PromotionKey(promotionID string) string {
	return fmt.Sprintf("promotion:%s", promotionID)
}
