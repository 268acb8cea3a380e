package errorbank

import "fmt"

// ProductNotFound signals that a line item references a product that does not
// exist for the tenant. Creation aborts before any write.
func ProductNotFound(productID string) *AppError {
	return NotFound(
		fmt.Sprintf("product %s not found", productID),
		WithDetail("product_id", productID),
	)
}

// InsufficientStock signals that the requested quantity exceeds what is
// available. Creation aborts before any write.
func InsufficientStock(productName string, available, required int) *AppError {
	return Unprocessable(
		fmt.Sprintf("insufficient stock for %s: %d available, %d required", productName, available, required),
		WithDetails(map[string]any{
			"product":   productName,
			"available": available,
			"required":  required,
		}),
	)
}

// ConflictRetryable signals that a watched stock key changed between read and
// commit. Nothing was written; callers may re-run the whole operation.
func ConflictRetryable(message string, opts ...Option) *AppError {
	return Conflict(message, opts...)
}

// IsRetryableConflict reports whether err is a commit-time conflict.
func IsRetryableConflict(err error) bool {
	appErr := From(err)
	return appErr != nil && appErr.Kind() == KindConflict
}

// OrderNotFound signals that the referenced order id is absent.
func OrderNotFound(orderID string) *AppError {
	return NotFound("order not found", WithDetail("order_id", orderID))
}
