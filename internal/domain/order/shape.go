package order

import "fmt"

// DataShapeError reports a stored order that fails structural validation:
// its items field is missing, not an array, or empty.
type DataShapeError struct {
	OrderID string
	Reason  string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("order %s has invalid data: %s", e.OrderID, e.Reason)
}
