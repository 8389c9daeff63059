package domain

import "time"

// FulfillmentMethod is how an order reaches the customer.
type FulfillmentMethod string

const (
	FulfillmentDelivery FulfillmentMethod = "delivery"
	FulfillmentPickup   FulfillmentMethod = "pickup"
	FulfillmentDineIn   FulfillmentMethod = "dine-in"
)

// Valid reports whether m is a known method.
func (m FulfillmentMethod) Valid() bool {
	switch m {
	case FulfillmentDelivery, FulfillmentPickup, FulfillmentDineIn:
		return true
	}
	return false
}

// Location holds the method-dependent part of the customer details.
type Location struct {
	Address    string `json:"address,omitempty"`
	Branch     string `json:"branch,omitempty"`
	PickupTime string `json:"pickupTime,omitempty"`
	Table      string `json:"table,omitempty"`
}

// OrderCustomer is the customer block frozen into an order.
type OrderCustomer struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Email    string   `json:"email,omitempty"`
	Location Location `json:"location"`
}

type Order struct {
	ID                string            `json:"id"`
	CustomerID        *string           `json:"customerId,omitempty"`
	Lines             []CartLine        `json:"lines"`
	Customer          OrderCustomer     `json:"customer"`
	FulfillmentMethod FulfillmentMethod `json:"fulfillmentMethod"`
	TotalAmountCents  int64             `json:"totalAmount"`
	Status            OrderStatus       `json:"status"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// NewOrder is the input for creating an order record.
type NewOrder struct {
	CustomerID        *string
	Lines             []CartLine
	Customer          OrderCustomer
	FulfillmentMethod FulfillmentMethod
	TotalAmountCents  int64
}

// OrderStatus is a lifecycle state. The string value is the display name
// stored in the database.
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusApproved   OrderStatus = "Approved"
	StatusInKitchen  OrderStatus = "In Kitchen"
	StatusFinishing  OrderStatus = "Finishing"
	StatusDelivering OrderStatus = "Delivering"
	StatusCompleted  OrderStatus = "Completed"
)
