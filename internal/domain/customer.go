package domain

import "time"

// Customer is a registered shopper account.
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal is the identity attached to a request. Exactly one of
// CustomerID or SessionID is set.
type Principal struct {
	CustomerID string `json:"customerId,omitempty"`
	Email      string `json:"email,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	Admin      bool   `json:"admin"`
}

// Anonymous reports whether no customer is logged in.
func (p Principal) Anonymous() bool {
	return p.CustomerID == ""
}

// CartOwner returns the key suffix used for the principal's cart.
func (p Principal) CartOwner() string {
	if p.CustomerID != "" {
		return "customer:" + p.CustomerID
	}
	return "session:" + p.SessionID
}
