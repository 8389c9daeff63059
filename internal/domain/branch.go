package domain

import "time"

// Branch is a restaurant location used for pickup and dine-in orders.
type Branch struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Tables    int       `json:"tables"`
	CreatedAt time.Time `json:"createdAt"`
}
