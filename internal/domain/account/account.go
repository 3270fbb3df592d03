package account

// PaymentMethod is a stored card or wallet of the signed-in user.
type PaymentMethod struct {
	ID        string `json:"id"`
	Brand     string `json:"brand"`
	Last4     string `json:"last4,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

// Plan is a subscription plan offered to the user.
type Plan struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Active   bool    `json:"active"`
}
