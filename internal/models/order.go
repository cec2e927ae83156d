package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is one cart line captured at purchase time. Items are embedded in
// the order document so the order and its lines commit in a single write.
type OrderItem struct {
	ProductID    int64   `bson:"productId" json:"product_id"`
	ProductName  string  `bson:"productName" json:"product_name"`
	ProductPrice float64 `bson:"productPrice" json:"product_price"`
	Quantity     int     `bson:"quantity" json:"quantity"`
	Subtotal     float64 `bson:"subtotal" json:"subtotal"`
}

// Customer holds the contact details collected at checkout. They are flattened
// onto the order document; there is no standalone customer record.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Order is the persisted order document. TotalAmount is naira, computed
// server-side from the items. PaymentReference is unique when present.
type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerName     string             `bson:"customerName" json:"customer_name"`
	CustomerEmail    string             `bson:"customerEmail" json:"customer_email"`
	CustomerPhone    string             `bson:"customerPhone" json:"customer_phone"`
	CustomerAddress  string             `bson:"customerAddress" json:"customer_address"`
	Items            []OrderItem        `bson:"items" json:"items"`
	TotalAmount      float64            `bson:"totalAmount" json:"total_amount"`
	Status           string             `bson:"status" json:"status"`
	PaymentReference string             `bson:"paymentReference,omitempty" json:"payment_reference,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"created_at"`
}

const OrderStatusConfirmed = "confirmed"
