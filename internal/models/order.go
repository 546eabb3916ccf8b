package models

import "time"

// OrderItem represents a single line within an order. Items are embedded in the
// order document and are not addressable on their own.
type OrderItem struct {
	ProductID int64   `json:"productId" bson:"productId"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

// Order represents a customer order keyed by a caller-supplied identifier.
type Order struct {
	OrderID      string      `json:"orderId" bson:"orderId" gorm:"primaryKey;type:varchar(128)"`
	Value        float64     `json:"value" bson:"value"`
	CreationDate time.Time   `json:"creationDate" bson:"creationDate"`
	Items        []OrderItem `json:"items" bson:"items" gorm:"serializer:json"`
	CreatedAt    time.Time   `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updatedAt"`
}
