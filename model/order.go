package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is a user's claim on an event, free or paid. At most one order
// exists per (event, buyer) pair; the orders collection carries a unique
// index on those two fields. PaymentRef is set only on paid orders and is
// itself unique per payment session.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"order_id,omitempty"`
	Event       primitive.ObjectID `bson:"event" json:"event_id"`
	Buyer       primitive.ObjectID `bson:"buyer" json:"buyer_id"`
	TotalAmount float64            `bson:"total_amount" json:"total_amount"`
	IsFree      bool               `bson:"is_free" json:"is_free"`
	PaymentRef  string             `bson:"payment_ref,omitempty" json:"payment_ref,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// TicketSummary is an order joined with the essentials of its event,
// returned by the my-tickets listing.
type TicketSummary struct {
	Order Order  `json:"order"`
	Event *Event `json:"event,omitempty"`
}
