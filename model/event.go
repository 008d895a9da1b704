package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	StatusPending  EventStatus = "pending"
	StatusApproved EventStatus = "approved"
	StatusRejected EventStatus = "rejected"
)

// Moderation holds the advisory metadata returned by the moderation
// collaborator. It never changes the event status by itself.
type Moderation struct {
	RiskScore *float64 `bson:"risk_score,omitempty" json:"risk_score,omitempty"`
	Reasoning string   `bson:"reasoning,omitempty" json:"reasoning,omitempty"`
	Flags     []string `bson:"flags,omitempty" json:"flags,omitempty"`
}

type Event struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"event_id,omitempty"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Category      string             `bson:"category,omitempty" json:"category,omitempty"`
	Organizer     primitive.ObjectID `bson:"organizer" json:"organizer_id,omitempty"`
	StartDateTime time.Time          `bson:"start_date_time" json:"start_date_time"`
	EndDateTime   time.Time          `bson:"end_date_time" json:"end_date_time"`
	Location      string             `bson:"location,omitempty" json:"location,omitempty"`
	URL           string             `bson:"url,omitempty" json:"url,omitempty"`
	IsFree        bool               `bson:"is_free" json:"is_free"`
	Price         float64            `bson:"price,omitempty" json:"price,omitempty"`
	ImageURL      string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Status        EventStatus        `bson:"status" json:"status"`
	Moderation    *Moderation        `bson:"moderation,omitempty" json:"moderation,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

type EventPage struct {
	Events     []Event `json:"events"`
	TotalPages int64   `json:"total_pages"`
}
