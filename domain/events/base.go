package events

import "time"

// SourceStorefront is the EventBridge source for events raised by this service
const SourceStorefront = "storefront.backend"

// Event types
const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
	TypeReviewPosted       = "review.posted"
	TypeMessageSent        = "chat.message_sent"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// OrderPlaced is raised after a new order is persisted. Admin notification
// delivery subscribes to it.
type OrderPlaced struct {
	BaseEvent
	UserID         string  `json:"user_id"`
	CustomerName   string  `json:"customer_name"`
	AmountToCharge float64 `json:"amount_to_charge"`
	PaymentMethod  string  `json:"payment_method"`
}

// NewOrderPlaced creates an OrderPlaced event
func NewOrderPlaced(orderID, userID, customerName, paymentMethod string, amount float64, timestamp time.Time) OrderPlaced {
	return OrderPlaced{
		BaseEvent: BaseEvent{
			AggregateID: orderID,
			EventType:   TypeOrderPlaced,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:         userID,
		CustomerName:   customerName,
		AmountToCharge: amount,
		PaymentMethod:  paymentMethod,
	}
}

// OrderStatusChanged is raised when an administrator moves an order along
type OrderStatusChanged struct {
	BaseEvent
	UserID    string `json:"user_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// NewOrderStatusChanged creates an OrderStatusChanged event
func NewOrderStatusChanged(orderID, userID, oldStatus, newStatus string, timestamp time.Time) OrderStatusChanged {
	return OrderStatusChanged{
		BaseEvent: BaseEvent{
			AggregateID: orderID,
			EventType:   TypeOrderStatusChanged,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:    userID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
}

// ReviewPosted is raised when a review is created or edited
type ReviewPosted struct {
	BaseEvent
	ProductID string `json:"product_id"`
	AuthorID  string `json:"author_id"`
	Rating    int    `json:"rating"`
}

// NewReviewPosted creates a ReviewPosted event
func NewReviewPosted(reviewID, productID, authorID string, rating int, timestamp time.Time) ReviewPosted {
	return ReviewPosted{
		BaseEvent: BaseEvent{
			AggregateID: reviewID,
			EventType:   TypeReviewPosted,
			Timestamp:   timestamp,
			Version:     1,
		},
		ProductID: productID,
		AuthorID:  authorID,
		Rating:    rating,
	}
}

// MessageSent is raised when a chat message is stored. Delivery to the
// other participants subscribes to it.
type MessageSent struct {
	BaseEvent
	MessageID    string   `json:"message_id"`
	SenderID     string   `json:"sender_id"`
	Participants []string `json:"participants"`
}

// NewMessageSent creates a MessageSent event
func NewMessageSent(chatID, messageID, senderID string, participants []string, timestamp time.Time) MessageSent {
	return MessageSent{
		BaseEvent: BaseEvent{
			AggregateID: chatID,
			EventType:   TypeMessageSent,
			Timestamp:   timestamp,
			Version:     1,
		},
		MessageID:    messageID,
		SenderID:     senderID,
		Participants: participants,
	}
}
