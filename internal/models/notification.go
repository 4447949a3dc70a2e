package models

import "time"

// Notification is a persisted activity-stream entry delivered to a single
// recipient. Delivery is best effort; ledger writes never depend on it.
type Notification struct {
	ID          string    `db:"id" json:"id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	Verb        string    `db:"verb" json:"verb"`
	Description string    `db:"description" json:"description"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NotificationFilter scopes notification listings.
type NotificationFilter struct {
	RecipientID string
	UnreadOnly  bool
	Page        int
	PageSize    int
}
