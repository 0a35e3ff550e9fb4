// Package domain notification records, outgoing messages and the sender port
package domain

import (
	"context"
	"time"
)

// Channel delivery channel
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
)

// Status delivery status of a notification record
type Status string

const (
	StatusPending Status = "PENDING"
	// StatusQueued handed to the message broker, delivery pending in the notifier
	StatusQueued Status = "QUEUED"
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// Message outgoing notification as produced by the workflows
type Message struct {
	Channel   Channel `json:"channel"`
	Recipient string  `json:"recipient"`
	Subject   string  `json:"subject"`
	Body      string  `json:"body"`
	// Reference links the message to the entity it concerns, e.g. "application:<id>".
	Reference string `json:"reference"`
}

// Notification persisted delivery attempt
type Notification struct {
	ID        string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Channel   Channel    `gorm:"column:channel;type:varchar(20);not null" json:"channel"`
	Recipient string     `gorm:"column:recipient;type:varchar(255);not null" json:"recipient"`
	Subject   string     `gorm:"column:subject;type:varchar(255)" json:"subject"`
	Body      string     `gorm:"column:body;type:text" json:"-"`
	Reference string     `gorm:"column:reference;type:varchar(100);index" json:"reference"`
	Status    Status     `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	Error     string     `gorm:"column:error;type:text" json:"error,omitempty"`
	Attempts  int        `gorm:"column:attempts;not null" json:"attempts"`
	SentAt    *time.Time `gorm:"column:sent_at" json:"sentAt,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

func (Notification) TableName() string { return "notifications" }

// MarkSent records a successful delivery.
func (n *Notification) MarkSent(at time.Time) {
	n.Status = StatusSent
	n.Error = ""
	n.SentAt = &at
}

// MarkQueued records a hand-off to the broker.
func (n *Notification) MarkQueued() {
	n.Status = StatusQueued
	n.Error = ""
}

func (n *Notification) MarkFailed(err error) {
	n.Status = StatusFailed
	if err != nil {
		n.Error = err.Error()
	}
}

// Sender delivers a notification.
type Sender interface {
	// Name identifies the sender in logs.
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Filter list criteria
type Filter struct {
	Reference string
	Status    Status
	Page      int
	Limit     int
}

// Repository notification records
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	Save(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	List(ctx context.Context, filter Filter) ([]*Notification, int64, error)
}
