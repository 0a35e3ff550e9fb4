package domain

import (
	"context"
	"io"
	"time"
)

// ListFilter application list criteria
type ListFilter struct {
	Status Status
	From   *time.Time
	To     *time.Time
	// Search matches full name, company, email, phone and national id, ignoring case.
	Search     string
	ReviewerID string
	// VisibleTo restricts results to applications created or reviewed by this user.
	VisibleTo string
	Page      int
	Limit     int
}

// Repository persistence of applications. Methods join the transaction carried by ctx.
// Get and GetForUpdate return (nil, nil) when nothing matches.
type Repository interface {
	// Create inserts the application with its children and history.
	Create(ctx context.Context, app *Application) error
	// Get loads the aggregate with children and history in chronological order.
	Get(ctx context.Context, id string) (*Application, error)
	// GetForUpdate is Get with the application row locked until the enclosing
	// transaction ends. Concurrent reviews of one application run one after another.
	GetForUpdate(ctx context.Context, id string) (*Application, error)
	UpdateReview(ctx context.Context, app *Application) error
	AppendHistory(ctx context.Context, entry *History) error
	List(ctx context.Context, filter ListFilter) ([]*Application, int64, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	// CreatedSince creation times of applications created at or after since.
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
}

// Upload file part of a submission
type Upload struct {
	Kind     string
	Filename string
	Content  io.Reader
}

// DocumentStore keeps uploaded files and returns the path to record.
type DocumentStore interface {
	Save(ctx context.Context, kind, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}
