package domain

import "context"

// AppenderPort durably appends records to the log
type AppenderPort interface {
	// Append writes one newline-terminated JSON line and returns after it is fsynced
	Append(ctx context.Context, r Record) error
}

// TailerPort reads the log incrementally
type TailerPort interface {
	// Tail returns every complete record after cur and the cursor just past the last complete line
	Tail(ctx context.Context, cur Cursor) ([]Record, Cursor, error)
	// TailN is Tail bounded to at most n records; n <= 0 means no bound
	TailN(ctx context.Context, cur Cursor, n int) ([]Record, Cursor, error)
}

// NotifierPort signals that the log may have changed
type NotifierPort interface {
	// Subscribe returns a channel that receives a value after writes; it closes when ctx ends
	Subscribe(ctx context.Context) (<-chan struct{}, error)
}
