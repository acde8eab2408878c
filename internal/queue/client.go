package queue

import "context"

// Client publishes reconcile hints. Implementations must be safe for
// concurrent use; the allocation engine sends from request goroutines.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
