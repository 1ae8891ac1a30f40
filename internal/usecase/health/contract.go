package health

import "context"

// StorePinger checks state-store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}
