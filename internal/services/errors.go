package services

import (
	"errors"
	"fmt"
	"time"
)

// Precondition errors. These fail fast before any remote call is made.
var (
	ErrNotBootstrapped    = errors.New("initial import has not completed for this property")
	ErrSyncDisabled       = errors.New("synchronization is disabled for this property")
	ErrSyncInProgress     = errors.New("a sync is already running for this property")
	ErrConnectionNotFound = errors.New("no channel connection found for this hotel")
	ErrConnectionDisabled = errors.New("the channel connection for this hotel is disabled")
)

// AlreadyBootstrappedError rejects a repeat bootstrap, reporting when the
// original import completed.
type AlreadyBootstrappedError struct {
	CompletedAt time.Time
}

func (e *AlreadyBootstrappedError) Error() string {
	return fmt.Sprintf("initial import already completed at %s", e.CompletedAt.Format(time.RFC3339))
}
