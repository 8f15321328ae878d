package reconciler

import (
	"context"
	"time"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/domain"
)

// ListClient is the remote list surface the reconciler drives. The
// gateway guarantees "success or definite failure": expected remote
// faults come back as errors, never panics.
type ListClient interface {
	IsBlocked(ctx context.Context, name string) (bool, error)
	IsAllowed(ctx context.Context, name string) (bool, error)
	Block(ctx context.Context, name string) error
	Unblock(ctx context.Context, name string) error
	Allow(ctx context.Context, name string) error
	Disallow(ctx context.Context, name string) error
}

// Evaluator decides the desired blocked state for a schedule at an
// instant.
type Evaluator interface {
	ShouldBlock(schedule *domain.WeeklySchedule, now time.Time) (bool, error)
}

// Auditor records applied actions to the external audit trail.
type Auditor interface {
	Record(passID string, action domain.SyncAction) error
}
