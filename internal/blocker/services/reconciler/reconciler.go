// Package reconciler drives the remote lists toward the state the
// schedules demand, one pass at a time.
package reconciler

import (
	"context"

	"github.com/google/uuid"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/clock"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/log"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/domain"
)

// Reasons attached to emitted actions.
const (
	ReasonSchedule  = "schedule"
	ReasonProtected = "protected"
	ReasonAllowlist = "allowlist"
)

// Reconciler computes and applies the minimal set of corrective list
// operations for one pass. It holds no state between passes; repeated
// passes are idempotent.
type Reconciler struct {
	client    ListClient
	evaluator Evaluator
	auditor   Auditor
	clock     clock.Clock
	logger    log.Logger
	dryRun    bool
}

// Options wires a Reconciler. Client and Evaluator are required;
// Auditor may be nil when no audit trail is wanted.
type Options struct {
	Client    ListClient
	Evaluator Evaluator
	Auditor   Auditor
	Clock     clock.Clock
	Logger    log.Logger
	DryRun    bool
}

// New constructs a Reconciler.
func New(opts Options) *Reconciler {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Reconciler{
		client:    opts.Client,
		evaluator: opts.Evaluator,
		auditor:   opts.Auditor,
		clock:     opts.Clock,
		logger:    opts.Logger,
		dryRun:    opts.DryRun,
	}
}

// Run executes one reconciliation pass over the configured rules.
//
// Order matters: allowlist entries are registered before any denylist
// mutation, so a domain moving from blocked to allowed is never
// transiently exposed without its exception; protected domains are
// re-asserted next; only then are the remaining rules diffed against
// their schedules. A single domain's failure marks the pass
// unsuccessful but never aborts it.
func (r *Reconciler) Run(ctx context.Context, rules []domain.DomainRule, allowlist []domain.AllowlistEntry) domain.Report {
	now := r.clock.Now()
	report := domain.Report{
		PassID:    uuid.NewString(),
		StartedAt: now,
		DryRun:    r.dryRun,
		Success:   true,
	}

	r.logger.Debug(map[string]any{
		"pass_id": report.PassID,
		"rules":   len(rules),
		"dry_run": r.dryRun,
	}, "starting reconciliation pass")

	r.syncAllowlist(ctx, allowlist, &report)
	r.assertProtected(ctx, rules, &report)
	r.syncSchedules(ctx, rules, &report)

	r.logger.Info(map[string]any{
		"pass_id":   report.PassID,
		"blocked":   report.Blocked,
		"unblocked": report.Unblocked,
		"allowed":   report.Allowed,
		"unchanged": report.Unchanged,
		"failed":    report.Failed,
		"success":   report.Success,
	}, "reconciliation pass complete")
	return report
}

// syncAllowlist registers every configured allowlist entry that is not
// yet active remotely.
func (r *Reconciler) syncAllowlist(ctx context.Context, allowlist []domain.AllowlistEntry, report *domain.Report) {
	for _, entry := range allowlist {
		allowed, err := r.client.IsAllowed(ctx, entry.Name)
		if err != nil {
			r.recordFailure(report, domain.SyncAction{Domain: entry.Name, Kind: domain.ActionAllow, Reason: ReasonAllowlist, Err: err})
			continue
		}
		if allowed {
			report.Unchanged++
			continue
		}
		r.apply(ctx, report, domain.SyncAction{Domain: entry.Name, Kind: domain.ActionAllow, Reason: ReasonAllowlist})
	}
}

// assertProtected re-blocks protected domains that dropped off the
// denylist. Protected rules ignore their schedules entirely.
func (r *Reconciler) assertProtected(ctx context.Context, rules []domain.DomainRule, report *domain.Report) {
	for _, rule := range rules {
		if !rule.Protected {
			continue
		}
		blocked, err := r.client.IsBlocked(ctx, rule.Name)
		if err != nil {
			r.recordFailure(report, domain.SyncAction{Domain: rule.Name, Kind: domain.ActionBlock, Reason: ReasonProtected, Err: err})
			continue
		}
		if blocked {
			report.Unchanged++
			continue
		}
		r.apply(ctx, report, domain.SyncAction{Domain: rule.Name, Kind: domain.ActionBlock, Reason: ReasonProtected})
	}
}

// syncSchedules diffs desired against actual state for every
// non-protected rule.
func (r *Reconciler) syncSchedules(ctx context.Context, rules []domain.DomainRule, report *domain.Report) {
	now := report.StartedAt
	for _, rule := range rules {
		if rule.Protected {
			continue
		}

		desired, err := r.evaluator.ShouldBlock(rule.Schedule, now)
		if err != nil {
			// Malformed schedule data: fail safe for this domain only,
			// keep it blocked, and surface the config bug loudly.
			r.logger.Error(map[string]any{"domain": rule.Name, "error": err}, "schedule evaluation failed, treating as blocked")
			desired = true
		}

		actual, err := r.client.IsBlocked(ctx, rule.Name)
		if err != nil {
			kind := domain.ActionBlock
			if !desired {
				kind = domain.ActionUnblock
			}
			r.recordFailure(report, domain.SyncAction{Domain: rule.Name, Kind: kind, Reason: ReasonSchedule, Err: err})
			continue
		}

		switch {
		case desired && !actual:
			r.apply(ctx, report, domain.SyncAction{Domain: rule.Name, Kind: domain.ActionBlock, Reason: ReasonSchedule})
		case !desired && actual:
			r.apply(ctx, report, domain.SyncAction{Domain: rule.Name, Kind: domain.ActionUnblock, Reason: ReasonSchedule})
		default:
			report.Unchanged++
		}
	}
}

// apply executes one action (unless dry-run), records it on the report,
// and writes it to the audit trail when it was actually applied.
func (r *Reconciler) apply(ctx context.Context, report *domain.Report, action domain.SyncAction) {
	if r.dryRun {
		report.Actions = append(report.Actions, action)
		r.count(report, action)
		return
	}

	var err error
	switch action.Kind {
	case domain.ActionBlock:
		err = r.client.Block(ctx, action.Domain)
	case domain.ActionUnblock:
		err = r.client.Unblock(ctx, action.Domain)
	case domain.ActionAllow:
		err = r.client.Allow(ctx, action.Domain)
	case domain.ActionDisallow:
		err = r.client.Disallow(ctx, action.Domain)
	}
	if err != nil {
		action.Err = err
		r.recordFailure(report, action)
		return
	}

	action.Applied = true
	report.Actions = append(report.Actions, action)
	r.count(report, action)

	if r.auditor != nil {
		if auditErr := r.auditor.Record(report.PassID, action); auditErr != nil {
			r.logger.Warn(map[string]any{"domain": action.Domain, "error": auditErr}, "audit record failed")
		}
	}
}

// count bumps the report counter matching the action kind.
func (r *Reconciler) count(report *domain.Report, action domain.SyncAction) {
	switch action.Kind {
	case domain.ActionBlock:
		report.Blocked++
	case domain.ActionUnblock:
		report.Unblocked++
	case domain.ActionAllow, domain.ActionDisallow:
		report.Allowed++
	}
}

// recordFailure marks the pass unsuccessful and keeps the failed action
// on the report for the caller to surface.
func (r *Reconciler) recordFailure(report *domain.Report, action domain.SyncAction) {
	report.Actions = append(report.Actions, action)
	report.Failed++
	report.Success = false
	r.logger.Error(map[string]any{
		"domain": action.Domain,
		"action": action.Kind.String(),
		"error":  action.Err,
	}, "list operation failed")
}
