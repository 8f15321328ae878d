package rules

import (
	"errors"
	"fmt"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/domain"
)

// Wire shapes of the domains document. Field names follow the literal
// document format:
//
//	{
//	  "domains": [
//	    {"domain": "work.example.com", "protected": false,
//	     "schedule": {"available_hours": [
//	       {"days": ["monday"], "time_ranges": [{"start": "09:00", "end": "17:00"}]}
//	     ]}}
//	  ],
//	  "allowlist": [{"domain": "docs.example.com"}]
//	}
type documentDoc struct {
	Domains   []ruleDoc  `koanf:"domains"`
	Allowlist []entryDoc `koanf:"allowlist"`
}

type ruleDoc struct {
	Domain    string       `koanf:"domain"`
	Protected bool         `koanf:"protected"`
	Schedule  *scheduleDoc `koanf:"schedule"`
}

type entryDoc struct {
	Domain   string       `koanf:"domain"`
	Schedule *scheduleDoc `koanf:"schedule"`
}

type scheduleDoc struct {
	AvailableHours []blockDoc `koanf:"available_hours"`
}

type blockDoc struct {
	Days       []string       `koanf:"days"`
	TimeRanges []timeRangeDoc `koanf:"time_ranges"`
}

type timeRangeDoc struct {
	Start string `koanf:"start"`
	End   string `koanf:"end"`
}

// toRule converts a raw denylist entry into a validated DomainRule.
func (d ruleDoc) toRule() (domain.DomainRule, error) {
	schedule, err := d.Schedule.toSchedule()
	if err != nil {
		return domain.DomainRule{}, fmt.Errorf("domain %q: %w", d.Domain, err)
	}
	return domain.NewDomainRule(d.Domain, schedule, d.Protected)
}

// toAllowlistEntry converts a raw allowlist entry. Allowlist entries are
// always active, so a schedule on one is a configuration error.
func (d entryDoc) toAllowlistEntry() (domain.AllowlistEntry, error) {
	if d.Schedule != nil {
		return domain.AllowlistEntry{}, fmt.Errorf("allowlist domain %q: schedule not allowed, allowlist entries are always active", d.Domain)
	}
	return domain.NewAllowlistEntry(d.Domain)
}

// toSchedule converts the wire schedule into typed availability blocks.
// A nil schedule, or one without available_hours, means always blocked.
func (d *scheduleDoc) toSchedule() (*domain.WeeklySchedule, error) {
	if d == nil || len(d.AvailableHours) == 0 {
		return nil, nil
	}

	schedule := &domain.WeeklySchedule{}
	var errs []error
	for i, raw := range d.AvailableHours {
		block := domain.AvailabilityBlock{}
		for _, dayName := range raw.Days {
			day, err := domain.ParseWeekday(dayName)
			if err != nil {
				errs = append(errs, fmt.Errorf("block #%d: %w", i, err))
				continue
			}
			block.Days = append(block.Days, day)
		}
		for _, tr := range raw.TimeRanges {
			start, err := domain.ParseTimeOfDay(tr.Start)
			if err != nil {
				errs = append(errs, fmt.Errorf("block #%d: start: %w", i, err))
				continue
			}
			end, err := domain.ParseTimeOfDay(tr.End)
			if err != nil {
				errs = append(errs, fmt.Errorf("block #%d: end: %w", i, err))
				continue
			}
			block.Ranges = append(block.Ranges, domain.TimeRange{Start: start, End: end})
		}
		schedule.Blocks = append(schedule.Blocks, block)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return schedule, nil
}
