// Package rules loads and validates the domains document: the denylist
// rules (with optional weekly schedules) and the allowlist, from a local
// JSON/YAML file or a remote URL. Validation happens once, here at the
// boundary; the rest of the system works with typed values only.
package rules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/domain"
)

// ErrNoDomains is returned when the document contains no denylist rules.
var ErrNoDomains = errors.New("no domains configured")

// RuleSet is the validated content of one domains document.
type RuleSet struct {
	Rules     []domain.DomainRule
	Allowlist []domain.AllowlistEntry
}

// Protected returns the names of all protected rules.
func (rs RuleSet) Protected() []string {
	var names []string
	for _, r := range rs.Rules {
		if r.Protected {
			names = append(names, r.Name)
		}
	}
	return names
}

// Load reads and validates a domains document from disk. The parser is
// chosen by file extension; .json, .yaml and .yml are supported.
func Load(path string) (RuleSet, error) {
	k := koanf.New(".")

	parser, err := parserFor(path)
	if err != nil {
		return RuleSet{}, err
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return RuleSet{}, fmt.Errorf("error loading domains file %s: %w", path, err)
	}
	return decode(k)
}

// LoadURL fetches and validates a domains document over HTTP(S).
// The body is parsed as JSON.
func LoadURL(ctx context.Context, httpClient *http.Client, url string) (RuleSet, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RuleSet{}, fmt.Errorf("error building domains request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return RuleSet{}, fmt.Errorf("error fetching domains from %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return RuleSet{}, fmt.Errorf("error fetching domains from %s: HTTP %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RuleSet{}, fmt.Errorf("error reading domains response: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(body), json.Parser()); err != nil {
		return RuleSet{}, fmt.Errorf("invalid domains document from %s: %w", url, err)
	}
	return decode(k)
}

// parserFor selects a koanf parser based on the file extension.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported domains file type: %s", path)
	}
}

// decode unmarshals the raw document and converts it into the typed
// rule set, reporting every offending entry rather than the first.
func decode(k *koanf.Koanf) (RuleSet, error) {
	var doc documentDoc
	if err := k.Unmarshal("", &doc); err != nil {
		return RuleSet{}, fmt.Errorf("error unmarshalling domains document: %w", err)
	}
	if len(doc.Domains) == 0 {
		return RuleSet{}, ErrNoDomains
	}

	var (
		rs   RuleSet
		errs []error
	)

	for i, entry := range doc.Domains {
		rule, err := entry.toRule()
		if err != nil {
			errs = append(errs, fmt.Errorf("domains #%d: %w", i, err))
			continue
		}
		rs.Rules = append(rs.Rules, rule)
	}

	for i, entry := range doc.Allowlist {
		allowed, err := entry.toAllowlistEntry()
		if err != nil {
			errs = append(errs, fmt.Errorf("allowlist #%d: %w", i, err))
			continue
		}
		rs.Allowlist = append(rs.Allowlist, allowed)
	}

	errs = append(errs, checkOverlap(rs.Rules, rs.Allowlist)...)

	if len(errs) > 0 {
		return RuleSet{}, fmt.Errorf("domain validation failed: %w", errors.Join(errs...))
	}
	return rs, nil
}

// checkOverlap rejects domains present in both the denylist rules and
// the allowlist; a domain cannot be blocked and allowed simultaneously.
func checkOverlap(rules []domain.DomainRule, allowlist []domain.AllowlistEntry) []error {
	deny := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		deny[r.Name] = struct{}{}
	}
	var errs []error
	for _, a := range allowlist {
		if _, clash := deny[a.Name]; clash {
			errs = append(errs, fmt.Errorf("domain %q appears in both domains and allowlist", a.Name))
		}
	}
	return errs
}
