// Package funnel holds the order status transition table: which status may
// follow which, and which station may trigger each step.
package funnel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/lumiere/internal/model"
)

var (
	// ErrTransitionNotAllowed means no rule leads from the current status to
	// the requested one.
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	// ErrActorNotAllowed means a rule exists but the requesting station may
	// not trigger it.
	ErrActorNotAllowed = errors.New("station may not trigger this transition")
)

// Rule is one allowed transition.
type Rule struct {
	From    model.Status `json:"from"`
	To      model.Status `json:"to"`
	Trigger string       `json:"trigger"`
	Actors  []model.Role `json:"actors"`
}

// AllowedFor reports whether role may trigger the rule.
func (r Rule) AllowedFor(role model.Role) bool {
	return model.RoleIn(role, r.Actors...)
}

// Funnel is an immutable, validated set of transition rules.
type Funnel struct {
	rules []Rule
}

// Default returns the new → preparing → ready → paid funnel.
func Default() *Funnel {
	f, _ := New([]Rule{
		{From: model.StatusNew, To: model.StatusPreparing, Trigger: "start cooking", Actors: []model.Role{model.RoleKitchen, model.RoleCashier}},
		{From: model.StatusPreparing, To: model.StatusReady, Trigger: "ready to serve", Actors: []model.Role{model.RoleKitchen, model.RoleCashier}},
		{From: model.StatusReady, To: model.StatusPaid, Trigger: "mark paid", Actors: []model.Role{model.RoleCashier}},
	})
	return f
}

// New validates rules and builds a funnel. Rules must connect known
// statuses, move strictly forward, and name at least one known actor.
func New(rules []Rule) (*Funnel, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("funnel needs at least one rule")
	}

	seen := make(map[[2]model.Status]bool)
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.From.Valid() || !r.To.Valid() {
			return nil, fmt.Errorf("unknown status in rule %s>%s", r.From, r.To)
		}
		if r.From.Terminal() {
			return nil, fmt.Errorf("no transition may leave %s", r.From)
		}
		if r.To.Rank() <= r.From.Rank() {
			return nil, fmt.Errorf("rule %s>%s moves backwards", r.From, r.To)
		}
		if len(r.Actors) == 0 {
			return nil, fmt.Errorf("rule %s>%s has no actors", r.From, r.To)
		}
		for _, a := range r.Actors {
			if !a.Valid() {
				return nil, fmt.Errorf("unknown actor %q in rule %s>%s", a, r.From, r.To)
			}
		}
		key := [2]model.Status{r.From, r.To}
		if seen[key] {
			return nil, fmt.Errorf("duplicate rule %s>%s", r.From, r.To)
		}
		seen[key] = true

		if r.Trigger == "" {
			r.Trigger = string(r.To)
		}
		r.Actors = append([]model.Role(nil), r.Actors...)
		out = append(out, r)
	}
	return &Funnel{rules: out}, nil
}

// Rules returns a copy of the rule set.
func (f *Funnel) Rules() []Rule {
	out := make([]Rule, len(f.rules))
	copy(out, f.rules)
	return out
}

// Allow checks whether role may move an order from one status to another.
func (f *Funnel) Allow(from, to model.Status, role model.Role) error {
	for _, r := range f.rules {
		if r.From != from || r.To != to {
			continue
		}
		if !r.AllowedFor(role) {
			return fmt.Errorf("%s %s>%s: %w", role, from, to, ErrActorNotAllowed)
		}
		return nil
	}
	return fmt.Errorf("%s>%s: %w", from, to, ErrTransitionNotAllowed)
}

// Actions returns the rules role may trigger from the given status.
func (f *Funnel) Actions(from model.Status, role model.Role) []Rule {
	var out []Rule
	for _, r := range f.rules {
		if r.From == from && r.AllowedFor(role) {
			out = append(out, r)
		}
	}
	return out
}

// Next returns the nearest forward rule from the given status, regardless
// of actor. It reports false for terminal statuses.
func (f *Funnel) Next(from model.Status) (Rule, bool) {
	var best Rule
	found := false
	for _, r := range f.rules {
		if r.From != from {
			continue
		}
		if !found || r.To.Rank() < best.To.Rank() {
			best = r
			found = true
		}
	}
	return best, found
}

// String renders the funnel in the form accepted by Parse.
func (f *Funnel) String() string {
	parts := make([]string, len(f.rules))
	for i, r := range f.rules {
		actors := make([]string, len(r.Actors))
		for j, a := range r.Actors {
			actors[j] = string(a)
		}
		parts[i] = fmt.Sprintf("%s>%s=%s", r.From, r.To, strings.Join(actors, "|"))
	}
	return strings.Join(parts, ";")
}

// Parse builds a funnel from rules written as
// "new>preparing=kitchen|cashier;preparing>ready=kitchen|cashier;ready>paid=cashier".
// An empty string yields the default funnel.
func Parse(s string) (*Funnel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default(), nil
	}

	triggers := make(map[[2]model.Status]string)
	for _, r := range Default().rules {
		triggers[[2]model.Status{r.From, r.To}] = r.Trigger
	}

	var rules []Rule
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		edge, actorList, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("rule %q: missing actors", part)
		}
		from, to, ok := strings.Cut(edge, ">")
		if !ok {
			return nil, fmt.Errorf("rule %q: expected from>to", part)
		}

		r := Rule{
			From: model.Status(strings.TrimSpace(from)),
			To:   model.Status(strings.TrimSpace(to)),
		}
		r.Trigger = triggers[[2]model.Status{r.From, r.To}]
		for _, a := range strings.Split(actorList, "|") {
			if a = strings.TrimSpace(a); a != "" {
				r.Actors = append(r.Actors, model.Role(a))
			}
		}
		rules = append(rules, r)
	}
	return New(rules)
}
