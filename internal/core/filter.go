// Package core provides the history filter language, sorting, and lookup
// used by hyprbarctl.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// operators in match order: two-character operators before their prefixes.
var operators = []FilterOp{
	FilterOpNotEqual,
	FilterOpGreaterEq,
	FilterOpLessEq,
	FilterOpRegex,
	FilterOpEqual,
	FilterOpContains,
	FilterOpGreater,
	FilterOpLess,
}

// fieldKind selects how a condition value is parsed and compared.
type fieldKind int

const (
	kindString fieldKind = iota
	kindUrgency
	kindBool
	kindAge
)

// fieldAliases maps accepted spellings to the canonical field name.
var fieldAliases = map[string]string{
	"app":       "app",
	"app_name":  "app",
	"appname":   "app",
	"summary":   "summary",
	"title":     "summary",
	"body":      "body",
	"message":   "body",
	"category":  "category",
	"cat":       "category",
	"urgency":   "urgency",
	"priority":  "urgency",
	"closed":    "closed",
	"read":      "read",
	"seen":      "read",
	"reason":    "reason",
	"age":       "age",
	"timestamp": "age",
	"time":      "age",
	"ts":        "age",
}

var fieldKinds = map[string]fieldKind{
	"app":      kindString,
	"summary":  kindString,
	"body":     kindString,
	"category": kindString,
	"reason":   kindString,
	"urgency":  kindUrgency,
	"closed":   kindBool,
	"read":     kindBool,
	"age":      kindAge,
}

// FilterCondition is a single "field op value" test.
type FilterCondition struct {
	Field    string
	Operator FilterOp
	Value    string

	kind    fieldKind
	regex   *regexp.Regexp
	urgency int
	boolVal bool
	cutoff  time.Time
}

// FilterExpr is a list of conditions that must all match.
type FilterExpr struct {
	Conditions []FilterCondition
}

// ParseDuration parses a duration with day and week suffixes.
// "0" and "" mean no limit.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "0" || s == "" {
		return 0, nil
	}

	for suffix, unit := range map[string]time.Duration{"d": 24 * time.Hour, "w": 7 * 24 * time.Hour} {
		if n, found := strings.CutSuffix(s, suffix); found {
			v, err := strconv.Atoi(n)
			if err != nil || v < 0 {
				return 0, fmt.Errorf("invalid duration: %s", s)
			}
			return time.Duration(v) * unit, nil
		}
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}

// ParseUrgency accepts low, normal, critical or 0, 1, 2.
func ParseUrgency(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "0":
		return model.UrgencyLow, nil
	case "normal", "1":
		return model.UrgencyNormal, nil
	case "critical", "2":
		return model.UrgencyCritical, nil
	default:
		return 0, fmt.Errorf("invalid urgency: %s (use low, normal, or critical)", s)
	}
}

// ParseFilter parses a comma separated list of conditions.
//
// Fields: app, summary, body, category, urgency, read, closed, reason, age.
// Operators: = != ~ (contains) ~= (regex) > < >= <=.
//
//	app=discord,urgency>=normal
//	summary~build,read=false
//	age<1h
func ParseFilter(expr string) (*FilterExpr, error) {
	f := &FilterExpr{}
	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		f.Conditions = append(f.Conditions, cond)
	}
	return f, nil
}

func parseCondition(s string) (FilterCondition, error) {
	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx <= 0 {
			continue
		}
		cond := FilterCondition{
			Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
			Operator: op,
			Value:    strings.TrimSpace(s[idx+len(op):]),
		}
		if err := cond.init(time.Now()); err != nil {
			return FilterCondition{}, err
		}
		return cond, nil
	}
	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

func (c *FilterCondition) init(now time.Time) error {
	field, ok := fieldAliases[c.Field]
	if !ok {
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}
	c.Field = field
	c.kind = fieldKinds[field]

	switch c.kind {
	case kindUrgency:
		u, err := ParseUrgency(c.Value)
		if err != nil {
			return err
		}
		c.urgency = u
	case kindBool:
		v, err := strconv.ParseBool(c.Value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %s", c.Field, c.Value)
		}
		c.boolVal = v
	case kindAge:
		d, err := ParseDuration(c.Value)
		if err != nil {
			return err
		}
		c.cutoff = now.Add(-d)
	}

	if c.Operator == FilterOpRegex {
		if c.kind != kindString {
			return fmt.Errorf("regex is only valid on text fields, not %s", c.Field)
		}
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}
	return nil
}

// Match reports whether n satisfies every condition.
func (f *FilterExpr) Match(n model.Notification) bool {
	for i := range f.Conditions {
		if !f.Conditions[i].Match(n) {
			return false
		}
	}
	return true
}

// Match reports whether n satisfies the condition.
func (c *FilterCondition) Match(n model.Notification) bool {
	switch c.Field {
	case "app":
		return c.matchString(n.AppName)
	case "summary":
		return c.matchString(n.Summary)
	case "body":
		return c.matchString(n.Body)
	case "category":
		return c.matchString(n.Category)
	case "reason":
		if !n.IsClosed() {
			return c.matchString("")
		}
		return c.matchString(n.CloseReason.String())
	case "urgency":
		return compare(c.Operator, n.Urgency, c.urgency)
	case "read":
		return c.matchBool(n.Read)
	case "closed":
		return c.matchBool(n.IsClosed())
	case "age":
		// age<1h means created after now-1h, so the comparison flips.
		return compare(c.Operator, c.cutoff.Unix(), n.CreatedAt)
	}
	return false
}

func (c *FilterCondition) matchString(v string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return strings.EqualFold(v, c.Value)
	case FilterOpNotEqual:
		return !strings.EqualFold(v, c.Value)
	case FilterOpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex.MatchString(v)
	}
	return false
}

func (c *FilterCondition) matchBool(v bool) bool {
	switch c.Operator {
	case FilterOpEqual:
		return v == c.boolVal
	case FilterOpNotEqual:
		return v != c.boolVal
	}
	return false
}

func compare[T int | int64](op FilterOp, a, b T) bool {
	switch op {
	case FilterOpEqual:
		return a == b
	case FilterOpNotEqual:
		return a != b
	case FilterOpGreater:
		return a > b
	case FilterOpLess:
		return a < b
	case FilterOpGreaterEq:
		return a >= b
	case FilterOpLessEq:
		return a <= b
	}
	return false
}

// Apply returns the notifications matching expr, preserving order.
func Apply(notifications []model.Notification, expr *FilterExpr) []model.Notification {
	if expr == nil || len(expr.Conditions) == 0 {
		return notifications
	}
	result := make([]model.Notification, 0, len(notifications))
	for _, n := range notifications {
		if expr.Match(n) {
			result = append(result, n)
		}
	}
	return result
}
