package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringMap is a JSON object of string->string, used for labels and
// annotations. It is stored as jsonb and validated on read rather than
// trusted as a raw blob (spec.md §9, "JSON-typed polymorphic fields").
type StringMap map[string]string

// Value implements driver.Valuer.
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *StringMap) Scan(src interface{}) error {
	*m = StringMap{}
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into StringMap", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, m)
}

// StringList is an ordered JSON array of strings, used for Alert.tags.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	*l = StringList{}
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into StringList", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, l)
}

// RawJSON is an opaque JSON payload preserved verbatim (e.g. raw_payload).
type RawJSON map[string]interface{}

func (r RawJSON) Value() (driver.Value, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r)
}

func (r *RawJSON) Scan(src interface{}) error {
	*r = RawJSON{}
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into RawJSON", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, r)
}

// SilenceMatchers is the AND-combined matcher set described in spec.md
// §4.4: service/severity lists and a literal label-subset map. All clauses
// are optional; an empty or missing clause matches everything.
type SilenceMatchers struct {
	Service  []string  `json:"service,omitempty"`
	Severity []string  `json:"severity,omitempty"`
	Labels   StringMap `json:"labels,omitempty"`
}

func (m SilenceMatchers) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// silenceMatchersWire mirrors SilenceMatchers but leaves service/severity as
// raw JSON so UnmarshalJSON can accept either a bare string or a list.
type silenceMatchersWire struct {
	Service  json.RawMessage `json:"service,omitempty"`
	Severity json.RawMessage `json:"severity,omitempty"`
	Labels   StringMap       `json:"labels,omitempty"`
}

// UnmarshalJSON normalizes a single-valued service/severity into a
// singleton list, matching _normalize_matchers in
// original_source/backend/schemas/__init__.py: a client posting
// {"service": "api"} is treated the same as {"service": ["api"]}.
func (m *SilenceMatchers) UnmarshalJSON(data []byte) error {
	var wire silenceMatchersWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	service, err := normalizeStringOrList(wire.Service)
	if err != nil {
		return fmt.Errorf("domain: matchers.service: %w", err)
	}
	severity, err := normalizeStringOrList(wire.Severity)
	if err != nil {
		return fmt.Errorf("domain: matchers.severity: %w", err)
	}

	m.Service = service
	m.Severity = severity
	m.Labels = wire.Labels
	return nil
}

// normalizeStringOrList accepts either a JSON string or a JSON array of
// strings and always returns a list, wrapping a bare scalar as a
// singleton. A missing/null field returns a nil list.
func normalizeStringOrList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("must be a string or an array of strings")
	}
	return []string{single}, nil
}

func (m *SilenceMatchers) Scan(src interface{}) error {
	*m = SilenceMatchers{}
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into SilenceMatchers", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, m)
}

// ChannelFilters gates a NotificationChannel by incident severity/service.
// Missing or empty lists match everything (spec.md §4.7).
type ChannelFilters struct {
	Severity []string `json:"severity,omitempty"`
	Service  []string `json:"service,omitempty"`
}

func (f ChannelFilters) Value() (driver.Value, error) {
	return json.Marshal(f)
}

func (f *ChannelFilters) Scan(src interface{}) error {
	*f = ChannelFilters{}
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into ChannelFilters", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, f)
}

// ChannelConfig is the provider-dependent config bag for a
// NotificationChannel (webhook URL, SMTP recipients, PagerDuty routing key,
// generic headers/secret, etc). Kept as a loosely-typed map since its shape
// is a discriminated union keyed by ChannelType; each sender decodes the
// keys it expects.
type ChannelConfig map[string]interface{}

func (c ChannelConfig) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

func (c *ChannelConfig) Scan(src interface{}) error {
	*c = ChannelConfig{}
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into ChannelConfig", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, c)
}

func (c ChannelConfig) String(key string) string {
	if v, ok := c[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (c ChannelConfig) StringMap(key string) map[string]string {
	out := map[string]string{}
	v, ok := c[key]
	if !ok {
		return out
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return out
	}
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}

// ScheduleMember is one rotation slot on an OnCallSchedule.
type ScheduleMember struct {
	UserID string `json:"user_id"`
	Order  int    `json:"order"`
}

// ScheduleMembers is the ordered rotation member list.
type ScheduleMembers []ScheduleMember

func (m ScheduleMembers) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *ScheduleMembers) Scan(src interface{}) error {
	*m = ScheduleMembers{}
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into ScheduleMembers", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, m)
}

// EscalationTarget is one notification target within an escalation level.
type EscalationTarget struct {
	Type EscalationTargetType `json:"type"`
	ID   string               `json:"id"`
}

// EscalationLevel is one ordered rung of an EscalationPolicy.
type EscalationLevel struct {
	Level         int                `json:"level"`
	Targets       []EscalationTarget `json:"targets"`
	TimeoutMinutes int               `json:"timeout_minutes"`
}

// EscalationLevels is the ordered list of levels on a policy.
type EscalationLevels []EscalationLevel

func (l EscalationLevels) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *EscalationLevels) Scan(src interface{}) error {
	*l = EscalationLevels{}
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into EscalationLevels", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, l)
}
