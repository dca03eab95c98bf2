package items

import (
	"encoding/json"
	"time"
)

// Durations travel as whole milliseconds, matching the host bridge's request
// fields and the config file.

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}

func fromMillis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// MarshalJSON encodes Duration in milliseconds.
func (e Effect) MarshalJSON() ([]byte, error) {
	type alias Effect
	return json.Marshal(struct {
		alias
		Duration int64 `json:"duration,omitempty"`
	}{alias(e), millis(e.Duration)})
}

// UnmarshalJSON decodes Duration from milliseconds.
func (e *Effect) UnmarshalJSON(b []byte) error {
	type alias Effect
	aux := struct {
		*alias
		Duration int64 `json:"duration,omitempty"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.Duration = fromMillis(aux.Duration)
	return nil
}

// MarshalJSON encodes Cooldown in milliseconds.
func (d Definition) MarshalJSON() ([]byte, error) {
	type alias Definition
	return json.Marshal(struct {
		alias
		Cooldown int64 `json:"cooldown,omitempty"`
	}{alias(d), millis(d.Cooldown)})
}

// UnmarshalJSON decodes Cooldown from milliseconds.
func (d *Definition) UnmarshalJSON(b []byte) error {
	type alias Definition
	aux := struct {
		*alias
		Cooldown int64 `json:"cooldown,omitempty"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	d.Cooldown = fromMillis(aux.Cooldown)
	return nil
}

// MarshalJSON encodes Duration in milliseconds.
func (r Reaction) MarshalJSON() ([]byte, error) {
	type alias Reaction
	return json.Marshal(struct {
		alias
		Duration int64 `json:"duration,omitempty"`
	}{alias(r), millis(r.Duration)})
}

// UnmarshalJSON decodes Duration from milliseconds.
func (r *Reaction) UnmarshalJSON(b []byte) error {
	type alias Reaction
	aux := struct {
		*alias
		Duration int64 `json:"duration,omitempty"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.Duration = fromMillis(aux.Duration)
	return nil
}
