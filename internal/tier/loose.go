package tier

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The pricing object is hand-written by venue pages. These types accept the
// shapes seen in practice instead of failing the whole decode on one field.

// Amount is a numeric value that may arrive as a number, a numeric string
// or null.
type Amount struct {
	Value float64
	Valid bool
}

// Some returns a valid Amount.
func Some(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// Ptr returns a pointer to the value, or nil when absent.
func (a Amount) Ptr() *float64 {
	if !a.Valid {
		return nil
	}
	v := a.Value
	return &v
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*a = Some(v)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*a = Some(v)
	}
	return nil
}

// Text is a string that tolerates numbers and null.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*t = Text(s)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		return nil
	}
	*t = Text(data)
	return nil
}

// Flag is a boolean with JavaScript truthiness.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		*f = false
		return nil
	}
	switch x := v.(type) {
	case bool:
		*f = Flag(x)
	case float64:
		*f = x != 0
	case string:
		*f = x != ""
	case nil:
		*f = false
	default:
		*f = true
	}
	return nil
}

type groupList []Group

func (l *groupList) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for _, item := range raw {
		var g Group
		if err := json.Unmarshal(item, &g); err != nil {
			continue
		}
		*l = append(*l, g)
	}
	return nil
}

type optionList []Option

func (l *optionList) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for _, item := range raw {
		var o Option
		if err := json.Unmarshal(item, &o); err != nil {
			continue
		}
		*l = append(*l, o)
	}
	return nil
}
