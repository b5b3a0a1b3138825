package rules

import (
	"encoding/json"
	"regexp"

	"github.com/kelpbot/engine/msg"
)

func compileRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}

// valueWire is the JSON-on-disk shape of a Value, used when a
// configuration sequence is persisted or reloaded. Regex values round-trip
// as their pattern source, not a compiled *regexp.Regexp.
type valueWire struct {
	Kind      ValueKind      `json:"kind"`
	Bool      bool           `json:"bool,omitempty"`
	I64       int64          `json:"i64,omitempty"`
	Str       string         `json:"str,omitempty"`
	Pattern   string         `json:"pattern,omitempty"`
	Platforms msg.Platform   `json:"platforms,omitempty"`
	Perm      msg.Permission `json:"perm,omitempty"`
	Action    msg.ModAction  `json:"action,omitempty"`
	StrList   []string       `json:"str_list,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	w := valueWire{
		Kind:      v.Kind,
		Bool:      v.Bool,
		I64:       v.I64,
		Str:       v.Str,
		Platforms: v.Platforms,
		Perm:      v.Perm,
		Action:    v.Action,
		StrList:   v.StrList,
	}
	if v.Regex != nil {
		w.Pattern = v.Regex.String()
	}
	return json.Marshal(w)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var w valueWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = Value{
		Kind:      w.Kind,
		Bool:      w.Bool,
		I64:       w.I64,
		Str:       w.Str,
		Platforms: w.Platforms,
		Perm:      w.Perm,
		Action:    w.Action,
		StrList:   w.StrList,
	}
	if w.Pattern != "" {
		re, err := compileRegex(w.Pattern)
		if err != nil {
			return err
		}
		v.Regex = re
	}
	return nil
}
