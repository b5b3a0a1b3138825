// Package rules implements the configurable command/filter engine: a
// schema-described set of fields per rule kind, a registry that loads and
// persists named rule instances, and the concrete rule kinds themselves.
package rules

import (
	"regexp"

	"github.com/kelpbot/engine/msg"
)

// ValueKind tags the concrete type a Value holds.
type ValueKind int

const (
	KindBool ValueKind = iota
	KindI64
	KindStr
	KindRegex
	KindPlatforms
	KindPermission
	KindModAction
	KindStrList
)

// Value is a closed tagged union over the scalar types a rule field can
// hold. Exactly one of the typed accessors is meaningful for a given Kind.
type Value struct {
	Kind      ValueKind
	Bool      bool
	I64       int64
	Str       string
	Regex     *regexp.Regexp
	Platforms msg.Platform
	Perm      msg.Permission
	Action    msg.ModAction
	StrList   []string
}

func BoolValue(b bool) Value                     { return Value{Kind: KindBool, Bool: b} }
func I64Value(n int64) Value                      { return Value{Kind: KindI64, I64: n} }
func StrValue(s string) Value                     { return Value{Kind: KindStr, Str: s} }
func RegexValue(re *regexp.Regexp) Value          { return Value{Kind: KindRegex, Regex: re} }
func PlatformsValue(p msg.Platform) Value         { return Value{Kind: KindPlatforms, Platforms: p} }
func PermissionValue(p msg.Permission) Value      { return Value{Kind: KindPermission, Perm: p} }
func ModActionValue(a msg.ModAction) Value        { return Value{Kind: KindModAction, Action: a} }
func StrListValue(ss []string) Value              { return Value{Kind: KindStrList, StrList: ss} }
