package rules

import "github.com/kelpbot/engine/msg"

// RunResultKind enumerates the ways a rule's Run can conclude.
type RunResultKind int

const (
	// ResultOk means the rule ran and produced its normal effect.
	ResultOk RunResultKind = iota
	// ResultNoop means the rule intentionally did nothing, e.g. an
	// implicit chat-pipeline rule that only filters.
	ResultNoop
	// ResultFiltered means a filter rule matched and the carried
	// ModAction should be applied to the message.
	ResultFiltered
	// ResultAutocorrect means the command name didn't match exactly but
	// came within editing distance of a known command.
	ResultAutocorrect
	// ResultDisabled means the rule instance is configured off for this
	// platform or channel.
	ResultDisabled
	// ResultRatelimited means a lock.Guard rejected the invocation.
	// Global distinguishes a cooldown shared by everyone from a
	// per-user cooldown.
	ResultRatelimited
	// ResultInsufficientPerms means the invoking user's permission is
	// below the rule's configured minimum.
	ResultInsufficientPerms
	// ResultInvalidArgs means the command was invoked with arguments the
	// rule could not parse.
	ResultInvalidArgs
)

// RunResult is the outcome of evaluating one rule against one invocation
// or chat event.
type RunResult struct {
	Kind      RunResultKind
	Action    msg.ModAction // ResultFiltered
	Prefixes  []string      // ResultAutocorrect
	Global    bool          // ResultRatelimited
	Responses []msg.Response
	// Location overrides where the engine addresses Responses. Nil means
	// the caller's default (the chat's origin, or Pubsub for an
	// invocation) applies; a rule only sets this when its own semantics
	// demand a fixed destination regardless of where it was triggered
	// from, e.g. Give always announces to Broadcast.
	Location *msg.Location
}

func Ok(responses ...msg.Response) RunResult {
	return RunResult{Kind: ResultOk, Responses: responses}
}

// OkTo is Ok with Location pinned to loc rather than left to the caller's
// default.
func OkTo(loc msg.Location, responses ...msg.Response) RunResult {
	return RunResult{Kind: ResultOk, Responses: responses, Location: &loc}
}

func Noop() RunResult { return RunResult{Kind: ResultNoop} }

func Filtered(action msg.ModAction) RunResult {
	return RunResult{Kind: ResultFiltered, Action: action}
}

func Autocorrect(prefixes []string) RunResult {
	return RunResult{Kind: ResultAutocorrect, Prefixes: prefixes}
}

func Disabled() RunResult { return RunResult{Kind: ResultDisabled} }

func Ratelimited(global bool) RunResult {
	return RunResult{Kind: ResultRatelimited, Global: global}
}

func InsufficientPerms() RunResult { return RunResult{Kind: ResultInsufficientPerms} }

func InvalidArgs() RunResult { return RunResult{Kind: ResultInvalidArgs} }
