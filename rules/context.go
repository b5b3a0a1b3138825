package rules

import (
	"context"

	"github.com/kelpbot/engine/cache"
	"github.com/kelpbot/engine/lock"
	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
)

// Context is the dependency bundle handed to every rule invocation. It is
// built once per engine and reused across every Run call; rules must not
// retain it beyond the call.
type Context struct {
	DB    *model.Actor
	Cache cache.Store
	Locks *lock.Manager
}

// Instance is a loaded, named rule ready to run: the concrete Rule plus
// the configuration values it was installed with.
type Instance struct {
	Name     string
	Kind     string
	Platform msg.Platform
	MinPerm  msg.Permission
	Values   map[string]Value
	Rule     Rule
}

// Rule is one configurable command or filter. A rule kind registers a
// Schema describing its configuration and a factory that builds a Rule
// from validated values.
type Rule interface {
	// RunInvocation handles a direct command dispatch. Rules that only
	// act as chat filters can return Noop() unconditionally.
	RunInvocation(ctx context.Context, rc *Context, inv *msg.Invocation) (RunResult, error)
	// RunChat handles an incoming chat message, before any command
	// dispatch. Filter kinds report a match as Filtered; other kinds may
	// keep per-chat state or answer chat-typed commands (give returns Ok),
	// and kinds with nothing to do on chat return Noop().
	RunChat(ctx context.Context, rc *Context, event *msg.ChatEvent) (RunResult, error)
}

// BaseRule provides no-op implementations of both Rule methods so
// concrete kinds only need to implement the one they care about.
type BaseRule struct{}

func (BaseRule) RunInvocation(context.Context, *Context, *msg.Invocation) (RunResult, error) {
	return Noop(), nil
}

func (BaseRule) RunChat(context.Context, *Context, *msg.ChatEvent) (RunResult, error) {
	return Noop(), nil
}
