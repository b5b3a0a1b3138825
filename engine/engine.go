// Package engine wires the rule registry to live chat/invocation/stream
// traffic: it runs the filter-then-command dispatch pipeline, persists
// moderation actions, and feeds the background task supervisor.
package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Laisky/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kelpbot/engine/cache"
	"github.com/kelpbot/engine/common/config"
	"github.com/kelpbot/engine/common/helper"
	"github.com/kelpbot/engine/common/logger"
	"github.com/kelpbot/engine/lock"
	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
	"github.com/kelpbot/engine/rules"
)

const (
	kindFilter             = "filter"
	kindRegexFilter        = "regex_filter"
	kindLevenshteinFilter  = "levenshtein_filter"
	kindTimer              = "timer"
	kindLog                = "log"

	// commandPrefix is the character a chat line must start with to be
	// considered a mistyped command worth autocorrecting, rather than
	// ordinary conversation.
	commandPrefix = "!"
)

func isFilterKind(kind string) bool {
	return kind == kindFilter || kind == kindRegexFilter || kind == kindLevenshteinFilter
}

// Engine is the per-channel runtime: one rule registry plus the shared
// dependency bundle every rule call is handed.
type Engine struct {
	Channel  string
	Registry *rules.Registry
	Egress   chan<- msg.Response
	rc       *rules.Context
	tasks    *supervisor
}

// New builds an Engine for channel, wiring db/cache/locks into every rule
// invocation through a shared rules.Context, and starts the background
// task supervisor against registry's initial rule set. Responses the
// background tasks emit (timer broadcasts) are sent to egress.
func New(channel string, registry *rules.Registry, db *model.Actor, store cache.Store, locks *lock.Manager, egress chan<- msg.Response) *Engine {
	e := &Engine{
		Channel:  channel,
		Registry: registry,
		Egress:   egress,
		rc:       &rules.Context{DB: db, Cache: store, Locks: locks},
		tasks:    newSupervisor(),
	}
	e.tasks.respawn(e)
	return e
}

// Stop halts the background task supervisor. Call once when the channel's
// Engine is being torn down.
func (e *Engine) Stop() {
	e.tasks.stop()
}

// HandleChat runs the filter-then-command pipeline: filters first, then
// chat-triggered rules, falling back to an autocorrect suggestion when
// nothing matched. origin is where the chat itself arrived
// from, used to address any autocorrect reply back to the same place.
func (e *Engine) HandleChat(ctx context.Context, event *msg.ChatEvent, origin msg.Location) []Outbound {
	start := time.Now()
	defer func() {
		dispatchLatencyMs.WithLabelValues("chat").Observe(float64(helper.CalcElapsedTime(start)))
	}()
	eventsIngested.WithLabelValues(event.Platform.String()).Inc()

	instances := e.instancesFor(event.Platform)

	filterResult, filterName, filtered := e.runFilters(ctx, instances, event)
	if filtered {
		filterTrips.WithLabelValues(filterResult.Action.String()).Inc()
		var out []Outbound
		if event.User != nil && event.User.Permission < msg.PermMod {
			out = append(out, Outbound{
				Location: msg.Broadcast,
				Response: msg.Response{
					Platform: event.Platform,
					Payload: msg.Payload{
						Kind: msg.PayloadModAction,
						Data: msg.ModActionPayload{User: event.User, Action: filterResult.Action, Reason: filterName},
					},
				},
			})
			if filterResult.Action.Kind != msg.ActionNone {
				e.persistModAction(ctx, event.Platform, event.User, filterResult.Action, filterName)
			}
		}
		return out
	}

	out, anyOk := e.runChatRules(ctx, instances, event, origin)

	if !anyOk {
		if suggestions := e.autocorrectFor(event.Text); len(suggestions) > 0 {
			autocorrectEmissions.Inc()
			out = append(out, Outbound{
				Location: origin,
				Response: msg.Response{
					Platform: event.Platform,
					Payload: msg.Payload{
						Kind: msg.PayloadAutocorrect,
						Data: msg.AutocorrectPayload{User: event.User, Suggestions: suggestions},
					},
				},
			})
		}
	}

	out = append(out, Outbound{
		Location: msg.ToAllClients(),
		Response: msg.Response{
			Platform: event.Platform,
			Payload:  msg.Payload{Kind: msg.PayloadChat, Data: msg.MessagePayload{User: event.User, Text: event.Text, Meta: event.Meta}},
		},
	})

	return out
}

func (e *Engine) instancesFor(platform msg.Platform) []*rules.Instance {
	var out []*rules.Instance
	for _, inst := range e.Registry.All() {
		if inst.Platform.Any(platform) {
			out = append(out, inst)
		}
	}
	return out
}

// runFilters runs every filter instance concurrently and selects the most
// severe matched action, breaking ties by first occurrence.
func (e *Engine) runFilters(ctx context.Context, instances []*rules.Instance, event *msg.ChatEvent) (rules.RunResult, string, bool) {
	type outcome struct {
		name   string
		result rules.RunResult
		ran    bool
	}

	outcomes := make([]outcome, len(instances))
	g, gctx := errgroup.WithContext(ctx)
	for i, inst := range instances {
		if !isFilterKind(inst.Kind) {
			continue
		}
		i, inst := i, inst
		g.Go(func() error {
			res, err := inst.Rule.RunChat(gctx, e.rc, event)
			if err != nil {
				logger.Logger.Warn("filter rule failed", zap.String("name", inst.Name), zap.Error(err))
				return nil
			}
			outcomes[i] = outcome{name: inst.Name, result: res, ran: true}
			return nil
		})
	}
	_ = g.Wait()

	var matches []outcome
	for _, o := range outcomes {
		if o.ran && o.result.Kind == rules.ResultFiltered {
			matches = append(matches, o)
		}
	}
	if len(matches) == 0 {
		return rules.RunResult{}, "", false
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].result.Action.Severity() > matches[j].result.Action.Severity()
	})
	winner := matches[0]
	return winner.result, winner.name, true
}

// runChatRules runs every non-filter rule's RunChat concurrently (timers
// only observe the chat to update internal counters; most commands are
// no-ops here) and reports whether anything returned Ok.
func (e *Engine) runChatRules(ctx context.Context, instances []*rules.Instance, event *msg.ChatEvent, origin msg.Location) ([]Outbound, bool) {
	type outcome struct {
		result rules.RunResult
		ran    bool
	}

	outcomes := make([]outcome, len(instances))
	g, gctx := errgroup.WithContext(ctx)
	for i, inst := range instances {
		if isFilterKind(inst.Kind) {
			continue
		}
		i, inst := i, inst
		g.Go(func() error {
			res, err := inst.Rule.RunChat(gctx, e.rc, event)
			if err != nil {
				logger.Logger.Warn("chat rule failed", zap.String("name", inst.Name), zap.Error(err))
				return nil
			}
			outcomes[i] = outcome{result: res, ran: true}
			return nil
		})
	}
	_ = g.Wait()

	var out []Outbound
	anyOk := false
	for _, o := range outcomes {
		if o.ran && o.result.Kind == rules.ResultOk {
			anyOk = true
			loc := origin
			if o.result.Location != nil {
				loc = *o.result.Location
			}
			for _, r := range o.result.Responses {
				out = append(out, Outbound{Location: loc, Response: r})
			}
		}
	}
	return out, anyOk
}

func (e *Engine) autocorrectFor(text string) []string {
	if !strings.HasPrefix(text, commandPrefix) {
		return nil
	}
	token := strings.Fields(strings.TrimPrefix(text, commandPrefix))
	if len(token) == 0 {
		return nil
	}
	return e.Registry.Suggest(token[0])
}

func (e *Engine) persistModAction(ctx context.Context, platform msg.Platform, user *msg.User, action msg.ModAction, reason string) {
	if !config.IsLogConsumeEnabled() {
		return
	}
	if err := e.rc.DB.AppendModAction(ctx, toModelPlatform(platform), user.ID, user.Name, action.String(), reason); err != nil {
		logger.Logger.Error("failed to persist mod action", zap.Error(err))
	}
}

// HandleInvocation dispatches one Invocation to the matching rule
// instance(s): an exact command name match for KindInvoke,
// broadcast-and-self-filter for Reaction/StreamEvent/Init.
// origin is where a reply belonging to no more specific destination
// should go — Pubsub unless the caller supplies something else.
func (e *Engine) HandleInvocation(ctx context.Context, inv *msg.Invocation, origin msg.Location) []Outbound {
	start := time.Now()
	defer func() {
		dispatchLatencyMs.WithLabelValues("invocation").Observe(float64(helper.CalcElapsedTime(start)))
	}()
	eventsIngested.WithLabelValues(inv.Platform.String()).Inc()

	type outcome struct {
		kind   string
		result rules.RunResult
		ran    bool
	}

	all := e.Registry.All()
	outcomes := make([]outcome, len(all))
	g, gctx := errgroup.WithContext(ctx)
	for i, inst := range all {
		if isFilterKind(inst.Kind) || inst.Kind == kindTimer || inst.Kind == kindLog {
			continue
		}
		if !inst.Platform.Any(inv.Platform) {
			continue
		}
		if inv.Kind == msg.KindInvoke && inst.Name != inv.Command {
			continue
		}
		if inv.Kind != msg.KindInit && inv.User != nil && inv.User.Permission < inst.MinPerm {
			invocationResults.WithLabelValues(inst.Kind, "insufficient_perms").Inc()
			continue
		}

		i, inst := i, inst
		g.Go(func() error {
			res, err := inst.Rule.RunInvocation(gctx, e.rc, inv)
			if err != nil {
				logger.Logger.Warn("command rule failed", zap.String("name", inst.Name), zap.Error(err))
				return nil
			}
			outcomes[i] = outcome{kind: inst.Kind, result: res, ran: true}
			return nil
		})
	}
	_ = g.Wait()

	var out []Outbound
	for _, o := range outcomes {
		if !o.ran {
			continue
		}
		invocationResults.WithLabelValues(o.kind, resultLabel(o.result.Kind)).Inc()
		loc := origin
		if o.result.Location != nil {
			loc = *o.result.Location
		}
		for _, r := range o.result.Responses {
			out = append(out, Outbound{Location: loc, Response: r})
		}
	}
	return out
}

func resultLabel(k rules.RunResultKind) string {
	switch k {
	case rules.ResultOk:
		return "ok"
	case rules.ResultNoop:
		return "noop"
	case rules.ResultFiltered:
		return "filtered"
	case rules.ResultAutocorrect:
		return "autocorrect"
	case rules.ResultDisabled:
		return "disabled"
	case rules.ResultRatelimited:
		return "ratelimited"
	case rules.ResultInsufficientPerms:
		return "insufficient_perms"
	case rules.ResultInvalidArgs:
		return "invalid_args"
	default:
		return "unknown"
	}
}
