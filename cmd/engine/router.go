package main

import (
	"context"
	"encoding/json"

	"github.com/Laisky/zap"

	"github.com/kelpbot/engine/common/logger"
	"github.com/kelpbot/engine/engine"
	"github.com/kelpbot/engine/gateway"
	"github.com/kelpbot/engine/msg"
)

// router is the one place that knows how to turn wire bytes into engine
// calls and engine.Outbound values back into wire bytes, for both transports
// (pub/sub and the operator gateway) that feed the same Engine.
type router struct {
	eng     *engine.Engine
	hub     *gateway.Hub
	pubOut  chan<- string
	channel string
}

func newRouter(eng *engine.Engine, hub *gateway.Hub, pubOut chan<- string, channel string) *router {
	return &router{eng: eng, hub: hub, pubOut: pubOut, channel: channel}
}

// dispatch stamps every response's Channel (rules never set it themselves,
// since they don't know which channel they're installed under) and delivers
// it to the pub/sub publisher or the session hub depending on its Location.
func (rt *router) dispatch(out []engine.Outbound) {
	for _, o := range out {
		resp := o.Response
		if resp.Channel == "" {
			resp.Channel = rt.channel
		}
		data, err := msg.EncodeResponse(resp)
		if err != nil {
			logger.Logger.Error("failed to encode response", zap.Error(err))
			continue
		}
		if o.Location.Kind == msg.LocationPubsub {
			select {
			case rt.pubOut <- string(data):
			default:
				logger.Logger.Warn("dropping outbound pubsub message, publisher queue full")
			}
			continue
		}
		rt.hub.Dispatch(o.Location, data)
	}
}

func (rt *router) replyTo(loc msg.Location, kind msg.PayloadKind, data any) {
	rt.dispatch([]engine.Outbound{{Location: loc, Response: msg.Response{Payload: msg.Payload{Kind: kind, Data: data}}}})
}

func (rt *router) replyError(loc msg.Location, text string) {
	rt.replyTo(loc, msg.PayloadMessage, msg.MessagePayload{Text: text})
}

// drainEgress forwards every response the background task supervisor emits
// (timer broadcasts) to both the platform relays and the operator
// dashboards, the same two destinations a live chat line reaches.
func (rt *router) drainEgress(ctx context.Context, egress <-chan msg.Response) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-egress:
			if !ok {
				return
			}
			rt.dispatch([]engine.Outbound{
				{Location: msg.Pubsub, Response: r},
				{Location: msg.ToAllClients(), Response: r},
			})
		}
	}
}

// drainPubsub reads every message the upstream channel carries and feeds it
// to the matching engine pipeline, dropping anything addressed to another
// channel identity.
func (rt *router) drainPubsub(ctx context.Context, inbound <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-inbound:
			if !ok {
				return
			}
			rt.handleUpstream(ctx, raw)
		}
	}
}

func (rt *router) handleUpstream(ctx context.Context, raw string) {
	env, err := msg.DecodeEnvelope([]byte(raw))
	if err != nil {
		logger.Logger.Warn("dropping malformed upstream message", zap.Error(err))
		return
	}
	if env.Channel != rt.channel {
		return
	}

	switch env.Kind {
	case msg.PayloadChat:
		var ev msg.ChatEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			logger.Logger.Warn("dropping malformed chat event", zap.Error(err))
			return
		}
		rt.dispatch(rt.eng.HandleChat(ctx, &ev, msg.Pubsub))

	case msg.PayloadInvoke:
		var inv msg.Invocation
		if err := json.Unmarshal(env.Data, &inv); err != nil {
			logger.Logger.Warn("dropping malformed invocation", zap.Error(err))
			return
		}
		rt.dispatch(rt.eng.HandleInvocation(ctx, &inv, msg.Pubsub))

	case msg.PayloadStreamEvent:
		var ev msg.StreamEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			logger.Logger.Warn("dropping malformed stream event", zap.Error(err))
			return
		}
		rt.dispatch(rt.eng.HandleStreamEvent(ctx, env.Platform, env.Channel, ev))

	default:
		logger.Logger.Debug("ignoring upstream payload kind", zap.String("kind", string(env.Kind)))
	}
}

type platformSelector struct {
	Platform msg.Platform `json:"platform"`
}

// drainGateway reads every authenticated operator frame and feeds it to the
// matching engine operation, replying to the sending session's own address.
func (rt *router) drainGateway(ctx context.Context, inbound <-chan gateway.Inbound, store *fileConfigStore) {
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-inbound:
			if !ok {
				return
			}
			rt.handleOperator(ctx, in, store)
		}
	}
}

func (rt *router) handleOperator(ctx context.Context, in gateway.Inbound, store *fileConfigStore) {
	env, err := msg.DecodeEnvelope([]byte(in.Payload))
	if err != nil {
		logger.Logger.Warn("dropping malformed operator message", zap.String("addr", in.Addr), zap.Error(err))
		return
	}
	caller := msg.ToClient(in.Addr)

	switch env.Kind {
	case msg.PayloadChat:
		var ev msg.ChatEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return
		}
		rt.dispatch(rt.eng.HandleChat(ctx, &ev, caller))

	case msg.PayloadInvoke:
		var inv msg.Invocation
		if err := json.Unmarshal(env.Data, &inv); err != nil {
			return
		}
		rt.dispatch(rt.eng.HandleInvocation(ctx, &inv, caller))

	case msg.PayloadSchemaDump:
		rt.replyTo(caller, msg.PayloadSchemaDump, rt.eng.DumpSchema())

	case msg.PayloadConfigDump:
		var seq engine.ConfigSequences
		if err := json.Unmarshal(env.Data, &seq); err != nil {
			rt.replyError(caller, "malformed configuration")
			return
		}
		out, err := rt.eng.ConfigDump(ctx, store, seq, caller)
		if err != nil {
			logger.Logger.Warn("configuration install failed", zap.String("addr", in.Addr), zap.Error(err))
			rt.replyError(caller, err.Error())
			return
		}
		rt.dispatch(out)

	case msg.PayloadLogDump:
		var sel platformSelector
		_ = json.Unmarshal(env.Data, &sel)
		entries, err := rt.eng.DumpLog(ctx, sel.Platform)
		if err != nil {
			rt.replyError(caller, "failed to load chat log")
			return
		}
		rt.replyTo(caller, msg.PayloadLogDump, entries)

	case msg.PayloadModActionsDump:
		records, err := rt.eng.DumpModActions(ctx)
		if err != nil {
			rt.replyError(caller, "failed to load moderation history")
			return
		}
		rt.replyTo(caller, msg.PayloadModActionsDump, records)

	case msg.PayloadArgsDump:
		var sel platformSelector
		_ = json.Unmarshal(env.Data, &sel)
		rt.replyTo(caller, msg.PayloadArgsDump, rt.eng.DumpArgs(sel.Platform))

	default:
		logger.Logger.Debug("ignoring operator payload kind", zap.String("kind", string(env.Kind)))
	}
}
