package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/kelpbot/engine/common/logger"
	"github.com/kelpbot/engine/msg"
	"github.com/kelpbot/engine/rules"
)

// configLockTTL bounds how long one instance may hold the cross-instance
// configuration mutex while it installs a new rule sequence.
const configLockTTL = 5 * time.Second

// ErrConfigLocked is returned when another instance is mid-install of the
// same channel's configuration.
var ErrConfigLocked = errors.New("configuration is locked by another instance")

// RuleConfig is the persisted, wire-level shape of one installed rule
// instance: enough to rebuild it via Registry.Install on reload.
type RuleConfig struct {
	Name     string                 `json:"name"`
	Kind     string                 `json:"kind"`
	Platform msg.Platform           `json:"platform"`
	MinPerm  msg.Permission         `json:"min_perm"`
	Values   map[string]rules.Value `json:"values"`
}

// ConfigSequences groups installed rules the way the operator UI presents
// them: filters, background tasks (timers and logs), and everything else.
type ConfigSequences struct {
	Filters    []RuleConfig `json:"filters"`
	Background []RuleConfig `json:"background"`
	Commands   []RuleConfig `json:"commands"`
}

// DumpSchema returns every registered rule kind's schema, for the
// operator UI's configuration editor.
func (e *Engine) DumpSchema() []rules.Schema {
	return e.Registry.DumpSchema()
}

// DumpConfig returns the currently installed configuration, split into the
// three sequences an operator client renders separately.
func (e *Engine) DumpConfig() ConfigSequences {
	var seq ConfigSequences
	for _, inst := range e.Registry.All() {
		rc := RuleConfig{Name: inst.Name, Kind: inst.Kind, Platform: inst.Platform, MinPerm: inst.MinPerm, Values: inst.Values}
		switch {
		case isFilterKind(inst.Kind):
			seq.Filters = append(seq.Filters, rc)
		case inst.Kind == kindTimer || inst.Kind == kindLog:
			seq.Background = append(seq.Background, rc)
		default:
			seq.Commands = append(seq.Commands, rc)
		}
	}
	return seq
}

// configLockKey is the cross-instance mutex name guarding one channel's
// configuration install, so two operator sessions racing a save can't
// interleave installs.
func configLockKey(channel string) string {
	return fmt.Sprintf("config_%s", channel)
}

// Outbound pairs a Response with the Location the egress loop should
// deliver it to, for operations (like ConfigDump) that address more than
// one destination.
type Outbound struct {
	Location msg.Location
	Response msg.Response
}

// ConfigDump installs a full replacement configuration: it acquires the
// channel's configuration lock, builds a fresh registry from every
// sequence (an install error leaves the current configuration in place),
// persists each sequence as pretty-printed JSON, swaps the registry in,
// restarts the background task supervisor against the new set, and
// releases the lock.
// On success it returns the responses to emit: a ConfigSaved reply to the
// caller and a ConfigChanged broadcast to every operator session.
func (e *Engine) ConfigDump(ctx context.Context, store configStore, seq ConfigSequences, caller msg.Location) ([]Outbound, error) {
	acquired, err := e.rc.Locks.Acquire(ctx, configLockKey(e.Channel), configLockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "acquire configuration lock")
	}
	if !acquired {
		return nil, ErrConfigLocked
	}
	defer func() {
		if _, err := e.rc.Locks.Release(ctx, configLockKey(e.Channel)); err != nil {
			logger.Logger.Warn("failed to release configuration lock", zap.Error(err))
		}
	}()

	all := append(append(append([]RuleConfig{}, seq.Filters...), seq.Background...), seq.Commands...)
	registry := rules.NewRegistryWithBuiltins()
	for _, rc := range all {
		if err := registry.Install(rc.Name, rc.Kind, rc.Platform, rc.MinPerm, rc.Values); err != nil {
			return nil, errors.Wrapf(err, "install rule %q", rc.Name)
		}
	}

	if err := persistSequences(ctx, store, e.Channel, seq); err != nil {
		return nil, errors.Wrap(err, "persist configuration")
	}

	e.Registry = registry
	e.tasks.respawn(e)
	configInstalls.Inc()

	return []Outbound{
		{Location: caller, Response: msg.Response{Payload: msg.Payload{Kind: msg.PayloadConfigSaved}}},
		{Location: msg.Broadcast, Response: msg.Response{Payload: msg.Payload{Kind: msg.PayloadConfigChanged}}},
	}, nil
}

// configStore is the narrow persistence surface ConfigDump needs: a place
// to write the three JSON documents backing a channel's configuration.
type configStore interface {
	WriteConfig(ctx context.Context, channel, sequence string, data []byte) error
}

func persistSequences(ctx context.Context, store configStore, channel string, seq ConfigSequences) error {
	for name, rcs := range map[string][]RuleConfig{"filters": seq.Filters, "background": seq.Background, "commands": seq.Commands} {
		data, err := json.MarshalIndent(rcs, "", "  ")
		if err != nil {
			return errors.Wrapf(err, "marshal %s sequence", name)
		}
		if err := store.WriteConfig(ctx, channel, name, data); err != nil {
			return errors.Wrapf(err, "write %s sequence", name)
		}
	}
	return nil
}

// DumpLog returns the retained chat history from every installed log-kind
// rule instance matching platform, read live from the shared cache.
func (e *Engine) DumpLog(ctx context.Context, platform msg.Platform) ([]rules.LogEntry, error) {
	var out []rules.LogEntry
	for _, inst := range e.Registry.All() {
		if inst.Kind != kindLog || !inst.Platform.Any(platform) {
			continue
		}
		if src, ok := inst.Rule.(rules.LogSource); ok {
			entries, err := src.Dump(ctx, e.rc, platform)
			if err != nil {
				return nil, errors.Wrap(err, "dump log")
			}
			out = append(out, entries...)
		}
	}
	return out, nil
}

// DumpModActions returns the persisted moderation history for this
// channel's database.
func (e *Engine) DumpModActions(ctx context.Context) ([]ModActionRecord, error) {
	dumps, err := e.rc.DB.DumpModActions(ctx)
	if err != nil {
		return nil, err
	}
	var out []ModActionRecord
	for _, d := range dumps {
		for _, a := range d.Actions {
			name := a.UserID
			if a.DisplayName != nil {
				name = *a.DisplayName
			}
			out = append(out, ModActionRecord{
				Platform: d.Platform.String(),
				UserID:   a.UserID,
				UserName: name,
				Action:   a.Action,
				Reason:   a.Reason,
			})
		}
	}
	return out, nil
}

// ModActionRecord is the operator-facing shape of one persisted moderation
// action, decoupled from the model package's storage row.
type ModActionRecord struct {
	Platform string `json:"platform"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

// DumpArgs returns the configured command names and their schema-declared
// argument fields, for the operator UI's autocomplete, filtered to the
// rules available on platform.
func (e *Engine) DumpArgs(platform msg.Platform) map[string][]rules.Field {
	out := make(map[string][]rules.Field)
	for _, inst := range e.Registry.All() {
		if isFilterKind(inst.Kind) || inst.Kind == kindTimer || inst.Kind == kindLog {
			continue
		}
		if !inst.Platform.Any(platform) {
			continue
		}
		if schema, ok := e.Registry.Schema(inst.Kind); ok {
			out[inst.Name] = schema.Fields
		}
	}
	return out
}
