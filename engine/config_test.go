package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelpbot/engine/msg"
	"github.com/kelpbot/engine/rules"
)

type memConfigStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemConfigStore() *memConfigStore {
	return &memConfigStore{docs: make(map[string][]byte)}
}

func (s *memConfigStore) WriteConfig(_ context.Context, channel, sequence string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[channel+"/"+sequence] = data
	return nil
}

func TestConfigDumpInstallsAndPersists(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	store := newMemConfigStore()

	seq := ConfigSequences{
		Commands: []RuleConfig{
			{Name: "points", Kind: "points", Platform: msg.Chat, MinPerm: msg.PermNone, Values: map[string]rules.Value{
				"template": rules.StrValue("%s has %d points"),
			}},
		},
	}

	outbound, err := e.ConfigDump(ctx, store, seq, msg.ToClient("operator-1"))
	require.NoError(t, err)
	require.Len(t, outbound, 2)
	assert.Equal(t, msg.PayloadConfigSaved, outbound[0].Response.Payload.Kind)
	assert.Equal(t, msg.LocationClient, outbound[0].Location.Kind)
	assert.Equal(t, msg.PayloadConfigChanged, outbound[1].Response.Payload.Kind)
	assert.Equal(t, msg.LocationBroadcast, outbound[1].Location.Kind)

	assert.Nil(t, e.Registry.Lookup("bad-words"), "old instances not present in the new configuration should be gone")
	assert.NotNil(t, e.Registry.Lookup("points"))

	assert.Contains(t, store.docs, "testchannel/commands")
}

func TestConfigDumpRejectsUnknownKind(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	store := newMemConfigStore()

	seq := ConfigSequences{
		Commands: []RuleConfig{{Name: "bogus", Kind: "not-a-kind", Platform: msg.Chat}},
	}

	_, err := e.ConfigDump(ctx, store, seq, msg.Pubsub)
	assert.Error(t, err)
	assert.NotNil(t, e.Registry.Lookup("points"), "a failed install must not disturb the prior configuration")
}

func TestDumpArgsExcludesFiltersAndBackground(t *testing.T) {
	e := newTestEngine(t)
	args := e.DumpArgs(msg.Discord)
	_, hasFilter := args["bad-words"]
	assert.False(t, hasFilter)
	_, hasPoints := args["points"]
	assert.True(t, hasPoints)
}
