package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Laisky/errors/v2"

	"github.com/kelpbot/engine/engine"
)

// fileConfigStore persists a channel's three rule sequences as the
// pretty-printed JSON files the persistent configuration format describes:
// <dir>/<channel>-filters.json, -background.json, -commands.json.
type fileConfigStore struct {
	dir string
}

func newFileConfigStore(dir string) *fileConfigStore {
	return &fileConfigStore{dir: dir}
}

func (s *fileConfigStore) path(channel, sequence string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", channel, sequence))
}

func (s *fileConfigStore) WriteConfig(_ context.Context, channel, sequence string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	return errors.WithStack(os.WriteFile(s.path(channel, sequence), data, 0o644))
}

// Load reads a channel's persisted rule sequences. A missing file yields an
// empty sequence rather than an error, so a channel with no prior
// configuration starts clean.
func (s *fileConfigStore) Load(channel string) (engine.ConfigSequences, error) {
	var seq engine.ConfigSequences

	load := func(sequence string, out *[]engine.RuleConfig) error {
		data, err := os.ReadFile(s.path(channel, sequence))
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		return json.Unmarshal(data, out)
	}

	if err := load("filters", &seq.Filters); err != nil {
		return seq, errors.Wrap(err, "load filters sequence")
	}
	if err := load("background", &seq.Background); err != nil {
		return seq, errors.Wrap(err, "load background sequence")
	}
	if err := load("commands", &seq.Commands); err != nil {
		return seq, errors.Wrap(err, "load commands sequence")
	}
	return seq, nil
}
