package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Laisky/zap"

	"github.com/kelpbot/engine/common/logger"
	"github.com/kelpbot/engine/gateway"
)

// loadUserDirectory reads <dir>/<channel>-users.json, a map of operator
// username to a (discord-id, code-ttl-seconds) tuple, into the shape the
// gateway's login handshake expects. A missing file yields an empty
// directory: the gateway will still serve ListUsers, just with nobody in it.
func loadUserDirectory(dir, channel string) gateway.UserDirectory {
	path := filepath.Join(dir, fmt.Sprintf("%s-users.json", channel))

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Logger.Warn("failed to read operator users file", zap.String("path", path), zap.Error(err))
		}
		return gateway.UserDirectory{}
	}

	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Logger.Warn("malformed operator users file", zap.String("path", path), zap.Error(err))
		return gateway.UserDirectory{}
	}

	out := make(gateway.UserDirectory, len(raw))
	for name, fields := range raw {
		if len(fields) != 2 {
			logger.Logger.Warn("skipping malformed operator user entry", zap.String("user", name))
			continue
		}
		var discordID string
		var ttlSeconds int
		if err := json.Unmarshal(fields[0], &discordID); err != nil {
			logger.Logger.Warn("skipping operator user entry with bad discord id", zap.String("user", name))
			continue
		}
		if err := json.Unmarshal(fields[1], &ttlSeconds); err != nil {
			logger.Logger.Warn("skipping operator user entry with bad code ttl", zap.String("user", name))
			continue
		}
		out[name] = gateway.UserEntry{DiscordID: discordID, CodeTTL: time.Duration(ttlSeconds) * time.Second}
	}
	return out
}
