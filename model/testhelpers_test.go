package model

import (
	"context"
	"testing"
)

// startActor runs a's mailbox loop for the duration of the test, so
// a.call (and therefore every Actor method) has something to service it.
func startActor(t *testing.T, a *Actor) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go a.Run(ctx)
}
