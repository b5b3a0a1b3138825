package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubRegisterAndCount(t *testing.T) {
	h := NewHub()
	assert.Equal(t, 0, h.Count())

	h.Register(&Session{Addr: "a"})
	h.Register(&Session{Addr: "b"})
	assert.Equal(t, 2, h.Count())

	h.Unregister("a")
	assert.Equal(t, 1, h.Count())
}
