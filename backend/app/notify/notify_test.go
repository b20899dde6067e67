package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannel(t *testing.T) {
	assert.Equal(t, "esn:commands:42", Channel("esn:commands", 42))
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.CommandQueued(context.Background(), Event{CommandID: 1}))
}
