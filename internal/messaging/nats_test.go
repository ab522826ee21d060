package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilClientIsNoop(t *testing.T) {
	var nc *NATSClient

	assert.NoError(t, nc.Publish("order.placed", map[string]string{"order_id": "K7M2Q9XA4B"}))
	assert.NoError(t, nc.Close())

	var _ Publisher = nc
}
