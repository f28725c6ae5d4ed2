package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	evt := New(SaleCompleted, map[string]string{"invoice_number": "VEN-000001"})

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, SaleCompleted, evt.Type)
	assert.False(t, evt.OccurredAt.IsZero())

	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"sale.completed"`)
	assert.Contains(t, string(raw), `"invoice_number":"VEN-000001"`)
}

func TestNopPublisher(t *testing.T) {
	p := NewNopPublisher(zap.NewNop())
	assert.NoError(t, p.Publish(context.Background(), New(StockLow, nil)))
	assert.NoError(t, p.Close())
}
