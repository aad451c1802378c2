package ticketing

import (
	"context"
	"testing"
	"time"

	pubnub "github.com/pubnub/go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessSubscription_ForwardsPaymentNotifications(t *testing.T) {
	ch := make(chan *PaymentNotification, 1)
	l := &PaymentListener{lis: pubnub.NewListener(), ch: ch}
	go l.processSubscription(context.Background())

	l.lis.Message <- &pubnub.PNMessage{Message: map[string]any{
		"transaction_id": "tx1",
		"status":         "completed",
	}}

	select {
	case n := <-ch:
		require.NotNil(t, n)
		assert.Equal(t, "tx1", n.TransactionID)
		assert.Equal(t, "completed", n.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not forwarded")
	}

	// payloads without a transaction id are dropped
	l.lis.Message <- &pubnub.PNMessage{Message: map[string]any{"status": "completed"}}
	select {
	case n := <-ch:
		t.Fatalf("unexpected notification: %+v", n)
	case <-time.After(100 * time.Millisecond):
	}
}
