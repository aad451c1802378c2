package ticketing

import (
	"context"
	"encoding/json"
	"log"

	pubnub "github.com/pubnub/go/v7"
)

type ListenerConfig struct {
	SubscribeKey string `json:"pn_subkey" mapstructure:"pn_subkey"`
	UserID       string `json:"pn_uuid" mapstructure:"pn_uuid"`
	Channel      string `json:"pn_channel" mapstructure:"pn_channel"`
}

// PaymentListener subscribes to the backend's payment notification channel
// and forwards completed/failed offsite payments to the channel supplied
// at construction. Transactions submitted with a checkout url finish
// asynchronously, so this is the only way the service learns the outcome.
type PaymentListener struct {
	pn  *pubnub.PubNub
	lis *pubnub.Listener
	ch  chan *PaymentNotification
}

// NewPaymentListener takes the outcome channel up front because the
// subscription goroutine starts reading it immediately.
func NewPaymentListener(ctx context.Context, cfg *ListenerConfig, ch chan *PaymentNotification) *PaymentListener {
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UserID))
	pnCfg.SubscribeKey = cfg.SubscribeKey

	l := &PaymentListener{
		pn:  pubnub.NewPubNub(pnCfg),
		lis: pubnub.NewListener(),
		ch:  ch,
	}

	l.pn.AddListener(l.lis)
	l.pn.Subscribe().Channels([]string{cfg.Channel}).Execute()

	go l.processSubscription(ctx)

	return l
}

func (l *PaymentListener) processSubscription(ctx context.Context) {
	for {
		select {
		case st := <-l.lis.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				log.Println("payment listener connected to pubnub")
			case pubnub.PNReconnectedCategory:
				log.Println("payment listener reconnected to pubnub")
			case pubnub.PNDisconnectedCategory:
				log.Println("payment listener disconnected from pubnub")
			default:
				log.Printf("payment listener pubnub status: %v", st.Category)
			}

		case message := <-l.lis.Message:
			data, err := json.Marshal(message.Message)
			if err != nil {
				log.Printf("payment listener: marshal message: %v", err)
				continue
			}

			var notification PaymentNotification
			if err := json.Unmarshal(data, &notification); err != nil {
				log.Printf("payment listener: parse notification: %v", err)
				continue
			}
			if notification.TransactionID == "" {
				continue
			}
			if l.ch != nil {
				l.ch <- &notification
			}

		case <-ctx.Done():
			l.pn.UnsubscribeAll()
			log.Println("payment listener stopped")
			return
		}
	}
}
