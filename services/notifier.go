package services

import (
	"fmt"

	pubnub "github.com/pubnub/go"
)

// Notifier is the cross-cutting success/warning/error signaling capability
// every checkout operation reports through. It is injected rather than
// global so tests can substitute a recording double.
type Notifier interface {
	Success(sessionID, message string, data map[string]any)
	Warning(sessionID, message string, data map[string]any)
	Error(sessionID, message string, data map[string]any)
}

// PubNubNotifier publishes notifications to a per-session channel so the
// browser can render them as toasts without polling.
type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pn: pn}
}

func (n *PubNubNotifier) Success(sessionID, message string, data map[string]any) {
	n.publish(sessionID, "success", message, data)
}

func (n *PubNubNotifier) Warning(sessionID, message string, data map[string]any) {
	n.publish(sessionID, "warning", message, data)
}

func (n *PubNubNotifier) Error(sessionID, message string, data map[string]any) {
	n.publish(sessionID, "error", message, data)
}

func (n *PubNubNotifier) publish(sessionID, level, message string, data map[string]any) {
	payload := map[string]any{
		"type":    "checkout_notice",
		"level":   level,
		"message": message,
	}
	for k, v := range data {
		payload[k] = v
	}

	channel := fmt.Sprintf("checkout-%s", sessionID)
	n.pn.Publish().
		Channel(channel).
		Message(payload).
		Execute()
}

// NopNotifier drops every notification. Used where no realtime channel is
// configured.
type NopNotifier struct{}

func (NopNotifier) Success(string, string, map[string]any) {}
func (NopNotifier) Warning(string, string, map[string]any) {}
func (NopNotifier) Error(string, string, map[string]any)   {}
