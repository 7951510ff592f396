// Package events mirrors bridge stage transitions onto a message bus so
// other services can react to settlement progress without holding a
// reference to the orchestrator.
package events

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/arcpay/arcpay/bridge"
)

// DefaultTopic is the topic stage events are published to.
const DefaultTopic = "arcpay.bridge.stage"

// StagePublisher implements bridge.Observer over a Watermill publisher.
type StagePublisher struct {
	publisher message.Publisher
	topic     string
}

var _ bridge.Observer = (*StagePublisher)(nil)

// NewStagePublisher publishes stage events to topic; an empty topic selects
// DefaultTopic.
func NewStagePublisher(publisher message.Publisher, topic string) *StagePublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &StagePublisher{publisher: publisher, topic: topic}
}

// BridgeStage implements bridge.Observer. Publishing is best-effort: the
// settlement flow must not fail because an event listener is down.
func (p *StagePublisher) BridgeStage(e bridge.StageEvent) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	_ = p.publisher.Publish(p.topic, msg)
}
