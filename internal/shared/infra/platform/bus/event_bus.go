package bus

import (
	"context"
	"fmt"
)

type Keyer interface {
	PartitionKey() string
}

// Topicer lo implementan los eventos que eligen su topic de destino.
type Topicer interface {
	EventTopic() string
}

// La semántica de topic/nombre y formato del payload la decides en los adapters.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}

// TopicRouter reparte cada evento al bus de su topic.
type TopicRouter map[string]EventBus

func (r TopicRouter) Publish(ctx context.Context, event interface{}) error {
	t, ok := event.(Topicer)
	if !ok {
		return fmt.Errorf("event %T has no topic", event)
	}
	target, ok := r[t.EventTopic()]
	if !ok {
		return fmt.Errorf("no bus registered for topic %q", t.EventTopic())
	}
	return target.Publish(ctx, event)
}
