package bus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type topicEvent string

func (e topicEvent) EventTopic() string { return string(e) }

type recordingBus struct {
	events []interface{}
}

func (b *recordingBus) Publish(ctx context.Context, event interface{}) error {
	b.events = append(b.events, event)
	return nil
}

func TestTopicRouter_Publish(t *testing.T) {
	tasks, users := &recordingBus{}, &recordingBus{}
	router := TopicRouter{"task": tasks, "user": users}
	ctx := context.Background()

	require.NoError(t, router.Publish(ctx, topicEvent("task")))
	require.NoError(t, router.Publish(ctx, topicEvent("user")))
	require.NoError(t, router.Publish(ctx, topicEvent("task")))

	assert.Len(t, tasks.events, 2)
	assert.Len(t, users.events, 1)

	assert.Error(t, router.Publish(ctx, topicEvent("invoice")))
	assert.Error(t, router.Publish(ctx, "sin topic"))
}
