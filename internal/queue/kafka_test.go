package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKafkaQueue_Defaults(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	assert.Equal(t, "searchforms-group", q.config.GroupID)
	assert.Equal(t, 3, q.config.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, q.config.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, q.writer.Balancer)
}

func TestNewKafkaQueue_NoBrokers(t *testing.T) {
	_, err := NewKafkaQueue(KafkaConfig{})
	assert.Error(t, err)
}

func TestKafkaMessageConversion(t *testing.T) {
	out := toKafka("forms.events", Message{
		Key:     "form-1",
		Headers: map[string]string{HeaderKind: "saved"},
		Data:    []byte("body"),
	})
	assert.Equal(t, "forms.events", out.Topic)
	assert.Equal(t, []byte("form-1"), out.Key)
	assert.Equal(t, []kafka.Header{{Key: HeaderKind, Value: []byte("saved")}}, out.Headers)

	back := fromKafka(out)
	assert.Equal(t, "form-1", back.Key)
	assert.Equal(t, "saved", back.Header(HeaderKind))
	assert.Equal(t, "body", string(back.Data))

	assert.Nil(t, toKafka("t", Message{Data: []byte("x")}).Key)
}

func TestKafkaQueue_UnsubscribeUnknown(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	assert.ErrorIs(t, q.Unsubscribe("forms.events"), ErrNotSubscribed)
}

func TestKafkaQueue_PublishAndSubscribe(t *testing.T) {
	if os.Getenv("KAFKA_TEST") != "1" {
		t.Skip("Kafka not available, set KAFKA_TEST=1 to run")
	}
	brokers := []string{"localhost:9092"}
	if b := os.Getenv("KAFKA_BROKERS"); b != "" {
		brokers = []string{b}
	}

	q, err := NewKafkaQueue(KafkaConfig{Brokers: brokers, GroupID: "test-" + time.Now().Format("150405")})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	got := make(chan Message, 1)
	require.NoError(t, q.Subscribe("searchforms-test", func(msg Message) error {
		got <- msg
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, q.Publish(ctx, "searchforms-test", Message{Key: "form-1", Data: []byte("hello")}))

	select {
	case msg := <-got:
		assert.Equal(t, "hello", string(msg.Data))
		assert.Equal(t, "form-1", msg.Key)
	case <-time.After(30 * time.Second):
		t.Fatal("message not delivered")
	}
}
