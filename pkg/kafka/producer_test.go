package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_Send(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		assert.JSONEq(t, `{"orderId":"v10089015vdb-01"}`, string(val))
		return nil
	})

	producer := NewProducerFrom(mockProducer)
	err := producer.Send("orders", "v10089015vdb-01", []byte(`{"orderId":"v10089015vdb-01"}`),
		map[string]string{"event-type": "order.created"})
	require.NoError(t, err)
	require.NoError(t, producer.Close())
}

func TestProducer_SendError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := NewProducerFrom(mockProducer)
	err := producer.Send("orders", "key", []byte(`{}`), nil)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}
