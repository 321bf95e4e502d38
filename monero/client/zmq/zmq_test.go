package zmq_test

import (
	"context"
	"github.com/Cm157cc/p2pool/monero/client/zmq"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFromFrame(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name          string
		input         []byte
		expectedJSON  []byte
		expectedTopic zmq.Topic
		err           string
	}{
		{
			name:  "nil",
			input: nil,
			err:   "malformed",
		},

		{
			name:  "empty",
			input: []byte{},
			err:   "malformed",
		},

		{
			name:  "unknown-topic",
			input: []byte(`foobar:[{"foo":"bar"}]`),
			err:   "unknown topic",
		},

		{
			name:          "proper w/ known-topic",
			input:         []byte(`json-minimal-txpool_add:[{"foo":"bar"}]`),
			expectedTopic: zmq.TopicMinimalTxPoolAdd,
			expectedJSON:  []byte(`[{"foo":"bar"}]`),
		},
	} {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			aTopic, aJSON, err := zmq.JSONFromFrame(tc.input)
			if tc.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.expectedTopic, aTopic)
			assert.Equal(t, tc.expectedJSON, aJSON)
		})
	}
}

func TestClient(t *testing.T) {
	client := zmq.NewClient(os.Getenv("MONEROD_ZMQ_URL"), zmq.TopicFullChainMain, zmq.TopicFullTxPoolAdd, zmq.TopicMinimalChainMain, zmq.TopicMinimalTxPoolAdd)
	err := client.Listen(context.Background(),
		func(fullChainMain *zmq.FullChainMain) {
			log.Print(fullChainMain)
		},
		func(fullTxPoolAdd []zmq.FullTxPoolAdd) {
			log.Print(fullTxPoolAdd)
		},
		nil,
		func(minimalChainMain *zmq.MinimalChainMain) {
			log.Print(minimalChainMain)
		},
		func(minimalTxPoolAdd []zmq.TxMempoolData) {
			log.Print(minimalTxPoolAdd)
		},
	)
	if err != nil {
		t.Fatal(err)
	}
}
