package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafka "github.com/tixlabs/tix-server/internal/delivery/kafka"
	"github.com/tixlabs/tix-server/internal/service"
	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
)

type stubFulfillment struct {
	mu      sync.Mutex
	failOn  map[string]error
	handled []string
}

func (s *stubFulfillment) ProcessOrder(_ context.Context, in service.OrderInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOn[in.ScanCode]; err != nil {
		return err
	}
	s.handled = append(s.handled, in.ScanCode)
	return nil
}

// fakeGroupSession records MarkMessage calls; everything else is inert.
type fakeGroupSession struct {
	ctx    context.Context
	marked []int64
}

func (s *fakeGroupSession) Claims() map[string][]int32              { return nil }
func (s *fakeGroupSession) MemberID() string                        { return "test-member" }
func (s *fakeGroupSession) GenerationID() int32                     { return 1 }
func (s *fakeGroupSession) MarkOffset(string, int32, int64, string) {}
func (s *fakeGroupSession) Commit()                                 {}
func (s *fakeGroupSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeGroupSession) Context() context.Context                 { return s.ctx }

func (s *fakeGroupSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeGroupClaim struct {
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeGroupClaim) Topic() string                            { return orderTopic }
func (c *fakeGroupClaim) Partition() int32                         { return 0 }
func (c *fakeGroupClaim) InitialOffset() int64                     { return 0 }
func (c *fakeGroupClaim) HighWaterMarkOffset() int64               { return 2 }
func (c *fakeGroupClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func orderMessage(t *testing.T, offset int64, scanCode string) *sarama.ConsumerMessage {
	t.Helper()
	value, err := json.Marshal(kafka.OrderMessage{
		EventID:  "ev-1",
		UserID:   "u-1",
		Quantity: 1,
		ScanCode: scanCode,
	})
	require.NoError(t, err)
	return &sarama.ConsumerMessage{
		Topic:  orderTopic,
		Value:  value,
		Offset: offset,
	}
}

func claimOf(msgs ...*sarama.ConsumerMessage) *fakeGroupClaim {
	ch := make(chan *sarama.ConsumerMessage, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	close(ch)
	return &fakeGroupClaim{msgs: ch}
}

// A handler failure must fail the session before any later offset is
// marked; otherwise the committed offset moves past the failed order and
// it is never redelivered.
func TestConsumeClaim_HandlerFailureStopsOffsetMarking(t *testing.T) {
	svc := &stubFulfillment{failOn: map[string]error{"scan-1": errors.New("db unavailable")}}
	cons := NewOrderConsumer(nil, svc, pkgLog.InitializeTestZapLogger())
	session := &fakeGroupSession{ctx: context.Background()}

	err := cons.ConsumeClaim(session, claimOf(
		orderMessage(t, 0, "scan-1"),
		orderMessage(t, 1, "scan-2"),
	))
	require.Error(t, err)

	// Nothing marked, nothing skipped past the failure.
	assert.Empty(t, session.marked)
	assert.Empty(t, svc.handled)

	// The outage clears and the session restarts at the last committed
	// offset: both orders now land and both offsets are marked.
	svc.mu.Lock()
	svc.failOn = nil
	svc.mu.Unlock()

	err = cons.ConsumeClaim(session, claimOf(
		orderMessage(t, 0, "scan-1"),
		orderMessage(t, 1, "scan-2"),
	))
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, session.marked)
	assert.Equal(t, []string{"scan-1", "scan-2"}, svc.handled)
}

// A malformed payload can never succeed, so it is marked and skipped
// instead of wedging the partition.
func TestConsumeClaim_MalformedMessageIsMarked(t *testing.T) {
	svc := &stubFulfillment{}
	cons := NewOrderConsumer(nil, svc, pkgLog.InitializeTestZapLogger())
	session := &fakeGroupSession{ctx: context.Background()}

	err := cons.ConsumeClaim(session, claimOf(
		&sarama.ConsumerMessage{Topic: orderTopic, Value: []byte("not json"), Offset: 0},
		orderMessage(t, 1, "scan-1"),
	))
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, session.marked)
	assert.Equal(t, []string{"scan-1"}, svc.handled)
}

func TestConsumeClaim_StopsOnContextCancel(t *testing.T) {
	svc := &stubFulfillment{}
	cons := NewOrderConsumer(nil, svc, pkgLog.InitializeTestZapLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	session := &fakeGroupSession{ctx: ctx}

	// An open, empty channel: only the cancelled context can end the loop.
	err := cons.ConsumeClaim(session, &fakeGroupClaim{msgs: make(chan *sarama.ConsumerMessage)})
	require.NoError(t, err)
	assert.Empty(t, session.marked)
}
