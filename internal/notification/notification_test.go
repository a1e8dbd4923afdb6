package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"consultant-access/internal/mocks"
	"consultant-access/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAsyncDeliversInBackground(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockDispatcher(ctrl)
	msg := notification.AccountCreated("b1@agency.com", "broker1")

	delivered := make(chan struct{})
	next.EXPECT().
		Send(gomock.Any(), msg).
		DoAndReturn(func(ctx context.Context, _ notification.Message) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			close(delivered)
			return nil
		})

	async := notification.NewAsync(next, time.Second)
	require.NoError(t, async.Send(context.Background(), msg))
	async.Close()

	select {
	case <-delivered:
	default:
		t.Fatal("message was not delivered before Close returned")
	}
}

func TestAsyncSwallowsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockDispatcher(ctrl)
	next.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

	async := notification.NewAsync(next, time.Second)
	assert.NoError(t, async.Send(context.Background(), notification.PasswordSet("b1@agency.com", "broker1")))
	async.Close()
}

func TestAsyncSurvivesCancelledRequestContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockDispatcher(ctrl)
	next.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ notification.Message) error {
			assert.NoError(t, ctx.Err())
			return nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	async := notification.NewAsync(next, time.Second)
	require.NoError(t, async.Send(ctx, notification.AccountCreated("x@y.com", "x")))
	async.Close()
}

func TestMQTTDispatcherPublishesJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	msg := notification.AccountRejected("b1@agency.com", "broker1", "incomplete license")

	publisher.EXPECT().
		Publish(gomock.Any(), "notify/outbound", byte(1), false, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ byte, _ bool, payload []byte) error {
			var decoded notification.Message
			require.NoError(t, json.Unmarshal(payload, &decoded))
			assert.Equal(t, msg, decoded)
			return nil
		})

	d := notification.NewMQTTDispatcher(publisher, "notify/outbound")
	assert.NoError(t, d.Send(context.Background(), msg))
}

func TestMQTTDispatcherWrapsPublishError(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("not connected"))

	err := notification.NewMQTTDispatcher(publisher, "t").Send(context.Background(), notification.Message{To: "a@b.c"})
	assert.ErrorContains(t, err, "not connected")
}

func TestLogDispatcher(t *testing.T) {
	assert.NoError(t, notification.NewLogDispatcher().Send(context.Background(), notification.Message{To: "a@b.c"}))
}

func TestMessages(t *testing.T) {
	link := "https://app.example/set-password?token=abc"

	approved := notification.AccountApproved("b1@agency.com", "broker1", link)
	assert.Equal(t, "b1@agency.com", approved.To)
	assert.True(t, strings.Contains(approved.Body, link))

	rejected := notification.AccountRejected("b1@agency.com", "broker1", "missing license")
	assert.Contains(t, rejected.Body, "missing license")

	reset := notification.PasswordReset("b1@agency.com", "broker1", link)
	assert.Contains(t, reset.Body, link)
}
