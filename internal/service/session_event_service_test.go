package service

import (
	"context"
	"errors"
	"testing"

	"central-ai-web/internal/pkg/logger"
	"central-ai-web/pkg/events"
	pktNats "central-ai-web/pkg/nats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	types   []string
	handler pktNats.EventHandler
	err     error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, eventTypes []string, handler pktNats.EventHandler) error {
	f.types = eventTypes
	f.handler = handler
	return f.err
}

type recordingForgetter struct {
	sids []string
}

func (r *recordingForgetter) Forget(sid string) {
	r.sids = append(r.sids, sid)
}

func TestSessionEventsDropBrowserState(t *testing.T) {
	sub := &fakeSubscriber{}
	forgetter := &recordingForgetter{}
	svc := NewSessionEventService(sub, forgetter, logger.NewNopLogger())

	require.NoError(t, svc.Start(context.Background()))
	assert.ElementsMatch(t, []string{events.AuthLogout, events.AuthSessionInvalidated}, sub.types)

	require.NoError(t, sub.handler(context.Background(), events.New(events.AuthLogout, map[string]interface{}{"sid": "sid-1"})))
	require.NoError(t, sub.handler(context.Background(), events.New(events.AuthSessionInvalidated, map[string]interface{}{})))

	assert.Equal(t, []string{"sid-1"}, forgetter.sids)
}

func TestSessionEventsSubscribeFailure(t *testing.T) {
	sub := &fakeSubscriber{err: errors.New("no stream")}
	svc := NewSessionEventService(sub, &recordingForgetter{}, logger.NewNopLogger())

	assert.Error(t, svc.Start(context.Background()))
}
