package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"central-ai-web/pkg/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoReplier() Replier {
	return ReplierFunc(func(_ context.Context, req Request) (Reply, error) {
		return Reply{Text: "re: " + req.Text}, nil
	})
}

func TestSendAppendsPairsInOrder(t *testing.T) {
	e := New(echoReplier(), Options{Fallback: "fallback"})

	for _, m := range []string{"m1", "m2", "m3"} {
		_, err := e.Send(context.Background(), m)
		require.NoError(t, err)
	}

	snap := e.Snapshot()
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "m1"}, {Role: RoleAgent, Content: "re: m1"},
		{Role: RoleUser, Content: "m2"}, {Role: RoleAgent, Content: "re: m2"},
		{Role: RoleUser, Content: "m3"}, {Role: RoleAgent, Content: "re: m3"},
	}, snap.Messages)
	assert.False(t, snap.AwaitingReply)
}

func TestSendRejectsBlankInput(t *testing.T) {
	called := false
	e := New(ReplierFunc(func(context.Context, Request) (Reply, error) {
		called = true
		return Reply{}, nil
	}), Options{Greeting: "hi"})

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := e.Send(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	snap := e.Snapshot()
	assert.Len(t, snap.Messages, 1)
	assert.False(t, snap.AwaitingReply)
	assert.False(t, called)
}

func TestFailureAppendsExactlyOneFallback(t *testing.T) {
	tests := []struct {
		name    string
		replier Replier
	}{
		{name: "network error", replier: ReplierFunc(func(context.Context, Request) (Reply, error) {
			return Reply{}, fmt.Errorf("%w: dial", backend.ErrUnavailable)
		})},
		{name: "server error", replier: ReplierFunc(func(context.Context, Request) (Reply, error) {
			return Reply{}, &backend.APIError{Status: 500}
		})},
		{name: "malformed reply", replier: ReplierFunc(func(context.Context, Request) (Reply, error) {
			return Reply{Text: "  "}, nil
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.replier, Options{Fallback: SupportFallback})
			msg, _ := e.Send(context.Background(), "oi")
			assert.Equal(t, Message{Role: RoleAgent, Content: SupportFallback}, msg)

			snap := e.Snapshot()
			require.Len(t, snap.Messages, 2)
			assert.Equal(t, SupportFallback, snap.Messages[1].Content)
			assert.False(t, snap.AwaitingReply)
		})
	}
}

func TestSingleRequestInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	e := New(ReplierFunc(func(ctx context.Context, req Request) (Reply, error) {
		close(started)
		<-release
		return Reply{Text: "done"}, nil
	}), Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = e.Send(context.Background(), "first")
	}()
	<-started

	assert.True(t, e.Snapshot().AwaitingReply)
	_, err := e.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrAwaitingReply)
	assert.ErrorIs(t, e.Note("x"), ErrAwaitingReply)

	close(release)
	wg.Wait()

	snap := e.Snapshot()
	assert.Equal(t, []Message{{Role: RoleUser, Content: "first"}, {Role: RoleAgent, Content: "done"}}, snap.Messages)
	assert.False(t, snap.AwaitingReply)
}

func TestCorrelationIDStableAcrossTurns(t *testing.T) {
	var seen []string
	e := New(ReplierFunc(func(_ context.Context, req Request) (Reply, error) {
		seen = append(seen, req.CorrelationID)
		return Reply{Text: "ok"}, nil
	}), Options{})

	_, _ = e.Send(context.Background(), "a")
	_, _ = e.Send(context.Background(), "b")

	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, e.CorrelationID(), seen[0])
	assert.Contains(t, seen[0], "session-")
	assert.NotEqual(t, e.CorrelationID(), New(echoReplier(), Options{}).CorrelationID())
}

func TestReplyAfterCloseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	hookCalled := false
	e := New(ReplierFunc(func(context.Context, Request) (Reply, error) {
		close(started)
		<-release
		return Reply{Text: "late"}, nil
	}), Options{OnReply: func(Settled) { hookCalled = true }})

	done := make(chan error, 1)
	go func() {
		_, err := e.Send(context.Background(), "hello")
		done <- err
	}()
	<-started
	e.Close()
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("send did not settle")
	}

	snap := e.Snapshot()
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hello"}}, snap.Messages)
	assert.False(t, snap.AwaitingReply)
	assert.False(t, hookCalled)

	_, err := e.Send(context.Background(), "again")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOnReplyReceivesSettledTurn(t *testing.T) {
	var got []Settled
	boom := errors.New("boom")
	calls := 0
	e := New(ReplierFunc(func(context.Context, Request) (Reply, error) {
		calls++
		if calls == 2 {
			return Reply{}, boom
		}
		return Reply{Text: "Protocolo 123 criado"}, nil
	}), Options{Fallback: "fb", OnReply: func(s Settled) { got = append(got, s) }})

	_, _ = e.Send(context.Background(), "abrir chamado")
	_, err := e.Send(context.Background(), "de novo")
	assert.ErrorIs(t, err, boom)

	require.Len(t, got, 2)
	assert.Equal(t, "abrir chamado", got[0].UserText)
	assert.True(t, RefreshRequested(got[0].Reply))
	assert.ErrorIs(t, got[1].Err, boom)
}

func TestNoteAppendsAgentMessage(t *testing.T) {
	e := New(echoReplier(), Options{})
	require.NoError(t, e.Note(FinishedNotice))
	assert.Equal(t, []Message{{Role: RoleAgent, Content: FinishedNotice}}, e.Snapshot().Messages)
}
