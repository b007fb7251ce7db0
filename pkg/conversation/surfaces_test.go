package conversation

import (
	"context"
	"testing"
	"time"

	"central-ai-web/pkg/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	status *backend.TicketStatus
	err    error
	ids    []int
}

func (f *fakeLookup) PublicTicketStatus(_ context.Context, id int) (*backend.TicketStatus, error) {
	f.ids = append(f.ids, id)
	return f.status, f.err
}

func TestWidgetReplier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		lookup   *fakeLookup
		wantText string
		wantErr  bool
		wantIDs  []int
	}{
		{name: "not a number", input: "meu chamado", lookup: &fakeLookup{}, wantText: WidgetHint},
		{name: "negative", input: "-3", lookup: &fakeLookup{}, wantText: WidgetHint},
		{
			name:     "resolved",
			input:    " #42 ",
			lookup:   &fakeLookup{status: &backend.TicketStatus{Status: "resolvido", RespostaAutomatica: "Reinicie o modem"}},
			wantText: "✅ Seu chamado foi resolvido automaticamente.\n\nÚltima resposta: \"Reinicie o modem\"",
			wantIDs:  []int{42},
		},
		{
			name:     "escalated",
			input:    "7",
			lookup:   &fakeLookup{status: &backend.TicketStatus{Status: "encaminhado", RespostaAutomatica: "Em análise"}},
			wantText: "⚠️ Seu chamado foi encaminhado para um especialista e está em análise.\n\nÚltima resposta: \"Em análise\"",
			wantIDs:  []int{7},
		},
		{
			name:     "other status",
			input:    "8",
			lookup:   &fakeLookup{status: &backend.TicketStatus{Status: "aberto"}},
			wantText: "ℹ️ Seu chamado está com status: aberto\n\nÚltima resposta: \"\"",
			wantIDs:  []int{8},
		},
		{
			name:    "not found",
			input:   "9",
			lookup:  &fakeLookup{err: &backend.APIError{Status: 404}},
			wantErr: true,
			wantIDs: []int{9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := WidgetReplier{Lookup: tt.lookup}.Reply(context.Background(), Request{Text: tt.input})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, reply.Text)
			}
			assert.Equal(t, tt.wantIDs, tt.lookup.ids)
		})
	}
}

func TestWidgetEngineUsesNotFoundFallback(t *testing.T) {
	e := New(WidgetReplier{Lookup: &fakeLookup{err: &backend.APIError{Status: 404}}}, Options{Greeting: WidgetGreeting, Fallback: WidgetFallback})
	msg, _ := e.Send(context.Background(), "99")
	assert.Equal(t, WidgetFallback, msg.Content)
	assert.Len(t, e.Snapshot().Messages, 3)
}

type fakeChat struct {
	token string
	chat  backend.ChatRequest
	agent backend.AgentRequest
	res   *backend.ChatResponse
}

func (f *fakeChat) Chat(_ context.Context, token string, req backend.ChatRequest) (*backend.ChatResponse, error) {
	f.token, f.chat = token, req
	return f.res, nil
}

func (f *fakeChat) Agent(_ context.Context, token string, req backend.AgentRequest) (*backend.ChatResponse, error) {
	f.token, f.agent = token, req
	return f.res, nil
}

func TestSupportReplierCarriesTokenAndCorrelation(t *testing.T) {
	yes := true
	fc := &fakeChat{res: &backend.ChatResponse{Response: "feito", ActionPerformed: &yes}}
	r := SupportReplier{Backend: fc, Token: func(context.Context) string { return "tok" }}

	reply, err := r.Reply(context.Background(), Request{Text: "2a via", CorrelationID: "session-1"})
	require.NoError(t, err)
	assert.Equal(t, "tok", fc.token)
	assert.Equal(t, backend.ChatRequest{Message: "2a via", SessionID: "session-1"}, fc.chat)
	assert.True(t, RefreshRequested(reply))
}

func TestAgentReplierAsksCRM(t *testing.T) {
	fc := &fakeChat{res: &backend.ChatResponse{Response: "Churn 2.5%"}}
	r := AgentReplier{Backend: fc, Token: func(context.Context) string { return "admin-tok" }}

	reply, err := r.Reply(context.Background(), Request{Text: "churn?"})
	require.NoError(t, err)
	assert.Equal(t, "Churn 2.5%", reply.Text)
	assert.Equal(t, backend.AgentRequest{Query: "churn?", AgentType: "crm"}, fc.agent)
	assert.Equal(t, "admin-tok", fc.token)
}

func TestRefreshRequested(t *testing.T) {
	no := false
	tests := []struct {
		name  string
		reply Reply
		want  bool
	}{
		{name: "keyword protocolo", reply: Reply{Text: "Seu PROTOCOLO é 2024"}, want: true},
		{name: "keyword sucesso", reply: Reply{Text: "Boleto gerado com sucesso"}, want: true},
		{name: "keyword success", reply: Reply{Text: "success"}, want: true},
		{name: "no keyword", reply: Reply{Text: "Posso ajudar?"}, want: false},
		{name: "explicit flag wins", reply: Reply{Text: "sucesso", ActionPerformed: &no}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RefreshRequested(tt.reply))
		})
	}
}

func TestSupportGreeting(t *testing.T) {
	assert.Equal(t, "Olá, ana! Sou sua assistente virtual. Como posso ajudar com seus planos hoje?", SupportGreeting("ana@x.com"))
	assert.Contains(t, SupportGreeting(""), "Olá, Cliente!")
}

func TestRegistryReusesAndDropsEngines(t *testing.T) {
	reg := NewRegistry(time.Hour)
	builds := 0
	build := func() *Engine {
		builds++
		return New(echoReplier(), Options{})
	}

	a := reg.Get("sid", SurfaceSupport, build)
	b := reg.Get("sid", SurfaceSupport, build)
	assert.Same(t, a, b)
	assert.Equal(t, 1, builds)

	other := reg.Get("sid", SurfaceAgent, build)
	assert.NotSame(t, a, other)

	reg.Drop("sid")
	_, found := reg.Peek("sid", SurfaceSupport)
	assert.False(t, found)

	_, err := a.Send(context.Background(), "after logout")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRegistryClosesIdleEngineItReplaces(t *testing.T) {
	reg := NewRegistry(20 * time.Millisecond)
	build := func() *Engine { return New(echoReplier(), Options{}) }

	stale := reg.Get("sid", SurfaceSupport, build)
	time.Sleep(50 * time.Millisecond)

	fresh := reg.Get("sid", SurfaceSupport, build)
	assert.NotSame(t, stale, fresh)
	assert.ErrorIs(t, stale.Note("late reply"), ErrClosed)
	assert.NoError(t, fresh.Note("hello"))
}
