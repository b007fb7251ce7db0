package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"central-ai-web/pkg/backend"
)

type Surface string

const (
	SurfaceWidget  Surface = "widget"
	SurfaceSupport Surface = "support"
	SurfaceAgent   Surface = "agent"
)

// Surfaces lists every chat surface a browser can hold.
var Surfaces = []Surface{SurfaceWidget, SurfaceSupport, SurfaceAgent}

const (
	WidgetGreeting  = "Olá! Sou a IA de atendimento. Posso consultar o status do seu chamado. Qual o número do protocolo?"
	WidgetHint      = "Por favor, digite apenas o número do protocolo (ex: 123)."
	WidgetFallback  = "Não encontrei nenhum chamado com esse número. Verifique e tente novamente."
	SupportFallback = "Desculpe, tive um problema técnico. Tente novamente em instantes."
	AgentGreeting   = "Olá! Sou o Agente Admin. Posso analisar dados e gerar relatórios para você. Como posso ajudar?"
	AgentFallback   = "Desculpe, tive um erro ao processar sua solicitação."
	FinishedNotice  = "Atendimento finalizado. Obrigado!"
)

// AgentExamples are the suggested questions shown on an empty agent chat.
var AgentExamples = []string{
	"Qual a economia total com IA?",
	"Gere um relatório gerencial",
	"Qual a taxa de churn atual?",
	"Compare o custo IA vs Humano",
}

// SupportGreeting greets an authenticated customer by name.
func SupportGreeting(name string) string {
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at]
	}
	if name == "" {
		name = "Cliente"
	}
	return fmt.Sprintf("Olá, %s! Sou sua assistente virtual. Como posso ajudar com seus planos hoje?", name)
}

// TicketStatusLookup is the backend call behind the public widget.
type TicketStatusLookup interface {
	PublicTicketStatus(ctx context.Context, id int) (*backend.TicketStatus, error)
}

// WidgetReplier answers protocol numbers with the ticket status. Anything
// that is not a number gets a hint without a backend call.
type WidgetReplier struct {
	Lookup TicketStatusLookup
}

func (w WidgetReplier) Reply(ctx context.Context, req Request) (Reply, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(req.Text), "#")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return Reply{Text: WidgetHint}, nil
	}

	status, err := w.Lookup.PublicTicketStatus(ctx, id)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: DescribeTicketStatus(status)}, nil
}

func DescribeTicketStatus(s *backend.TicketStatus) string {
	var head string
	switch s.Status {
	case "resolvido":
		head = "✅ Seu chamado foi resolvido automaticamente."
	case "encaminhado":
		head = "⚠️ Seu chamado foi encaminhado para um especialista e está em análise."
	default:
		head = fmt.Sprintf("ℹ️ Seu chamado está com status: %s", s.Status)
	}
	return fmt.Sprintf("%s\n\nÚltima resposta: \"%s\"", head, s.RespostaAutomatica)
}

// ChatBackend covers the assistant and admin agent endpoints.
type ChatBackend interface {
	Chat(ctx context.Context, token string, req backend.ChatRequest) (*backend.ChatResponse, error)
	Agent(ctx context.Context, token string, req backend.AgentRequest) (*backend.ChatResponse, error)
}

// TokenSource returns the bearer token to attach at send time. It is read per
// turn so a logout between turns is honoured.
type TokenSource func(ctx context.Context) string

// SupportReplier talks to the assistant, threading turns with the
// correlation id.
type SupportReplier struct {
	Backend ChatBackend
	Token   TokenSource
}

func (s SupportReplier) Reply(ctx context.Context, req Request) (Reply, error) {
	token := ""
	if s.Token != nil {
		token = s.Token(ctx)
	}
	res, err := s.Backend.Chat(ctx, token, backend.ChatRequest{Message: req.Text, SessionID: req.CorrelationID})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: res.Response, ActionPerformed: res.ActionPerformed}, nil
}

// AgentReplier asks the admin CRM agent.
type AgentReplier struct {
	Backend ChatBackend
	Token   TokenSource
}

func (a AgentReplier) Reply(ctx context.Context, req Request) (Reply, error) {
	token := ""
	if a.Token != nil {
		token = a.Token(ctx)
	}
	res, err := a.Backend.Agent(ctx, token, backend.AgentRequest{Query: req.Text, AgentType: "crm"})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: res.Response, ActionPerformed: res.ActionPerformed}, nil
}
