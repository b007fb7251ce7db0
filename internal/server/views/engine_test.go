package views

import (
	"bytes"
	"testing"

	"central-ai-web/pkg/backend"
	"central-ai-web/pkg/conversation"
	"central-ai-web/pkg/session"
	"central-ai-web/pkg/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, e *Engine, page string, data map[string]interface{}) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf, page, data))
	return buf.String()
}

func TestEveryPageRendersWithinLayout(t *testing.T) {
	e := New()
	require.NoError(t, e.Load())

	out := render(t, e, "login", map[string]interface{}{"Title": "Entrar", "Error": "Falha no login"})
	assert.Contains(t, out, "<title>Entrar · Central.AI</title>")
	assert.Contains(t, out, "Falha no login")
	assert.Contains(t, out, `action="/login"`)

	_, ok := e.pages["_conversation"]
	assert.False(t, ok)
	_, ok = e.pages["layout"]
	assert.False(t, ok)
}

func TestNavigationFollowsRole(t *testing.T) {
	e := New()
	require.NoError(t, e.Load())

	admin := render(t, e, "home", map[string]interface{}{"Session": session.Session{Token: "t", Username: "op", Role: session.RoleAdmin}})
	assert.Contains(t, admin, `href="/dashboard"`)
	assert.NotContains(t, admin, `href="/me"`)

	anon := render(t, e, "home", map[string]interface{}{"Session": session.Session{}})
	assert.Contains(t, anon, `href="/login"`)
	assert.NotContains(t, anon, "Sair")
}

func TestSupportBoletoResult(t *testing.T) {
	e := New()
	require.NoError(t, e.Load())

	out := render(t, e, "support", map[string]interface{}{
		"State": wizard.State{
			Step: wizard.StepBoletoResult,
			Mode: wizard.ModeInvoice,
			Boleto: &backend.Boleto{
				CodigoBarras: "123",
				Valor:        99.9,
				Vencimento:   "2026-11-10",
				LinkPDF:      "https://boletos.example/1.pdf",
			},
		},
	})
	assert.Contains(t, out, "R$ 99,90")
	assert.Contains(t, out, "10/11/2026")
	assert.Contains(t, out, "https://boletos.example/1.pdf")
	assert.Contains(t, out, "/support/reset")
	assert.NotContains(t, out, "/support/back")
}

func TestConversationPartial(t *testing.T) {
	e := New()
	require.NoError(t, e.Load())

	out := render(t, e, "widget", map[string]interface{}{
		"Action": "/widget",
		"Chat": conversation.Snapshot{Messages: []conversation.Message{
			{Role: conversation.RoleAgent, Content: conversation.WidgetGreeting},
			{Role: conversation.RoleUser, Content: "42"},
		}},
	})
	assert.Contains(t, out, `class="agent"`)
	assert.Contains(t, out, `class="user">42<`)
}

func TestUnknownPage(t *testing.T) {
	e := New()
	require.NoError(t, e.Load())
	assert.Error(t, e.Render(&bytes.Buffer{}, "nope", nil))
}
