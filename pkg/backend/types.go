package backend

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserName    string `json:"user_name,omitempty"`
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Customer is a "cliente" record.
type Customer struct {
	ID             int     `json:"id"`
	Nome           string  `json:"nome"`
	Email          string  `json:"email"`
	Telefone       *string `json:"telefone,omitempty"`
	CanalPreferido string  `json:"canal_preferido"`
	DataCriacao    string  `json:"data_criacao,omitempty"`
}

type CreateCustomerRequest struct {
	Nome           string  `json:"nome"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	Telefone       *string `json:"telefone,omitempty"`
	CanalPreferido string  `json:"canal_preferido"`
}

type CreateTicketRequest struct {
	ClienteID int    `json:"cliente_id"`
	Canal     string `json:"canal"`
	Mensagem  string `json:"mensagem"`
}

// PublicTicket is the answer to an unauthenticated ticket creation.
type PublicTicket struct {
	ChamadoID                int    `json:"chamado_id"`
	Protocolo                string `json:"protocolo,omitempty"`
	Resposta                 string `json:"resposta"`
	ResolvidoAutomaticamente bool   `json:"resolvido_automaticamente"`
	EncaminhadoParaHumano    bool   `json:"encaminhado_para_humano"`
}

type TicketStatus struct {
	Status             string `json:"status"`
	RespostaAutomatica string `json:"resposta_automatica"`
}

// Ticket is a "chamado" as listed to admins.
type Ticket struct {
	ID                    int    `json:"id"`
	Protocolo             string `json:"protocolo,omitempty"`
	ClienteID             int    `json:"cliente_id"`
	Canal                 string `json:"canal"`
	Mensagem              string `json:"mensagem"`
	Status                string `json:"status"`
	Prioridade            string `json:"prioridade,omitempty"`
	Categoria             string `json:"categoria,omitempty"`
	RespostaAutomatica    string `json:"resposta_automatica,omitempty"`
	EncaminhadoParaHumano bool   `json:"encaminhado_para_humano"`
	DataCriacao           string `json:"data_criacao,omitempty"`
}

type Boleto struct {
	Mensagem     string  `json:"mensagem,omitempty"`
	CodigoBarras string  `json:"codigo_barras"`
	Valor        float64 `json:"valor"`
	Vencimento   string  `json:"vencimento"`
	LinkPDF      string  `json:"link_pdf"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse carries the assistant text. ActionPerformed is set only by
// backends that report side effects explicitly.
type ChatResponse struct {
	Response        string `json:"response"`
	ActionPerformed *bool  `json:"action_performed,omitempty"`
}

type AgentRequest struct {
	Query     string `json:"query"`
	AgentType string `json:"agent_type,omitempty"`
}

type KPIs struct {
	TotalClientes   int     `json:"total_clientes"`
	ContratosAtivos int     `json:"contratos_ativos"`
	ChamadosAbertos int     `json:"chamados_abertos"`
	NPSMedio        float64 `json:"nps_medio"`
	ChurnRate       string  `json:"churn_rate,omitempty"`
}

type RecentTicket struct {
	ID         int    `json:"id"`
	Protocolo  string `json:"protocolo"`
	Status     string `json:"status"`
	Prioridade string `json:"prioridade"`
	Categoria  string `json:"categoria,omitempty"`
	Data       string `json:"data"`
	Canal      string `json:"canal,omitempty"`
}

type Metrics struct {
	TotalChamados                     int    `json:"total_chamados"`
	TotalClientes                     int    `json:"total_clientes"`
	ChamadosResolvidosAutomaticamente int    `json:"chamados_resolvidos_automaticamente"`
	ChamadosEncaminhadosParaHumano    int    `json:"chamados_encaminhados_para_humano"`
	TaxaResolucaoAutomatica           string `json:"taxa_resolucao_automatica"`
	TempoMedioRespostaSegundos        string `json:"tempo_medio_resposta_segundos"`
}

type Plan struct {
	PlanoID    int     `json:"plano_id"`
	Nome       string  `json:"nome"`
	Descricao  string  `json:"descricao,omitempty"`
	Velocidade string  `json:"velocidade,omitempty"`
	Preco      float64 `json:"preco"`
	Tipo       string  `json:"tipo"`
}

type Invoice struct {
	FaturaID       int     `json:"fatura_id"`
	ContratoID     int     `json:"contrato_id"`
	DataEmissao    string  `json:"data_emissao"`
	DataVencimento string  `json:"data_vencimento"`
	Valor          float64 `json:"valor"`
	Status         string  `json:"status"`
}

// CustomerSummary is /api/clientes/me/resumo. PlanoAtivo is null when the
// customer has no active contract.
type CustomerSummary struct {
	Cliente          Customer  `json:"cliente"`
	PlanoAtivo       *Plan     `json:"plano_ativo"`
	UltimosChamados  []Ticket  `json:"ultimos_chamados"`
	FaturasPendentes []Invoice `json:"faturas_pendentes"`
}
