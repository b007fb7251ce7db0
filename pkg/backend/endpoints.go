package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// --- Auth ---

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var res LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		form:   url.Values{"username": {username}, "password": {password}},
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("%w: login response without access_token", ErrUnavailable)
	}
	return &res, nil
}

func (c *Client) LoginClient(ctx context.Context, email, password string) (*LoginResponse, error) {
	var res LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/login/client",
		form:   url.Values{"username": {email}, "password": {password}},
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("%w: login response without access_token", ErrUnavailable)
	}
	return &res, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/signup",
		json:   req,
	}, nil)
}

// --- Public self-service ---

func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	var res Customer
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/clientes/buscar",
		query:  url.Values{"email": {email}},
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreatePublicTicket(ctx context.Context, req CreateTicketRequest) (*PublicTicket, error) {
	var res PublicTicket
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/chamados/public",
		json:   req,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) PublicTicketStatus(ctx context.Context, id int) (*TicketStatus, error) {
	var res TicketStatus
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/chamados/public/%d", id),
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) IssueBoleto(ctx context.Context, email string) (*Boleto, error) {
	var res Boleto
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/boletos/gerar",
		json:   map[string]string{"email": email},
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// --- Conversations ---

// Chat posts to the support assistant. token may be empty for anonymous use.
func (c *Client) Chat(ctx context.Context, token string, req ChatRequest) (*ChatResponse, error) {
	var res ChatResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/chat/",
		token:  token,
		json:   req,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Agent(ctx context.Context, token string, req AgentRequest) (*ChatResponse, error) {
	var res ChatResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/agent/",
		token:  token,
		json:   req,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// --- Bearer-gated reads ---

func (c *Client) KPIs(ctx context.Context, token string) (*KPIs, error) {
	var res KPIs
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/dashboard/kpis", token: token}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) RecentTickets(ctx context.Context, token string) ([]RecentTicket, error) {
	var res []RecentTicket
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/dashboard/tickets", token: token}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) Metrics(ctx context.Context, token string) (*Metrics, error) {
	var res Metrics
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/metricas/", token: token}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Plans(ctx context.Context, token string) ([]Plan, error) {
	var res []Plan
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/planos/", token: token}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) MySummary(ctx context.Context, token string) (*CustomerSummary, error) {
	var res CustomerSummary
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/clientes/me/resumo", token: token}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Customers(ctx context.Context, token string) ([]Customer, error) {
	var res []Customer
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/clientes/", token: token}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) CreateCustomer(ctx context.Context, token string, req CreateCustomerRequest) (*Customer, error) {
	var res Customer
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/clientes/", token: token, json: req}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Tickets(ctx context.Context, token string) ([]Ticket, error) {
	var res []Ticket
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/chamados/", token: token}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) CreateTicket(ctx context.Context, token string, req CreateTicketRequest) (*Ticket, error) {
	var res Ticket
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/chamados/", token: token, json: req}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
