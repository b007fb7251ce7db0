// Package dashboard assembles the admin and client dashboards from independent
// backend reads.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"central-ai-web/internal/pkg/logger"
	"central-ai-web/pkg/backend"

	"golang.org/x/sync/errgroup"
)

// ErrSessionExpired means the backend rejected the bearer token. Callers log
// the user out; no partial summary accompanies it.
var ErrSessionExpired = errors.New("dashboard: session expired")

const (
	SectionKPIs          = "kpis"
	SectionRecentTickets = "recent_tickets"
	SectionMetrics       = "metrics"
	SectionSummary       = "summary"
	SectionPlans         = "plans"

	msgSectionFailed = "Não foi possível carregar esta seção."
	logModule        = "Dashboard"
)

// Backend is the subset of REST reads and admin writes the dashboards use.
type Backend interface {
	KPIs(ctx context.Context, token string) (*backend.KPIs, error)
	RecentTickets(ctx context.Context, token string) ([]backend.RecentTicket, error)
	Metrics(ctx context.Context, token string) (*backend.Metrics, error)
	Plans(ctx context.Context, token string) ([]backend.Plan, error)
	MySummary(ctx context.Context, token string) (*backend.CustomerSummary, error)
	Customers(ctx context.Context, token string) ([]backend.Customer, error)
	CreateCustomer(ctx context.Context, token string, req backend.CreateCustomerRequest) (*backend.Customer, error)
	Tickets(ctx context.Context, token string) ([]backend.Ticket, error)
	CreateTicket(ctx context.Context, token string, req backend.CreateTicketRequest) (*backend.Ticket, error)
}

// Failures holds the user-facing error of each section that could not load.
type Failures map[string]string

func (f Failures) Has(section string) bool {
	_, ok := f[section]
	return ok
}

type AdminSummary struct {
	KPIs          *backend.KPIs          `json:"kpis,omitempty"`
	RecentTickets []backend.RecentTicket `json:"recent_tickets"`
	Metrics       *backend.Metrics       `json:"metrics,omitempty"`
	Failures      Failures               `json:"failures,omitempty"`
}

type ClientSummary struct {
	Customer        *backend.Customer `json:"customer,omitempty"`
	ActivePlans     []backend.Plan    `json:"active_plans"`
	PendingInvoices []backend.Invoice `json:"pending_invoices"`
	RecentTickets   []backend.Ticket  `json:"recent_tickets"`
	Catalogue       []backend.Plan    `json:"catalogue"`
	Failures        Failures          `json:"failures,omitempty"`
}

type Aggregator struct {
	backend Backend
	logger  logger.ILogger
}

func NewAggregator(b Backend, log logger.ILogger) *Aggregator {
	return &Aggregator{backend: b, logger: log}
}

// collector runs section fetches concurrently. A 401 from any of them
// cancels the rest; other failures are kept per section.
type collector struct {
	group    *errgroup.Group
	ctx      context.Context
	mu       sync.Mutex
	failures Failures
	logger   logger.ILogger
}

func newCollector(ctx context.Context, log logger.ILogger) *collector {
	g, gctx := errgroup.WithContext(ctx)
	return &collector{group: g, ctx: gctx, failures: Failures{}, logger: log}
}

func (c *collector) fetch(section string, fn func(ctx context.Context) error) {
	c.group.Go(func() error {
		err := fn(c.ctx)
		if err == nil {
			return nil
		}
		if backend.IsUnauthorized(err) {
			return ErrSessionExpired
		}
		if c.ctx.Err() != nil {
			// Another section already ended the cycle.
			return nil
		}

		c.logger.Warn(logModule, "Section fetch failed", map[string]interface{}{
			"section": section,
			"error":   err.Error(),
		})
		c.mu.Lock()
		c.failures[section] = backend.DetailOf(err, msgSectionFailed)
		c.mu.Unlock()
		return nil
	})
}

func (c *collector) wait() (Failures, error) {
	if err := c.group.Wait(); err != nil {
		return nil, err
	}
	if len(c.failures) == 0 {
		return nil, nil
	}
	return c.failures, nil
}

// Admin loads KPIs, the recent tickets feed and the metrics panel.
func (a *Aggregator) Admin(ctx context.Context, token string) (*AdminSummary, error) {
	var (
		out = &AdminSummary{RecentTickets: []backend.RecentTicket{}}
		c   = newCollector(ctx, a.logger)
	)

	c.fetch(SectionKPIs, func(ctx context.Context) (err error) {
		out.KPIs, err = a.backend.KPIs(ctx, token)
		return err
	})
	c.fetch(SectionRecentTickets, func(ctx context.Context) error {
		tickets, err := a.backend.RecentTickets(ctx, token)
		if err != nil {
			return err
		}
		if tickets != nil {
			out.RecentTickets = tickets
		}
		return nil
	})
	c.fetch(SectionMetrics, func(ctx context.Context) (err error) {
		out.Metrics, err = a.backend.Metrics(ctx, token)
		return err
	})

	failures, err := c.wait()
	if err != nil {
		return nil, err
	}
	out.Failures = failures
	return out, nil
}

// Client loads the customer's own summary and the plan catalogue. A customer
// without an active contract gets an empty plan list.
func (a *Aggregator) Client(ctx context.Context, token string) (*ClientSummary, error) {
	var (
		out = &ClientSummary{
			ActivePlans:     []backend.Plan{},
			PendingInvoices: []backend.Invoice{},
			RecentTickets:   []backend.Ticket{},
			Catalogue:       []backend.Plan{},
		}
		c = newCollector(ctx, a.logger)
	)

	c.fetch(SectionSummary, func(ctx context.Context) error {
		s, err := a.backend.MySummary(ctx, token)
		if err != nil {
			return err
		}
		customer := s.Cliente
		out.Customer = &customer
		if s.PlanoAtivo != nil {
			out.ActivePlans = []backend.Plan{*s.PlanoAtivo}
		}
		if s.FaturasPendentes != nil {
			out.PendingInvoices = s.FaturasPendentes
		}
		if s.UltimosChamados != nil {
			out.RecentTickets = s.UltimosChamados
		}
		return nil
	})
	c.fetch(SectionPlans, func(ctx context.Context) error {
		plans, err := a.backend.Plans(ctx, token)
		if err != nil {
			return err
		}
		if plans != nil {
			out.Catalogue = plans
		}
		return nil
	})

	failures, err := c.wait()
	if err != nil {
		return nil, err
	}
	out.Failures = failures
	return out, nil
}

func expired(err error) error {
	if backend.IsUnauthorized(err) {
		return ErrSessionExpired
	}
	return err
}

func (a *Aggregator) Tickets(ctx context.Context, token string) ([]backend.Ticket, error) {
	tickets, err := a.backend.Tickets(ctx, token)
	if err != nil {
		return nil, expired(err)
	}
	if tickets == nil {
		tickets = []backend.Ticket{}
	}
	return tickets, nil
}

func (a *Aggregator) CreateTicket(ctx context.Context, token string, req backend.CreateTicketRequest) (*backend.Ticket, error) {
	t, err := a.backend.CreateTicket(ctx, token, req)
	if err != nil {
		return nil, expired(err)
	}
	a.logger.Info(logModule, "Ticket created", map[string]interface{}{"ticket_id": t.ID, "cliente_id": req.ClienteID})
	return t, nil
}

func (a *Aggregator) Clients(ctx context.Context, token string) ([]backend.Customer, error) {
	customers, err := a.backend.Customers(ctx, token)
	if err != nil {
		return nil, expired(err)
	}
	if customers == nil {
		customers = []backend.Customer{}
	}
	return customers, nil
}

func (a *Aggregator) CreateClient(ctx context.Context, token string, req backend.CreateCustomerRequest) (*backend.Customer, error) {
	cl, err := a.backend.CreateCustomer(ctx, token, req)
	if err != nil {
		return nil, expired(err)
	}
	a.logger.Info(logModule, "Client created", map[string]interface{}{"cliente_id": cl.ID})
	return cl, nil
}
