// Package wizard implements the anonymous self-service flow: identify by
// email, then either open a ticket or get a second copy of a boleto.
package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"central-ai-web/pkg/backend"

	"github.com/go-playground/validator/v10"
)

type Step string

const (
	StepModeSelect    Step = "mode-select"
	StepEmailInput    Step = "email-input"
	StepIdentified    Step = "identified"
	StepNonClient     Step = "non-client"
	StepTicketCompose Step = "ticket-compose"
	StepTicketResult  Step = "ticket-result"
	StepBoletoResult  Step = "boleto-result"
)

type Mode string

const (
	ModeSupport Mode = "support"
	ModeInvoice Mode = "invoice"
)

const (
	MsgInvalidEmail   = "Informe um email válido."
	MsgEmptyTicket    = "Descreva o problema antes de enviar."
	MsgBoletoNotFound = "Nenhum boleto pendente encontrado para este email."
	MsgTransient      = "Não foi possível concluir agora. Tente novamente em instantes."

	ticketChannel = "site"
)

var (
	ErrInvalidTransition    = errors.New("wizard: action not allowed in current step")
	ErrPreconditionViolated = errors.New("wizard: step data missing")
	ErrBusy                 = errors.New("wizard: a request is in progress")
)

// Backend is the subset of REST calls the wizard drives.
type Backend interface {
	FindCustomerByEmail(ctx context.Context, email string) (*backend.Customer, error)
	CreatePublicTicket(ctx context.Context, req backend.CreateTicketRequest) (*backend.PublicTicket, error)
	IssueBoleto(ctx context.Context, email string) (*backend.Boleto, error)
}

// State is the renderable wizard state. Each step carries the data the
// previous steps produced.
type State struct {
	Step     Step                  `json:"step"`
	Mode     Mode                  `json:"mode,omitempty"`
	Email    string                `json:"email,omitempty"`
	Customer *backend.Customer     `json:"customer,omitempty"`
	Ticket   *backend.PublicTicket `json:"ticket,omitempty"`
	Boleto   *backend.Boleto       `json:"boleto,omitempty"`
	Error    string                `json:"error,omitempty"`
	Busy     bool                  `json:"busy"`
}

type Outcome string

const (
	OutcomeResolved  Outcome = "resolved"
	OutcomeEscalated Outcome = "escalated"
)

// TicketOutcome summarises a ticket result for display.
func (s State) TicketOutcome() (Outcome, bool) {
	if s.Ticket == nil {
		return "", false
	}
	if s.Ticket.ResolvidoAutomaticamente {
		return OutcomeResolved, false
	}
	return OutcomeEscalated, s.Ticket.EncaminhadoParaHumano
}

// Terminal reports whether the step offers only a reset.
func (s State) Terminal() bool {
	return s.Step == StepTicketResult || s.Step == StepBoletoResult || s.Step == StepNonClient
}

// Validate checks the step's data precondition.
func (s State) Validate() error {
	switch s.Step {
	case StepModeSelect:
		return nil
	case StepEmailInput:
		if s.Mode == "" {
			return ErrPreconditionViolated
		}
	case StepIdentified, StepTicketCompose:
		if s.Customer == nil {
			return ErrPreconditionViolated
		}
	case StepNonClient:
		if s.Email == "" {
			return ErrPreconditionViolated
		}
	case StepTicketResult:
		if s.Customer == nil || s.Ticket == nil {
			return ErrPreconditionViolated
		}
	case StepBoletoResult:
		if s.Boleto == nil {
			return ErrPreconditionViolated
		}
	default:
		return ErrPreconditionViolated
	}
	return nil
}

type emailInput struct {
	Email string `validate:"required,email"`
}

type Wizard struct {
	mu       sync.Mutex
	backend  Backend
	validate *validator.Validate
	state    State
	// gen changes on every transition so a request that settles after the
	// user moved on is recognised as stale.
	gen uint64
}

func New(b Backend, validate *validator.Validate) *Wizard {
	if validate == nil {
		validate = validator.New()
	}
	return &Wizard{
		backend:  b,
		validate: validate,
		state:    State{Step: StepModeSelect},
	}
}

// View returns the current state, refusing to expose a step whose data is
// missing.
func (w *Wizard) View() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.state.Validate(); err != nil {
		return State{}, err
	}
	return w.state, nil
}

func (w *Wizard) set(s State) State {
	w.state = s
	w.gen++
	return s
}

func (w *Wizard) ChooseMode(mode Mode) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Busy {
		return w.state, ErrBusy
	}
	if w.state.Step != StepModeSelect || (mode != ModeSupport && mode != ModeInvoice) {
		return w.state, ErrInvalidTransition
	}
	return w.set(State{Step: StepEmailInput, Mode: mode}), nil
}

// SubmitEmail identifies the customer (support) or issues a boleto
// (invoice). Any failure keeps the wizard on email-input with an inline
// error; an unknown customer in support mode is the non-client step.
func (w *Wizard) SubmitEmail(ctx context.Context, email string) (State, error) {
	email = strings.TrimSpace(email)

	w.mu.Lock()
	if w.state.Busy {
		s := w.state
		w.mu.Unlock()
		return s, ErrBusy
	}
	if w.state.Step != StepEmailInput {
		s := w.state
		w.mu.Unlock()
		return s, ErrInvalidTransition
	}
	if err := w.validate.Struct(emailInput{Email: email}); err != nil {
		w.state.Error = MsgInvalidEmail
		s := w.state
		w.mu.Unlock()
		return s, nil
	}
	mode := w.state.Mode
	w.state.Busy = true
	w.state.Error = ""
	gen := w.gen
	w.mu.Unlock()

	var (
		customer *backend.Customer
		boleto   *backend.Boleto
		err      error
	)
	if mode == ModeInvoice {
		boleto, err = w.backend.IssueBoleto(ctx, email)
	} else {
		customer, err = w.backend.FindCustomerByEmail(ctx, email)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return w.state, nil
	}
	w.state.Busy = false

	switch {
	case mode == ModeInvoice && err == nil:
		w.set(State{Step: StepBoletoResult, Mode: mode, Email: email, Boleto: boleto})
	case mode == ModeInvoice && backend.IsNotFound(err):
		w.state.Error = backend.DetailOf(err, MsgBoletoNotFound)
	case mode == ModeSupport && err == nil:
		w.set(State{Step: StepIdentified, Mode: mode, Email: email, Customer: customer})
	case mode == ModeSupport && backend.IsNotFound(err):
		w.set(State{Step: StepNonClient, Mode: mode, Email: email})
	default:
		w.state.Error = MsgTransient
		return w.state, err
	}
	return w.state, nil
}

func (w *Wizard) StartTicket() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Busy {
		return w.state, ErrBusy
	}
	if w.state.Step != StepIdentified || w.state.Customer == nil {
		return w.state, ErrInvalidTransition
	}
	next := w.state
	next.Step = StepTicketCompose
	next.Error = ""
	return w.set(next), nil
}

func (w *Wizard) SubmitTicket(ctx context.Context, message string) (State, error) {
	message = strings.TrimSpace(message)

	w.mu.Lock()
	if w.state.Busy {
		s := w.state
		w.mu.Unlock()
		return s, ErrBusy
	}
	if w.state.Step != StepTicketCompose || w.state.Customer == nil {
		s := w.state
		w.mu.Unlock()
		return s, ErrInvalidTransition
	}
	if message == "" {
		w.state.Error = MsgEmptyTicket
		s := w.state
		w.mu.Unlock()
		return s, nil
	}
	customerID := w.state.Customer.ID
	w.state.Busy = true
	w.state.Error = ""
	gen := w.gen
	w.mu.Unlock()

	ticket, err := w.backend.CreatePublicTicket(ctx, backend.CreateTicketRequest{
		ClienteID: customerID,
		Canal:     ticketChannel,
		Mensagem:  message,
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return w.state, nil
	}
	w.state.Busy = false
	if err != nil {
		w.state.Error = MsgTransient
		if !errors.Is(err, backend.ErrUnavailable) {
			w.state.Error = backend.DetailOf(err, MsgTransient)
		}
		return w.state, err
	}
	next := w.state
	next.Step = StepTicketResult
	next.Ticket = ticket
	return w.set(next), nil
}

// Back moves one step towards mode-select and discards what the step being
// left collected.
func (w *Wizard) Back() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Busy {
		return w.state, ErrBusy
	}

	s := w.state
	switch s.Step {
	case StepEmailInput:
		return w.set(State{Step: StepModeSelect}), nil
	case StepIdentified, StepNonClient, StepBoletoResult:
		return w.set(State{Step: StepEmailInput, Mode: s.Mode}), nil
	case StepTicketCompose:
		return w.set(State{Step: StepIdentified, Mode: s.Mode, Email: s.Email, Customer: s.Customer}), nil
	}
	return w.state, ErrInvalidTransition
}

// Reset returns to mode-select from anywhere, clearing all collected data.
// An in-flight answer arriving afterwards is ignored.
func (w *Wizard) Reset() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.set(State{Step: StepModeSelect})
}
