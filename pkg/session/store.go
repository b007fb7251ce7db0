package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"central-ai-web/internal/pkg/logger"
	"central-ai-web/pkg/backend"
	"central-ai-web/pkg/events"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"

	defaultClientName = "Cliente"

	msgLoginFailed  = "Falha no login"
	msgSignupFailed = "Falha no cadastro"
	msgUnavailable  = "Não foi possível conectar ao servidor. Tente novamente em instantes."
	msgUnknownRole  = "Perfil de acesso não suportado."
	logModule       = "Session"
)

var (
	ErrEmptyToken  = errors.New("session: empty token")
	ErrUnknownRole = errors.New("session: unknown role")
)

// KnownRole reports whether role has pages in this app.
func KnownRole(role string) bool {
	return role == RoleAdmin || role == RoleClient
}

// Session is the client's record of being authenticated. A zero Token means
// there is no session.
type Session struct {
	Token       string
	Username    string
	Role        string
	DisplayName string
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

// UserData is what role-specific login flows know about the user when they
// hand a token to SetAuthToken. Empty fields are derived.
type UserData struct {
	Username    string
	Role        string
	DisplayName string
}

// Authenticator is the subset of the backend used for credentials.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*backend.LoginResponse, error)
	LoginClient(ctx context.Context, email, password string) (*backend.LoginResponse, error)
	Signup(ctx context.Context, req backend.SignupRequest) error
}

type Store struct {
	kv          KeyValue
	auth        Authenticator
	publisher   events.Publisher
	logger      logger.ILogger
	defaultRole string
}

// NewStore builds a Store. defaultRole labels sessions whose access token
// carries no role claim; an empty value means "admin", which is what the
// generic login endpoint has always implied.
func NewStore(kv KeyValue, auth Authenticator, publisher events.Publisher, log logger.ILogger, defaultRole string) *Store {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if !KnownRole(defaultRole) {
		if defaultRole != "" {
			log.Warn(logModule, "unsupported default role, using admin", map[string]interface{}{"role": defaultRole})
		}
		defaultRole = RoleAdmin
	}
	return &Store{
		kv:          kv,
		auth:        auth,
		publisher:   publisher,
		logger:      log,
		defaultRole: defaultRole,
	}
}

// FailureMessage turns a Login/Signup error into the text shown to the user:
// the server detail for rejections, a generic text for transport faults.
func FailureMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, backend.ErrUnavailable) {
		return msgUnavailable
	}
	if errors.Is(err, ErrUnknownRole) {
		return msgUnknownRole
	}
	return backend.DetailOf(err, fallback)
}

func LoginFailureMessage(err error) string  { return FailureMessage(err, msgLoginFailed) }
func SignupFailureMessage(err error) string { return FailureMessage(err, msgSignupFailed) }

// Login authenticates against the generic endpoint. On failure the stored
// session is left untouched.
func (s *Store) Login(ctx context.Context, sid, identifier, secret string) (Session, error) {
	res, err := s.auth.Login(ctx, identifier, secret)
	if err != nil {
		s.logFailure("login rejected", sid, err)
		return Session{}, err
	}

	claims := tokenClaims(res.AccessToken)
	role := claimString(claims, "role")
	if role == "" {
		role = s.defaultRole
	}

	sess := Session{
		Token:       res.AccessToken,
		Username:    identifier,
		Role:        role,
		DisplayName: res.UserName,
	}
	if err := s.persist(ctx, sid, sess); err != nil {
		return Session{}, err
	}
	s.publish(ctx, events.AuthLogin, sid, sess)
	return sess, nil
}

// LoginClient authenticates a customer by email and hands the token to
// SetAuthToken with the client role.
func (s *Store) LoginClient(ctx context.Context, sid, email, secret string) (Session, error) {
	res, err := s.auth.LoginClient(ctx, email, secret)
	if err != nil {
		s.logFailure("client login rejected", sid, err)
		return Session{}, err
	}
	return s.SetAuthToken(ctx, sid, res.AccessToken, UserData{
		Username:    email,
		Role:        RoleClient,
		DisplayName: res.UserName,
	})
}

// Signup registers and then logs in with the same credentials. Registration
// alone never creates a session.
func (s *Store) Signup(ctx context.Context, sid, username, email, secret string) (Session, error) {
	err := s.auth.Signup(ctx, backend.SignupRequest{Username: username, Email: email, Password: secret})
	if err != nil {
		s.logFailure("signup rejected", sid, err)
		return Session{}, err
	}
	return s.Login(ctx, sid, username, secret)
}

// SetAuthToken installs a token obtained elsewhere. Username and role come
// from data, then the token claims, then the previously stored values, then
// fixed defaults.
func (s *Store) SetAuthToken(ctx context.Context, sid, token string, data UserData) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, ErrEmptyToken
	}

	prev, err := s.kv.Load(ctx, sid)
	if err != nil {
		s.logger.Warn(logModule, "previous session unreadable, using defaults", map[string]interface{}{"sid": Fingerprint(sid), "error": err.Error()})
		prev = map[string]string{}
	}
	claims := tokenClaims(token)

	sess := Session{
		Token:       token,
		Username:    firstNonEmpty(data.Username, claimString(claims, "sub"), prev[KeyUsername], defaultClientName),
		Role:        firstNonEmpty(data.Role, claimString(claims, "role"), prev[KeyRole], RoleClient),
		DisplayName: firstNonEmpty(data.DisplayName, prev[KeyLegacyUserName]),
	}
	if err := s.persist(ctx, sid, sess); err != nil {
		return Session{}, err
	}
	s.publish(ctx, events.AuthLogin, sid, sess)
	return sess, nil
}

// Logout clears every persisted field. Calling it without a session is fine.
func (s *Store) Logout(ctx context.Context, sid string) error {
	if err := s.kv.Clear(ctx, sid); err != nil {
		s.logger.Error(logModule, "failed to clear session", map[string]interface{}{"sid": Fingerprint(sid), "error": err.Error()})
		return err
	}
	s.publish(ctx, events.AuthLogout, sid, Session{})
	return nil
}

// Rehydrate rebuilds the session from storage. A stored token without a role
// is a legacy or corrupt record: it is wiped and the empty session returned.
func (s *Store) Rehydrate(ctx context.Context, sid string) (Session, error) {
	fields, err := s.kv.Load(ctx, sid)
	if err != nil {
		return Session{}, fmt.Errorf("rehydrate: %w", err)
	}

	token := fields[KeyToken]
	if token == "" {
		return Session{}, nil
	}

	role := fields[KeyRole]
	if !KnownRole(role) {
		s.logger.Warn(logModule, "stored token without a known role, forcing logout", map[string]interface{}{"sid": Fingerprint(sid), "role": role})
		if err := s.kv.Clear(ctx, sid); err != nil {
			return Session{}, fmt.Errorf("rehydrate: %w", err)
		}
		s.publish(ctx, events.AuthSessionInvalidated, sid, Session{})
		return Session{}, nil
	}

	return Session{
		Token:       token,
		Username:    firstNonEmpty(fields[KeyUsername], fields[KeyLegacyUserName]),
		Role:        role,
		DisplayName: fields[KeyLegacyUserName],
	}, nil
}

// Current is the session every consumer reads before acting.
func (s *Store) Current(ctx context.Context, sid string) (Session, error) {
	return s.Rehydrate(ctx, sid)
}

// Invalidate is Logout for sessions the backend rejected (401).
func (s *Store) Invalidate(ctx context.Context, sid string) error {
	if err := s.kv.Clear(ctx, sid); err != nil {
		return err
	}
	s.logger.Info(logModule, "session invalidated by backend", map[string]interface{}{"sid": Fingerprint(sid)})
	s.publish(ctx, events.AuthSessionInvalidated, sid, Session{})
	return nil
}

func (s *Store) persist(ctx context.Context, sid string, sess Session) error {
	fields := map[string]string{
		KeyToken:          sess.Token,
		KeyUsername:       sess.Username,
		KeyRole:           sess.Role,
		KeyLegacyUserName: sess.DisplayName,
	}
	if !KnownRole(sess.Role) {
		s.logger.Warn(logModule, "refusing session with unknown role", map[string]interface{}{"sid": Fingerprint(sid), "role": sess.Role})
		return ErrUnknownRole
	}
	if err := s.kv.Replace(ctx, sid, fields); err != nil {
		s.logger.Error(logModule, "failed to persist session", map[string]interface{}{"sid": Fingerprint(sid), "error": err.Error()})
		return err
	}
	return nil
}

func (s *Store) publish(ctx context.Context, eventType, sid string, sess Session) {
	evt := events.New(eventType, map[string]interface{}{
		"sid":      sid,
		"username": sess.Username,
		"role":     sess.Role,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn(logModule, "failed to publish auth event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}

func (s *Store) logFailure(message, sid string, err error) {
	details := map[string]interface{}{"sid": Fingerprint(sid), "error": err.Error()}
	if errors.Is(err, backend.ErrUnavailable) {
		s.logger.Error(logModule, message, details)
		return
	}
	s.logger.Info(logModule, message, details)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
