package issuance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"

	"github.com/rshade/carbonledger/internal/logging"
)

// DefaultSubject is the NATS subject issue requests are sent on.
const DefaultSubject = "carbonledger.tokens.issue"

// HeaderRequestID carries a per-request identifier on outgoing messages.
const HeaderRequestID = "Carbonledger-Request-Id"

// DefaultRequestTimeout bounds a request whose context has no deadline.
const DefaultRequestTimeout = 10 * time.Second

// Requester is the part of *nats.Conn that NATSIssuer uses.
type Requester interface {
	RequestMsgWithContext(ctx context.Context, msg *nats.Msg) (*nats.Msg, error)
}

// replyEnvelope is the responder's answer; Error is set on refusal.
type replyEnvelope struct {
	IssueResponse
	Error string `json:"error,omitempty"`
}

// NATSIssuer sends issue requests over NATS request/reply.
type NATSIssuer struct {
	conn    Requester
	subject string
	timeout time.Duration
	closeFn func()
}

// NATSOption configures a NATSIssuer.
type NATSOption func(*NATSIssuer)

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) NATSOption {
	return func(n *NATSIssuer) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// NewNATSIssuer creates an issuer over an existing connection.
// An empty subject means DefaultSubject.
func NewNATSIssuer(conn Requester, subject string, opts ...NATSOption) *NATSIssuer {
	if subject == "" {
		subject = DefaultSubject
	}
	n := &NATSIssuer{conn: conn, subject: subject, timeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// DialNATS connects to url and returns an issuer owning the connection.
func DialNATS(url, subject string, timeout time.Duration, opts ...nats.Option) (*NATSIssuer, error) {
	nc, err := nats.Connect(url, append([]nats.Option{nats.Name("carbonledger")}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to NATS at %s: %v", ErrIssuerUnavailable, url, err)
	}
	issuer := NewNATSIssuer(nc, subject, WithRequestTimeout(timeout))
	issuer.closeFn = nc.Close
	return issuer, nil
}

// Close closes a connection opened by DialNATS.
func (n *NATSIssuer) Close() {
	if n.closeFn != nil {
		n.closeFn()
	}
}

// Issue implements TokenIssuer.
func (n *NATSIssuer) Issue(ctx context.Context, req IssueRequest) (*IssueResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding issue request: %w", err)
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = data
	requestID := ulid.Make().String()
	msg.Header.Set(HeaderRequestID, requestID)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	log := logging.FromContext(ctx)
	reply, err := n.conn.RequestMsgWithContext(ctx, msg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		log.Warn().
			Ctx(ctx).
			Str("component", "issuance").
			Str("operation", "nats_request").
			Str("subject", n.subject).
			Str("request_id", requestID).
			Err(err).
			Msg("issue request failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrIssuerUnavailable, n.subject, err)
	}

	var env replyEnvelope
	if err := json.Unmarshal(reply.Data, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding reply: %w", ErrIssuerUnavailable, err)
	}
	if env.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrIssuerUnavailable, env.Error)
	}
	if env.TokenID == "" {
		return nil, fmt.Errorf("%w: reply has no token id", ErrIssuerUnavailable)
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "issuance").
		Str("operation", "nats_request").
		Str("request_id", requestID).
		Str("token_id", env.TokenID).
		Msg("tokens issued")
	resp := env.IssueResponse
	return &resp, nil
}
