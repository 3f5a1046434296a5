package issuance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rshade/carbonledger/internal/logging"
)

// RequestStatus is the lifecycle state of a queued request.
type RequestStatus string

// Queued request statuses.
const (
	StatusPending RequestStatus = "PENDING"
)

// QueuedRequest is an emissions request awaiting approval.
type QueuedRequest struct {
	EmissionsRequest
	IssueRequest

	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// QueueIssuer records requests in memory and answers with a queued token.
type QueueIssuer struct {
	nodeID string
	now    func() time.Time

	mu       sync.Mutex
	requests []QueuedRequest
}

// NewQueueIssuer creates a QueueIssuer that stamps requests with nodeID.
func NewQueueIssuer(nodeID string) *QueueIssuer {
	return &QueueIssuer{nodeID: nodeID, now: time.Now}
}

// Issue implements TokenIssuer.
func (q *QueueIssuer) Issue(ctx context.Context, req IssueRequest) (*IssueResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	er := EmissionsRequest{UUID: uuid.NewString(), NodeID: q.nodeID}

	q.mu.Lock()
	q.requests = append(q.requests, QueuedRequest{
		EmissionsRequest: er,
		IssueRequest:     req,
		Status:           StatusPending,
		CreatedAt:        q.now().UTC(),
	})
	q.mu.Unlock()

	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "issuance").
		Str("operation", "queue").
		Str("request_uuid", er.UUID).
		Str("activity_type", req.ActivityType).
		Int64("quantity", req.Quantity).
		Msg("emissions request queued")

	return &IssueResponse{TokenID: QueuedTokenID, Request: er}, nil
}

// Pending returns a copy of the queued requests in arrival order.
func (q *QueueIssuer) Pending() []QueuedRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueuedRequest, len(q.requests))
	copy(out, q.requests)
	return out
}
