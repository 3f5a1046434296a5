// Package issuance hands grouped emissions to a token issuer.
//
// The activity pipeline builds one IssueRequest per group and calls a
// TokenIssuer. QueueIssuer records requests locally for later approval;
// NATSIssuer forwards them to a remote issuing service.
package issuance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// ErrIssuerUnavailable indicates the issuer could not be reached or refused
// the request.
const ErrIssuerUnavailable = constError("token issuer unavailable")

// QueuedTokenID is the token ID returned for requests awaiting approval.
const QueuedTokenID = "queued"

// IssueRequest describes the tokens to issue for one group.
type IssueRequest struct {
	ActivityType     string         `json:"activity_type"`
	Mode             string         `json:"mode,omitempty"`
	IssuedFrom       string         `json:"issued_from"`
	IssuedTo         string         `json:"issued_to,omitempty"`
	FromDate         time.Time      `json:"from_date"`
	ThruDate         time.Time      `json:"thru_date"`
	TotalEmissionsKg float64        `json:"total_emissions_kg"`
	Quantity         int64          `json:"quantity"`
	Metadata         map[string]any `json:"metadata"`
	Manifest         string         `json:"manifest"`
}

// EmissionsRequest identifies the request an issuer created.
type EmissionsRequest struct {
	UUID   string `json:"uuid"`
	NodeID string `json:"node_id"`
}

// IssueResponse is an issuer's answer.
type IssueResponse struct {
	TokenID string           `json:"tokenId"`
	Request EmissionsRequest `json:"request"`
}

// TokenIssuer issues tokens for a group. Implementations do not retry.
type TokenIssuer interface {
	Issue(ctx context.Context, req IssueRequest) (*IssueResponse, error)
}

// Manifest returns the hex SHA-256 of v's JSON encoding.
func Manifest(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding manifest content: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
