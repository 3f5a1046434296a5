package activity

import (
	"context"
	"fmt"

	"github.com/rshade/carbonledger/internal/issuance"
	"github.com/rshade/carbonledger/internal/logging"
	"github.com/rshade/carbonledger/internal/metrics"
)

// IssueOptions configures IssueGroups.
type IssueOptions struct {
	IssuedTo string

	// IssuerName labels issuance metrics.
	IssuerName string
	Metrics    *metrics.Recorder
}

// OutputActivity is the per-activity outcome of an issuance run.
type OutputActivity struct {
	ID                   string `json:"id" yaml:"id"`
	TokenID              string `json:"tokenId,omitempty" yaml:"tokenId,omitempty"`
	NodeID               string `json:"nodeId,omitempty" yaml:"nodeId,omitempty"`
	EmissionsRequestUUID string `json:"emissionsRequestUuid,omitempty" yaml:"emissionsRequestUuid,omitempty"`
	Error                string `json:"error,omitempty" yaml:"error,omitempty"`
}

// IssueGroups issues one token per group in Groups order and reports each
// member activity's token. Activities in Errors are appended with their
// error. A failed issuance marks its group's members and the run
// continues; only cancellation of ctx stops it.
func IssueGroups(
	ctx context.Context, grouped GroupedResults, issuer issuance.TokenIssuer, opts IssueOptions,
) ([]OutputActivity, error) {
	log := logging.FromContext(ctx)
	var out []OutputActivity

	for _, kg := range grouped.Groups() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := issueGroup(ctx, kg, issuer, opts)
		opts.Metrics.ObserveIssuance(opts.IssuerName, err)

		for _, pa := range kg.Result.Content {
			o := OutputActivity{ID: pa.Activity.ID}
			if err != nil {
				o.Error = fmt.Sprintf("cannot issue: %v", err)
			} else {
				o.TokenID = resp.TokenID
				o.NodeID = resp.Request.NodeID
				o.EmissionsRequestUUID = resp.Request.UUID
			}
			out = append(out, o)
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().
				Ctx(ctx).
				Str("component", "activity").
				Str("operation", "issue").
				Str("type", kg.Key.Type).
				Str("mode", string(kg.Key.Mode)).
				Str("issued_from", kg.Key.IssuedFrom).
				Err(err).
				Msg("group not issued")
		}
	}

	for _, pa := range grouped.Errors {
		out = append(out, OutputActivity{ID: pa.Activity.ID, Error: pa.Error})
	}
	return out, nil
}

func issueGroup(
	ctx context.Context, kg KeyedGroup, issuer issuance.TokenIssuer, opts IssueOptions,
) (*issuance.IssueResponse, error) {
	manifest, err := issuance.Manifest(kg.Result)
	if err != nil {
		return nil, err
	}
	total := kg.Result.TotalEmissions.Value
	resp, err := issuer.Issue(ctx, issuance.IssueRequest{
		ActivityType:     kg.Key.Type,
		Mode:             string(kg.Key.Mode),
		IssuedFrom:       kg.Key.IssuedFrom,
		IssuedTo:         opts.IssuedTo,
		FromDate:         kg.Result.FromDate,
		ThruDate:         kg.Result.ThruDate,
		TotalEmissionsKg: total,
		Quantity:         TokensForKg(total),
		Metadata:         MakeMetadata(total, kg.Key.Type, kg.Key.Mode).Map(),
		Manifest:         manifest,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", issuance.ErrIssuerUnavailable)
	}
	return resp, nil
}
