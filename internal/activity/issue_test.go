package activity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/activity"
	"github.com/rshade/carbonledger/internal/issuance"
)

type flakyIssuer struct {
	failType string
	inner    *issuance.QueueIssuer
}

func (f *flakyIssuer) Issue(ctx context.Context, req issuance.IssueRequest) (*issuance.IssueResponse, error) {
	if req.ActivityType == f.failType {
		return nil, errors.New("ledger offline")
	}
	return f.inner.Issue(ctx, req)
}

func TestIssueGroups(t *testing.T) {
	grouped := activity.GroupAt(sampleProcessed(), "acme", groupNow)
	q := issuance.NewQueueIssuer("node-1")

	out, err := activity.IssueGroups(context.Background(), grouped, q, activity.IssueOptions{IssuedTo: "auditor"})
	require.NoError(t, err)
	require.Len(t, out, 7)

	for _, o := range out[:6] {
		assert.Equal(t, issuance.QueuedTokenID, o.TokenID, o.ID)
		assert.Equal(t, "node-1", o.NodeID)
		assert.Len(t, o.EmissionsRequestUUID, 36)
		assert.Empty(t, o.Error)
	}
	assert.Equal(t, activity.OutputActivity{ID: "bad", Error: "boom"}, out[6])

	pending := q.Pending()
	require.Len(t, pending, 4)
	first := pending[0]
	assert.Equal(t, activity.TypeElectricity, first.ActivityType)
	assert.Equal(t, "acme", first.IssuedFrom)
	assert.Equal(t, "auditor", first.IssuedTo)
	assert.Equal(t, int64(34780), first.Quantity)
	assert.InDelta(t, 34.78, first.Metadata["Total emissions"], 1e-9)
	assert.Len(t, first.Manifest, 64)
	assert.Equal(t, "air", pending[2].Mode)
}

func TestIssueGroupsFailedGroupContinues(t *testing.T) {
	grouped := activity.GroupAt(sampleProcessed(), "acme", groupNow)
	issuer := &flakyIssuer{failType: activity.TypeElectricity, inner: issuance.NewQueueIssuer("node-1")}

	out, err := activity.IssueGroups(context.Background(), grouped, issuer, activity.IssueOptions{})
	require.NoError(t, err)
	require.Len(t, out, 7)

	for _, o := range out[:3] {
		assert.Equal(t, "cannot issue: ledger offline", o.Error)
		assert.Empty(t, o.TokenID)
	}
	for _, o := range out[3:6] {
		assert.Empty(t, o.Error)
		assert.Equal(t, issuance.QueuedTokenID, o.TokenID)
	}
	assert.Len(t, issuer.inner.Pending(), 2)
}

func TestIssueGroupsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	grouped := activity.GroupAt(sampleProcessed(), "acme", groupNow)
	_, err := activity.IssueGroups(ctx, grouped, issuance.NewQueueIssuer("n"), activity.IssueOptions{})
	require.ErrorIs(t, err, context.Canceled)
}
