package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage/meter"
	"github.com/xraph/mintage/types"
)

func strPtr(s string) *string { return &s }

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("t1"))
	assert.ErrorIs(t, ValidateID(""), ErrInvalidTokenID)

	long := make([]byte, MaxIDLen+1)
	for i := range long {
		long[i] = 'x'
	}
	assert.ErrorIs(t, ValidateID(string(long)), ErrInvalidTokenID)
}

func TestFootprintGrowsWithState(t *testing.T) {
	base := &Token{ID: "t1", OwnerID: "alice.near"}
	bare := base.Footprint()
	assert.Equal(t, 3*meter.RecordOverhead+
		uint64(len("t:t1")+len(`"alice.near"`))+
		uint64(len("a:t1")+len("{}"))+
		uint64(len("o:alice.near:t1")), bare)

	withMeta := &Token{ID: "t1", OwnerID: "alice.near", Metadata: &Metadata{Title: strPtr("One")}}
	assert.Greater(t, withMeta.Footprint(), bare)

	withApproval := &Token{ID: "t1", OwnerID: "alice.near", Approvals: map[types.AccountID]uint64{"market.near": 0}}
	assert.Greater(t, withApproval.Footprint(), bare)
}

func TestCloneApprovals(t *testing.T) {
	tok := &Token{Approvals: map[types.AccountID]uint64{"market.near": 3}}
	cp := tok.CloneApprovals()
	cp["other.near"] = 4
	assert.Len(t, tok.Approvals, 1)

	empty := (&Token{}).CloneApprovals()
	require.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestContractMetadataValidate(t *testing.T) {
	assert.NoError(t, DefaultContractMetadata().Validate())

	missing := DefaultContractMetadata()
	missing.Symbol = ""
	assert.ErrorIs(t, missing.Validate(), ErrInvalidContractMetadata)

	halfRef := DefaultContractMetadata()
	halfRef.Reference = strPtr("https://example.com/meta.json")
	assert.ErrorIs(t, halfRef.Validate(), ErrInvalidContractMetadata)
}
