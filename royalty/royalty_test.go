package royalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   Table
		wantErr error
	}{
		{"nil", nil, nil},
		{"single", Table{"bob.near": 2000}, nil},
		{"full", Table{"a.near": 5000, "b.near": 5000}, nil},
		{"six", Table{"a1": 1, "a2": 1, "a3": 1, "a4": 1, "a5": 1, "a6": 1}, nil},
		{"zero share", Table{"bob.near": 0}, nil},
		{"seven", Table{"a1": 1, "a2": 1, "a3": 1, "a4": 1, "a5": 1, "a6": 1, "a7": 1}, ErrTooManyBeneficiaries},
		{"share above whole", Table{"bob.near": 10_001}, ErrInvalidShare},
		{"total above whole", Table{"a.near": 6000, "b.near": 4001}, ErrInvalidShare},
		{"bad account", Table{"Bob": 100}, ErrInvalidShare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBeneficiariesSorted(t *testing.T) {
	table := Table{"carol.near": 1, "alice.near": 2, "bob.near": 3}
	got := table.Beneficiaries()
	require.Len(t, got, 3)
	assert.EqualValues(t, "alice.near", got[0])
	assert.EqualValues(t, "bob.near", got[1])
	assert.EqualValues(t, "carol.near", got[2])
	assert.Equal(t, uint32(6), table.Total())
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Table{"bob.near": 2000}
	cp := orig.Clone()
	cp["bob.near"] = 1
	assert.Equal(t, uint32(2000), orig["bob.near"])

	var empty Table
	assert.Nil(t, empty.Clone())
}
