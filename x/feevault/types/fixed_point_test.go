package types

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func rate(num, den int64) math.Int {
	return BRateScalar.MulRaw(num).QuoRaw(den)
}

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name      string
		x, y, z   int64
		wantFloor int64
		wantCeil  int64
	}{
		{"exact", 6, 2, 3, 4, 4},
		{"remainder", 7, 3, 2, 10, 11},
		{"zero numerator", 0, 5, 3, 0, 0},
		{"below one", 1, 1, 3, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z := math.NewInt(tt.x), math.NewInt(tt.y), math.NewInt(tt.z)
			require.Equal(t, tt.wantFloor, MulDivFloor(x, y, z).Int64())
			require.Equal(t, tt.wantCeil, MulDivCeil(x, y, z).Int64())
		})
	}
}

func TestBRateConversions(t *testing.T) {
	r := rate(11, 10)

	require.Equal(t, int64(909), UnderlyingToBTokensDown(math.NewInt(1000), r).Int64())
	require.Equal(t, int64(910), UnderlyingToBTokensUp(math.NewInt(1000), r).Int64())
	require.Equal(t, int64(999), BTokensToUnderlyingDown(math.NewInt(909), r).Int64())

	// at 1.0 conversions are exact in both directions
	one := BRateScalar
	require.Equal(t, int64(1234), UnderlyingToBTokensUp(math.NewInt(1234), one).Int64())
	require.Equal(t, int64(1234), BTokensToUnderlyingDown(math.NewInt(1234), one).Int64())
}

func TestValidateTakeRate(t *testing.T) {
	require.NoError(t, ValidateTakeRate(math.ZeroInt()))
	require.NoError(t, ValidateTakeRate(TakeRateScalar))
	require.ErrorIs(t, ValidateTakeRate(TakeRateScalar.AddRaw(1)), ErrInvalidTakeRate)
	require.ErrorIs(t, ValidateTakeRate(math.NewInt(-1)), ErrInvalidTakeRate)
	require.ErrorIs(t, ValidateTakeRate(math.Int{}), ErrInvalidTakeRate)
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  math.Int
		wantErr bool
	}{
		{"one", math.OneInt(), false},
		{"max", MaxAmount, false},
		{"above max", MaxAmount.AddRaw(1), true},
		{"zero", math.ZeroInt(), true},
		{"negative", math.NewInt(-1), true},
		{"nil", math.Int{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
		})
	}

	require.Equal(t, "170141183460469231731687303715884105727", MaxAmount.String())
}
