package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt64ToInt32(t *testing.T) {
	t.Run("valid zero", func(t *testing.T) {
		got, err := Int64ToInt32(0)
		assert.NoError(t, err)
		assert.Equal(t, int32(0), got)
	})

	t.Run("valid negative", func(t *testing.T) {
		got, err := Int64ToInt32(-5)
		assert.NoError(t, err)
		assert.Equal(t, int32(-5), got)
	})

	t.Run("valid max int32", func(t *testing.T) {
		got, err := Int64ToInt32(math.MaxInt32)
		assert.NoError(t, err)
		assert.Equal(t, int32(math.MaxInt32), got)
	})

	t.Run("invalid too large", func(t *testing.T) {
		_, err := Int64ToInt32(math.MaxInt32 + 1)
		assert.Error(t, err)
	})

	t.Run("invalid too small", func(t *testing.T) {
		_, err := Int64ToInt32(math.MinInt32 - 1)
		assert.Error(t, err)
	})
}

func TestUint64ToInt32(t *testing.T) {
	got, err := Uint64ToInt32(123)
	assert.NoError(t, err)
	assert.Equal(t, int32(123), got)

	_, err = Uint64ToInt32(math.MaxInt32 + 1)
	assert.Error(t, err)
}

func TestFloat64ToInt32(t *testing.T) {
	tests := []struct {
		name    string
		in      float64
		want    int32
		wantErr bool
	}{
		{"integral", 4, 4, false},
		{"truncates positive", 4.9, 4, false},
		{"truncates negative", -4.9, -4, false},
		{"nan", math.NaN(), 0, true},
		{"inf", math.Inf(1), 0, true},
		{"too large", 1e12, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Float64ToInt32(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
