package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		wantErr bool
	}{
		{
			name:    "valid",
			product: Product{Name: "Latte", Price: decimal.RequireFromString("4.50")},
		},
		{
			name:    "free product is allowed",
			product: Product{Name: "Sample", Price: decimal.Zero},
		},
		{
			name:    "missing name",
			product: Product{Price: decimal.NewFromInt(1)},
			wantErr: true,
		},
		{
			name:    "negative price",
			product: Product{Name: "Latte", Price: decimal.NewFromInt(-1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
