package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceLookup(t *testing.T) {
	fallback := Pricing{Input: 1, Output: 2}

	tests := []struct {
		name  string
		table priceTable
		model string
		want  Pricing
	}{
		{
			name:  "exact match",
			table: openAIPrices,
			model: "gpt-4o",
			want:  Pricing{Input: 0.005, Output: 0.015},
		},
		{
			name:  "longest prefix wins",
			table: openAIPrices,
			model: "gpt-4o-mini-2024-07-18",
			want:  Pricing{Input: 0.00015, Output: 0.0006},
		},
		{
			name:  "dated snapshot",
			table: anthropicPrices,
			model: "claude-sonnet-4-5-20250929",
			want:  Pricing{Input: 0.003, Output: 0.015},
		},
		{
			name:  "newer family does not borrow an older price",
			table: openAIPrices,
			model: "gpt-4.1",
			want:  fallback,
		},
		{
			name:  "preview of another family uses fallback",
			table: openAIPrices,
			model: "gpt-4.5-preview",
			want:  fallback,
		},
		{
			name:  "dated gpt-4 snapshot",
			table: openAIPrices,
			model: "gpt-4-0613",
			want:  Pricing{Input: 0.03, Output: 0.06},
		},
		{
			name:  "unknown model uses fallback",
			table: yandexPrices,
			model: "summarization",
			want:  fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.table.lookup(tt.model, fallback))
		})
	}
}

func TestPricingCost(t *testing.T) {
	p := Pricing{Input: 0.01, Output: 0.03}
	assert.InDelta(t, 0.01*1.5+0.03*0.5, p.Cost(1500, 500), 1e-12)
	assert.Zero(t, p.Cost(0, 0))
}
