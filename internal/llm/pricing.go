package llm

import "strings"

// Pricing is the price in US dollars per 1000 tokens.
type Pricing struct {
	Input  float64
	Output float64
}

// Cost returns the estimated price of a call.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*p.Input + float64(outputTokens)/1000*p.Output
}

type priceTable map[string]Pricing

// lookup finds the price for model. Dated snapshots such as
// "claude-sonnet-4-5-20250929" resolve to the longest table key followed
// by a "-"; a model that only shares leading characters with a key, like
// "gpt-4.1", gets fallback.
func (t priceTable) lookup(model string, fallback Pricing) Pricing {
	if p, ok := t[model]; ok {
		return p
	}

	best := ""
	for name := range t {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return t[best]
	}

	return fallback
}
