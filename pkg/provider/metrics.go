package provider

import (
	"time"

	"github.com/rhuss/askgate/pkg/observability"
)

// Observe records the outcome of one backend call.
func Observe(providerName, model string, start time.Time, resp *Response, err error) {
	observability.ProviderRequestsTotal.WithLabelValues(providerName, model, observability.StatusLabel(err)).Inc()
	observability.ProviderLatency.WithLabelValues(providerName, model).Observe(time.Since(start).Seconds())
	if resp != nil {
		observability.ProviderTokensTotal.WithLabelValues(providerName, model, "input").Add(float64(resp.Usage.InputTokens))
		observability.ProviderTokensTotal.WithLabelValues(providerName, model, "output").Add(float64(resp.Usage.OutputTokens))
	}
}
