package market

import (
	"context"
	"fmt"
	"time"

	"claws/internal/audit"
	"claws/internal/logger"
	"claws/internal/types"
)

// FallbackSentiment is the conservative value assumed when the sentiment
// provider cannot be reached. 25 sits in the "Fear" band: stale fear skews
// the engine toward its contrarian entries without ever claiming extreme
// conviction.
const FallbackSentiment = 25

// FallbackSentimentSource tags fallback values instead of a provider name.
const FallbackSentimentSource = "estimated"

// Sentiment is the resolved index plus provenance.
type Sentiment struct {
	Value  int
	Label  string
	Source string
	// Estimated is true when the primary provider failed and the
	// fallback constant was substituted.
	Estimated bool
}

// SentimentResolver queries a single primary source and degrades to the
// static fallback on any failure. Sentiment staleness is less harmful than
// price staleness, so there is no multi-provider chain here.
type SentimentResolver struct {
	source      SentimentSource
	callTimeout time.Duration
}

func NewSentimentResolver(source SentimentSource, callTimeout time.Duration) *SentimentResolver {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &SentimentResolver{source: source, callTimeout: callTimeout}
}

// Resolve never returns an error: the fallback makes sentiment total.
func (r *SentimentResolver) Resolve(ctx context.Context, trail *audit.Log) Sentiment {
	if r.source != nil {
		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		value, err := r.source.FetchSentiment(callCtx)
		cancel()
		if err == nil && value >= 0 && value <= 100 {
			s := Sentiment{
				Value:  value,
				Label:  types.SentimentLabelFor(value),
				Source: r.source.Name(),
			}
			trail.Record(types.AuditSentiment,
				fmt.Sprintf("sentiment %d (%s) from %s", s.Value, s.Label, s.Source), nil)
			return s
		}
		if err == nil {
			err = fmt.Errorf("value %d outside 0-100", value)
		}
		logger.Warnf("sentiment provider %s failed: %v", r.source.Name(), err)
		trail.Record(types.AuditSentiment,
			fmt.Sprintf("%s failed (%v), using fallback %d", r.source.Name(), err, FallbackSentiment), nil)
	} else {
		trail.Record(types.AuditSentiment,
			fmt.Sprintf("no sentiment source configured, using fallback %d", FallbackSentiment), nil)
	}
	return Sentiment{
		Value:     FallbackSentiment,
		Label:     types.SentimentLabelFor(FallbackSentiment),
		Source:    FallbackSentimentSource,
		Estimated: true,
	}
}
