package confidence_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/permitmap/pkg/confidence"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/permits"
)

func ok(city string, trust float64, items int) permits.SourceResult {
	return permits.SourceResult{
		City:       city,
		Outcome:    permits.OutcomeSuccess,
		TrustScore: trust,
		RawCount:   items,
		Items:      make([]permits.Record, items),
	}
}

func failed(city string, trust float64, kind string) permits.SourceResult {
	return permits.SourceResult{City: city, Outcome: permits.OutcomeFailed, TrustScore: trust, ErrorKind: kind, Error: kind}
}

func TestScoreSingleSource(t *testing.T) {
	assert.Equal(t, 0.9, confidence.Score([]permits.SourceResult{ok("a", 0.9, 3)}))
}

func TestScoreWeightsByRecordCount(t *testing.T) {
	results := []permits.SourceResult{ok("a", 1.0, 3), ok("b", 0.5, 1)}
	assert.InDelta(t, (3*1.0+1*0.5)/4, confidence.Score(results), 1e-6)
}

func TestScoreEmptySources(t *testing.T) {
	results := []permits.SourceResult{ok("a", 0.8, 0), ok("b", 0.6, 0)}
	assert.InDelta(t, 0.7, confidence.Score(results), 1e-6)
}

func TestScoreZeroWhenAllFail(t *testing.T) {
	results := []permits.SourceResult{
		failed("a", 0.9, errors.KindNetwork),
		failed("b", 0.8, errors.KindTimeout),
	}
	assert.Equal(t, 0.0, confidence.Score(results))
	assert.Equal(t, 0.0, confidence.Score(nil))
	assert.Contains(t, confidence.Notes(results), confidence.NoDataNote)
}

func TestScoreStrictlyDecreasesAsSourcesFail(t *testing.T) {
	trusts := []float64{0.9, 0.8, 0.7, 0.6}

	prev := 2.0
	for failures := 0; failures <= len(trusts); failures++ {
		var results []permits.SourceResult
		for i, trust := range trusts {
			city := fmt.Sprintf("city-%d", i)
			if i < failures {
				results = append(results, failed(city, trust, errors.KindNetwork))
			} else {
				results = append(results, ok(city, trust, 10))
			}
		}
		score := confidence.Score(results)
		assert.Less(t, score, prev, "failures=%d", failures)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
		prev = score
	}
	assert.Equal(t, 0.0, prev)
}

func TestScoreIgnoresScrapePlaceholders(t *testing.T) {
	results := []permits.SourceResult{ok("a", 0.9, 5), failed("h", 0.5, errors.KindScrapeRequired)}
	assert.Equal(t, 0.9, confidence.Score(results))

	responded, attempted := confidence.Counts(results)
	assert.Equal(t, 1, responded)
	assert.Equal(t, 1, attempted)
}

func TestScoreScenario(t *testing.T) {
	// A returns 3 valid records out of 4; B has a network failure.
	a := permits.SourceResult{
		City:         "a",
		Outcome:      permits.OutcomePartial,
		TrustScore:   0.9,
		RawCount:     4,
		DroppedCount: 1,
		Items:        make([]permits.Record, 3),
	}
	b := failed("b", 0.8, errors.KindNetwork)

	score := confidence.Score([]permits.SourceResult{a, b})
	// 3 of 4 rows survived, smoothed to (3+1)/(4+1).
	assert.InDelta(t, 0.9*0.8*0.5, score, 1e-6)

	notes := confidence.Notes([]permits.SourceResult{a, b})
	assert.Equal(t, []string{
		"1 of 2 sources responded",
		"a: 1 of 4 records dropped by validation",
		"b failed (network)",
	}, notes)
}

func TestScorePositiveWhenEveryRowDropped(t *testing.T) {
	dropped := permits.SourceResult{
		City:         "a",
		Outcome:      permits.OutcomePartial,
		TrustScore:   0.8,
		RawCount:     1,
		DroppedCount: 1,
		Items:        []permits.Record{},
	}
	results := []permits.SourceResult{dropped}

	score := confidence.Score(results)
	assert.Greater(t, score, 0.0, "a responding source must contribute")
	assert.InDelta(t, 0.8*0.5, score, 1e-6)
	assert.NotContains(t, confidence.Notes(results), confidence.NoDataNote)

	withFailure := append(results, failed("b", 0.9, errors.KindNetwork))
	assert.Greater(t, confidence.Score(withFailure), 0.0)
	assert.Less(t, confidence.Score(withFailure), score)
}

func TestAnswer(t *testing.T) {
	agg := permits.AggregateResult{
		Cities:     []permits.SourceResult{ok("a", 0.9, 2), failed("b", 0.8, errors.KindParse)},
		Confidence: 0.45,
		Responded:  1,
		Attempted:  2,
	}
	ans := confidence.Answer(agg)
	assert.True(t, ans.OK)
	assert.Equal(t, 0.45, ans.Confidence)
	assert.Len(t, ans.Provenance, 2)
	assert.Equal(t, 2, ans.Provenance[0].Items)
	assert.Equal(t, permits.OutcomeFailed, ans.Provenance[1].Outcome)
	assert.NotNil(t, ans.Notes)

	none := confidence.Answer(permits.AggregateResult{})
	assert.False(t, none.OK)
}
