// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package truncate

import "sync"

// defaultCharactersPerToken is the initial ratio before calibration.
// BPE tokenizers average 3.5 to 4.5 characters per token on English
// prose mixed with code.
const defaultCharactersPerToken = 4.0

// defaultSmoothingFactor is the weight of each new observation in the
// moving average.
const defaultSmoothingFactor = 0.3

// CharEstimator estimates the token count of summary text from its
// length when the summarizer does not report one. Each reported count
// refines the characters-per-token ratio through an exponential moving
// average, so estimates converge on the summarizer model's tokenizer.
//
// CharEstimator is safe for concurrent use.
type CharEstimator struct {
	mutex              sync.Mutex
	charactersPerToken float64
	smoothingFactor    float64
	observationCount   int
}

// NewCharEstimator creates a CharEstimator with a ratio of 4.0
// characters per token and a smoothing factor of 0.3.
func NewCharEstimator() *CharEstimator {
	return &CharEstimator{
		charactersPerToken: defaultCharactersPerToken,
		smoothingFactor:    defaultSmoothingFactor,
	}
}

// EstimateTokens returns the estimated token count of text, rounded
// up. Empty text costs zero.
func (estimator *CharEstimator) EstimateTokens(text string) int64 {
	if len(text) == 0 {
		return 0
	}
	estimator.mutex.Lock()
	ratio := estimator.charactersPerToken
	estimator.mutex.Unlock()
	return int64(float64(len(text))/ratio) + 1
}

// RecordUsage calibrates the ratio from text whose true token count is
// known. The first observation replaces the default outright; later
// ones are blended in.
func (estimator *CharEstimator) RecordUsage(text string, actualTokens int64) {
	if actualTokens <= 0 || len(text) == 0 {
		return
	}
	observedRatio := float64(len(text)) / float64(actualTokens)

	estimator.mutex.Lock()
	defer estimator.mutex.Unlock()

	estimator.observationCount++
	if estimator.observationCount == 1 {
		estimator.charactersPerToken = observedRatio
		return
	}
	estimator.charactersPerToken = estimator.smoothingFactor*observedRatio +
		(1.0-estimator.smoothingFactor)*estimator.charactersPerToken
}

// Ratio returns the current characters-per-token ratio.
func (estimator *CharEstimator) Ratio() float64 {
	estimator.mutex.Lock()
	defer estimator.mutex.Unlock()
	return estimator.charactersPerToken
}
