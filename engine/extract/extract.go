// Package extract turns free-form user text into partial search criteria
// and schedule details. Fields are set only when the text states them; an
// unextractable message yields empty partials, never an error.
package extract

import (
	"context"

	"github.com/DriveScout/drivescout/engine/domain"
)

// Extractor is the field-extraction service consumed by the conversation
// engine.
type Extractor interface {
	Criteria(ctx context.Context, text string) domain.Criteria
	Schedule(ctx context.Context, text string) domain.Schedule
}

// NewRules returns the regex/alias-table extractor. It needs no external
// service and never fails.
func NewRules() Extractor {
	return rulesExtractor{}
}
