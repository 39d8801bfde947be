// Package extract turns broker memo and dividend warrant text into
// draft records. Drafts are unvalidated; the store applies the same
// checks as manual entry when a draft is recorded, and an extraction
// failure produces no draft at all.
package extract

import (
	"context"

	"wealthwise/internal/models"
)

// Extractor converts document text into draft records.
type Extractor interface {
	ExtractTrade(ctx context.Context, text string) (*models.DraftTrade, error)
	ExtractDividend(ctx context.Context, text string) (*models.DraftDividend, error)
}
