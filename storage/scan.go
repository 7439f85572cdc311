package storage

import (
	"context"
	"fmt"

	"github.com/poiesic/questionbank/core"
)

// ScanAll reads the whole corpus by composing Count and ScanPage.
// pageSize is clamped to [1, MaxPageSize]. Any page failure fails the scan.
func ScanAll(ctx context.Context, repo QuestionRepository, pageSize int) ([]*core.QuestionRecord, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	pages := (total + pageSize - 1) / pageSize
	records := make([]*core.QuestionRecord, 0, total)
	for page := 0; page < pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := repo.ScanPage(ctx, page*pageSize, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page %d of %d: %w", page+1, pages, err)
		}
		records = append(records, batch...)
	}
	return records, nil
}

// PrepareForInsert assigns a content-derived id when missing and validates the record.
func PrepareForInsert(record *core.QuestionRecord) error {
	if record == nil {
		return core.ValidateQuestion(record)
	}
	if record.Id == "" && record.RawText != "" {
		record.Id = core.IDFromContent(record.RawText)
	}
	return core.ValidateQuestion(record)
}

// KeepStoredEnrichment copies enrichment from stored into incoming when an
// insert would otherwise blank it. It applies only when the raw text is
// unchanged: an empty NormalizedText keeps the stored one and a nil Embedding
// keeps the stored vector. InsertedAt is carried over from stored.
func KeepStoredEnrichment(incoming, stored *core.QuestionRecord) {
	if stored == nil {
		return
	}
	if !stored.InsertedAt.IsZero() {
		incoming.InsertedAt = stored.InsertedAt
	}
	if incoming.RawText != stored.RawText {
		return
	}
	if incoming.NormalizedText == "" {
		incoming.NormalizedText = stored.NormalizedText
	}
	if incoming.Embedding == nil {
		incoming.Embedding = stored.Embedding
	}
}
