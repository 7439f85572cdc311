// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is the opaque identifier of a question record.
// IDs are assigned at ingestion and never reused.
type ID string

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that re-importing identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return ID(hex.EncodeToString(h.Sum(nil)))
}

// MatchType classifies how a search candidate relates to the company and role filters.
type MatchType string

const (
	// MatchTypeExact means both the company and the role filter matched.
	MatchTypeExact MatchType = "exact"
	// MatchTypeCompany means only the company filter matched.
	MatchTypeCompany MatchType = "company"
	// MatchTypeRole means the role filter matched, or, on the vector path, neither did.
	MatchTypeRole MatchType = "role"
)

// QuestionRecord is a single interview question as persisted in the record store.
// NormalizedText and Embedding are populated by the enrichment pipeline.
type QuestionRecord struct {
	Id             ID
	RawText        string    // Original question text, immutable once set
	AnswerText     string    // Optional answer
	Company        string    // Free-text classification label
	Role           string    // Free-text classification label
	NormalizedText string    // Canonical form of RawText (populated by enrichment)
	Embedding      []float32 // nil = not computed, empty = excluded from vector ranking
	InsertedAt     time.Time // When the record was inserted into the store
	UpdatedAt      time.Time // When the record was last updated
}

// IsFullyEnriched reports whether both the normalized text and a non-empty
// embedding are present. Fully enriched records are never resubmitted to the
// language model service.
func (r *QuestionRecord) IsFullyEnriched() bool {
	return r.NormalizedText != "" && len(r.Embedding) > 0
}

// HasEmbedding reports whether the record carries a vector usable for ranking.
func (r *QuestionRecord) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// DisplayQuestion returns the normalized text when present, otherwise the raw text.
func (r *QuestionRecord) DisplayQuestion() string {
	if r.NormalizedText != "" {
		return r.NormalizedText
	}
	return r.RawText
}

// Clone returns a deep copy of the record.
func (r *QuestionRecord) Clone() *QuestionRecord {
	c := *r
	if r.Embedding != nil {
		c.Embedding = make([]float32, len(r.Embedding))
		copy(c.Embedding, r.Embedding)
	}
	return &c
}

// SearchCandidate is a question projected for display and classified against
// the filters of one search request. It is never persisted.
type SearchCandidate struct {
	Id               ID        `json:"id"`
	Question         string    `json:"question"`
	OriginalQuestion string    `json:"originalQuestion"`
	QuestionURL      string    `json:"questionUrl,omitempty"`
	Answer           string    `json:"answer,omitempty"`
	Company          string    `json:"company"`
	Role             string    `json:"role"`
	MatchType        MatchType `json:"matchType"`
	Similarity       *float64  `json:"similarity,omitempty"`
}

// NewSearchCandidate projects a record into its display form.
// QuestionURL is only set when the raw text is an absolute URL.
// MatchType and Similarity are left for the caller to fill in.
func NewSearchCandidate(record *QuestionRecord) *SearchCandidate {
	candidate := &SearchCandidate{
		Id:               record.Id,
		Question:         record.DisplayQuestion(),
		OriginalQuestion: record.RawText,
		Answer:           record.AnswerText,
		Company:          record.Company,
		Role:             record.Role,
	}
	if IsURL(record.RawText) {
		candidate.QuestionURL = record.RawText
	}
	return candidate
}

// ClassifyMatch maps the outcome of the company and role filters to a match tier.
func ClassifyMatch(companyMatch, roleMatch bool) MatchType {
	switch {
	case companyMatch && roleMatch:
		return MatchTypeExact
	case companyMatch:
		return MatchTypeCompany
	default:
		return MatchTypeRole
	}
}
