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

package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/questionbank/core"
)

// storedQuestion is the persisted form of a QuestionRecord.
// The embedding is kept as text so every backend shares one encoding.
type storedQuestion struct {
	Id             string    `json:"id"`
	RawText        string    `json:"question_text"`
	AnswerText     string    `json:"answer_text,omitempty"`
	Company        string    `json:"company,omitempty"`
	Role           string    `json:"role,omitempty"`
	NormalizedText string    `json:"formatted_question,omitempty"`
	Embedding      string    `json:"embedding,omitempty"`
	InsertedAt     time.Time `json:"inserted_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MarshalQuestion serializes a QuestionRecord to bytes.
func MarshalQuestion(record *core.QuestionRecord) ([]byte, error) {
	data, err := json.Marshal(storedQuestion{
		Id:             string(record.Id),
		RawText:        record.RawText,
		AnswerText:     record.AnswerText,
		Company:        record.Company,
		Role:           record.Role,
		NormalizedText: record.NormalizedText,
		Embedding:      core.FormatEmbedding(record.Embedding),
		InsertedAt:     record.InsertedAt,
		UpdatedAt:      record.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalQuestion deserializes a QuestionRecord from bytes.
// A malformed embedding is logged and dropped; the record is still returned.
func UnmarshalQuestion(data []byte, logger *slog.Logger) (*core.QuestionRecord, error) {
	var stored storedQuestion
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	record := &core.QuestionRecord{
		Id:             core.ID(stored.Id),
		RawText:        stored.RawText,
		AnswerText:     stored.AnswerText,
		Company:        stored.Company,
		Role:           stored.Role,
		NormalizedText: stored.NormalizedText,
		InsertedAt:     stored.InsertedAt,
		UpdatedAt:      stored.UpdatedAt,
	}
	record.Embedding = DecodeEmbedding(record.Id, stored.Embedding, logger)
	return record, nil
}

// DecodeEmbedding parses a stored embedding, logging and discarding malformed values.
func DecodeEmbedding(id core.ID, text string, logger *slog.Logger) []float32 {
	embedding, err := core.ParseEmbedding(text)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("ignoring malformed stored embedding", "id", id, "err", err)
		return nil
	}
	return embedding
}
