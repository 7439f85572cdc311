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

import "fmt"

// ValidateQuestion validates a QuestionRecord according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - RawText must not be empty
//
// NOT validated (populated by enrichment):
//   - NormalizedText
//   - Embedding
func ValidateQuestion(record *QuestionRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidQuestion)
	}

	if record.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuestion, ErrEmptyID)
	}

	if record.RawText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuestion, ErrEmptyQuestionText)
	}

	return nil
}
