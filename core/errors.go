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

import "errors"

// Domain validation errors
var (
	// ErrInvalidQuestion indicates a QuestionRecord failed validation.
	ErrInvalidQuestion = errors.New("invalid question record")

	// ErrEmptyID indicates the Id field is empty.
	ErrEmptyID = errors.New("question id cannot be empty")

	// ErrEmptyQuestionText indicates the RawText field is empty.
	ErrEmptyQuestionText = errors.New("question text cannot be empty")

	// ErrMalformedEmbedding indicates a stored embedding value could not be parsed.
	ErrMalformedEmbedding = errors.New("malformed stored embedding")
)
