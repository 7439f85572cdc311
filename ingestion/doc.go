// Package ingestion moves question records between CSV files and a question store.
//
// The CSV layout uses one header row with the columns
//
//	Question ID, Question Text, Answer Text, Company, Role, Formatted Question, Embedding
//
// Only "Question Text" is required. Header names are matched case-insensitively
// and column order is free. Rows without a Question ID receive an id derived
// from their question text, so re-importing the same file is idempotent.
// The Embedding column holds a JSON numeric array; "[]" marks a record that is
// deliberately excluded from vector ranking.
//
// Importer reads rows and writes them to storage in batches. Exporter writes the
// whole store back out in the same layout.
package ingestion
