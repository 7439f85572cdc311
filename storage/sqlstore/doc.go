// Package sqlstore implements storage.QuestionRepository over database/sql.
//
// The SQL is shared between backends; a Dialect supplies the driver-specific
// pieces (placeholder syntax and identifier quoting). storage/sqlite and
// storage/postgres open the connection and hand it to New.
//
// Schema:
//
//	id                 TEXT PRIMARY KEY
//	question_text      TEXT NOT NULL
//	answer_text        TEXT
//	company            TEXT
//	role               TEXT
//	formatted_question TEXT
//	embedding          TEXT      -- JSON array, NULL when absent, "[]" for URL questions
//	inserted_at        BIGINT    -- unix microseconds, UTC
//	updated_at         BIGINT
package sqlstore
