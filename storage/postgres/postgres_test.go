package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/storage"
	"github.com/poiesic/questionbank/storage/sqlstore"
)

func TestDialect(t *testing.T) {
	assert.Equal(t, "$2", Dialect.Placeholder(2))
	assert.Equal(t, `"interviews"`, Dialect.QuoteIdentifier("interviews"))
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = Open(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}

// TestOpen_Integration runs against a live server when QUESTIONBANK_TEST_POSTGRES_DSN is set.
func TestOpen_Integration(t *testing.T) {
	dsn := os.Getenv("QUESTIONBANK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("QUESTIONBANK_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	store, err := Open(ctx, dsn, sqlstore.WithTable("interviews_test"))
	require.NoError(t, err)
	defer func() {
		store.DB().ExecContext(ctx, `DROP TABLE IF EXISTS "interviews_test"`)
		store.Close()
	}()

	_, err = store.AddQuestions(ctx, &core.QuestionRecord{Id: "p1", RawText: "What is MVCC?"})
	require.NoError(t, err)

	record, err := store.GetQuestion(ctx, "p1")
	require.NoError(t, err)
	record.Embedding = []float32{1, 2, 3}
	require.NoError(t, store.Update(ctx, record))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
