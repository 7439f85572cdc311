package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", QuestionMarkPlaceholder(3))
	assert.Equal(t, "$3", DollarPlaceholder(3))

	d := Dialect{Placeholder: DollarPlaceholder}
	assert.Equal(t, "$1, $2, $3", d.placeholders(1, 3))

	d = Dialect{Placeholder: QuestionMarkPlaceholder}
	assert.Equal(t, "?, ?", d.placeholders(5, 2))
}

func TestDoubleQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"interviews"`, DoubleQuoteIdentifier("interviews"))
	assert.Equal(t, `"we""ird"`, DoubleQuoteIdentifier(`we"ird`))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Dialect{Placeholder: DollarPlaceholder, QuoteIdentifier: DoubleQuoteIdentifier})
	assert.ErrorIs(t, err, ErrDBRequired)
}
