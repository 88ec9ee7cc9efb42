package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionDate(t *testing.T) {
	got := ParseTransactionDate("20240115103045")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC), *got)
	assert.Equal(t, "2024-01-15 10:30:45", got.Format("2006-01-02 15:04:05"))
}

func TestParseTransactionDateMalformed(t *testing.T) {
	cases := []string{"", "2024", "20240115", "2024011510304", "202401151030455", "2024011510304x"}
	for _, in := range cases {
		assert.Nil(t, ParseTransactionDate(in), "input %q", in)
	}
}
