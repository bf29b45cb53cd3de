package pagination_test

import (
	"testing"
	"time"

	"github.com/finbeat/marketdata/internal/utils/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateBasedToken_RoundTrip(t *testing.T) {
	date := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	token := pagination.EncodeDateBasedToken(date)
	require.NotEmpty(t, token)

	decoded, err := pagination.DecodeDateBasedToken(token)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(date))
}

func TestDecodeDateBasedToken_RejectsGarbage(t *testing.T) {
	_, err := pagination.DecodeDateBasedToken("not base64!!!")
	assert.Error(t, err)
}

func TestDecodeDateBasedToken_RejectsNonDatePayload(t *testing.T) {
	_, err := pagination.DecodeDateBasedToken("aGVsbG8=") // "hello"
	assert.Error(t, err)
}
