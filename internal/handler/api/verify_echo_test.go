package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	xhttp "FraudShield/pkg/http"
	xlogger "FraudShield/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *VerifyEchoHandler {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "info", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return NewVerifyEchoHandler(l, nil, nil)
}

func post(t *testing.T, h func(echo.Context) error, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestRefreshEndpointsWithoutQueue(t *testing.T) {
	// Redis disabled means no job queue; the endpoints must answer, not panic.
	h := newTestHandler(t)

	for _, tc := range []struct {
		name string
		fn   func(echo.Context) error
		path string
	}{
		{"registry", h.RefreshRegistry, "/api/refresh/registry"},
		{"market", h.RefreshMarket, "/api/refresh/market"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, tc.fn, tc.path)

			var body xhttp.APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, 503, body.Status)
		})
	}
}

func TestPreviewContentShortPassesThrough(t *testing.T) {
	assert.Equal(t, "routine update", previewContent("routine update"))
	assert.Equal(t, strings.Repeat("a", historyContentMax), previewContent(strings.Repeat("a", historyContentMax)))
}

func TestPreviewContentTruncatesWithMarker(t *testing.T) {
	long := strings.Repeat("a", historyContentMax+50)
	got := previewContent(long)

	assert.Equal(t, strings.Repeat("a", historyContentMax)+"...", got)
}

func TestPreviewContentKeepsRunesWhole(t *testing.T) {
	// Byte slicing would cut the last rupee sign in half.
	long := strings.Repeat("₹", historyContentMax+10)
	got := previewContent(long)

	assert.Equal(t, strings.Repeat("₹", historyContentMax)+"...", got)
	assert.True(t, utf8.ValidString(got))
}
