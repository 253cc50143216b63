package serv

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	fs := newTestFS()
	s := newTestService(t, fs, func(c *Config) { c.HealthPath = "/health" })

	w := doRequest(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "All's Well", w.Body.String())

	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodHead, "/health", nil).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodPost, "/health", nil).Code)

	require.NoError(t, fs.RemoveAll(testRoot))
	assert.Equal(t, http.StatusInternalServerError, doRequest(s, http.MethodGet, "/health", nil).Code)
}
