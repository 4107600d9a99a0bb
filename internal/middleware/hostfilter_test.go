package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func getWithHost(handler http.Handler, host string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = host
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHostFilter_EmptyAllowsAll(t *testing.T) {
	handler := NewHostFilter(nil)(okHandler())
	assert.Equal(t, http.StatusOK, getWithHost(handler, "anything.example.com").Code)
}

func TestHostFilter_AllowsListedHost(t *testing.T) {
	handler := NewHostFilter([]string{"gittodoc.com", "www.gittodoc.com"})(okHandler())

	assert.Equal(t, http.StatusOK, getWithHost(handler, "gittodoc.com").Code)
	assert.Equal(t, http.StatusOK, getWithHost(handler, "GITTODOC.COM").Code)
	assert.Equal(t, http.StatusOK, getWithHost(handler, "gittodoc.com:8000").Code)
}

func TestHostFilter_RejectsUnlistedHost(t *testing.T) {
	handler := NewHostFilter([]string{"gittodoc.com"})(okHandler())
	assert.Equal(t, http.StatusBadRequest, getWithHost(handler, "evil.example.com").Code)
}
