package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestFail_EnvelopeAndAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	c.Writer.Header().Set("X-Request-ID", "rid-123")

	fail(c, http.StatusNotFound, ErrCodeNotFound, "resource not found")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if !c.IsAborted() {
		t.Fatalf("context not aborted")
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-123" || resp.Code != ErrCodeNotFound || resp.Message != "resource not found" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestFail_ServerErrorStillWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	Fail(c, http.StatusInternalServerError, ErrCodeInternal, "boom")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeInternal {
		t.Fatalf("code = %q", resp.Code)
	}
	if resp.RequestID != "" {
		t.Fatalf("request id should be empty without header, got %q", resp.RequestID)
	}
}

func TestOkAndNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ok(c, http.StatusOK, gin.H{"hello": "world"})
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("ok -> %d (%d bytes)", w.Code, w.Body.Len())
	}

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	noContent(c2)
	c2.Writer.WriteHeaderNow()
	if w2.Code != http.StatusNoContent {
		t.Fatalf("noContent -> %d", w2.Code)
	}
}

func Test_userID_and_clampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Context value wins over header.
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	c.Request.Header.Set("X-User-ID", "from-header")
	c.Set("userID", "from-ctx")
	if got := userID(c); got != "from-ctx" {
		t.Fatalf("userID = %q", got)
	}

	// Header fallback.
	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	c2.Request.Header.Set("X-User-ID", "  u42  ")
	if got := userID(c2); got != "u42" {
		t.Fatalf("userID = %q", got)
	}

	// Neither present.
	c3, _ := gin.CreateTestContext(httptest.NewRecorder())
	c3.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := userID(c3); got != "" {
		t.Fatalf("userID = %q, want empty", got)
	}

	cases := map[string]struct {
		query          string
		wantPage, want int
	}{
		"defaults":     {"", 1, 20},
		"explicit":     {"page=3&page_size=50", 3, 50},
		"zero page":    {"page=0", 1, 20},
		"negative":     {"page=-2&page_size=-5", 1, 1},
		"over max":     {"page_size=999", 1, 100},
		"garbage":      {"page=abc&page_size=xyz", 1, 20},
	}
	for name, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/x?"+tc.query, nil)
		page, pageSize := clampPagination(c)
		if page != tc.wantPage || pageSize != tc.want {
			t.Fatalf("%s: got %d/%d, want %d/%d", name, page, pageSize, tc.wantPage, tc.want)
		}
	}
}
