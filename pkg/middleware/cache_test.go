package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-gonic/gin"
)

func cacheTestRouter(hits *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Stand-in for the JWT middleware, identity comes from a header
	auth := func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id != "" {
			c.Set("userID", id)
		}
		c.Next()
	}

	cached := CachePerUser(persist.NewMemoryStore(time.Minute), time.Second*15)

	router.GET("/search", auth, cached, func(c *gin.Context) {
		*hits++
		c.String(http.StatusOK, "files of "+c.GetString("userID"))
	})

	return router
}

func doSearch(t *testing.T, router *gin.Engine, user string) string {
	t.Helper()

	req := httptest.NewRequest("GET", "/search?query=clip", nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	return rec.Body.String()
}

func TestCachePerUserIsolatesCallers(t *testing.T) {
	var hits int
	router := cacheTestRouter(&hits)

	// Same URI, different callers, inside one TTL window. Each must see
	// their own listing, never a cached copy of someone else's.
	if got := doSearch(t, router, "alice"); got != "files of alice" {
		t.Errorf("alice got %q", got)
	}

	if got := doSearch(t, router, "bob"); got != "files of bob" {
		t.Errorf("bob got %q, another caller's response leaked through the cache", got)
	}

	if hits != 2 {
		t.Errorf("handler ran %d times, want 2", hits)
	}
}

func TestCachePerUserServesRepeatsFromCache(t *testing.T) {
	var hits int
	router := cacheTestRouter(&hits)

	first := doSearch(t, router, "alice")
	second := doSearch(t, router, "alice")

	if first != second {
		t.Errorf("repeat request diverged, %q then %q", first, second)
	}

	if hits != 1 {
		t.Errorf("handler ran %d times for one caller, want 1", hits)
	}
}

func TestCachePerUserSkipsAnonymous(t *testing.T) {
	var hits int
	router := cacheTestRouter(&hits)

	doSearch(t, router, "")
	doSearch(t, router, "")

	if hits != 2 {
		t.Errorf("anonymous requests were cached, handler ran %d times, want 2", hits)
	}
}
