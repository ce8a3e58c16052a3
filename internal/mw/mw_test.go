package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"wear-and-tear-backend/internal/ixapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testCreds = ixapi.Credentials{AppID: "app-1", APIVersion: "2", CompanyID: "company-1", AccessToken: "secret"}

func TestAPIAuth(t *testing.T) {
	r := gin.New()
	r.GET("/guarded", APIAuth(testCreds), func(c *gin.Context) { c.Status(http.StatusOK) })

	testCases := []struct {
		name           string
		mutate         func(req *http.Request)
		expectedStatus int
	}{
		{name: "Valid headers", mutate: func(req *http.Request) {}, expectedStatus: http.StatusOK},
		{name: "Wrong company", mutate: func(req *http.Request) { req.Header.Set(ixapi.HeaderCompany, "other") }, expectedStatus: http.StatusForbidden},
		{name: "Missing version", mutate: func(req *http.Request) { req.Header.Del(ixapi.HeaderVersion) }, expectedStatus: http.StatusForbidden},
		{name: "Wrong token", mutate: func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, expectedStatus: http.StatusUnauthorized},
		{name: "Not a bearer token", mutate: func(req *http.Request) { req.Header.Set("Authorization", "secret") }, expectedStatus: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			testCreds.Apply(req)
			tc.mutate(req)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

func TestResponseCache(t *testing.T) {
	rc := NewResponseCache(time.Minute)
	calls := 0

	r := gin.New()
	r.Use(rc.Middleware())
	r.GET("/items", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/fail", func(c *gin.Context) {
		calls++
		c.Status(http.StatusInternalServerError)
	})

	get := func(path string, headers ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if len(headers) == 2 {
			req.Header.Set(headers[0], headers[1])
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.JSONEq(t, `{"calls":1}`, get("/items").Body.String())
	hit := get("/items")
	assert.JSONEq(t, `{"calls":1}`, hit.Body.String())
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.Equal(t, "application/json; charset=utf-8", hit.Header().Get("Content-Type"))

	assert.JSONEq(t, `{"calls":2}`, get("/items", "Cache-Control", "no-cache").Body.String())
	assert.JSONEq(t, `{"calls":2}`, get("/items").Body.String())

	rc.Flush()
	assert.JSONEq(t, `{"calls":3}`, get("/items").Body.String())

	get("/fail")
	get("/fail")
	assert.Equal(t, 5, calls, "failed responses are not cached")
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimiter(rate.Limit(1), 2, ClientKey), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(app string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if app != "" {
			req.Header.Set(ixapi.HeaderApplication, app)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(""))
	assert.Equal(t, http.StatusOK, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send(""))

	// Another application from the same address has its own bucket.
	assert.Equal(t, http.StatusOK, send("app-2"))
}
