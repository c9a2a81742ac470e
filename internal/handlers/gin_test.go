package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expense-api/internal/logging"
	"expense-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

func newTestRouter(service *mockExpenseService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, newTestHandler(service, false))
	return router
}

func TestGin_Create(t *testing.T) {
	service := &mockExpenseService{}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/expense", strings.NewReader(validBody))
	req.Header.Set("Authorization", "Bearer user-token")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %s", w.Body.String())
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
	if service.lastAuth != "Bearer user-token" {
		t.Errorf("Authorization not forwarded: %q", service.lastAuth)
	}
}

func TestGin_Read(t *testing.T) {
	router := newTestRouter(&mockExpenseService{})

	req := httptest.NewRequest(http.MethodGet, "/expense?specificDate=01-15-2024", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != `{"total_amount":0,"expenses":[]}` {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Unexpected content type %q", w.Header().Get("Content-Type"))
	}
}

func TestGin_PreflightAndItem(t *testing.T) {
	router := newTestRouter(&mockExpenseService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/expense/12", nil))
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("Expected empty 200 preflight, got %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Access-Control-Allow-Methods") != "POST, GET, OPTIONS, PUT, DELETE" {
		t.Errorf("Unexpected allow-methods %q", w.Header().Get("Access-Control-Allow-Methods"))
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/expense/12", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unimplemented item route, got %d", w.Code)
	}
}

func TestGin_OversizedBody(t *testing.T) {
	service := &mockExpenseService{}
	router := newTestRouter(service)

	body := bytes.Repeat([]byte(" "), maxBodyBytes+1)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/expense", bytes.NewReader(body)))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if w.Body.String() != `"`+internalErrorMessage+`"` {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
	if service.createCalls != 0 {
		t.Errorf("Oversized body must not reach the service, got %d calls", service.createCalls)
	}
}

func TestCORS_OnMiddlewareAnswers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logging.Discard()

	router := gin.New()
	router.Use(CORS(), middleware.Recovery(logger), middleware.RateLimiter(logger, 0.001, 1))
	SetupRoutes(router, newTestHandler(&mockExpenseService{}, false))

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/expense", nil))
		codes[i] = w.Code
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("Request %d: expected CORS header on status %d", i, w.Code)
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("Expected 200 then 429, got %v", codes)
	}

	panicRouter := gin.New()
	panicRouter.Use(CORS(), middleware.Recovery(logger))
	panicRouter.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	panicRouter.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Error("Expected CORS headers on recovered panic")
	}
}
