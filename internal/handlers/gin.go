package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"expense-api/pkg/lambda"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds the request body read by the local server
const maxBodyBytes = 1 << 20

// Gin adapts the handler to the local gin server
func (h *ExpenseHandler) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := requestFromHTTP(c)
		var resp *lambda.Response
		if err != nil {
			resp = h.failure(&lambda.Request{Method: c.Request.Method, Path: c.Request.URL.Path}, err)
		} else {
			resp = h.ServeRequest(c.Request.Context(), req)
		}
		writeResponse(c, resp)
	}
}

func requestFromHTTP(c *gin.Context) (*lambda.Request, error) {
	r := c.Request

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(c.Writer, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, fmt.Errorf("request body exceeds %d bytes: %w", tooLarge.Limit, err)
			}
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}

	headers := make(map[string]string, len(r.Header))
	for k, values := range r.Header {
		if len(values) > 0 {
			headers[k] = values[0]
		}
	}

	query := make(map[string]string)
	for k, values := range r.URL.Query() {
		if len(values) > 0 {
			query[k] = values[0]
		}
	}

	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	return &lambda.Request{
		Method:      r.Method,
		Path:        r.URL.Path,
		Headers:     headers,
		QueryParams: query,
		Body:        body,
		PathParams:  params,
	}, nil
}

func writeResponse(c *gin.Context, resp *lambda.Response) {
	for k, v := range resp.Headers {
		c.Header(k, v)
	}

	c.Status(resp.StatusCode)
	if len(resp.Body) == 0 {
		c.Writer.WriteHeaderNow()
		return
	}

	if _, err := c.Writer.Write(resp.Body); err != nil {
		_ = c.Error(err)
	}
}

// CORS stamps the fixed CORS headers on every response, including the ones
// middleware aborts with before the handler runs
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		for k, v := range CORSHeaders() {
			c.Header(k, v)
		}
		c.Next()
	}
}

// SetupRoutes mounts the expense function on the router under both the short
// path and the path the functions gateway uses
func SetupRoutes(router gin.IRouter, handler *ExpenseHandler) {
	serve := handler.Gin()
	for _, base := range []string{"/expense", "/functions/v1/expense"} {
		router.Any(base, serve)
		router.Any(base+"/:id", serve)
	}
}
