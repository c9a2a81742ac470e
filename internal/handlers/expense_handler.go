package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"expense-api/internal/models"
	"expense-api/internal/services"
	"expense-api/pkg/lambda"

	"github.com/sirupsen/logrus"
)

// HandlerConfig holds the handler settings
type HandlerConfig struct {
	// StrictRouting answers 405 for methods without a route instead of creating an expense
	StrictRouting bool
	Logger        *logrus.Logger
}

// ExpenseHandler handles expense-related HTTP requests
type ExpenseHandler struct {
	expenseService services.ExpenseService
	strict         bool
	logger         *logrus.Logger
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(expenseService services.ExpenseService, cfg HandlerConfig) *ExpenseHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &ExpenseHandler{
		expenseService: expenseService,
		strict:         cfg.StrictRouting,
		logger:         logger,
	}
}

// expenseQuery holds the query parameters of a read
type expenseQuery struct {
	SpecificDate string `json:"specificDate" validate:"omitempty,datetime=01-02-2006"`
	FromDate     string `json:"fromDate"`
	ToDate       string `json:"toDate"`
}

// ServeRequest routes one request. It never returns nil and never panics.
func (h *ExpenseHandler) ServeRequest(ctx context.Context, req *lambda.Request) (resp *lambda.Response) {
	if req == nil {
		req = &lambda.Request{}
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.WithFields(logrus.Fields{
				"method": req.Method,
				"path":   req.Path,
				"panic":  r,
				"stack":  string(debug.Stack()),
			}).Error("Recovered from panic")
			resp = h.failure(req, fmt.Errorf("panic: %v", r))
		}
	}()

	shape, id := classifyPath(req.Path)

	act, ok := resolveRoute(req.Method, shape)
	if !ok {
		fields := logrus.Fields{"method": req.Method, "path": req.Path, "shape": shape.String()}
		if h.strict {
			h.logger.WithFields(fields).Warn("No route for method")
			resp = h.jsonResponse(http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
			resp.SetHeader("Allow", allowedMethods(shape))
			return resp
		}
		h.logger.WithFields(fields).Warn("No route for method, falling back to create")
		act = actionCreate
	}

	switch act {
	case actionPreflight:
		return h.preflight()
	case actionCreate:
		return h.handleCreate(ctx, req)
	case actionRead:
		return h.handleRead(ctx, req)
	default:
		h.logger.WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.Path,
			"id":     id,
		}).Debug("Route declared but not implemented")
		return h.jsonResponse(http.StatusNotFound, ErrorResponse{Error: "Not found"})
	}
}

// @Summary Create an expense
// @Description Insert one expense owned by the caller. PUT on the collection behaves the same.
// @Tags expenses
// @Accept json
// @Produce json
// @Param request body services.CreateExpenseRequest true "Expense data"
// @Security BearerAuth
// @Success 201 "Created, empty body"
// @Failure 400 {object} ErrorResponse
// @Failure 500 {string} string
// @Router /expense [post]
func (h *ExpenseHandler) handleCreate(ctx context.Context, req *lambda.Request) *lambda.Response {
	var body services.CreateExpenseRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return h.failure(req, fmt.Errorf("failed to decode request body: %w", err))
	}

	if err := h.expenseService.CreateExpense(ctx, req.Header("Authorization"), &body); err != nil {
		return h.failure(req, err)
	}

	return h.jsonResponse(http.StatusCreated, nil)
}

// @Summary Get a daily summary
// @Description Expenses whose expense_ts falls on specificDate, with their total.
// @Description With fromDate and toDate instead, the pair is echoed back unchanged.
// @Tags expenses
// @Produce json
// @Param specificDate query string false "Day in MM-DD-YYYY format"
// @Param fromDate query string false "Range start (echoed)"
// @Param toDate query string false "Range end (echoed)"
// @Security BearerAuth
// @Success 200 {object} models.DailySummary
// @Failure 400 {object} ErrorResponse
// @Failure 500 {string} string
// @Router /expense [get]
func (h *ExpenseHandler) handleRead(ctx context.Context, req *lambda.Request) *lambda.Response {
	query := expenseQuery{}
	query.SpecificDate, _ = req.Query("specificDate")
	query.FromDate, _ = req.Query("fromDate")
	query.ToDate, _ = req.Query("toDate")

	if err := models.ValidateStruct(&query); err != nil {
		return h.failure(req, services.ValidationError("read_expenses", "invalid query parameters", err))
	}

	switch {
	case query.SpecificDate != "":
		window, err := models.ParseSpecificDate(query.SpecificDate)
		if err != nil {
			return h.failure(req, services.ValidationError("read_expenses", "invalid specificDate", err))
		}

		summary, err := h.expenseService.GetDailySummary(ctx, req.Header("Authorization"), window)
		if err != nil {
			return h.failure(req, err)
		}
		return h.jsonResponse(http.StatusOK, summary)

	case query.FromDate != "" && query.ToDate != "":
		return h.jsonResponse(http.StatusOK, models.DateRange{
			FromDate: query.FromDate,
			ToDate:   query.ToDate,
		})

	default:
		return h.jsonResponse(http.StatusBadRequest, ErrorResponse{Error: missingQueryMessage})
	}
}

func (h *ExpenseHandler) preflight() *lambda.Response {
	return &lambda.Response{
		StatusCode: http.StatusOK,
		Headers:    CORSHeaders(),
	}
}

// failure logs err and converts it to the caller-facing response
func (h *ExpenseHandler) failure(req *lambda.Request, err error) *lambda.Response {
	status := StatusFor(err)

	entry := h.logger.WithFields(logrus.Fields{
		"method":      req.Method,
		"path":        req.Path,
		"kind":        services.KindOf(err).String(),
		"status_code": status,
	}).WithError(err)

	if status == http.StatusBadRequest {
		entry.Warn("Request rejected")
		return h.jsonResponse(status, validationResponse(err))
	}

	entry.Error("Request failed")
	return h.jsonResponse(status, internalErrorMessage)
}

// jsonResponse encodes payload with the CORS headers attached. A nil payload leaves the body empty.
func (h *ExpenseHandler) jsonResponse(status int, payload interface{}) *lambda.Response {
	resp := &lambda.Response{
		StatusCode: status,
		Headers:    CORSHeaders(),
	}
	resp.SetHeader("Content-Type", "application/json")

	if payload == nil {
		return resp
	}

	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
		resp.StatusCode = http.StatusInternalServerError
		body, _ = json.Marshal(internalErrorMessage)
	}
	resp.Body = body
	return resp
}
