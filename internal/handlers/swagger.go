package handlers

// @title Expense API
// @version 1.0
// @description Records personal expenses and answers daily spending summaries.
// @description Authorization headers are forwarded to the data service, whose row policies decide access.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the user's access token.

// @tag.name expenses
// @tag.description Expense recording and daily summaries
