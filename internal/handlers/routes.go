package handlers

import (
	"net/http"
	"sort"
	"strings"
)

// pathShape distinguishes /expense from /expense/<id>
type pathShape int

const (
	shapeCollection pathShape = iota
	shapeItem
)

// String returns the shape name used in logs
func (s pathShape) String() string {
	if s == shapeItem {
		return "item"
	}
	return "collection"
}

// action is what a matched route does
type action int

const (
	actionPreflight action = iota
	actionCreate
	actionRead
	actionUnimplemented
)

type routeKey struct {
	method string
	shape  pathShape
}

// routeTable lists every route the expense function knows.
// Unimplemented item routes are declared so they answer 404 instead of falling back to create.
var routeTable = map[routeKey]action{
	{http.MethodOptions, shapeCollection}: actionPreflight,
	{http.MethodOptions, shapeItem}:       actionPreflight,

	{http.MethodPost, shapeCollection}: actionCreate,
	{http.MethodPost, shapeItem}:       actionCreate,
	{http.MethodPut, shapeCollection}:  actionCreate,
	{http.MethodGet, shapeCollection}:  actionRead,

	{http.MethodGet, shapeItem}:    actionUnimplemented,
	{http.MethodPut, shapeItem}:    actionUnimplemented,
	{http.MethodDelete, shapeItem}: actionUnimplemented,
}

// resolveRoute looks up the action for a request
func resolveRoute(method string, shape pathShape) (action, bool) {
	act, ok := routeTable[routeKey{method: strings.ToUpper(method), shape: shape}]
	return act, ok
}

// allowedMethods returns the methods with a route for the shape, for the Allow header
func allowedMethods(shape pathShape) string {
	var methods []string
	for key := range routeTable {
		if key.shape == shape {
			methods = append(methods, key.method)
		}
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

// classifyPath reports whether the path addresses one expense and returns its id
func classifyPath(path string) (pathShape, string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) >= 2 && segments[len(segments)-2] == "expense" && segments[len(segments)-1] != "" {
		return shapeItem, segments[len(segments)-1]
	}
	return shapeCollection, ""
}
