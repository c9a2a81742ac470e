package handlers

// corsHeaders is attached to every response of the expense function
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Origin, x-client-info, apikey, Content-Type, Accept, authorization",
	"Access-Control-Allow-Methods": "POST, GET, OPTIONS, PUT, DELETE",
}

// CORSHeaders returns a copy of the fixed cross-origin header set
func CORSHeaders() map[string]string {
	headers := make(map[string]string, len(corsHeaders)+1)
	for k, v := range corsHeaders {
		headers[k] = v
	}
	return headers
}
