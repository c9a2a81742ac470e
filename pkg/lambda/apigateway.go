package lambda

import (
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// FromAPIGatewayProxy converts an API Gateway proxy event into a generic request.
// Single-value headers and query parameters win over their multi-value forms.
func FromAPIGatewayProxy(event events.APIGatewayProxyRequest) (*Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 body: %w", err)
		}
		body = decoded
	}

	return &Request{
		Method:      event.HTTPMethod,
		Path:        event.Path,
		Headers:     flatten(event.Headers, event.MultiValueHeaders),
		QueryParams: flatten(event.QueryStringParameters, event.MultiValueQueryStringParameters),
		Body:        body,
		PathParams:  event.PathParameters,
	}, nil
}

// ToAPIGatewayProxy converts a generic response into an API Gateway proxy response
func ToAPIGatewayProxy(resp *Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
	}
}

func flatten(single map[string]string, multi map[string][]string) map[string]string {
	out := make(map[string]string, len(single)+len(multi))
	for k, values := range multi {
		if len(values) > 0 {
			out[k] = values[0]
		}
	}
	for k, v := range single {
		out[k] = v
	}
	return out
}
