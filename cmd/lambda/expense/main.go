package main

import (
	"context"

	"expense-api/internal/config"
	"expense-api/internal/handlers"
	"expense-api/internal/logging"
	"expense-api/pkg/lambda"
	"expense-api/pkg/server"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var container *server.Container

func init() {
	cfg, err := config.LoadValidated()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		JSON:       true,
		Deployment: config.GetDeploymentMode(),
	})

	container, err = server.NewContainer(cfg, logger)
	if err != nil {
		panic("Failed to initialize container: " + err.Error())
	}
}

func handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req, err := lambda.FromAPIGatewayProxy(event)
	if err != nil {
		container.Logger.WithFields(logrus.Fields{
			"method": event.HTTPMethod,
			"path":   event.Path,
		}).WithError(err).Error("Failed to convert request")

		return lambda.ToAPIGatewayProxy(handlers.InternalErrorResponse()), nil
	}

	resp := container.ExpenseHandler.ServeRequest(ctx, req)
	return lambda.ToAPIGatewayProxy(resp), nil
}

func main() {
	awslambda.Start(handler)
}
