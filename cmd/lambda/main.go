// Command lambda runs the decode pipeline as an AWS Lambda function behind
// API Gateway.
package main

import (
	"log/slog"
	"os"
	"strings"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/MeKo-Tech/codescan/internal/config"
	"github.com/MeKo-Tech/codescan/internal/lambda"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

func main() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	p, err := pipeline.NewBuilder().WithConfig(cfg.Pipeline()).Build()
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	for _, st := range p.Availability().Statuses() {
		slog.Info("backend", "name", st.Name, "role", st.Role, "available", st.Available, "reason", st.Reason)
	}

	awslambda.Start(lambda.NewHandler(p).Handle)
}
