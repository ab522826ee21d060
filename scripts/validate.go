package main

import (
	"context"
	"flag"
	"time"

	"theatre/internal/logger"
	"theatre/internal/validation"
)

func main() {
	var baseURL string
	var timeout time.Duration
	flag.StringVar(&baseURL, "url", "http://localhost:4000", "Base URL for API validation")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Overall validation timeout")
	flag.Parse()

	logger.Init("info", "text")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	validator := validation.NewContractValidator(baseURL, nil)
	if err := validator.ValidateAll(ctx); err != nil {
		logger.Fatal("Валидация не пройдена", "error", err)
	}

	logger.Get().Info("Валидация успешно пройдена")
}
