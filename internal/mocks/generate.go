package mocks

// Mock generation directives. Run `go generate ./internal/mocks/` to regenerate.

//go:generate go run go.uber.org/mock/mockgen -source=../metrics/metrics.go -destination=mock_metrics.go -package=mocks
