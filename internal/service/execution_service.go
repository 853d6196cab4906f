package service

import (
	"context"
	"time"

	"pythonchick_backend/internal/sandbox"
	"pythonchick_backend/pkg/logger"
	"pythonchick_backend/pkg/monitoring"
	"pythonchick_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ExecutionService 沙箱执行外加指标、链路与日志
type ExecutionService struct {
	Executor sandbox.Executor
}

func NewExecutionService(executor sandbox.Executor) *ExecutionService {
	return &ExecutionService{Executor: executor}
}

// Execute 使用沙箱默认超时
func (s *ExecutionService) Execute(ctx context.Context, code string, expected *string) sandbox.ExecutionResult {
	return s.ExecuteWithTimeout(ctx, code, expected, 0)
}

func (s *ExecutionService) ExecuteWithTimeout(ctx context.Context, code string, expected *string, timeout time.Duration) sandbox.ExecutionResult {
	ctx, span := tracing.Start(ctx, "sandbox.execute")
	defer span.End()

	res := s.Executor.Execute(ctx, code, expected, timeout)

	status := "success"
	switch {
	case res.TimedOut:
		status = "timeout"
	case !res.Success:
		status = "failure"
	}
	monitoring.SandboxExecutions.WithLabelValues(status).Inc()
	monitoring.SandboxDuration.Observe(res.ExecutionTime)

	span.SetAttributes(
		attribute.String("execution.id", res.ExecutionID),
		attribute.String("execution.status", status),
		attribute.Float64("execution.time", res.ExecutionTime),
	)
	logger.Log.Debug("code executed",
		zap.String("executionID", res.ExecutionID),
		zap.String("status", status),
		zap.Float64("seconds", res.ExecutionTime),
		zap.Int("codeBytes", len(code)))
	return res
}
