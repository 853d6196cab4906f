package sandbox

import (
	"context"
	"time"
)

// ExecutionResult 一次代码执行的结果，创建后不可变
type ExecutionResult struct {
	ExecutionID   string  `json:"execution_id"`
	Success       bool    `json:"success"`
	Output        string  `json:"output"`
	Error         string  `json:"error"`
	ExecutionTime float64 `json:"execution_time"`
	// 调用方未提供期望输出时为 nil
	MatchesExpected *bool `json:"matches_expected"`
	TimedOut        bool  `json:"-"`
}

// Executor 运行一段用户提交的源码。实现不返回 error，所有故障都体现在结果里
type Executor interface {
	Execute(ctx context.Context, code string, expected *string, timeout time.Duration) ExecutionResult
}

type Options struct {
	// 解释器及其参数，源文件路径追加在最后
	Interpreter    []string
	DefaultTimeout time.Duration
	MaxOutputBytes int
	// 同时运行的子进程上限，0 表示不限
	MaxConcurrent int
	// 临时目录的父目录，空则使用系统临时目录
	WorkDir string
}
