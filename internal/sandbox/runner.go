package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"pythonchick_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultMaxOutput = 64 * 1024
	// 进程退出后等待输出管道关闭的上限，防止后台孙进程占住管道
	pipeDrainDelay = 500 * time.Millisecond
)

// Runner 每次调用独立的临时目录与子进程，互不共享可变状态
type Runner struct {
	interpreter []string
	workDir     string
	maxOutput   int
	timeout     atomic.Int64
	sem         *semaphore.Weighted
}

var _ Executor = (*Runner)(nil)

func NewRunner(opts Options) *Runner {
	r := &Runner{
		interpreter: opts.Interpreter,
		workDir:     opts.WorkDir,
		maxOutput:   opts.MaxOutputBytes,
	}
	if len(r.interpreter) == 0 {
		r.interpreter = []string{"python3"}
	}
	if r.maxOutput <= 0 {
		r.maxOutput = defaultMaxOutput
	}
	if opts.MaxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}
	r.SetDefaultTimeout(opts.DefaultTimeout)
	return r
}

// SetDefaultTimeout 配置热更新时调用
func (r *Runner) SetDefaultTimeout(d time.Duration) {
	if d <= 0 {
		d = defaultTimeout
	}
	r.timeout.Store(int64(d))
}

func (r *Runner) DefaultTimeout() time.Duration {
	return time.Duration(r.timeout.Load())
}

// Execute 运行 code。timeout <= 0 时使用默认超时
func (r *Runner) Execute(ctx context.Context, code string, expected *string, timeout time.Duration) (res ExecutionResult) {
	if timeout <= 0 {
		timeout = r.DefaultTimeout()
	}
	res.ExecutionID = uuid.NewString()
	start := time.Now()
	exited := false

	defer func() {
		if p := recover(); p != nil {
			logger.Log.Error("sandbox panic recovered",
				zap.String("executionID", res.ExecutionID),
				zap.Any("panic", p))
			res.Success = false
			res.Error = fmt.Sprintf("internal error: %v", p)
		}
		res.ExecutionTime = roundSeconds(time.Since(start))
		if expected != nil {
			m := exited && Matches(res.Output, *expected)
			res.MatchesExpected = &m
		}
	}()

	// 排队等待与子进程运行共用同一个截止时间，整个调用不超过 timeout
	runCtx, cancel := context.WithDeadline(ctx, start.Add(timeout))
	defer cancel()

	if r.sem != nil {
		if err := r.sem.Acquire(runCtx, 1); err != nil {
			if ctx.Err() != nil {
				res.Error = "Execution cancelled"
			} else {
				res.TimedOut = true
				res.Error = timeoutMessage(timeout)
			}
			return res
		}
		defer r.sem.Release(1)
	}

	dir, err := os.MkdirTemp(r.workDir, "exec-")
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer os.RemoveAll(dir)

	src, err := writeSource(dir, code)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	exited = r.run(ctx, runCtx, dir, src, timeout, &res)
	return res
}

func writeSource(dir, code string) (string, error) {
	f, err := os.CreateTemp(dir, "submission-*.py")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(code); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// run 返回子进程是否自行结束（未超时、未被取消）。runCtx 携带整个调用的截止时间
func (r *Runner) run(ctx, runCtx context.Context, dir, src string, timeout time.Duration, res *ExecutionResult) bool {
	args := append(append([]string{}, r.interpreter[1:]...), src)
	cmd := exec.CommandContext(runCtx, r.interpreter[0], args...)
	cmd.Dir = dir
	cmd.Env = childEnv(dir)
	cmd.WaitDelay = pipeDrainDelay
	configureProcess(cmd)

	stdout := newCappedBuffer(r.maxOutput)
	stderr := newCappedBuffer(r.maxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		logger.Log.Warn("sandbox spawn failed",
			zap.String("executionID", res.ExecutionID),
			zap.Strings("interpreter", r.interpreter),
			zap.Error(err))
		res.Error = err.Error()
		return false
	}

	waitErr := cmd.Wait()
	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	// 主进程已退出，清理可能残留的同组进程
	_ = killGroup(cmd)

	res.Output = strings.TrimSpace(stdout.String())
	res.Error = strings.TrimSpace(stderr.String())

	if stdout.Truncated() {
		res.Output += "\n[output truncated]"
	}

	switch {
	case timedOut:
		res.Success = false
		res.TimedOut = true
		res.Error = timeoutMessage(timeout)
		return false
	case ctx.Err() != nil:
		res.Success = false
		res.Error = "Execution cancelled"
		return false
	case cmd.ProcessState != nil:
		res.Success = cmd.ProcessState.ExitCode() == 0
		if !res.Success && res.Error == "" && waitErr != nil {
			res.Error = waitErr.Error()
		}
		return true
	default:
		res.Success = false
		if waitErr != nil {
			res.Error = waitErr.Error()
		}
		return false
	}
}

func childEnv(dir string) []string {
	return []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + dir,
		"TMPDIR=" + dir,
		"LANG=C.UTF-8",
		"PYTHONIOENCODING=utf-8",
		"PYTHONDONTWRITEBYTECODE=1",
		// 不缓冲，超时被杀时已打印的内容仍能收集到
		"PYTHONUNBUFFERED=1",
	}
}

func timeoutMessage(timeout time.Duration) string {
	return "Execution timed out after " + strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64) + " seconds"
}

// roundSeconds 秒，保留三位小数
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
