package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log 全局日志实例，供各流水线阶段直接使用
var Log *logrus.Logger

// PipelineFormatter 流水线日志格式：标出调用方所属组件（scraper、llm、dataforseo 等），
// 便于在混跑的 worker 日志里区分阶段来源
type PipelineFormatter struct{}

// Format 实现 logrus.Formatter 接口
func (f *PipelineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	// 组件名取调用方文件所在目录，文件名和行号用于定位
	component := "-"
	var fileLine string
	if entry.HasCaller() {
		component = filepath.Base(filepath.Dir(entry.Caller.File))
		fileLine = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	// 日志级别对齐为 4 字符
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	timeStr := entry.Time.Format("2006-01-02 15:04:05")

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] [%s] [%s] %s", timeStr, level, component, fileLine, entry.Message)

	// 附加结构化字段，按键名排序保证输出稳定
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

// InitLogger 初始化日志
func InitLogger(levelStr string, filePath string) error {
	Log = logrus.New()

	// 开启 ReportCaller 以获取组件名和行号
	Log.SetReportCaller(true)
	Log.SetFormatter(&PipelineFormatter{})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel // 默认级别
	}
	Log.SetLevel(level)

	// 设置输出：同时输出到控制台和文件
	writers := []io.Writer{os.Stdout}
	if filePath != "" {
		logDir := filepath.Dir(filePath)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}

		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}
	Log.SetOutput(io.MultiWriter(writers...))

	return nil
}
