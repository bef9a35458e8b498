package logger

import (
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineFormatter(t *testing.T) {
	l := logrus.New()
	l.SetReportCaller(true)

	entry := &logrus.Entry{
		Logger:  l,
		Time:    time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "抓取完成",
		Caller:  &runtime.Frame{File: "/app/internal/scraper/scraper.go", Line: 42},
		Data:    logrus.Fields{"url": "https://a.example.com", "count": 3},
	}

	out, err := (&PipelineFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t,
		"[2026-03-01 08:30:00] [INFO] [scraper] [scraper.go:42] 抓取完成 count=3 url=https://a.example.com\n",
		string(out))
}

func TestInitLogger_DefaultsToInfoOnBadLevel(t *testing.T) {
	require.NoError(t, InitLogger("not-a-level", ""))
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}
