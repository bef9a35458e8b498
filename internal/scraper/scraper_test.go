package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/content_pilot/internal/conf"
	"github.com/iWorld-y/content_pilot/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger("error", "")
	os.Exit(m.Run())
}

const samplePage = `<html><body>
<h1>Best Coffee Beans</h1>
<h2>What Are Coffee Beans</h2>
<p>text</p>
<h3>Arabica</h3>
<h3>  Robusta  </h3>
<h2></h2>
<h2>Roast Levels</h2>
</body></html>`

func newTestScraper() *Scraper {
	return NewScraper(conf.ScraperConfig{Timeout: 5, MaxConcurrency: 2})
}

func TestScraper_Headings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	results := newTestScraper().Headings(context.Background(), []string{srv.URL})
	require.Contains(t, results, srv.URL)

	// 只取 h2/h3，去掉空白项
	assert.Equal(t, []string{"What Are Coffee Beans", "Arabica", "Robusta", "Roast Levels"}, results[srv.URL])
}

func TestScraper_PartialFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	results := newTestScraper().Headings(context.Background(), []string{good.URL, bad.URL})

	// 失败的 URL 降级为空列表，成功的不受影响
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[good.URL])
	assert.Empty(t, results[bad.URL])
}

func TestScraper_NoURLs(t *testing.T) {
	results := newTestScraper().Headings(context.Background(), nil)
	assert.Empty(t, results)
}
