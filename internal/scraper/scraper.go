package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/content_pilot/internal/conf"
	"github.com/iWorld-y/content_pilot/internal/logger"
)

// HeadingScraper 抓取竞品页面的 H2/H3 标题
type HeadingScraper interface {
	Headings(ctx context.Context, urls []string) map[string][]string
}

// Scraper 基于 net/http + goquery 的抓取实现
type Scraper struct {
	client         *http.Client
	maxConcurrency int
}

// NewScraper 创建抓取器实例
func NewScraper(cfg conf.ScraperConfig) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		maxConcurrency: cfg.MaxConcurrency,
	}
}

var _ HeadingScraper = (*Scraper)(nil)

// Headings 并发抓取多个 URL 的标题结构。
// 单个 URL 失败只会使该 URL 对应空列表，不会中断整批抓取。
func (s *Scraper) Headings(ctx context.Context, urls []string) map[string][]string {
	results := make(map[string][]string, len(urls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for _, url := range urls {
		url := url
		g.Go(func() error {
			headings, err := s.scrapeOne(gctx, url)
			if err != nil {
				logger.Log.Warnf("抓取标题失败 [%s]: %v", url, err)
				headings = []string{}
			}
			mu.Lock()
			results[url] = headings
			mu.Unlock()
			// 失败降级为空列表，永远不向上传播
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Scraper) scrapeOne(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; content-pilot/1.0)")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html failed: %w", err)
	}

	var headings []string
	doc.Find("h2, h3").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			headings = append(headings, text)
		}
	})

	logger.Log.Debugf("抓取到 %d 个标题 [%s]", len(headings), url)
	return headings, nil
}
