package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/joho/godotenv"

	"github.com/iWorld-y/content_pilot/internal/biz"
	"github.com/iWorld-y/content_pilot/internal/conf"
	"github.com/iWorld-y/content_pilot/internal/data"
	"github.com/iWorld-y/content_pilot/internal/llm"
	"github.com/iWorld-y/content_pilot/internal/logger"
	"github.com/iWorld-y/content_pilot/internal/research/dataforseo"
	"github.com/iWorld-y/content_pilot/internal/scraper"
	"github.com/iWorld-y/content_pilot/internal/server"
	"github.com/iWorld-y/content_pilot/internal/service"
	"github.com/iWorld-y/content_pilot/internal/worker"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name string = "content_pilot"
	// Version 是服务的版本号
	Version string
	// flagconf 是配置文件的路径命令行参数
	flagconf string

	id, _ = os.Hostname()
)

// 各阶段队列的租约预算：策略 10 分钟、大纲 5 分钟、内容 15 分钟，
// 续租周期为租约的一半。
const (
	strategyLease = 10 * time.Minute
	outlineLease  = 5 * time.Minute
	contentLease  = 15 * time.Minute
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()
	// .env 不存在时静默忽略
	_ = godotenv.Load()

	cfg, err := conf.LoadConfig(flagconf)
	if err != nil {
		panic(err)
	}

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		panic(err)
	}

	klogger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	app, cleanup, err := initApp(cfg, klogger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		panic(err)
	}
}

// initApp 手工装配全部依赖
func initApp(cfg *conf.Config, klogger log.Logger) (*kratos.App, func(), error) {
	d, cleanup, err := data.NewData(cfg.DB, klogger)
	if err != nil {
		return nil, nil, err
	}

	keywordRepo := data.NewKeywordRepo(d, klogger)
	draftRepo := data.NewDraftRepo(d, keywordRepo, klogger)
	jobStore := data.NewJobStore(d, cfg.Queue, klogger)

	provider := dataforseo.NewClient(cfg.Research)
	headingScraper := scraper.NewScraper(cfg.Scraper)

	generator, err := llm.NewGenerator(context.Background(), cfg.LLM, cfg.Concurrency)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	keywordUC := biz.NewKeywordUseCase(keywordRepo, provider, klogger)
	draftUC := biz.NewDraftUseCase(draftRepo, keywordRepo, jobStore, klogger)

	pollEvery := time.Duration(cfg.Queue.PollInterval) * time.Second
	strategyHandler := worker.NewStrategyHandler(draftUC, provider, headingScraper, generator, klogger)
	outlineHandler := worker.NewOutlineHandler(draftUC, generator, klogger)
	contentHandler := worker.NewContentHandler(draftUC, generator, klogger)

	manager := worker.NewManager(klogger,
		worker.NewRunner(biz.QueueStrategy, jobStore, strategyHandler, strategyLease, strategyLease/2, pollEvery, klogger),
		worker.NewRunner(biz.QueueOutline, jobStore, outlineHandler, outlineLease, outlineLease/2, pollEvery, klogger),
		worker.NewRunner(biz.QueueContent, jobStore, contentHandler, contentLease, contentLease/2, pollEvery, klogger),
	)

	keywordSvc := service.NewKeywordService(keywordUC, klogger)
	draftSvc := service.NewDraftService(draftUC, klogger)
	httpSrv := server.NewHTTPServer(cfg.Server, keywordSvc, draftSvc, klogger)

	app := kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Logger(klogger),
		kratos.Server(httpSrv, manager),
	)
	return app, cleanup, nil
}
