package server

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/content_pilot/internal/conf"
	"github.com/iWorld-y/content_pilot/internal/service"
)

// NewHTTPServer 构建 HTTP 服务并注册全部 API 路由
func NewHTTPServer(c conf.ServerConfig, keywords *service.KeywordService, drafts *service.DraftService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
		http.Timeout(c.ServerTimeout()),
	}
	if c.Addr != "" {
		opts = append(opts, http.Address(c.Addr))
	}

	srv := http.NewServer(opts...)
	registerRoutes(srv, keywords, drafts)
	return srv
}

func registerRoutes(srv *http.Server, keywords *service.KeywordService, drafts *service.DraftService) {
	api := srv.Route("/api")

	api.POST("/keywords/suggest", func(ctx http.Context) error {
		var req service.SuggestKeywordsReq
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := keywords.Suggest(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	api.GET("/keywords/{id}", func(ctx http.Context) error {
		reply, err := keywords.Get(ctx, ctx.Vars().Get("id"))
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	api.POST("/drafts", func(ctx http.Context) error {
		var req service.CreateDraftReq
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := drafts.Create(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(201, reply)
	})

	api.GET("/drafts", func(ctx http.Context) error {
		reply, err := drafts.List(ctx)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	api.GET("/drafts/{id}", func(ctx http.Context) error {
		reply, err := drafts.Get(ctx, ctx.Vars().Get("id"))
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	api.PUT("/drafts/{id}/outline", func(ctx http.Context) error {
		var req service.UpdateOutlineReq
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := drafts.UpdateOutline(ctx, ctx.Vars().Get("id"), &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	api.PUT("/drafts/{id}/approve-outline", func(ctx http.Context) error {
		reply, err := drafts.ApproveOutline(ctx, ctx.Vars().Get("id"))
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	api.GET("/drafts/{id}/export", func(ctx http.Context) error {
		reply, err := drafts.Export(ctx, ctx.Vars().Get("id"))
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})
}
