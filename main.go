package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"fauxpas/config"
	"fauxpas/db"
	qhttp "fauxpas/http"
	"fauxpas/logger"
	"fauxpas/ml"
	"fauxpas/monitoring"
	"fauxpas/pipeline"
)

func main() {
	if err := run(); err != nil {
		reportFatal(os.Stderr, err)
		os.Exit(1)
	}
}

// reportFatal 输出致命错误及提示；配置和日志初始化失败时日志器尚不可用，因此总是写入w
func reportFatal(w io.Writer, err error) {
	hints := errors.GetAllHints(err)
	logger.Logger.Errorw("fatal", logger.FieldError, err, "hints", hints)
	logger.Cleanup()

	fmt.Fprintln(w, "Error:", err)
	for _, h := range hints {
		fmt.Fprintln(w, "Hint:", h)
	}
}

func run() error {
	// 1. 加载配置
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}

	// 2. 初始化日志
	if err := logger.Initialize(cfg.Log); err != nil {
		return err
	}
	defer logger.Cleanup()
	log := logger.Named("main")

	// 3. 加载模型并构建推理管道
	bundle, err := ml.LoadBundle(cfg.Model.BundlePath)
	if err != nil {
		return err
	}
	p, err := pipeline.FromBundle(bundle, pipeline.WithCache(cfg.Pipeline.CacheSize))
	if err != nil {
		return err
	}
	log.Infow("model bundle loaded", logger.FieldFile, bundle.Path, "classes", bundle.Classes)

	metrics := monitoring.NewMetricsCollector()
	qhttp.SetPredictor(p)
	qhttp.SetMetrics(metrics)

	// 4. 初始化预测历史
	if cfg.History.Path != "" {
		if err := db.InitDB(cfg.History.Path); err != nil {
			return err
		}
		defer db.Close()
		qhttp.SetRecorder(db.History{})
		log.Infow("prediction history enabled", logger.FieldFile, cfg.History.Path)
	}

	// 5. 监听模型文件变更
	if cfg.Model.Watch {
		watcher, err := ml.NewArtifactWatcher(bundle.Path, func(fsnotify.Op) {
			metrics.RecordArtifactChange()
		})
		if err != nil {
			log.Warnw("bundle watcher disabled", logger.FieldError, err)
		} else {
			watcher.Start()
			defer watcher.Close()
		}
	}

	// 6. 启动HTTP服务器
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		ReadTimeout:    cfg.Http.ReadTimeout,
		WriteTimeout:   cfg.Http.WriteTimeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
		RateLimit:      cfg.Http.RateLimit,
		RateBurst:      cfg.Http.RateBurst,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 7. 优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")

	if err := server.Stop(context.Background()); err != nil {
		log.Warnw("server forced to shutdown", logger.FieldError, err)
	}
	log.Info("exiting")
	return nil
}
