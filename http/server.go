// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"fauxpas/logger"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64

	// RateLimit 每秒请求数，0表示不限制
	RateLimit float64
	RateBurst int
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           7860,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   1 << 20,
	}
}

// NewHandler 构建带中间件的路由
func NewHandler(config ServerConfig) http.Handler {
	mux := http.NewServeMux()

	// 注册所有处理器
	RegisterHandlers(mux)
	RegisterPageHandlers(mux)
	RegisterWebSocketHandlers(mux)

	// 创建中间件链
	chain := Chain(
		RecoveryMiddleware,                         // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware,                           // 2. 日志中间件
		SecurityHeadersMiddleware,                  // 3. 安全头中间件
		CORSMiddleware(config.AllowedOrigins),      // 4. CORS中间件
		RequestSizeMiddleware(config.MaxBodyBytes), // 5. 请求大小限制
	)
	handler := http.Handler(mux)
	if config.RateLimit > 0 {
		handler = RateLimitMiddleware(config.RateLimit, config.RateBurst)(handler)
	}

	return chain(handler)
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewHandler(config),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
	}
}

// Start 启动服务器，阻塞直到关闭
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.server.Addr)
	}
	return s.Serve(ln)
}

// Serve 在给定监听器上提供服务
func (s *Server) Serve(ln net.Listener) error {
	log := logger.Named("http")
	log.Infow("starting HTTP server", logger.FieldAddress, ln.Addr().String())
	log.Infow("WebSocket endpoints", "predict", "/api/ws/predict", "metrics", "/api/ws/metrics")

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	logger.Named("http").Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}

	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
