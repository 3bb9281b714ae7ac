package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/resistx/platform/pkg/common/config"
	"github.com/resistx/platform/pkg/common/logger"
	"github.com/resistx/platform/pkg/gateway/middleware"
	"github.com/resistx/platform/pkg/serving"
	"github.com/resistx/platform/pkg/serving/predictor"
)

func main() {
	logger.Init()
	cfg := config.Load()

	model, err := predictor.Load(cfg.ModelArtifactPath)
	if err != nil {
		logger.Log.WithError(err).WithField("path", cfg.ModelArtifactPath).Fatal("Failed to load model artifact")
	}
	info := model.Info()
	logger.Log.WithFields(map[string]interface{}{
		"type":    info.Type,
		"version": info.Version,
		"schema":  info.SchemaVersion,
	}).Info("Model loaded")

	router := mux.NewRouter()
	serving.NewHandler(serving.NewService(model), info).Register(router)

	// Wrapped outside the router so preflight and unmatched requests are
	// logged and get CORS headers too.
	var handler http.Handler = router
	handler = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)(handler)
	handler = middleware.BodyLimit(cfg.MaxRequestBody)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Prediction Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Prediction Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Prediction Service stopped")
}
