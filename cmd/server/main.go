package main

import (
	"net/http"
	"time"

	"kirana-be/internal/config"
	"kirana-be/internal/db"
	"kirana-be/internal/logger"
	"kirana-be/internal/loyalty"
	"kirana-be/internal/metrics"
	"kirana-be/internal/middleware"
	"kirana-be/internal/notify"
	"kirana-be/internal/order"
	"kirana-be/internal/otp"
	"kirana-be/internal/sequence"
	"kirana-be/internal/user"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	stats := metrics.New()

	mailer := notify.NewMailer(cfg.BrevoAPIKey, cfg.EmailFrom, cfg.StoreName)
	dispatcher := notify.NewDispatcher(30 * time.Second)
	defer dispatcher.Wait()

	otpStore := otp.NewStore()
	userRepo := user.NewRepository(database)
	userSvc := user.NewService(
		userRepo, otpStore, mailer, dispatcher,
		cfg.StoreName, cfg.AdminEmail, cfg.AdminPassword,
	)

	allocator := sequence.NewAllocator(database)
	codes := sequence.NewCodeGenerator(cfg.StorePrefix, allocator)
	creditor := loyalty.NewCreditor(database)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(
		orderRepo, codes, mailer, dispatcher, creditor, stats,
		order.TransitionPolicy(cfg.TransitionPolicy),
		cfg.StoreName, cfg.AdminEmail,
	)

	mux := http.NewServeMux()
	user.NewHandler(userSvc).Register(mux)
	order.NewHandler(orderSvc).Register(mux)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var handler http.Handler = mux
	handler = stats.Middleware(handler)
	handler = middleware.RateLimitMiddleware(handler)
	handler = middleware.AuthMiddleware(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)

	addr := ":" + cfg.AppPort
	logger.L().Info("server starting", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
