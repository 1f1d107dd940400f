package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"course-share/internal/adapters/pendingstore"
	"course-share/internal/adapters/s3storage"
	"course-share/internal/adapters/server"
	"course-share/internal/config"
	"course-share/internal/usecases"
)

// shutdownTimeout максимальное время на корректное завершение работы,
// чтобы не блокироваться бесконечно на незакрытых соединениях.
const shutdownTimeout = 5 * time.Second

const sessionTTL = 12 * time.Hour

func main() {
	cfg := config.LoadConfig("config.yaml")

	ctx := context.Background()

	storage, err := s3storage.NewS3Storage(ctx, cfg.Storage)
	if err != nil {
		logrus.Fatalf("Failed to build storage gateway: %v", err)
	}

	// проверка доступа и создание папок семестров — до запуска сервера;
	// без рабочего бэкенда процесс не имеет смысла.
	if err := storage.CheckAccess(ctx); err != nil {
		logrus.Fatalf("Storage backend access check failed: %v", err)
	}

	folders, err := usecases.ProvisionSemesterFolders(ctx, storage, cfg.Storage.RootFolderID)
	if err != nil {
		logrus.Fatalf("Semester folder provisioning failed: %v", err)
	}

	if err := os.MkdirAll(cfg.Pending.Dir, cfg.Pending.DirPermissions); err != nil {
		logrus.Fatalf("Failed to create pending dir: %v", err)
	}

	pending := pendingstore.NewLocalPendingStore(cfg.Pending.Dir, cfg.Pending.DirPermissions)
	pending.Sweep()

	archiveUsecase := usecases.NewArchiveUseCase(storage, pending, folders, cfg.Admin.Password)

	sessions := server.NewSessionStore(sessionTTL)
	handler := server.NewHandler(
		archiveUsecase,
		sessions,
		cfg.Static.Path,
		cfg.Server.MaxUploadSize,
		cfg.Admin.Password,
		cfg.Messages,
	)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: server.AdminGate(sessions, mux),
	}

	// graceful shutdown.
	go func() {
		logrus.Infof("Server running on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server shutdown error: %v", err)
	} else {
		logrus.Info("Server stopped gracefully")
	}
}
