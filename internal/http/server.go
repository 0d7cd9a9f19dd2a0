package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/rebuildhq/storeconnect/internal/observability/logger"
)

const shutdownGrace = 10 * time.Second

// Serve levanta el servidor y lo apaga con gracia cuando ctx se cancela.
func Serve(ctx context.Context, addr string, handler stdhttp.Handler) error {
	srv := &stdhttp.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("servidor HTTP escuchando", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
