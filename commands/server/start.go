package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iov-one/trustd/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	FlagBind = "bind"

	shutdownTimeout = 10 * time.Second
)

// AppGenerator lets us lazily initialize the application, using home dir
// and logger potentially initialized with other flags. The returned function
// releases all resources.
type AppGenerator func(home string, logger log.Logger) (http.Handler, func(), error)

// StartCmd initializes the application and serves it until an interrupt
// signal is received.
func StartCmd(gen AppGenerator, logger log.Logger) *cobra.Command {
	c := &cobra.Command{
		Use:   "start",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Start(ctx, gen, logger)
		},
	}
	c.Flags().String(FlagBind, "localhost:8080", "address server listens on")
	_ = viper.BindPFlag(FlagBind, c.Flags().Lookup(FlagBind))
	return c
}

// Start serves the generated application until ctx is done.
func Start(ctx context.Context, gen AppGenerator, logger log.Logger) error {
	h, closeApp, err := gen(viper.GetString(FlagHome), logger)
	if err != nil {
		return err
	}
	defer closeApp()

	addr := viper.GetString(FlagBind)
	logger.Info("Starting HTTP server", "bind", addr)
	return Serve(ctx, addr, h, logger)
}

// Serve runs an HTTP server until ctx is done, then shuts it down
// gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	failed := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			failed <- err
		}
		close(failed)
	}()

	select {
	case err := <-failed:
		if err != nil {
			return errors.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
