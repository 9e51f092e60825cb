package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/termchat-dev/termchat/pkg/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		Long: `Run the relay server.

The server binds loopback by default; point --ngrok-url at a tunnel to
share the room beyond the local machine.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "127.0.0.1", "Address to bind")
	cmd.Flags().Int("port", 8080, "Port to listen on")
	cmd.Flags().String("room-name", "Terminal Chat Room", "Room name announced to joining clients")
	cmd.Flags().String("ngrok-url", "", "Public tunnel URL announced to joining clients")

	viper.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	viper.BindPFlag("serve.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("serve.room_name", cmd.Flags().Lookup("room-name"))
	viper.BindPFlag("serve.ngrok_url", cmd.Flags().Lookup("ngrok-url"))

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := net.JoinHostPort(viper.GetString("serve.addr"), strconv.Itoa(viper.GetInt("serve.port")))

	config := server.DefaultConfig().
		WithAddr(addr).
		WithRoomName(viper.GetString("serve.room_name")).
		WithNgrokURL(viper.GetString("serve.ngrok_url"))

	srv := server.New(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("signal received, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
