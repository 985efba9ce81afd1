package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/melitools/melisync/internal/bootstrap"
	"github.com/melitools/melisync/internal/conf"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/melitools/melisync/server"
	"github.com/spf13/cobra"
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API and the background worker loops",
	Run: func(cmd *cobra.Command, args []string) {
		Init()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		bootstrap.Workers.StartAll(ctx)

		gin.SetMode(gin.ReleaseMode)
		engine := gin.New()
		engine.Use(gin.Recovery())
		server.Init(engine)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", conf.Conf.HTTPPort),
			Handler: engine,
		}
		go func() {
			utils.Log.Infof("listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				utils.Log.Fatalf("http server failed: %+v", err)
			}
		}()

		<-ctx.Done()
		utils.Log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Log.Errorf("http shutdown: %+v", err)
		}
		bootstrap.Workers.Wait()
	},
}

func init() {
	RootCmd.AddCommand(ServerCmd)
}
