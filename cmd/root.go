package cmd

import (
	"os"

	"github.com/melitools/melisync/internal/bootstrap"
	"github.com/melitools/melisync/internal/conf"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "melisync",
	Short: "Marketplace listing sync driven by a unified task queue",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func Init() {
	if err := conf.Load(); err != nil {
		utils.Log.Fatalf("failed to load config: %+v", err)
	}
	bootstrap.InitLog()
	bootstrap.InitDB()
	bootstrap.InitWorkers()
}
