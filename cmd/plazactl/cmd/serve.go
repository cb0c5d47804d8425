package cmd

import (
	"github.com/mfuentes/plaza/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat and catalog server",
	Run: func(cmd *cobra.Command, args []string) {
		s := server.New()
		s.RegisterRoutes()

		addr := serveAddr
		if addr == "" {
			addr = s.Cfg.Addr
		}
		s.Start(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides APP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
