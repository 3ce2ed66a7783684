package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plarroque/cephalo/internal/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the triage HTTP API",
	Long: `Serve exposes the triage pipeline over HTTP.

Endpoints:
  GET  /health                      liveness check
  POST /api/v1/turn                 submit a dialogue turn
  POST /api/v1/sessions/{id}/reset  clear a session
  GET  /api/v1/sessions/{id}        inspect session state`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "listen port")
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	server := api.NewServer(engine, cfg.Server.Port)
	fmt.Fprintf(os.Stderr, "cephalo à l'écoute sur :%d\n", cfg.Server.Port)
	return server.Start()
}
