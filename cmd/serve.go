package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/arcanaland/gridsmith/internal/server"
	"github.com/arcanaland/gridsmith/internal/validator"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generator and card library over HTTP",
	Long: `Serve starts the HTTP API used by the card editor:

  POST /api/ai/generate      {prompt, cardType}
  POST /api/ai/field         {field, card}
  POST /api/ai/weapon        {card}
  POST /api/ai/ability       {card}
  POST /api/ai/energy-cost   {card}
  GET  /api/cards            ?faction=&type=&search=&sort=
  POST /api/cards/import     ?strict=true
  GET  /api/cards/export
  GET  /api/decks            ?faction=&search=&userId=
  POST /api/decks            {name, faction, cardIds}
  GET  /api/decks/:id/check`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		gen, err := a.generator()
		if err != nil {
			return err
		}

		if logLevel != "debug" && a.cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		return server.New(gen, a.store, validator.NewValidator(), a.log).Run(ctx, serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "localhost:3001", "address to listen on")
}
