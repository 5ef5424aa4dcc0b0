package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/internal/config"
	"github.com/Meshack-Mesh/house-hunt-view/internal/darajasim"
	"github.com/spf13/cobra"
)

func darajasimCmd() *cobra.Command {
	var (
		port       string
		delay      time.Duration
		resultCode int
	)

	cmd := &cobra.Command{
		Use:   "darajasim",
		Short: "Run a local stand-in for the Safaricom Daraja API",
		Long: `Run a local stand-in for the Safaricom Daraja API.

It uses the same MPESA_* credentials as the API server, so pointing
MPESA_BASE_URL at it exercises the full STK push and callback flow.
Phone numbers ending in 0000 always produce a cancelled callback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			sim := darajasim.NewServer(darajasim.Options{
				ConsumerKey:    cfg.Mpesa.ConsumerKey,
				ConsumerSecret: cfg.Mpesa.ConsumerSecret,
				ShortCode:      cfg.Mpesa.ShortCode,
				PassKey:        cfg.Mpesa.PassKey,
				CallbackDelay:  delay,
				ResultCode:     resultCode,
			})
			defer sim.Close()

			srv := &http.Server{
				Addr:         fmt.Sprintf(":%s", port),
				Handler:      sim.Routes(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
			}
			return listenAndServe(cmd.Context(), srv)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8090", "port to listen on")
	cmd.Flags().DurationVar(&delay, "callback-delay", 3*time.Second, "time before the result callback is posted")
	cmd.Flags().IntVar(&resultCode, "result-code", 0, "result code for every callback (0 succeeds)")

	return cmd
}
