package main

import (
	"context"
	"time"

	"finshorts/api"

	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int
	var schedule string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, optionally running the pipeline on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}
			if !cmd.Flags().Changed("schedule") {
				schedule = a.cfg.Server.Schedule
			}

			srv := api.NewServer(api.Deps{
				Runner:  a.pipeline,
				Submit:  a.ingester,
				Store:   a.store,
				Uploads: a.records.Uploads(),
				State:   a.state,
				Logger:  a.logger,
			}, port)

			runCtx := cmd.Context()
			if schedule != "" {
				if err := srv.StartCron(runCtx, schedule); err != nil {
					return err
				}
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-runCtx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Listen port (default server.port)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression for periodic runs, e.g. \"0 */4 * * *\"")
	return cmd
}
