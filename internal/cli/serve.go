package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/chaosgame/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library and renderer over HTTP",
		Long: `Serve the HTTP API. All requests share one result cache, so repeated
requests for a named fractal reuse its points until DELETE /cache/{name}.

  GET    /fractals                  list the library
  GET    /fractals/{name}           maps and probabilities
  GET    /fractals/{name}/render    ?format=svg|png|json&width=&height=&color=
  POST   /render                    {"name": "...", "rows": [[a,b,c,d,e,f,w], ...]}
  DELETE /cache/{name}              drop a cached result`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.config.Server.Addr
			}

			runner, err := c.newRunner(ctx, c.config, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner,
				server.WithLogger(c.Logger),
				server.WithRenderDefaults(c.config.RenderOptions()),
			)
			printInfo("Serving %d fractals on %s", runner.Library.Len(), addr)
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the persistent cache")
	return cmd
}
