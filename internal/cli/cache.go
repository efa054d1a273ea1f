package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chaosgame/pkg/cache"
	"github.com/matzehuels/chaosgame/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent point and artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached point sequence and artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.config.Cache.Backend == config.BackendNone {
				printInfo("Cache is disabled")
				return nil
			}
			store, _ := c.newCache(cmd.Context(), c.config, false)
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printInfo("Cache is unavailable")
				return nil
			}
			n, err := clearer.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if n == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("%s", cacheLocation(c.config))
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(cacheLocation(c.config))
			return nil
		},
	}
}

// cacheLocation describes the configured backend: a directory for the file
// cache, a redis URL otherwise.
func cacheLocation(cfg config.Config) string {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		return "redis://" + cfg.Cache.RedisAddr + "/" + redisNamespace + "*"
	case config.BackendNone:
		return "(disabled)"
	default:
		return cfg.Cache.Dir
	}
}
