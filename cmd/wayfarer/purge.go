package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/wayfarer/config"
	"github.com/mohammad-safakhou/wayfarer/internal/chat"
	"github.com/mohammad-safakhou/wayfarer/internal/store"
	"github.com/mohammad-safakhou/wayfarer/internal/store/redisstore"
)

// purgeCMD runs the retention sweep once and exits. The serve command runs
// the same sweep on a schedule; this is for manual or cron-driven operation.
func purgeCMD() *cobra.Command {
	var cfgPath string
	var olderThanDays int
	var cmd = &cobra.Command{
		Use:   "purge",
		Short: "Delete chat sessions idle longer than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			days := olderThanDays
			if days <= 0 {
				days = cfg.Chat.Retention.Days
			}

			ctx := context.Background()
			var convStore chat.ConversationStore
			switch cfg.Storage.Backend {
			case "redis":
				rs, err := redisstore.Conn(ctx, cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
				if err != nil {
					return err
				}
				convStore = rs
			default:
				st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
				if err != nil {
					return err
				}
				convStore = st
			}

			cutoff := time.Now().AddDate(0, 0, -days)
			n, err := convStore.PurgeOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("purged %d sessions idle since %s\n", n, cutoff.Format(time.RFC3339))
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	cmd.Flags().IntVar(&olderThanDays, "older-than-days", 0, "override retention window in days")

	return cmd
}
