package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/config"
	"github.com/iliyamo/lab-registry/internal/database"
	"github.com/iliyamo/lab-registry/internal/docstore"
	"github.com/iliyamo/lab-registry/internal/logging"
	"github.com/iliyamo/lab-registry/internal/repository"
)

func newMigrate() *cobra.Command {
	var withAudit bool
	cmd := &cobra.Command{
		Use:          "migrate",
		Long:         "Create MongoDB indexes and, with --audit, the MySQL audit table",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New(config.LogLevel())
			defer func() { _ = log.Sync() }()

			client, db, err := database.OpenMongo(ctx, config.LoadMongo())
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(ctx) }()
			store := docstore.NewMongo(db)
			for coll, models := range repository.Indexes {
				names, err := store.EnsureIndexes(ctx, coll, models)
				if err != nil {
					return err
				}
				log.Info("indexes ensured", zap.String("collection", coll), zap.Strings("indexes", names))
			}

			if !withAudit {
				return nil
			}
			sqlDB, err := database.Open(config.LoadAudit())
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := repository.NewAuditRepo(sqlDB).EnsureSchema(ctx); err != nil {
				return err
			}
			log.Info("audit table ensured")
			return nil
		},
	}
	cmd.Flags().BoolVar(&withAudit, "audit", false, "also create the MySQL audit_events table")
	return cmd
}
