package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-calendar-booking/internal/application"
	"github.com/sanosuguru/go-calendar-booking/internal/config"
	"github.com/sanosuguru/go-calendar-booking/internal/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:     "seed",
	Short:   "オーナーとクライアントを登録する",
	Example: `  calendar-api seed --owner 佐藤 --owner 鈴木 --client 山田商事`,
	RunE:    runSeed,
}

var (
	seedOwners  []string
	seedClients []string
)

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringSliceVar(&seedOwners, "owner", nil, "登録するオーナー名（複数指定可）")
	seedCmd.Flags().StringSliceVar(&seedClients, "client", nil, "登録するクライアント名（複数指定可）")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.Init(cfg.Env)
	defer log.Sync()

	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return fmt.Errorf("seed は postgres ドライバーでのみ使用できます（メモリの場合は serve --owner/--client を使用）")
	}
	if len(seedOwners) == 0 && len(seedClients) == 0 {
		return fmt.Errorf("--owner または --client を指定してください")
	}

	store, err := openStorage(cfg, false)
	if err != nil {
		return err
	}
	defer store.close()

	directory := application.NewDirectoryService(store.owners, store.clients)
	return seedParties(cmd.Context(), directory, seedOwners, seedClients)
}

// seedParties はオーナーとクライアントを登録し、採番したIDをログに出す
func seedParties(ctx context.Context, directory *application.DirectoryService, owners, clients []string) error {
	for _, name := range owners {
		o, err := directory.CreateOwner(ctx, name)
		if err != nil {
			return fmt.Errorf("オーナー登録エラー: %w", err)
		}
		logger.Info("オーナーを登録しました", zap.String("id", o.ID), zap.String("name", o.Name))
	}
	for _, name := range clients {
		cl, err := directory.CreateClient(ctx, name)
		if err != nil {
			return fmt.Errorf("クライアント登録エラー: %w", err)
		}
		logger.Info("クライアントを登録しました", zap.String("id", cl.ID), zap.String("name", cl.Name))
	}
	return nil
}
