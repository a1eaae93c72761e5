// factoryctl runs maintenance tasks against the factorylink database.
//
// Example:
//
//	go run ./cmd/factoryctl migrate
//	go run ./cmd/factoryctl verify-ledger --material=0b8e7b52-4a53-4d55-9a57-7b0c3c1d8b6e
//	go run ./cmd/factoryctl reconcile
//	go run ./cmd/factoryctl dlq --queue=inventory_sync --limit=20
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"factorylink/internal/config"
	"factorylink/internal/dto"
	"factorylink/internal/infra"
	"factorylink/internal/repository"
	"factorylink/internal/service"
	"factorylink/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	app := &cli.App{
		Name:  "factoryctl",
		Usage: "factorylink maintenance commands",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "create or update the schema",
				Action: migrateCmd,
			},
			{
				Name:  "verify-ledger",
				Usage: "check that every material's stock equals Σin − Σout of its ledger",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "material", Usage: "verify a single material id"},
				},
				Action: verifyLedgerCmd,
			},
			{
				Name:   "reconcile",
				Usage:  "overwrite local finished-goods quantities with the commerce platform's",
				Action: reconcileCmd,
			},
			{
				Name:  "dlq",
				Usage: "print the newest dead-letter entries of a queue",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "queue", Value: worker.QueueInventorySync},
					&cli.Int64Flag{Name: "limit", Value: 20},
				},
				Action: dlqCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrateCmd(c *cli.Context) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	if err := infra.Migrate(db); err != nil {
		return err
	}
	fmt.Println("schema up to date")
	return nil
}

func verifyLedgerCmd(c *cli.Context) error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	materials := repository.NewMaterialRepository(db)
	ledger := service.NewLedgerService(materials, repository.NewLedgerRepository(db), cfg.StockRetryAttempts)
	ctx := c.Context

	var ids []uuid.UUID
	if raw := c.String("material"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("--material: %w", err)
		}
		ids = append(ids, id)
	} else {
		ids, err = allMaterialIDs(ctx, materials)
		if err != nil {
			return err
		}
	}

	bad := 0
	for _, id := range ids {
		audit, err := ledger.Verify(ctx, id)
		if err != nil {
			return err
		}
		if audit.Consistent {
			continue
		}
		bad++
		fmt.Printf("MISMATCH material=%s current_stock=%s ledger=%s (in=%s out=%s)\n",
			audit.MaterialID, audit.CurrentStock, audit.LedgerStock, audit.TotalIn, audit.TotalOut)
	}
	fmt.Printf("checked=%d mismatched=%d\n", len(ids), bad)
	if bad > 0 {
		return cli.Exit("ledger invariant violated", 2)
	}
	return nil
}

func allMaterialIDs(ctx context.Context, materials repository.MaterialRepository) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for page := 1; ; page++ {
		rows, total, err := materials.List(ctx, dto.MaterialFilter{Page: page, Limit: 200})
		if err != nil {
			return nil, err
		}
		for _, m := range rows {
			ids = append(ids, m.ID)
		}
		if len(rows) == 0 || int64(len(ids)) >= total {
			return ids, nil
		}
	}
}

func reconcileCmd(c *cli.Context) error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	breaker := infra.NewCircuitBreaker("commerce", infra.DefaultCBConfig())
	commerce := infra.NewCommerceClient(cfg.CommerceBaseURL, cfg.CommerceToken, cfg.CommerceTimeout(), breaker)
	sync := service.NewInventorySyncService(repository.NewProductRepository(db), commerce)

	results, err := sync.ReconcileAll(c.Context)
	for _, r := range results {
		mark := " "
		if r.Corrected {
			mark = "*"
		}
		fmt.Printf("%s product=%s local=%d external=%d\n", mark, r.ProductID, r.LocalBefore, r.ExternalValue)
	}
	return err
}

func dlqCmd(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		return err
	}
	queue := c.String("queue")
	n, err := worker.DLQLength(c.Context, rdb, queue)
	if err != nil {
		return err
	}
	entries, err := worker.PeekDLQ(c.Context, rdb, queue, c.Int64("limit"))
	if err != nil {
		return err
	}
	fmt.Printf("%s%s: %d entries\n", worker.DLQPrefix, queue, n)
	for _, e := range entries {
		fmt.Printf("%s %s attempts=%d reason=%q payload=%s\n", e.FailedAt, e.JobType, e.Attempts, e.Reason, e.Payload)
	}
	return nil
}
