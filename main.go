package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"chatcoin/application"
	"chatcoin/cmd"
	"chatcoin/config"
	"chatcoin/database"
	"chatcoin/domain/events"
	"chatcoin/domain/interfaces"
	"chatcoin/repository"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	// Check for draw subcommands
	if len(os.Args) > 1 && os.Args[1] == "draw" {
		if err := handleDrawCommand(); err != nil {
			log.Fatal("Draw error: ", err)
		}
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "verify-draw" {
		if err := handleVerifyDrawCommand(); err != nil {
			log.Fatal("Draw verification error: ", err)
		}
		return
	}

	// Normal service operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: chatcoin migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleDrawCommand runs a lottery draw from the command line
func handleDrawCommand() error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: chatcoin draw lottery-id winner-count [seed]")
	}
	lotteryID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid lottery id: %w", err)
	}
	winnerCount, err := strconv.Atoi(os.Args[3])
	if err != nil {
		return fmt.Errorf("invalid winner count: %w", err)
	}
	seed := ""
	if len(os.Args) > 4 {
		seed = os.Args[4]
	}

	ctx := context.Background()
	lotteryService, db, err := newLotteryService(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	record, err := lotteryService.RunDraw(ctx, lotteryID, winnerCount, seed)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"lotteryId": lotteryID,
		"seed":      record.Seed,
		"winners":   record.WinnerEntryIDs,
	}).Info("Draw completed")
	return nil
}

// handleVerifyDrawCommand recomputes a persisted draw and checks it against
// the record
func handleVerifyDrawCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: chatcoin verify-draw lottery-id")
	}
	lotteryID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid lottery id: %w", err)
	}

	ctx := context.Background()
	lotteryService, db, err := newLotteryService(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := lotteryService.VerifyDraw(ctx, lotteryID); err != nil {
		return err
	}

	log.WithField("lotteryId", lotteryID).Info("Draw verified")
	return nil
}

func newLotteryService(ctx context.Context) (*application.LotteryService, *database.DB, error) {
	cfg := config.Get()
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Admin commands run without a message bus; events are dropped
	uowFactory := repository.NewUnitOfWorkFactory(db, noopPublisherFactory{})
	return application.NewLotteryService(uowFactory, cfg.PurchaseLockTimeout), db, nil
}

// noopPublisher discards events for admin commands
type noopPublisher struct{}

func (noopPublisher) Publish(event events.Event) error { return nil }
func (noopPublisher) Flush(ctx context.Context) error  { return nil }
func (noopPublisher) Discard()                         {}

type noopPublisherFactory struct{}

func (noopPublisherFactory) Create() interfaces.TransactionalEventPublisher {
	return noopPublisher{}
}
