package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/partyline/whispered/pkg/log"
	"github.com/partyline/whispered/pkg/store"
	"github.com/partyline/whispered/pkg/workers"
)

// One-shot cleanup job: deletes every game idle for longer than the
// retention window, then exits. Meant to run on a schedule.
func main() {
	logLevel := flag.String("log-level", "info", "Log level")
	retention := flag.Duration("retention", workers.DefaultRetention, "How long idle games are kept")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(fmt.Sprintf("Failed to load .env: %v", err))
	}

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel))

	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	if projectID == "" {
		panic("FIREBASE_PROJECT_ID environment variable must be set")
	}

	ctx := context.Background()
	gameStore, err := store.NewFirestoreStore(ctx, projectID)
	if err != nil {
		panic(fmt.Sprintf("Failed to create Firestore store: %v", err))
	}
	defer gameStore.Close()

	sweepWorker := workers.NewSweepWorker(workers.NewSweepWorkerOptions{
		Store:     gameStore,
		Retention: *retention,
	})
	if err := sweepWorker.Sweep(ctx); err != nil {
		log.Error("Cleanup sweep failed: %v", err)
		os.Exit(1)
	}
}
