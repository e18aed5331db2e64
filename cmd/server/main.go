package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/partyline/whispered/pkg/api"
	authproviders "github.com/partyline/whispered/pkg/auth/providers"
	"github.com/partyline/whispered/pkg/game"
	"github.com/partyline/whispered/pkg/log"
	"github.com/partyline/whispered/pkg/metrics"
	"github.com/partyline/whispered/pkg/questions"
	"github.com/partyline/whispered/pkg/store"
	"github.com/partyline/whispered/pkg/version"
	"github.com/partyline/whispered/pkg/workers"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	storeType := flag.String("store", "firestore", "Entity store to use (firestore, memory)")
	questionSource := flag.String("questions", "postgres", "Question source to use (postgres, sqlite, static)")
	sqlitePath := flag.String("sqlite-path", "questions.db", "Path to the SQLite question database")
	authType := flag.String("auth", "firebase", "Auth provider to use (firebase, insecure)")
	retention := flag.Duration("retention", workers.DefaultRetention, "How long idle games are kept")
	sweepInterval := flag.Duration("sweep-interval", time.Hour, "How often the cleanup sweep runs")
	certFile := flag.String("cert-file", "", "Path to TLS certificate file")
	keyFile := flag.String("key-file", "", "Path to TLS key file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(fmt.Sprintf("Failed to load .env: %v", err))
	}

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())
	ctx := context.Background()

	var gameStore store.Store
	switch *storeType {
	case "firestore":
		projectID := os.Getenv("FIREBASE_PROJECT_ID")
		if projectID == "" {
			panic("FIREBASE_PROJECT_ID environment variable must be set")
		}
		gameStore, err = store.NewFirestoreStore(ctx, projectID)
		if err != nil {
			panic(fmt.Sprintf("Failed to create Firestore store: %v", err))
		}
	case "memory":
		gameStore = store.NewMemoryStore()
	default:
		panic(fmt.Sprintf("Unknown store type: %s", *storeType))
	}
	defer gameStore.Close()

	var questionsSource questions.Source
	switch *questionSource {
	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			panic("DATABASE_URL environment variable must be set")
		}
		postgresSource := questions.NewPostgresSource(ctx, connStr)
		defer postgresSource.Close(ctx)
		questionsSource = postgresSource
	case "sqlite":
		sqliteSource, err := questions.NewSQLiteSource(ctx, *sqlitePath)
		if err != nil {
			panic(fmt.Sprintf("Failed to create SQLite question source: %v", err))
		}
		defer sqliteSource.Close()
		questionsSource = sqliteSource
	case "static":
		questionsSource = questions.NewStaticSource(nil, time.Now().UnixNano())
	default:
		panic(fmt.Sprintf("Unknown question source: %s", *questionSource))
	}

	var authProvider authproviders.AuthProvider
	switch *authType {
	case "firebase":
		projectID := os.Getenv("FIREBASE_PROJECT_ID")
		if projectID == "" {
			panic("FIREBASE_PROJECT_ID environment variable must be set")
		}
		authProvider, err = authproviders.NewFirebaseAuthProvider(ctx, projectID)
		if err != nil {
			panic(fmt.Sprintf("Failed to create Firebase auth provider: %v", err))
		}
	case "insecure":
		log.Warn("Using insecure auth provider, tokens are trusted as player IDs")
		authProvider = authproviders.NewInsecureAuthProvider()
	default:
		panic(fmt.Sprintf("Unknown auth provider: %s", *authType))
	}

	gameMetrics := metrics.NewMetrics("whispered")

	executor := game.NewExecutor(game.NewExecutorOptions{
		Store:     gameStore,
		Questions: questionsSource,
		Metrics:   gameMetrics,
	})

	sweepWorker := workers.NewSweepWorker(workers.NewSweepWorkerOptions{
		Store:     gameStore,
		Retention: *retention,
		Interval:  *sweepInterval,
		Metrics:   gameMetrics,
	})
	go sweepWorker.Start(ctx)

	var tlsConfig *api.TLSConfig
	if *certFile != "" && *keyFile != "" {
		tlsConfig = &api.TLSConfig{
			CertFile: *certFile,
			KeyFile:  *keyFile,
		}
	}

	server := api.NewAPIServer(api.NewAPIServerOptions{
		Port:         *port,
		TLS:          tlsConfig,
		AuthProvider: authProvider,
		Executor:     executor,
		Store:        gameStore,
		Metrics:      gameMetrics,
	})
	server.Start()
}
