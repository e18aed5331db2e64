package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/partyline/whispered/pkg/log"
	"github.com/partyline/whispered/pkg/questions"
)

type inserter interface {
	Insert(ctx context.Context, text string) error
}

// Loads a prompt corpus from a text file (one question per line) into the
// configured question database.
func main() {
	driver := flag.String("driver", "postgres", "Question database to load into (postgres, sqlite)")
	sqlitePath := flag.String("sqlite-path", "questions.db", "Path to the SQLite question database")
	file := flag.String("file", "questions.txt", "Path to the question file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(fmt.Sprintf("Failed to load .env: %v", err))
	}

	ctx := context.Background()

	var target inserter
	switch *driver {
	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			panic("DATABASE_URL environment variable must be set")
		}
		source := questions.NewPostgresSource(ctx, connStr)
		defer source.Close(ctx)
		target = source
	case "sqlite":
		source, err := questions.NewSQLiteSource(ctx, *sqlitePath)
		if err != nil {
			panic(fmt.Sprintf("Failed to open SQLite question database: %v", err))
		}
		defer source.Close()
		target = source
	default:
		panic(fmt.Sprintf("Unknown driver: %s", *driver))
	}

	f, err := os.Open(*file)
	if err != nil {
		panic(fmt.Sprintf("Failed to open question file: %v", err))
	}
	defer f.Close()

	loaded := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := target.Insert(ctx, text); err != nil {
			panic(fmt.Sprintf("Failed to insert question: %v", err))
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		panic(fmt.Sprintf("Failed to read question file: %v", err))
	}

	log.Info("Loaded %d questions", loaded)
}
