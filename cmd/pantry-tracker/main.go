package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/pantry-tracker/internal/generation"
	"github.com/zombor/pantry-tracker/internal/pantry"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// assistant is what every provider implements
type assistant interface {
	generation.Labeler
	generation.RecipeGenerator
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("pantry-tracker")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "pantry-tracker.db", "Database file path")
		storagePath = fs.StringLong("storage", "./captures", "Directory for captured photos")
		provider    = fs.StringLong("provider", "gemini", "AI provider: 'gemini', 'openai' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		openaiKey   = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiURL   = fs.StringLong("openai-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
		openaiModel = fs.StringLong("openai-model", "gpt-4o-mini", "Chat model name; must accept images for item capture")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama vision model name (e.g., llava, llama3.2-vision)")
		logLevel    = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		_           = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PANTRY_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Initialize database
	slog.Info("Initializing database...", "path", *dbPath)
	db, err := pantry.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize the AI provider used for both item labeling and recipes
	var ai assistant
	switch *provider {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini...", "model", *geminiModel)
		ai, err = generation.NewGemini(apiKey, *geminiModel)
	case "openai":
		apiKey := *openaiKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		slog.Info("Initializing OpenAI-compatible client...", "url", *openaiURL, "model", *openaiModel)
		ai, err = generation.NewOpenAI(apiKey, *openaiURL, *openaiModel)
	case "ollama":
		slog.Info("Initializing Ollama...", "url", *ollamaURL, "model", *ollamaModel)
		ai, err = generation.NewOllama(*ollamaURL, *ollamaModel)
	default:
		slog.Error("Invalid provider", "provider", *provider, "valid", "gemini, openai or ollama")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize provider", "provider", *provider, "error", err)
		os.Exit(1)
	}
	defer ai.Close()

	// Initialize storage
	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := pantry.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := pantry.NewService(db, ai, ai, store)
	server := pantry.NewServer(service)

	addr := fmt.Sprintf(":%d", *port)
	errc := make(chan error, 1)
	go func() {
		errc <- server.Start(addr)
	}()
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)

	// Wait for interrupt signal or a server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errc:
		if err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}
}
