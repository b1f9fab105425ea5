package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/existflow/mtc/internal/logger"
	"github.com/existflow/mtc/server"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

var (
	port      string
	dbURL     string
	dataDir   string
	tokenHash string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:          "mtc-server",
	Short:        "Snapshot server for mtc clients",
	SilenceUsage: true,
	RunE:         runServe,
}

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token",
	Short: "Read a token and print the hash to put in MTC_SERVER_TOKEN_HASH",
	Args:  cobra.NoArgs,
	RunE:  runHashToken,
}

func init() {
	rootCmd.Flags().StringVar(&port, "port", getEnv("PORT", "8080"), "Port to listen on")
	rootCmd.Flags().StringVar(&dbURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL; snapshots go to --data-dir when empty")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", getEnv("MTC_SERVER_DATA_DIR", "snapshots"), "Snapshot directory without a database")
	rootCmd.Flags().StringVar(&tokenHash, "token-hash", os.Getenv("MTC_SERVER_TOKEN_HASH"), "bcrypt hash of the client token")
	rootCmd.Flags().StringVar(&logLevel, "log-level", getEnv("LOG_LEVEL", "INFO"), "Log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(hashTokenCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logConfig := logger.DefaultConfig()
	logConfig.Level = logger.ParseLevel(logLevel)
	logConfig.FilePath = ""
	logConfig.Console = true
	if err := logger.Init(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}

	srv := server.New(store, server.Options{TokenHash: tokenHash})
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing server", logger.F("error", err))
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(":" + port) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context) (server.SnapshotStore, error) {
	if dbURL != "" {
		logger.Info("Using PostgreSQL snapshot store")
		pg, err := server.NewPostgresStore(ctx, dbURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	logger.Info("Using file snapshot store", logger.F("dir", dataDir))
	fs, err := server.NewFileStore(dataDir)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

func runHashToken(cmd *cobra.Command, args []string) error {
	fmt.Fprint(os.Stderr, "Token: ")
	var token []byte
	var err error
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		token, err = term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
	} else {
		var line string
		_, err = fmt.Fscanln(os.Stdin, &line)
		token = []byte(line)
	}
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(token))) < 16 {
		return fmt.Errorf("token must be at least 16 characters")
	}

	hash, err := server.HashToken(string(token))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("mtc-server: %v", err)
		stop()
		os.Exit(1)
	}
}
