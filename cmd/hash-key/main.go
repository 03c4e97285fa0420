package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/logger"
	"github.com/boqueria/training-api/internal/service"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// minKeyLength is the shortest API key the tool accepts.
const minKeyLength = 16

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	authService := service.NewAuthService(cfg)

	// ─── CLI Input ─────────────────────────────────────────────────────
	fmt.Fprintln(os.Stderr, "=== Hash Internal API Key ===")

	key, err := readSecret("Enter API key: ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read key")
	}
	if len(key) < minKeyLength {
		fmt.Fprintf(os.Stderr, "Error: key must be at least %d characters\n", minKeyLength)
		os.Exit(1)
	}

	confirm, err := readSecret("Repeat API key: ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read key")
	}
	if confirm != key {
		fmt.Fprintln(os.Stderr, "Error: keys do not match")
		os.Exit(1)
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hash, err := authService.HashKey(key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash key")
	}

	cost, _ := bcrypt.Cost([]byte(hash))
	fmt.Fprintf(os.Stderr, "\nbcrypt cost %d. Set this in the environment:\n", cost)
	fmt.Printf("INTERNAL_API_KEY_HASH=%s\n", hash)
}

// readSecret reads one line from the terminal without echo.
func readSecret(prompt string) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
