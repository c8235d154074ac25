// Command tutord serves the Socratic automata tutor.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	addr       string
)

var rootCmd = &cobra.Command{
	Use:   "tutord",
	Short: "Socratic tutor for finite automata",
	Long: `tutord runs the tutoring service. Each learner message goes through an
assessment, a generated reply and the drawing tools the reply asks for, and
every state change is streamed to the client as it happens.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: ./config.yaml if present)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	_ = godotenv.Load(".env")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string, pretty bool) (zerolog.Logger, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var logger zerolog.Logger
	if pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(parsed).With().Timestamp().Logger(), nil
}
