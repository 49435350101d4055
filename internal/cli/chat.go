package cli

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bankassist/internal/session"
	"bankassist/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Launch the interactive terminal chat.

Log in with a customer ID and password, then ask about your account,
cards, loans or transactions. Type "logout" to end the session.

Controls:
  Enter      - Submit
  Ctrl+C     - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	// The terminal belongs to the UI; logs go to a file next to the database.
	logPath := filepath.Join(filepath.Dir(cfg.DBPath), "chat.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		_ = logFile.Close()
	}()
	setupLogging(cfg, logFile)

	ctx := cmd.Context()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	if err := a.validateEmbeddings(ctx); err != nil {
		return err
	}
	if err := a.preloadModel(ctx); err != nil {
		return err
	}
	if err := a.seedCredentials(ctx); err != nil {
		return err
	}

	// Tokens never leave the process, so any secret will do.
	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
	}
	assistant := a.assistant(session.NewMemoryStore(cfg.SessionTTL), secret)

	p := tea.NewProgram(tui.New(ctx, assistant), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}
