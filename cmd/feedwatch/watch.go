package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aviary/feedwindow/internal/feedengine/sqlite"
	"github.com/aviary/feedwindow/internal/feeditem"
	"github.com/aviary/feedwindow/internal/scrollwindow"
)

var watchCmd = &cobra.Command{
	Use:   "watch [room]",
	Short: "Open a live-scrolling view of a chat room",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room := "lobby"
		if len(args) == 1 {
			room = args[0]
		}

		dbPath, _ := cmd.Flags().GetString("db")
		seed, _ := cmd.Flags().GetInt("seed")

		conn, err := sqlite.OpenClient(dbPath)
		if err != nil {
			return fmt.Errorf("open feed database: %w", err)
		}
		defer conn.Close()

		if err := sqlite.EnsureChatSchema(conn); err != nil {
			return err
		}
		if seed > 0 {
			if err := seedMessages(conn, room, seed); err != nil {
				return fmt.Errorf("seed messages: %w", err)
			}
		}

		engine := sqlite.NewChatEngine(conn, 0)

		cfg := scrollwindow.Config{
			ViewportHeight: 600,
			MinRowHeight:   20,
			BasePredicate:  fmt.Sprintf(`room_id = %q`, room),
			TimestampField: "timestamp",
		}

		mgr, err := scrollwindow.New[feeditem.ChatMessage](cfg, engine, slog.Default())
		if err != nil {
			return fmt.Errorf("construct manager: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("start manager: %w", err)
		}
		defer mgr.Close()

		model := newModel(mgr, room)
		p := tea.NewProgram(model, tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	watchCmd.Flags().String("db", "feedwatch.db", "path to the SQLite feed database")
	watchCmd.Flags().Int("seed", 0, "seed N synthetic messages into the room before watching")
	rootCmd.AddCommand(watchCmd)
}

func seedMessages(conn *sql.DB, room string, n int) error {
	base := time.Now().Add(-time.Duration(n) * time.Second)
	for i := 0; i < n; i++ {
		m := feeditem.ChatMessage{
			ID:     fmt.Sprintf("%s-%04d", room, i),
			RoomID: room,
			Author: fmt.Sprintf("user%d", i%5),
			Body:   fmt.Sprintf("message #%d", i),
			SentAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := sqlite.InsertChatMessage(conn, m); err != nil {
			return err
		}
	}
	return nil
}
