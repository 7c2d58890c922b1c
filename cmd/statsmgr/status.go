package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state recorded by the web server",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	st, err := db.GetSystemStatus(ctx)
	if err != nil {
		return err
	}
	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("State:          %s\n", st.State)
	fmt.Printf("Server version: %s\n", st.AppVersion)
	fmt.Printf("Process:        pid %d on %s\n", st.PID, st.Hostname)
	fmt.Printf("Started:        %s\n", formatTime(st.StartedAt))
	fmt.Printf("Last heartbeat: %s\n", formatTime(st.LastHeartbeat))
	if st.StoppedAt != nil {
		fmt.Printf("Stopped:        %s\n", formatTime(st.StoppedAt))
	}
	fmt.Printf("Schema version: %d\n", version)
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
