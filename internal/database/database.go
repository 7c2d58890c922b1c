package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"
)

// Server states kept in system_status
const (
	StateRunning      = "running"
	StateShuttingDown = "shutting_down"
	StateClean        = "clean_shutdown"
)

// SystemStatus is the single system_status row written by the web server
type SystemStatus struct {
	State         string
	AppVersion    string
	PID           int
	Hostname      string
	StartedAt     *time.Time
	StoppedAt     *time.Time
	LastHeartbeat *time.Time
}

// Clean reports whether the recorded process stopped through Shutdown
func (s *SystemStatus) Clean() bool {
	return s.State == StateClean
}

// GetSystemStatus reads the status row
func (db *Database) GetSystemStatus(ctx context.Context) (*SystemStatus, error) {
	var s SystemStatus
	var started, stopped, heartbeat sql.NullTime
	err := retryableQueryRowScan(ctx, db.mainDB,
		`SELECT shutdown_state, app_version, pid, hostname, started_at, shutdown_completed_at, last_heartbeat
		 FROM system_status WHERE id = 1`, nil,
		&s.State, &s.AppVersion, &s.PID, &s.Hostname, &started, &stopped, &heartbeat)
	if err != nil {
		return nil, fmt.Errorf("failed to read system status: %w", err)
	}
	s.StartedAt = nullTimePtr(started)
	s.StoppedAt = nullTimePtr(stopped)
	s.LastHeartbeat = nullTimePtr(heartbeat)
	return &s, nil
}

// markStarted records this process as the running server and warns when
// the previous one never reached a clean shutdown
func (db *Database) markStarted(ctx context.Context) error {
	prev, err := db.GetSystemStatus(ctx)
	if err != nil {
		return err
	}
	if !prev.Clean() {
		last := "never"
		if prev.LastHeartbeat != nil {
			last = prev.LastHeartbeat.Format(time.RFC3339)
		}
		log.Printf("[DATABASE]: WARNING: previous server (pid %d on %s) did not shut down cleanly, state=%s last heartbeat=%s",
			prev.PID, prev.Hostname, prev.State, last)
	}

	hostname, _ := os.Hostname()
	now := time.Now().UTC()
	_, err = retryableExec(ctx, db.mainDB,
		`UPDATE system_status SET shutdown_state = ?, app_version = ?, pid = ?, hostname = ?,
		 started_at = ?, shutdown_started_at = NULL, shutdown_completed_at = NULL,
		 last_heartbeat = ?, updated_at = ?
		 WHERE id = 1`,
		StateRunning, db.dbconfig.AppVersion, os.Getpid(), hostname, now, now, now)
	if err != nil {
		return fmt.Errorf("failed to record server start: %w", err)
	}
	return nil
}

// markStopped moves the status to StateShuttingDown or StateClean
func (db *Database) markStopped(ctx context.Context, state string) error {
	column := "shutdown_completed_at"
	if state == StateShuttingDown {
		column = "shutdown_started_at"
	}
	now := time.Now().UTC()
	_, err := retryableExec(ctx, db.mainDB,
		`UPDATE system_status SET shutdown_state = ?, `+column+` = ?, updated_at = ? WHERE id = 1`,
		state, now, now)
	if err != nil {
		return fmt.Errorf("failed to set state %s: %w", state, err)
	}
	return nil
}

// MarkShuttingDown records that the server stopped accepting requests
func (db *Database) MarkShuttingDown(ctx context.Context) error {
	if !db.dbconfig.TrackStatus {
		return nil
	}
	return db.markStopped(ctx, StateShuttingDown)
}

// UpdateHeartbeat refreshes last_heartbeat every interval until Shutdown.
// Only processes opened with TrackStatus write heartbeats.
func (db *Database) UpdateHeartbeat(interval time.Duration) {
	if !db.dbconfig.TrackStatus {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			_, err := retryableExec(ctx, db.mainDB,
				`UPDATE system_status SET last_heartbeat = ? WHERE id = 1`, time.Now().UTC())
			cancel()
			if err != nil {
				log.Printf("[DATABASE]: heartbeat failed: %v", err)
			}
		case <-db.StopChan:
			return
		}
	}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
