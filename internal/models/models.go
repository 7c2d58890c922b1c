// Package models defines core data structures for go-pugwiki
package models

import (
	"time"
)

// SiteStats mirrors the single row of the site_stats table
type SiteStats struct {
	Edits       int64     `json:"edits" db:"ss_total_edits"`
	Articles    int64     `json:"articles" db:"ss_good_articles"` // content pages ("good" articles)
	Pages       int64     `json:"pages" db:"ss_total_pages"`
	Users       int64     `json:"users" db:"ss_users"`
	ActiveUsers int64     `json:"activeusers" db:"ss_active_users"`
	Images      int64     `json:"images" db:"ss_images"`
	UpdatedAt   time.Time `json:"updated_at" db:"ss_updated_at"`
}

// EditsPerPage is the average number of edits per page, 0 when there are no pages
func (s SiteStats) EditsPerPage() float64 {
	if s.Pages == 0 {
		return 0
	}
	return float64(s.Edits) / float64(s.Pages)
}

// User represents a registered wiki account
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	EditCount    int64     `json:"edit_count" db:"edit_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserGroup represents a user's membership in an explicit group
type UserGroup struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	Group     string    `json:"group" db:"group_name"`
	GrantedAt time.Time `json:"granted_at" db:"granted_at"`
}

// Recent change types
const (
	RCEdit = "edit"
	RCNew  = "new"
	RCLog  = "log"
)

// RecentChange is one entry of the recent changes feed used for active user counting
type RecentChange struct {
	ID        int64     `json:"id" db:"rc_id"`
	Timestamp time.Time `json:"timestamp" db:"rc_timestamp"`
	UserID    int64     `json:"user_id" db:"rc_user"` // 0 for anonymous edits
	Type      string    `json:"type" db:"rc_type"`
	LogType   string    `json:"log_type" db:"rc_log_type"` // only set for RCLog
	Namespace string    `json:"namespace" db:"rc_namespace"`
	Title     string    `json:"title" db:"rc_title"`
}

// WikiPage is the subset of a page row the link renderer needs
type WikiPage struct {
	ID         int64  `json:"id" db:"page_id"`
	Namespace  string `json:"namespace" db:"page_namespace"` // canonical name, "" for main
	Title      string `json:"title" db:"page_title"`
	IsRedirect bool   `json:"is_redirect" db:"page_is_redirect"`
}

// MessageOverride is a site-local replacement for a built-in interface message
type MessageOverride struct {
	Key       string    `json:"key" db:"msg_key"`
	Language  string    `json:"language" db:"msg_lang"`
	Text      string    `json:"text" db:"msg_text"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Setting represents a system configuration setting
type Setting struct {
	Key   string `json:"key" db:"key"`
	Value string `json:"value" db:"value"`
}
