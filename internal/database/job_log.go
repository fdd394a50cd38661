// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package database persists the cleaning job log in SQLite.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cleandoc/internal/cleaner"
)

// JobStatus is the outcome of one cleaning job.
type JobStatus string

const (
	JobStatusOK    JobStatus = "OK"
	JobStatusError JobStatus = "ERROR"
)

// JobLog is one cleaning job entry.
type JobLog struct {
	ID                int64     `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	ClientIP          string    `json:"client_ip"`
	Filename          string    `json:"filename"`
	Status            string    `json:"status"`
	ImagesRemoved     int       `json:"images_removed"`
	ParagraphsCleaned int       `json:"institutional_paragraphs_cleaned"`
	TextboxesCleaned  int       `json:"textboxes_cleaned"`
	SignatureRemoved  bool      `json:"signature_section_removed"`
	ParagraphsRemoved int       `json:"paragraphs_removed"`
	Note              string    `json:"note,omitempty"`
}

// JobLogStore manages the job log table.
type JobLogStore struct {
	db *sql.DB
}

// NewJobLogStore creates a new job log store.
func NewJobLogStore(db *sql.DB) (*JobLogStore, error) {
	store := &JobLogStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize job log schema: %w", err)
	}
	return store, nil
}

// initSchema creates the job_logs table if it doesn't exist.
func (s *JobLogStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS job_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		client_ip TEXT NOT NULL,
		filename TEXT NOT NULL,
		status TEXT NOT NULL,
		images_removed INTEGER NOT NULL DEFAULT 0,
		paragraphs_cleaned INTEGER NOT NULL DEFAULT 0,
		textboxes_cleaned INTEGER NOT NULL DEFAULT 0,
		signature_removed INTEGER NOT NULL DEFAULT 0,
		paragraphs_removed INTEGER NOT NULL DEFAULT 0,
		note TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_job_logs_timestamp ON job_logs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_job_logs_status ON job_logs(status);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create job log schema: %w", err)
	}
	return nil
}

// LogJob records one cleaning job. stats may be nil for failed jobs.
func (s *JobLogStore) LogJob(clientIP, filename string, stats *cleaner.Stats, status JobStatus, note string) error {
	if stats == nil {
		stats = &cleaner.Stats{}
	}
	_, err := s.db.Exec(
		`INSERT INTO job_logs
		(timestamp, client_ip, filename, status, images_removed, paragraphs_cleaned,
		 textboxes_cleaned, signature_removed, paragraphs_removed, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now(),
		clientIP,
		filename,
		string(status),
		stats.ImagesRemoved,
		stats.ParagraphsCleaned,
		stats.TextboxesCleaned,
		boolToInt(stats.SignatureRemoved),
		stats.ParagraphsRemoved,
		note,
	)
	return err
}

// RecentJobs returns the last N job entries, newest first.
func (s *JobLogStore) RecentJobs(limit int) ([]JobLog, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, client_ip, filename, status, images_removed,
		        paragraphs_cleaned, textboxes_cleaned, signature_removed,
		        paragraphs_removed, COALESCE(note, '')
		   FROM job_logs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []JobLog
	for rows.Next() {
		var job JobLog
		var sig int
		if err := rows.Scan(&job.ID, &job.Timestamp, &job.ClientIP, &job.Filename,
			&job.Status, &job.ImagesRemoved, &job.ParagraphsCleaned,
			&job.TextboxesCleaned, &sig, &job.ParagraphsRemoved, &job.Note); err != nil {
			return nil, err
		}
		job.SignatureRemoved = sig != 0
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
