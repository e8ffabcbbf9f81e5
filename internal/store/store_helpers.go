package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"dubwatch/internal/job"
)

const snapshotColumns = "job_id, status, progress, target_languages_json, source_video_id, source_channel_id, error_message, created_at"

func scanSnapshot(scanner interface{ Scan(dest ...any) error }) (*job.Job, error) {
	var (
		jobID         string
		statusStr     string
		progress      int
		languagesJSON sql.NullString
		videoID       sql.NullString
		channelID     sql.NullString
		errorMessage  sql.NullString
		createdRaw    sql.NullString
	)

	if err := scanner.Scan(
		&jobID,
		&statusStr,
		&progress,
		&languagesJSON,
		&videoID,
		&channelID,
		&errorMessage,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	snapshot := &job.Job{
		ID:              jobID,
		Status:          job.Status(statusStr),
		Progress:        progress,
		SourceVideoID:   videoID.String,
		SourceChannelID: channelID.String,
		ErrorMessage:    errorMessage.String,
	}
	if languagesJSON.Valid && languagesJSON.String != "" {
		if err := json.Unmarshal([]byte(languagesJSON.String), &snapshot.TargetLanguages); err != nil {
			return nil, err
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		snapshot.CreatedAt = created
	}
	return snapshot, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTimeValue(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
