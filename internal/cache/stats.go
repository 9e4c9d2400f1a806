package cache

import (
	"context"
	"fmt"
	"time"
)

// Stats summarizes cache usage from the audit log and the current slots
type Stats struct {
	TotalCalls      int             `json:"total_calls" yaml:"total_calls"`
	SuccessfulCalls int             `json:"successful_calls" yaml:"successful_calls"`
	FailedCalls     int             `json:"failed_calls" yaml:"failed_calls"`
	CachedEntries   int             `json:"cached_entries" yaml:"cached_entries"`
	CachedSuccesses int             `json:"cached_successes" yaml:"cached_successes"`
	Interactions    int             `json:"interactions" yaml:"interactions"`
	RecordsFound    int             `json:"records_found" yaml:"records_found"`
	Resolved        []SeriesVolumes `json:"resolved" yaml:"resolved"`
	Recent          []Interaction   `json:"recent" yaml:"recent"`
}

// SeriesVolumes lists the volumes of a series that have ever resolved
type SeriesVolumes struct {
	Series  string `json:"series" yaml:"series"`
	Volumes []int  `json:"volumes" yaml:"volumes"`
}

// Interaction is one recorded batch run
type Interaction struct {
	Query        string    `json:"query" yaml:"query"`
	RecordsFound int       `json:"records_found" yaml:"records_found"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
}

// RecordInteraction appends a batch run to the interaction log
func (db *DB) RecordInteraction(ctx context.Context, query string, recordsFound int) error {
	_, err := db.conn.ExecContext(ctx, insertInteraction, query, recordsFound, db.now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

// Stats gathers usage statistics, including the last recent interactions
func (db *DB) Stats(ctx context.Context, recent int) (*Stats, error) {
	s := &Stats{}

	if err := db.conn.QueryRowContext(ctx, selectCallTotals).
		Scan(&s.TotalCalls, &s.SuccessfulCalls, &s.FailedCalls); err != nil {
		return nil, fmt.Errorf("failed to count api calls: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, selectSlotTotals).
		Scan(&s.CachedEntries, &s.CachedSuccesses); err != nil {
		return nil, fmt.Errorf("failed to count cache entries: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, selectInteractionTotals).
		Scan(&s.Interactions, &s.RecordsFound); err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}

	resolved, err := db.Resolved(ctx)
	if err != nil {
		return nil, err
	}
	s.Resolved = resolved

	if recent > 0 {
		s.Recent, err = db.recentInteractions(ctx, recent)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Resolved lists, per series, every volume that has ever been resolved
// successfully according to the audit log
func (db *DB) Resolved(ctx context.Context) ([]SeriesVolumes, error) {
	rows, err := db.conn.QueryContext(ctx, selectResolvedVolumes)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolved volumes: %w", err)
	}
	defer rows.Close()

	var result []SeriesVolumes
	for rows.Next() {
		var series string
		var volume int
		if err := rows.Scan(&series, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if len(result) == 0 || result[len(result)-1].Series != series {
			result = append(result, SeriesVolumes{Series: series})
		}
		last := &result[len(result)-1]
		last.Volumes = append(last.Volumes, volume)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resolved volumes: %w", err)
	}

	return result, nil
}

func (db *DB) recentInteractions(ctx context.Context, limit int) ([]Interaction, error) {
	rows, err := db.conn.QueryContext(ctx, selectRecentInteractions, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var result []Interaction
	for rows.Next() {
		var i Interaction
		var createdAt string
		if err := rows.Scan(&i.Query, &i.RecordsFound, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		i.Timestamp, _ = time.Parse(timeFormat, createdAt)
		result = append(result, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read interactions: %w", err)
	}

	return result, nil
}
