// Package database defines the insertions and transactions to the database
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"insight-api/internal/shared"

	_ "github.com/go-sql-driver/mysql"
)

type DailyStats struct {
	Date             string
	Model            string
	RequestCount     uint64
	FailedCount      uint64
	PromptTokens     uint64
	CompletionTokens uint64
	TotalTime        int64
}

// SaveGenerations inserts one row per record and folds the batch into the
// daily per-model stats.
func SaveGenerations(ctx context.Context, tx *sql.Tx, records []*shared.GenerationRecord) error {
	if len(records) == 0 {
		return nil
	}

	generationSQLStr := `INSERT INTO generation (
            request_id, model, prompt_chars,
            prompt_tokens, completion_tokens,
            total_time, success, error_code, created_at
        ) VALUES`

	statsSQLStr := `INSERT INTO daily_generation_stats (
		date, model, request_count, failed_count, prompt_tokens, completion_tokens, total_time
	) VALUES`

	aggregated := make(map[string]*DailyStats)
	// keep the stats insert order stable
	order := []string{}

	generationVals := []any{}
	statsVals := []any{}

	for _, r := range records {
		date := r.CreatedAt.UTC().Format("2006-01-02")
		key := date + "|" + r.Model
		if _, ok := aggregated[key]; !ok {
			aggregated[key] = &DailyStats{Date: date, Model: r.Model}
			order = append(order, key)
		}
		existing := aggregated[key]
		existing.RequestCount++
		existing.TotalTime += r.TotalTime.Milliseconds()
		if !r.Success {
			existing.FailedCount++
		}

		var promptTokens, completionTokens uint64
		if r.Usage != nil {
			promptTokens = r.Usage.PromptTokens
			completionTokens = r.Usage.CompletionTokens
		}
		existing.PromptTokens += promptTokens
		existing.CompletionTokens += completionTokens

		generationSQLStr += "(?, ?, ?, ?, ?, ?, ?, ?, ?),"
		generationVals = append(generationVals,
			r.RequestID, r.Model, r.PromptChars,
			promptTokens, completionTokens,
			r.TotalTime.Milliseconds(), r.Success, r.ErrorCode,
			r.CreatedAt,
		)
	}

	for _, key := range order {
		val := aggregated[key]
		statsSQLStr += "(?, ?, ?, ?, ?, ?, ?),"
		statsVals = append(statsVals, val.Date, val.Model, val.RequestCount, val.FailedCount, val.PromptTokens, val.CompletionTokens, val.TotalTime)
	}

	generationSQLStr = strings.TrimSuffix(generationSQLStr, ",")
	statsSQLStr = strings.TrimSuffix(statsSQLStr, ",")
	statsSQLStr += ` ON DUPLICATE KEY UPDATE
		request_count = request_count + VALUES(request_count),
		failed_count = failed_count + VALUES(failed_count),
		prompt_tokens = prompt_tokens + VALUES(prompt_tokens),
		completion_tokens = completion_tokens + VALUES(completion_tokens),
		total_time = total_time + VALUES(total_time)`

	if _, err := tx.ExecContext(ctx, generationSQLStr, generationVals...); err != nil {
		return fmt.Errorf("failed to save generations: %w", err)
	}

	if _, err := tx.ExecContext(ctx, statsSQLStr, statsVals...); err != nil {
		return fmt.Errorf("failed to save daily stats: %w", err)
	}

	return nil
}

// ExecuteTransaction executes one transaction with one or multiple database executions.
func ExecuteTransaction(ctx context.Context, writeDB *sql.DB, fns []func(*sql.Tx) error) error {
	tx, err := writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, fn := range fns {
		if err := fn(tx); err != nil {
			return fmt.Errorf("failed to execute transaction function: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Open connects to MySQL and pings it.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed initializing sqlClient: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed ping to sql db: %w", err)
	}
	return db, nil
}
