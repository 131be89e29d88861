package db

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateSession records a new mapping session under the given ID
func (db *DB) CreateSession(ctx context.Context, id uuid.UUID, inputFormat, outputFormat, schemaName string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO mapping_sessions (id, input_format, output_format, schema_name, status)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET status = $5, completed_at = NULL`,
		id, inputFormat, outputFormat, schemaName, StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// CompleteSession marks a session as finished with the given status
func (db *DB) CompleteSession(ctx context.Context, id uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE mapping_sessions SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. It returns nil when no session exists.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	err := db.pool.QueryRow(ctx,
		`SELECT id, input_format, output_format, schema_name, status, created_at, completed_at
		 FROM mapping_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.InputFormat, &s.OutputFormat, &s.SchemaName, &s.Status, &s.CreatedAt, &s.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// SaveDocument stores the document tree held under format for a session
func (db *DB) SaveDocument(ctx context.Context, sessionID uuid.UUID, format string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO session_documents (session_id, format, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id, format) DO UPDATE SET content = $3, updated_at = NOW()`,
		sessionID, format, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", format, err)
	}
	return nil
}

// GetDocument retrieves the raw JSON of a session document. It returns nil when
// the session holds no document in that format.
func (db *DB) GetDocument(ctx context.Context, sessionID uuid.UUID, format string) ([]byte, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM session_documents WHERE session_id = $1 AND format = $2`,
		sessionID, format,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document %s: %w", format, err)
	}
	return content, nil
}

// SaveMissingFields replaces the missing field list of a session, keeping order
func (db *DB) SaveMissingFields(ctx context.Context, sessionID uuid.UUID, paths []string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM missing_fields WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear missing fields: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range paths {
		batch.Queue(`INSERT INTO missing_fields (session_id, ordinal, path) VALUES ($1, $2, $3)`, sessionID, i, p)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert missing fields: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit missing fields: %w", err)
	}
	return nil
}

// GetMissingFields retrieves the missing field list of a session in recorded order
func (db *DB) GetMissingFields(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT path FROM missing_fields WHERE session_id = $1 ORDER BY ordinal`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list missing fields: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan missing field: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list missing fields: %w", err)
	}
	return paths, nil
}
