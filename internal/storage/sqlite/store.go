package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"moodtrack/internal/cryptox"
	"moodtrack/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS emotion_events (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		text_cipher    BLOB,
		emotion        TEXT NOT NULL,
		sentiment      TEXT NOT NULL DEFAULT '',
		score          REAL NOT NULL,
		provider_model TEXT NOT NULL DEFAULT '',
		created_at     DATETIME NOT NULL,
		extra          TEXT NOT NULL DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS idx_emotion_events_user_created ON emotion_events(user_id, created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

// EventStore persists classification events. Save is append-only; reads
// transparently decrypt the text field before returning domain records.
type EventStore struct {
	db    *sql.DB
	codec *cryptox.Codec
}

func NewEventStore(db *sql.DB, codec *cryptox.Codec) *EventStore {
	return &EventStore{db: db, codec: codec}
}

func (s *EventStore) Save(ctx context.Context, ev domain.EmotionEvent) error {
	cipher, err := s.codec.Encrypt(ev.Text)
	if err != nil {
		return fmt.Errorf("encrypting event text: %w", err)
	}
	extra := ev.Extra
	if extra == nil {
		extra = map[string]string{}
	}
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("encoding event extra: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO emotion_events (id, user_id, text_cipher, emotion, sentiment, score, provider_model, created_at, extra)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, cipher, string(ev.Emotion), string(ev.Sentiment),
		ev.Score, ev.ProviderModel, ev.CreatedAt.UTC(), string(extraJSON),
	)
	return err
}

// FindByUserAndPeriod returns the user's events with created_at >= start
// and < end (inclusive start, exclusive end), ordered by time.
func (s *EventStore) FindByUserAndPeriod(ctx context.Context, userID string, start, end time.Time) ([]domain.EmotionEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, text_cipher, emotion, sentiment, score, provider_model, created_at, extra
		 FROM emotion_events
		 WHERE user_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at`,
		userID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanEvents(rows)
}

// FindByUser returns the user's most recent events, newest first.
func (s *EventStore) FindByUser(ctx context.Context, userID string, limit, offset int) ([]domain.EmotionEvent, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, text_cipher, emotion, sentiment, score, provider_model, created_at, extra
		 FROM emotion_events
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanEvents(rows)
}

// ActiveUserIDs returns the distinct users with at least one event in the
// half-open [start, end) range.
func (s *EventStore) ActiveUserIDs(ctx context.Context, start, end time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM emotion_events WHERE created_at >= ? AND created_at < ? ORDER BY user_id`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// scanEvents decrypts each row's text. A record that fails decryption is
// skipped with a logged anomaly; one corrupt row must not abort the batch.
func (s *EventStore) scanEvents(rows *sql.Rows) ([]domain.EmotionEvent, error) {
	var events []domain.EmotionEvent
	for rows.Next() {
		var (
			ev        domain.EmotionEvent
			cipher    []byte
			emotion   string
			sentiment string
			extraJSON string
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &cipher, &emotion, &sentiment, &ev.Score, &ev.ProviderModel, &ev.CreatedAt, &extraJSON); err != nil {
			return nil, err
		}
		text, err := s.codec.Decrypt(cipher)
		if err != nil {
			log.Printf("storage decrypt error id=%s err=%v (skipping record)", ev.ID, err)
			continue
		}
		ev.Text = text
		ev.Emotion = domain.Emotion(emotion)
		ev.Sentiment = domain.Sentiment(sentiment)
		ev.CreatedAt = ev.CreatedAt.UTC()
		if err := json.Unmarshal([]byte(extraJSON), &ev.Extra); err != nil {
			log.Printf("storage extra decode error id=%s err=%v", ev.ID, err)
			ev.Extra = map[string]string{}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
