package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"moodtrack/internal/cryptox"
	"moodtrack/internal/domain"
)

func newTestStore(t *testing.T) (*EventStore, *sql.DB) {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	codec, err := cryptox.NewFromSecret("test-secret", "test-salt")
	if err != nil {
		t.Fatalf("NewFromSecret: %v", err)
	}
	return NewEventStore(db, codec), db
}

func testEvent(userID string, createdAt time.Time) domain.EmotionEvent {
	return domain.EmotionEvent{
		ID:            domain.NewEventID(),
		UserID:        userID,
		Text:          "oggi mi sento felice",
		Emotion:       domain.EmotionJoy,
		Sentiment:     domain.SentimentPositive,
		Score:         0.85,
		ProviderModel: "groq/llama-3.3-70b-versatile",
		CreatedAt:     createdAt,
		Extra:         map[string]string{"sentiment_score": "0.85"},
	}
}

func TestSaveAndFind(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	createdAt := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	ev := testEvent("user-a", createdAt)
	if err := store.Save(ctx, ev); err != nil {
		t.Fatalf("Save: %v", err)
	}

	start, end := domain.Period{Year: 2026, Month: time.January}.Bounds()
	events, err := store.FindByUserAndPeriod(ctx, "user-a", start, end)
	if err != nil {
		t.Fatalf("FindByUserAndPeriod: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	got := events[0]
	if got.Text != ev.Text {
		t.Errorf("text = %q, want %q", got.Text, ev.Text)
	}
	if got.Emotion != domain.EmotionJoy || got.Sentiment != domain.SentimentPositive {
		t.Errorf("labels = %q/%q", got.Emotion, got.Sentiment)
	}
	if got.Score != 0.85 {
		t.Errorf("score = %v", got.Score)
	}
	if got.Extra["sentiment_score"] != "0.85" {
		t.Errorf("extra = %v", got.Extra)
	}
}

func TestTextStoredEncrypted(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	ev := testEvent("user-a", time.Now().UTC())
	if err := store.Save(ctx, ev); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var cipher []byte
	if err := db.QueryRow(`SELECT text_cipher FROM emotion_events WHERE id = ?`, ev.ID).Scan(&cipher); err != nil {
		t.Fatalf("query raw cipher: %v", err)
	}
	if string(cipher) == ev.Text {
		t.Error("text stored as plaintext")
	}
	if len(cipher) == 0 {
		t.Error("cipher column is empty")
	}
}

func TestPeriodBoundaries(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// First instant of the month is in range, first instant of the next
	// month is not.
	inRange := testEvent("user-a", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	lastDay := testEvent("user-a", time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC))
	nextMonth := testEvent("user-a", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	for _, ev := range []domain.EmotionEvent{inRange, lastDay, nextMonth} {
		if err := store.Save(ctx, ev); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	start, end := domain.Period{Year: 2026, Month: time.January}.Bounds()
	events, err := store.FindByUserAndPeriod(ctx, "user-a", start, end)
	if err != nil {
		t.Fatalf("FindByUserAndPeriod: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, ev := range events {
		if ev.ID == nextMonth.ID {
			t.Error("event at the exclusive end boundary was included")
		}
	}
}

func TestFindByUserIsolation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	if err := store.Save(ctx, testEvent("user-a", now)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, testEvent("user-b", now)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	start, end := domain.Period{Year: 2026, Month: time.January}.Bounds()
	events, err := store.FindByUserAndPeriod(ctx, "user-a", start, end)
	if err != nil {
		t.Fatalf("FindByUserAndPeriod: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events for user-a, want 1", len(events))
	}
}

func TestFindByUserPagination(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if err := store.Save(ctx, testEvent("user-a", base.AddDate(0, 0, i))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	page, err := store.FindByUser(ctx, "user-a", 2, 0)
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d events, want 2", len(page))
	}
	// Newest first.
	if !page[0].CreatedAt.After(page[1].CreatedAt) {
		t.Errorf("page not ordered newest first: %v, %v", page[0].CreatedAt, page[1].CreatedAt)
	}

	rest, err := store.FindByUser(ctx, "user-a", 10, 2)
	if err != nil {
		t.Fatalf("FindByUser offset: %v", err)
	}
	if len(rest) != 3 {
		t.Fatalf("got %d events after offset, want 3", len(rest))
	}
}

func TestActiveUserIDs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	jan := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	if err := store.Save(ctx, testEvent("user-a", jan)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, testEvent("user-a", jan.AddDate(0, 0, 1))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, testEvent("user-b", jan)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, testEvent("user-c", feb)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	start, end := domain.Period{Year: 2026, Month: time.January}.Bounds()
	ids, err := store.ActiveUserIDs(ctx, start, end)
	if err != nil {
		t.Fatalf("ActiveUserIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "user-a" || ids[1] != "user-b" {
		t.Fatalf("ids = %v, want [user-a user-b]", ids)
	}
}

func TestCorruptRecordSkipped(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	good := testEvent("user-a", now)
	if err := store.Save(ctx, good); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Corrupt a second record's ciphertext below the store API.
	bad := testEvent("user-a", now.Add(time.Hour))
	if err := store.Save(ctx, bad); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := db.Exec(`UPDATE emotion_events SET text_cipher = X'0102' WHERE id = ?`, bad.ID); err != nil {
		t.Fatalf("corrupting record: %v", err)
	}

	start, end := domain.Period{Year: 2026, Month: time.January}.Bounds()
	events, err := store.FindByUserAndPeriod(ctx, "user-a", start, end)
	if err != nil {
		t.Fatalf("FindByUserAndPeriod: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want corrupt record skipped", len(events))
	}
	if events[0].ID != good.ID {
		t.Errorf("surviving event = %s, want %s", events[0].ID, good.ID)
	}
}
