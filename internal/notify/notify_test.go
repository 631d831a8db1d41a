package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lumen-board/feedcore/internal/database"
	"lumen-board/feedcore/internal/models"
)

type captureSink struct {
	mu   sync.Mutex
	got  []string
	fail bool
}

func (s *captureSink) Notify(ctx context.Context, recipientID string, kind models.NotificationKind, message, actorAvatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.got = append(s.got, recipientID+"/"+string(kind)+"/"+message)
	return nil
}

func (s *captureSink) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.got...)
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink)

	d.Enqueue("alice", models.NotifyReaction, "bob reacted", "")
	d.Enqueue("alice", models.NotifyComment, "bob commented", "")
	d.Enqueue("carol", models.NotifyShare, "bob shared", "")
	d.Close()

	got := sink.delivered()
	want := []string{
		"alice/reaction/bob reacted",
		"alice/comment/bob commented",
		"carol/share/bob shared",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d deliveries, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delivery %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDispatcher_SinkFailuresAreSwallowed(t *testing.T) {
	sink := &captureSink{fail: true}
	d := NewDispatcher(sink)

	// Enqueue must keep accepting work while the sink is failing.
	for i := 0; i < 20; i++ {
		d.Enqueue("alice", models.NotifyReaction, "ping", "")
	}
	d.Close()

	if got := sink.delivered(); len(got) != 0 {
		t.Errorf("failing sink should deliver nothing, got %v", got)
	}
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(&captureSink{})
	d.Close()
	d.Close()
}

func TestStoreNotifier_PersistsAndLists(t *testing.T) {
	db, err := database.NewMemoryDB()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	defer db.Close()

	sink := NewStoreNotifier(db)
	ctx := context.Background()

	if err := sink.Notify(ctx, "alice", models.NotifyComment, "bob commented on your idea", "https://cdn/bob.png"); err != nil {
		t.Fatalf("notifying: %v", err)
	}
	if err := sink.Notify(ctx, "carol", models.NotifyShare, "bob shared your article", ""); err != nil {
		t.Fatalf("notifying: %v", err)
	}

	rows, err := sink.ListForRecipient(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("listing notifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification for alice, got %d", len(rows))
	}
	if rows[0].Kind != models.NotifyComment || rows[0].Message != "bob commented on your idea" {
		t.Errorf("unexpected notification: %+v", rows[0])
	}
	if !rows[0].ActorAvatarURL.Valid || rows[0].ActorAvatarURL.String != "https://cdn/bob.png" {
		t.Errorf("avatar not persisted: %+v", rows[0])
	}
}
