package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

type upsertCall struct {
	attemptID uuid.UUID
	up        model.AnswerUpsert
	revision  int64
}

type deleteAbsentCall struct {
	attemptID uuid.UUID
	keep      []uuid.UUID
	revision  int64
}

type fakeAnswerStore struct {
	upserts   []upsertCall
	deletes   []deleteAbsentCall
	upsertErr error
}

func (f *fakeAnswerStore) Upsert(_ context.Context, attemptID uuid.UUID, up model.AnswerUpsert, revision int64) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, upsertCall{attemptID, up, revision})
	return nil
}

func (f *fakeAnswerStore) DeleteAbsent(_ context.Context, attemptID uuid.UUID, keep []uuid.UUID, revision int64) error {
	f.deletes = append(f.deletes, deleteAbsentCall{attemptID, keep, revision})
	return nil
}

func TestPersistReconcilesSnapshot(t *testing.T) {
	attemptID := uuid.New()
	qa, qb := uuid.New(), uuid.New()
	store := &fakeAnswerStore{}
	w := &AutosaveWorker{answerRepo: store, log: zerolog.Nop()}

	payload := model.AutosavePayload{
		AttemptID: attemptID,
		Answers: []model.AnswerUpsert{
			{QuestionID: qa, AnswerText: "harbour"},
			{QuestionID: qb, SelectedOptionIDs: []string{"opt-b"}},
		},
		ClientRevision: 42,
	}
	if err := w.persist(context.Background(), &payload); err != nil {
		t.Fatalf("persist: %v", err)
	}

	if len(store.upserts) != 2 {
		t.Fatalf("upserted %d rows, want 2", len(store.upserts))
	}
	for _, call := range store.upserts {
		if call.attemptID != attemptID || call.revision != 42 {
			t.Errorf("upsert carried attempt %s rev %d, want %s rev 42",
				call.attemptID, call.revision, attemptID)
		}
	}

	if len(store.deletes) != 1 {
		t.Fatalf("DeleteAbsent called %d times, want 1", len(store.deletes))
	}
	del := store.deletes[0]
	if del.attemptID != attemptID || del.revision != 42 {
		t.Errorf("DeleteAbsent carried attempt %s rev %d, want %s rev 42",
			del.attemptID, del.revision, attemptID)
	}
	if len(del.keep) != 2 || del.keep[0] != qa || del.keep[1] != qb {
		t.Errorf("DeleteAbsent keep = %v, want [%s %s]", del.keep, qa, qb)
	}
}

// An empty payload means the candidate cleared everything: no upserts,
// and the delete sweep runs against an empty keep list.
func TestPersistEmptySnapshotDeletesAllRows(t *testing.T) {
	attemptID := uuid.New()
	store := &fakeAnswerStore{}
	w := &AutosaveWorker{answerRepo: store, log: zerolog.Nop()}

	payload := model.AutosavePayload{AttemptID: attemptID, ClientRevision: 7}
	if err := w.persist(context.Background(), &payload); err != nil {
		t.Fatalf("persist: %v", err)
	}

	if len(store.upserts) != 0 {
		t.Errorf("upserted %d rows, want 0", len(store.upserts))
	}
	if len(store.deletes) != 1 {
		t.Fatalf("DeleteAbsent called %d times, want 1", len(store.deletes))
	}
	if got := store.deletes[0]; got.attemptID != attemptID || len(got.keep) != 0 {
		t.Errorf("DeleteAbsent = attempt %s keep %v, want %s with empty keep",
			got.attemptID, got.keep, attemptID)
	}
}

func TestPersistUpsertFailureSkipsDeleteSweep(t *testing.T) {
	store := &fakeAnswerStore{upsertErr: errors.New("connection reset")}
	w := &AutosaveWorker{answerRepo: store, log: zerolog.Nop()}

	payload := model.AutosavePayload{
		AttemptID:      uuid.New(),
		Answers:        []model.AnswerUpsert{{QuestionID: uuid.New(), AnswerText: "x"}},
		ClientRevision: 1,
	}
	if err := w.persist(context.Background(), &payload); err == nil {
		t.Fatal("persist swallowed the upsert error")
	}
	if len(store.deletes) != 0 {
		t.Errorf("DeleteAbsent ran %d times after a failed upsert, want 0", len(store.deletes))
	}
}
