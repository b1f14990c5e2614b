package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

// Fixed ids so test failures print stable values.
var (
	testSectionReading  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testSectionSpeaking = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	qSingle             = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	qMulti              = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	qMatching           = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003")
	qCompletion         = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000004")
	qSpeaking           = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000005")
	testAttemptID       = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")
)

type fakeSaver struct {
	mu       sync.Mutex
	payloads []model.AutosavePayload
	err      error
}

func (f *fakeSaver) SaveAnswers(_ context.Context, payload model.AutosavePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func (f *fakeSaver) last() model.AutosavePayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloads[len(f.payloads)-1]
}

func (f *fakeSaver) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type finalizeCall struct {
	attemptID     uuid.UUID
	autoTriggered bool
	timeUsed      time.Duration
}

type fakeFinalizer struct {
	mu    sync.Mutex
	calls []finalizeCall
	err   error
}

func (f *fakeFinalizer) Finalize(_ context.Context, attemptID uuid.UUID, autoTriggered bool, timeUsed time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, finalizeCall{attemptID, autoTriggered, timeUsed})
	return nil
}

func (f *fakeFinalizer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFinalizer) call(i int) finalizeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, filename, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "audio:speaking/" + filename, nil
}

func testPaper() *model.Paper {
	return &model.Paper{
		Sections: []model.Section{
			{
				ID:    testSectionReading,
				Skill: model.SkillReading,
				Ord:   1,
				Groups: []model.QuestionGroup{
					{
						Questions: []model.Question{
							{ID: qSingle, Idx: 1, Skill: model.SkillReading, Type: model.QuestionTypeSingleChoice},
							{ID: qMulti, Idx: 2, Skill: model.SkillReading, Type: model.QuestionTypeMultiChoice},
							{ID: qMatching, Idx: 3, Skill: model.SkillReading, Type: model.QuestionTypeMatching},
							{ID: qCompletion, Idx: 4, Skill: model.SkillReading, Type: model.QuestionTypeCompletion},
						},
					},
				},
			},
			{
				ID:    testSectionSpeaking,
				Skill: model.SkillSpeaking,
				Ord:   2,
				Groups: []model.QuestionGroup{
					{
						Questions: []model.Question{
							{ID: qSpeaking, Idx: 5, Skill: model.SkillSpeaking, Type: model.QuestionTypeSpeakingTask},
						},
					},
				},
			},
		},
	}
}

type testDeps struct {
	saver     *fakeSaver
	finalizer *fakeFinalizer
	uploader  *fakeUploader
}

// newTestSession builds a session over the fixture paper with a long
// attempt clock and a quiet window wide enough that the debounced
// autosave never fires during a test unless the test waits for it.
func newTestSession(opts ...func(*Options)) (*Session, *testDeps) {
	deps := &testDeps{
		saver:     &fakeSaver{},
		finalizer: &fakeFinalizer{},
		uploader:  &fakeUploader{},
	}

	o := Options{
		Attempt: model.Attempt{
			ID:          testAttemptID,
			StartedAt:   time.Now(),
			Status:      model.AttemptStatusInProgress,
			DurationSec: 3600,
		},
		Paper:     testPaper(),
		Window:    time.Hour,
		Saver:     deps.saver,
		Finalizer: deps.finalizer,
		Uploader:  deps.uploader,
		Logger:    zerolog.Nop(),
	}
	for _, fn := range opts {
		fn(&o)
	}

	return New(o), deps
}
