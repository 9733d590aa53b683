package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/buildmart/buildmart-server/internal/domain"
	apperrors "github.com/buildmart/buildmart-server/internal/errors"
	"github.com/buildmart/buildmart-server/internal/replies"
)

type fakeAssistant struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
}

func (f *fakeAssistant) Reply(_ context.Context, _ []domain.Message, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "ok", nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r, nil
}

type fakeArchiver struct {
	mu    sync.Mutex
	leads []*domain.Lead
}

func (f *fakeArchiver) Save(_ context.Context, lead *domain.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return nil
}

func newTestManager(t *testing.T, assistant Assistant, archiver LeadArchiver, cfg Config) *Manager {
	t.Helper()
	bank, err := replies.NewBank(1)
	require.NoError(t, err)
	return NewManager(bank, NewMemoryStore(0), assistant, archiver, cfg, zap.NewNop())
}

func TestOpenEmitsGreeting(t *testing.T) {
	m := newTestManager(t, nil, nil, Config{})

	id, msgs, err := m.Open(context.Background(), ModeScripted, "en")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.SenderBot, msgs[0].Sender)
	assert.NotEmpty(t, msgs[0].Body)
}

func TestOpenRejectsUnknownMode(t *testing.T) {
	m := newTestManager(t, nil, nil, Config{})

	_, _, err := m.Open(context.Background(), Mode("telepathy"), "en")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.GetCode(err))
}

func TestSubmitOrdersUserBeforeOwnReply(t *testing.T) {
	m := newTestManager(t, nil, nil, Config{})

	id, _, err := m.Open(context.Background(), ModeScripted, "en")
	require.NoError(t, err)

	// Two concurrent submits; whatever the interleaving, each user message
	// must appear before the replies it produced.
	var wg sync.WaitGroup
	for _, body := range []string{"hello", "Rohit"} {
		wg.Add(1)
		go func(b string) {
			defer wg.Done()
			_, err := m.Submit(context.Background(), id, b, false)
			assert.NoError(t, err)
		}(body)
	}
	wg.Wait()

	transcript, err := m.Transcript(context.Background(), id)
	require.NoError(t, err)

	// greeting + 2 user turns, each with at least one reply
	require.GreaterOrEqual(t, len(transcript), 5)
	for i, msg := range transcript {
		if msg.Sender == domain.SenderUser {
			require.Less(t, i+1, len(transcript), "user message %q has no reply after it", msg.Body)
			assert.Equal(t, domain.SenderBot, transcript[i+1].Sender)
		}
	}
}

func TestSubmitAfterCloseFails(t *testing.T) {
	m := newTestManager(t, nil, nil, Config{})

	id, _, err := m.Open(context.Background(), ModeScripted, "en")
	require.NoError(t, err)
	require.NoError(t, m.Close(context.Background(), id))

	_, err = m.Submit(context.Background(), id, "hello", false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestSubmitUnknownSession(t *testing.T) {
	m := newTestManager(t, nil, nil, Config{})

	_, err := m.Submit(context.Background(), "no-such-id", "hello", false)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestDelayedCompletionArrivesLater(t *testing.T) {
	m := newTestManager(t, nil, nil, Config{CompletionDelay: 30 * time.Millisecond})

	id, _, err := m.Open(context.Background(), ModeScripted, "en")
	require.NoError(t, err)

	for _, body := range []string{"hello", "Asha", "indore", "cement"} {
		_, err := m.Submit(context.Background(), id, body, false)
		require.NoError(t, err)
	}

	immediate, err := m.Submit(context.Background(), id, "50 bags OPC 53", false)
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for {
		transcript, err := m.Transcript(context.Background(), id)
		require.NoError(t, err)
		if len(transcript) > len(immediate) {
			break
		}
		require.True(t, time.Now().Before(deadline), "delayed completion reply never arrived")
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCloseDiscardsPendingReplies(t *testing.T) {
	m := newTestManager(t, nil, nil, Config{CompletionDelay: 50 * time.Millisecond})

	id, _, err := m.Open(context.Background(), ModeScripted, "en")
	require.NoError(t, err)

	for _, body := range []string{"hello", "Asha", "indore", "cement", "50 bags"} {
		_, err := m.Submit(context.Background(), id, body, false)
		require.NoError(t, err)
	}

	require.NoError(t, m.Close(context.Background(), id))
	time.Sleep(100 * time.Millisecond)
	// The session is gone; the delayed reply must not have resurrected it.
	_, err = m.Transcript(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestAssistantModeUsesModelReply(t *testing.T) {
	fa := &fakeAssistant{replies: []string{"OPC 53 is the right pick."}}
	m := newTestManager(t, fa, nil, Config{})

	id, _, err := m.Open(context.Background(), ModeAssistant, "en")
	require.NoError(t, err)

	transcript, err := m.Submit(context.Background(), id, "which cement grade?", false)
	require.NoError(t, err)

	last := transcript[len(transcript)-1]
	assert.Equal(t, domain.SenderBot, last.Sender)
	assert.Equal(t, "OPC 53 is the right pick.", last.Body)
	assert.Equal(t, 1, fa.calls)
}

func TestAssistantFailureDegradesToApology(t *testing.T) {
	fa := &fakeAssistant{err: apperrors.ErrRateLimited}
	m := newTestManager(t, fa, nil, Config{})

	id, _, err := m.Open(context.Background(), ModeAssistant, "en")
	require.NoError(t, err)

	transcript, err := m.Submit(context.Background(), id, "hello?", false)
	require.NoError(t, err, "assistant failure must not fail the turn")

	last := transcript[len(transcript)-1]
	assert.Equal(t, domain.SenderBot, last.Sender)
	assert.NotEmpty(t, last.Body)
}

func TestCloseArchivesLead(t *testing.T) {
	fa := &fakeArchiver{}
	m := newTestManager(t, nil, fa, Config{})

	id, _, err := m.Open(context.Background(), ModeScripted, "en")
	require.NoError(t, err)

	for _, body := range []string{"hello", "Rohit", "pune", "tmt steel", "12mm 5 tons"} {
		_, err := m.Submit(context.Background(), id, body, false)
		require.NoError(t, err)
	}
	require.NoError(t, m.Close(context.Background(), id))

	require.Len(t, fa.leads, 1)
	lead := fa.leads[0]
	assert.Equal(t, id, lead.SessionID)
	assert.Equal(t, "Rohit", lead.Name)
	assert.Equal(t, domain.CategoryTMTSteel, lead.Category)
}

func TestCloseWithoutNameSkipsArchive(t *testing.T) {
	fa := &fakeArchiver{}
	m := newTestManager(t, nil, fa, Config{})

	id, _, err := m.Open(context.Background(), ModeScripted, "en")
	require.NoError(t, err)
	require.NoError(t, m.Close(context.Background(), id))

	assert.Empty(t, fa.leads)
}

func TestSessionRestoredFromStore(t *testing.T) {
	bank, err := replies.NewBank(1)
	require.NoError(t, err)
	store := NewMemoryStore(0)

	first := NewManager(bank, store, nil, nil, Config{}, zap.NewNop())
	id, _, err := first.Open(context.Background(), ModeScripted, "en")
	require.NoError(t, err)
	_, err = first.Submit(context.Background(), id, "hello", false)
	require.NoError(t, err)

	// A second manager sharing the store picks the session up mid-flow.
	second := NewManager(bank, store, nil, nil, Config{}, zap.NewNop())
	transcript, err := second.Submit(context.Background(), id, "Rohit", false)
	require.NoError(t, err)

	profile, err := second.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Rohit", profile.Name)
	assert.NotEmpty(t, transcript)
}

func TestMemoryStoreTTL(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	snap := &Snapshot{ID: "s1"}
	require.NoError(t, store.Save(context.Background(), snap))

	_, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = store.Load(context.Background(), "s1")
	assert.True(t, errors.Is(err, apperrors.ErrSessionNotFound))
}

type fakeSpeaker struct {
	mu        sync.Mutex
	spoken    []string
	cancelled bool
}

func (f *fakeSpeaker) Speak(_ context.Context, text, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeSpeaker) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
}

func (f *fakeSpeaker) Available() bool { return true }

func TestSpeechSpeaksRepliesAndCancelsOnClose(t *testing.T) {
	speaker := &fakeSpeaker{}
	m := newTestManager(t, nil, nil, Config{Speech: speaker})

	id, _, err := m.Open(context.Background(), ModeScripted, "en")
	require.NoError(t, err)
	_, err = m.Submit(context.Background(), id, "hello", false)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		speaker.mu.Lock()
		defer speaker.mu.Unlock()
		return len(speaker.spoken) > 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, m.Close(context.Background(), id))
	speaker.mu.Lock()
	assert.True(t, speaker.cancelled)
	speaker.mu.Unlock()
}
