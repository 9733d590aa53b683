package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/buildmart/buildmart-server/internal/dialogue"
	"github.com/buildmart/buildmart-server/internal/domain"
	apperrors "github.com/buildmart/buildmart-server/internal/errors"
	"github.com/buildmart/buildmart-server/internal/replies"
	"github.com/buildmart/buildmart-server/internal/speech"
)

// Assistant produces free-form replies for assistant-mode sessions.
type Assistant interface {
	Reply(ctx context.Context, transcript []domain.Message, language string) (string, error)
}

// LeadArchiver persists the sales lead distilled from a closed session.
type LeadArchiver interface {
	Save(ctx context.Context, lead *domain.Lead) error
}

// Config holds manager tuning.
type Config struct {
	// ThinkingDelay paces the first reply of a turn so the bot does not
	// answer instantly.
	ThinkingDelay time.Duration
	// CompletionDelay paces the completion message after the market
	// insight.
	CompletionDelay time.Duration
	// Speech voices bot replies when a synthesis capability is plugged in.
	// Nil selects the no-op output.
	Speech speech.Output
}

// Manager owns all live sessions. It serializes turns per session, paces
// delayed replies, and persists snapshots through the store.
type Manager struct {
	bank      *replies.Bank
	store     Store
	assistant Assistant
	archiver  LeadArchiver
	speaker   speech.Output
	cfg       Config
	logger    *zap.Logger

	mu   sync.Mutex
	live map[string]*session
}

// NewManager creates a session manager. assistant may be nil when only
// scripted mode is served; archiver may be nil when lead archiving is
// disabled.
func NewManager(bank *replies.Bank, store Store, assistant Assistant, archiver LeadArchiver, cfg Config, logger *zap.Logger) *Manager {
	speaker := cfg.Speech
	if speaker == nil {
		speaker = speech.NoopOutput{}
	}
	return &Manager{
		bank:      bank,
		store:     store,
		assistant: assistant,
		archiver:  archiver,
		speaker:   speaker,
		cfg:       cfg,
		logger:    logger,
		live:      make(map[string]*session),
	}
}

// Open starts a new session and returns its ID together with the spontaneous
// greeting message.
func (m *Manager) Open(ctx context.Context, mode Mode, language string) (string, []domain.Message, error) {
	if !mode.Valid() {
		return "", nil, apperrors.ValidationFailed("unknown session mode")
	}
	if language == "" {
		language = domain.DefaultLanguage
	}

	conv := dialogue.New(m.bank, m.cfg.CompletionDelay)
	s := newSession(mode, language, conv)

	greeting, err := conv.Greet()
	if err != nil {
		return "", nil, apperrors.TemplateError(err)
	}
	s.append(domain.NewMessage(domain.SenderBot, greeting.Body, language))

	m.mu.Lock()
	m.live[s.snap.ID] = s
	m.mu.Unlock()

	if err := m.store.Save(ctx, &s.snap); err != nil {
		m.logger.Warn("session snapshot save failed", zap.String("session_id", s.snap.ID), zap.Error(err))
	}

	m.logger.Info("session opened",
		zap.String("session_id", s.snap.ID),
		zap.String("mode", string(mode)),
		zap.String("language", language),
	)

	return s.snap.ID, s.transcriptCopy(), nil
}

// Submit records a user message and returns the transcript including the
// immediate bot replies. Replies carrying a pacing delay are appended in the
// background and show up in later transcript reads.
func (m *Manager) Submit(ctx context.Context, id, body string, voice bool) ([]domain.Message, error) {
	s, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.Closed {
		return nil, apperrors.ErrSessionClosed
	}

	userMsg := domain.NewMessage(domain.SenderUser, body, s.snap.Conversation.Profile.Language)
	userMsg.VoiceInput = voice
	s.append(userMsg)

	var replyList []dialogue.Reply
	switch s.snap.Mode {
	case ModeAssistant:
		replyList = m.assistantReplies(ctx, s)
	default:
		replyList, err = s.snap.Conversation.HandleMessage(body)
		if err != nil {
			return nil, apperrors.TemplateError(err)
		}
	}

	lang := s.snap.Conversation.Profile.Language
	for _, r := range replyList {
		if r.Delay > 0 {
			m.scheduleReply(s, r, lang)
			continue
		}
		s.append(domain.NewMessage(domain.SenderBot, r.Body, lang))
		m.speak(r.Body, lang)
	}

	if err := m.store.Save(ctx, &s.snap); err != nil {
		m.logger.Warn("session snapshot save failed", zap.String("session_id", id), zap.Error(err))
	}

	return s.transcriptCopy(), nil
}

// assistantReplies asks the upstream model for a reply. A failure degrades to
// the apology template so the chat never goes silent; the error itself stays
// in the logs. Caller holds s.mu.
func (m *Manager) assistantReplies(ctx context.Context, s *session) []dialogue.Reply {
	lang := s.snap.Conversation.Profile.Language

	if m.assistant == nil {
		m.logger.Warn("assistant mode requested but no assistant configured",
			zap.String("session_id", s.snap.ID))
		return m.apology(lang)
	}

	text, err := m.assistant.Reply(ctx, s.snap.Transcript, lang)
	if err != nil {
		m.logger.Warn("assistant reply failed",
			zap.String("session_id", s.snap.ID),
			zap.String("code", string(apperrors.GetCode(err))),
			zap.Error(err),
		)
		return m.apology(lang)
	}
	return []dialogue.Reply{{Body: text, Delay: m.cfg.ThinkingDelay}}
}

// speak voices a bot reply best-effort. A new utterance supersedes one still
// in progress; synthesis never blocks the transcript.
func (m *Manager) speak(body, lang string) {
	if !m.speaker.Available() {
		return
	}
	go func() {
		if err := m.speaker.Speak(context.Background(), body, lang); err != nil {
			m.logger.Debug("speech synthesis failed", zap.Error(err))
		}
	}()
}

func (m *Manager) apology(lang string) []dialogue.Reply {
	body, err := m.bank.Select(replies.Apology, lang, nil)
	if err != nil {
		// Template bank misconfiguration; a hardcoded line beats silence.
		body = "Sorry, I am having trouble right now. Please try again in a moment."
	}
	return []dialogue.Reply{{Body: body}}
}

// scheduleReply appends a paced reply after its delay unless the session has
// closed in the meantime. Caller holds s.mu.
func (m *Manager) scheduleReply(s *session, r dialogue.Reply, lang string) {
	epoch := s.epoch
	timer := time.AfterFunc(r.Delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.snap.Closed || s.epoch != epoch {
			return
		}
		s.append(domain.NewMessage(domain.SenderBot, r.Body, lang))
		m.speak(r.Body, lang)
		if err := m.store.Save(context.Background(), &s.snap); err != nil {
			m.logger.Warn("session snapshot save failed", zap.String("session_id", s.snap.ID), zap.Error(err))
		}
	})
	s.timers = append(s.timers, timer)
}

// Transcript returns a copy of the session transcript.
func (m *Manager) Transcript(ctx context.Context, id string) ([]domain.Message, error) {
	s, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcriptCopy(), nil
}

// Profile returns the captured profile for the session.
func (m *Manager) Profile(ctx context.Context, id string) (domain.Profile, error) {
	s, err := m.get(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Conversation.Profile, nil
}

// Close ends a session. Pending delayed replies are discarded, the snapshot
// is removed from the store, and a lead is archived when a name was captured.
func (m *Manager) Close(ctx context.Context, id string) error {
	s, err := m.get(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.snap.Closed {
		s.mu.Unlock()
		return nil
	}
	s.snap.Closed = true
	s.epoch++
	for _, timer := range s.timers {
		timer.Stop()
	}
	s.timers = nil
	profile := s.snap.Conversation.Profile
	s.mu.Unlock()

	m.mu.Lock()
	delete(m.live, id)
	m.mu.Unlock()

	m.speaker.Cancel()

	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Warn("session snapshot delete failed", zap.String("session_id", id), zap.Error(err))
	}

	if m.archiver != nil && profile.Name != "" {
		lead := domain.NewLead(id, profile)
		if err := m.archiver.Save(ctx, lead); err != nil {
			m.logger.Error("lead archive failed",
				zap.String("session_id", id),
				zap.Error(err),
			)
		} else {
			m.logger.Info("lead archived",
				zap.String("session_id", id),
				zap.String("category", string(lead.Category)),
			)
		}
	}

	m.logger.Info("session closed", zap.String("session_id", id))
	return nil
}

// ActiveCount returns the number of live sessions in this process.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// get returns the live session for id, restoring it from the store when this
// process has not seen it yet.
func (m *Manager) get(ctx context.Context, id string) (*session, error) {
	m.mu.Lock()
	s, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.Conversation == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	snap.Conversation.Attach(m.bank, m.cfg.CompletionDelay)

	s = &session{snap: *snap}

	m.mu.Lock()
	// Another request may have restored it concurrently; keep the first.
	if existing, ok := m.live[id]; ok {
		s = existing
	} else {
		m.live[id] = s
	}
	m.mu.Unlock()

	return s, nil
}
