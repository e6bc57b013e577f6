// Package convo drives the multi-turn car search conversation. Each turn
// folds freshly extracted criteria into the session, decides whether the
// user wants a one-time search or recurring updates, and calls out to the
// scraper, storage, and scheduler collaborators.
package convo

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/DriveScout/drivescout/engine/domain"
	"github.com/DriveScout/drivescout/pkg/metrics"
)

// Conversation states. An unrecognized state resets the session.
const (
	StateInitial       = "INITIAL"
	StateAskUpdateType = "ASK_UPDATE_TYPE"
	StateAskSchedule   = "ASK_SCHEDULE"
)

// Turn actions reported to the caller.
const (
	ActionContinue = "continue"
	ActionComplete = "complete"
	ActionRestart  = "restart"
)

// Session is the conversation state carried between turns. Callers treat it
// as opaque: it round-trips through EncodeSession/DecodeSession.
type Session struct {
	State    string          `json:"state"`
	Criteria domain.Criteria `json:"criteria"`
	Schedule domain.Schedule `json:"schedule"`
}

// DecodeSession restores a session from its wire form. A nil, empty, or
// malformed payload starts a fresh conversation.
func DecodeSession(raw json.RawMessage) Session {
	if len(raw) == 0 {
		return Session{State: StateInitial}
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{State: StateInitial}
	}
	if s.State == "" {
		s.State = StateInitial
	}
	return s
}

// EncodeSession serializes a session for the caller to hold.
func EncodeSession(s Session) json.RawMessage {
	b, err := json.Marshal(s)
	if err != nil {
		return json.RawMessage(`{"state":"INITIAL"}`)
	}
	return b
}

// Turn is the outcome of one conversation step.
type Turn struct {
	Response string
	Session  Session
	Action   string
}

// Extractor pulls structured fields out of free text.
type Extractor interface {
	Criteria(ctx context.Context, text string) domain.Criteria
	Schedule(ctx context.Context, text string) domain.Schedule
}

// Searcher runs a listing search for the accumulated criteria.
type Searcher interface {
	Search(ctx context.Context, c domain.Criteria) []domain.Listing
}

// Storage records completed searches and recurring queries.
type Storage interface {
	StoreSearch(ctx context.Context, userID string, c domain.Criteria, queryType string, results []domain.Listing) error
	StoreRecurringQuery(ctx context.Context, userID string, c domain.Criteria, s domain.Schedule) (string, error)
}

// Scheduler provisions the delivery schedule for a stored recurring query.
type Scheduler interface {
	CreateSchedule(ctx context.Context, queryID string, s domain.Schedule) error
}

// Machine holds the collaborators for the conversation. Any collaborator
// may be nil; the conversation degrades rather than failing the turn.
type Machine struct {
	extractor Extractor
	searcher  Searcher
	storage   Storage
	scheduler Scheduler
	log       *slog.Logger

	turns     *metrics.Counter
	searches  *metrics.Counter
	schedules *metrics.Counter
}

func NewMachine(ex Extractor, se Searcher, st Storage, sc Scheduler, reg *metrics.Registry, log *slog.Logger) *Machine {
	if reg == nil {
		reg = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		extractor: ex,
		searcher:  se,
		storage:   st,
		scheduler: sc,
		log:       log,

		turns:     reg.Counter("convo_turns_total", "conversation turns processed"),
		searches:  reg.Counter("convo_searches_total", "one-time searches run"),
		schedules: reg.Counter("convo_schedules_total", "recurring schedules created"),
	}
}

var oneTimeWords = map[string]bool{
	"1": true, "one": true, "one time": true, "one-time": true, "once": true,
}

var recurringWords = map[string]bool{
	"2": true, "regular": true, "updates": true, "regular updates": true,
	"recurring": true,
}

// Step advances the conversation by one user message.
func (m *Machine) Step(ctx context.Context, userID string, session Session, message string) Turn {
	m.turns.Inc()
	// A later state with no accumulated criteria is treated as a fresh
	// conversation, whatever the caller-supplied session claims.
	if session.State == StateInitial || session.State == "" || session.Criteria.IsEmpty() {
		return m.stepInitial(ctx, session, message)
	}
	switch session.State {
	case StateAskUpdateType:
		return m.stepUpdateType(ctx, userID, session, message)
	case StateAskSchedule:
		return m.stepSchedule(ctx, userID, session, message)
	default:
		m.log.Warn("unknown conversation state, restarting", "state", session.State)
		return Turn{
			Response: "Let's start over. What kind of car are you looking for?",
			Session:  Session{State: StateInitial},
			Action:   ActionRestart,
		}
	}
}

func (m *Machine) stepInitial(ctx context.Context, session Session, message string) Turn {
	merged := m.mergeCriteria(ctx, session, message)
	if merged.IsEmpty() {
		return Turn{
			Response: "I can help you find a car. Tell me what you're after, for example a make, model, budget, or location.",
			Session:  Session{State: StateInitial},
			Action:   ActionContinue,
		}
	}
	session.Criteria = merged
	session.State = StateAskUpdateType
	return Turn{
		Response: "Got it, searching for: " + FormatCriteria(merged) + "\n\n" +
			"Would you like:\n1. A one-time search\n2. Regular updates when new listings appear\n\nReply 1 or 2.",
		Session: session,
		Action:  ActionContinue,
	}
}

func (m *Machine) stepUpdateType(ctx context.Context, userID string, session Session, message string) Turn {
	// Re-extract every turn: the reply may refine the criteria as well as
	// answer the question ("1, and make it automatic").
	session.Criteria = m.mergeCriteria(ctx, session, message)

	choice := strings.ToLower(strings.TrimSpace(message))
	switch {
	case oneTimeWords[choice]:
		return m.runOneTime(ctx, userID, session)
	case recurringWords[choice]:
		session.State = StateAskSchedule
		return Turn{
			Response: "I'll send you new listings as they appear. What email should I use, and how often would you like updates (daily, weekly, monthly)?",
			Session:  session,
			Action:   ActionContinue,
		}
	default:
		return Turn{
			Response: "Updated criteria: " + FormatCriteria(session.Criteria) + "\n\n" +
				"Would you like:\n1. A one-time search\n2. Regular updates when new listings appear\n\nReply 1 or 2.",
			Session: session,
			Action:  ActionContinue,
		}
	}
}

func (m *Machine) runOneTime(ctx context.Context, userID string, session Session) Turn {
	m.searches.Inc()
	var listings []domain.Listing
	if m.searcher != nil {
		listings = m.searcher.Search(ctx, session.Criteria)
	}
	if m.storage != nil {
		if err := m.storage.StoreSearch(ctx, userID, session.Criteria, "one_time", listings); err != nil {
			m.log.Error("store search failed", "error", err)
		}
	}
	return Turn{
		Response: FormatResults(listings),
		Session:  Session{State: StateInitial},
		Action:   ActionComplete,
	}
}

func (m *Machine) stepSchedule(ctx context.Context, userID string, session Session, message string) Turn {
	// Criteria extraction still runs here: the user can revise the search
	// ("actually make it under $20,000") while supplying schedule details.
	session.Criteria = m.mergeCriteria(ctx, session, message)
	if m.extractor != nil {
		session.Schedule = session.Schedule.Merge(m.extractor.Schedule(ctx, message))
	}
	if !session.Schedule.Complete() {
		missing := "your email address"
		if session.Schedule.Email != nil {
			missing = "how often you'd like updates (daily, weekly, monthly)"
		}
		return Turn{
			Response: "Almost there. I still need " + missing + ".",
			Session:  session,
			Action:   ActionContinue,
		}
	}

	queryID := ""
	if m.storage != nil {
		id, err := m.storage.StoreRecurringQuery(ctx, userID, session.Criteria, session.Schedule)
		if err != nil {
			m.log.Error("store recurring query failed", "error", err)
		} else {
			queryID = id
		}
	}
	if queryID != "" && m.scheduler != nil {
		m.schedules.Inc()
		if err := m.scheduler.CreateSchedule(ctx, queryID, session.Schedule); err != nil {
			m.log.Error("create schedule failed", "query_id", queryID, "error", err)
		}
	}

	return Turn{
		Response: "Done. I'll email " + *session.Schedule.Email + " matching listings " +
			describeFrequency(*session.Schedule.Frequency) + ".",
		Session: Session{State: StateInitial},
		Action:  ActionComplete,
	}
}

// mergeCriteria extracts fields from the message and folds them into the
// session's accumulated criteria.
func (m *Machine) mergeCriteria(ctx context.Context, session Session, message string) domain.Criteria {
	if m.extractor == nil {
		return session.Criteria
	}
	return session.Criteria.Merge(m.extractor.Criteria(ctx, message))
}
