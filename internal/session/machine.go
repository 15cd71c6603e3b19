// Package session drives one device's view of a group through
// lobby, deck, voting and results, reconciling with peers only through
// protocol messages.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/candidates"
	"github.com/DoyleJ11/dinedecide/internal/domain"
	"github.com/DoyleJ11/dinedecide/internal/results"
	"github.com/DoyleJ11/dinedecide/internal/protocol"
)

// Sender is the outbound half of the protocol engine.
type Sender interface {
	JoinGroup(groupID string, user domain.Member)
	Send(groupID, senderID string, payload protocol.Payload) error
}

// Store is the local replica the machine persists roster and history into.
// LoadGroup returns domain.ErrGroupNotFound for unknown ids.
type Store interface {
	LoadGroup(ctx context.Context, id string) (domain.Group, error)
	SaveGroup(ctx context.Context, g domain.Group) error
	DeleteGroup(ctx context.Context, id string) error
	SaveSelectionResult(ctx context.Context, r domain.SelectionResult) error
}

type Options struct {
	DefaultArea     string
	DefaultDeckSize int
	// Filler tops up decks the fetcher returned short.
	Filler []domain.Candidate
	Now    func() time.Time
}

// FetchRequest is what the host asks its candidate source for.
type FetchRequest struct {
	Area  string
	Query string
	Limit int
}

// Snapshot is a copy of the machine's state safe to hand to other goroutines.
type Snapshot struct {
	GroupID   string
	Phase     domain.Phase
	Self      domain.Member
	HostID    string
	Members   []domain.Member
	Deck      []domain.Candidate
	Cursor    int
	Status    map[string]domain.VoteStatus
	Progress  map[string]float64
	Reports   map[string]domain.VoteReport
	Ranking   results.Ranking
	Completed int
}

func (s Snapshot) IsHost() bool { return s.HostID == s.Self.ID }

// Machine is not safe for concurrent use. Actor serializes access to it.
type Machine struct {
	sender Sender
	store  Store
	fetch  candidates.Fetcher
	opts   Options
	log    *zap.Logger

	self  domain.Member
	group domain.Group

	phase    domain.Phase
	members  []domain.Member
	hostID   string
	deck     []domain.Candidate
	cursor   int
	likes    []string
	dislikes []string
	status   map[string]domain.VoteStatus
	progress map[string]float64
	reports  map[string]domain.VoteReport

	ranking   results.Ranking
	completed int
}

func NewMachine(self domain.Member, sender Sender, store Store, fetch candidates.Fetcher, opts Options, log *zap.Logger) *Machine {
	if opts.DefaultDeckSize <= 0 {
		opts.DefaultDeckSize = domain.DefaultSwipingAmount
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Machine{
		sender: sender,
		store:  store,
		fetch:  fetch,
		opts:   opts,
		log:    log.Named("session"),
		self:   self,
		phase:  domain.PhaseLobby,
	}
	m.resetSession()
	return m
}

// EnterLobby rebuilds session state from the persisted group and announces
// this device to the group.
func (m *Machine) EnterLobby(ctx context.Context, groupID string) error {
	g, err := m.store.LoadGroup(ctx, groupID)
	switch {
	case errors.Is(err, domain.ErrGroupNotFound):
		g = domain.StubGroup(groupID, m.self)
	case err != nil:
		return fmt.Errorf("load group %s: %w", groupID, err)
	}

	// names are group scoped; keep the one this group already knows
	if known, ok := domain.FindMember(g.Members, m.self.ID); ok && known.Name != "" {
		m.self.Name = known.Name
	}

	m.group = g
	m.hostID = g.FallbackHost(m.self.ID)
	m.members = nil
	m.resetSession()
	m.phase = domain.PhaseLobby
	m.completed = 0
	m.mergeRoster(ctx, g.Members)

	m.sender.JoinGroup(g.ID, m.self)
	m.send(protocol.JoinRequest{User: m.self})

	m.log.Info("entered lobby",
		zap.String("group", g.ID),
		zap.String("host", m.hostID),
		zap.Int("members", len(m.members)),
	)
	return nil
}

// Leave drops self from the local replica. The group is deleted once nobody
// is left in it. Peers are not told.
func (m *Machine) Leave(ctx context.Context) error {
	g := m.group
	if g.ID == "" {
		return nil
	}
	var rest []domain.Member
	for _, mem := range g.Members {
		if mem.ID != m.self.ID {
			rest = append(rest, mem)
		}
	}
	m.group = domain.Group{}
	m.members = nil
	m.hostID = ""
	m.resetSession()
	m.phase = domain.PhaseLobby

	if len(rest) == 0 {
		return m.store.DeleteGroup(ctx, g.ID)
	}
	g.Members = rest
	return m.store.SaveGroup(ctx, g)
}

// Handle applies one inbound protocol message. Messages for other groups are
// ignored. Nothing here returns an error; bad input is logged and dropped.
func (m *Machine) Handle(ctx context.Context, msg protocol.Message) {
	if m.group.ID == "" || msg.GroupID != m.group.ID {
		return
	}

	switch p := msg.Payload.(type) {
	case protocol.JoinRequest:
		m.mergeRoster(ctx, []domain.Member{p.User})
		if m.isHost() {
			m.announceRoster()
		}

	case protocol.LobbyUpdate:
		if p.HostID != "" && p.HostID != m.hostID {
			m.log.Debug("host announced", zap.String("from", m.hostID), zap.String("to", p.HostID))
			m.hostID = p.HostID
		}
		m.mergeRoster(ctx, p.Members)

	case protocol.StartSession:
		m.adoptDeck(msg.SenderID, p.Restaurants)

	case protocol.VoteUpdate:
		if !m.acceptsVotes() {
			return
		}
		m.progress[msg.SenderID] = p.Progress
		m.setStatus(msg.SenderID, p.Status)
		m.checkConvergence()

	case protocol.SessionFinish:
		if !m.acceptsVotes() {
			return
		}
		m.reports[msg.SenderID] = domain.VoteReport{
			Likes:       p.Likes,
			Dislikes:    p.Dislikes,
			DisplayName: p.Name,
		}
		m.setStatus(msg.SenderID, domain.StatusFinished)
		if m.phase == domain.PhaseResults {
			m.rank()
			return
		}
		m.checkConvergence()

	default:
		m.log.Warn("unhandled message", zap.String("type", string(msg.Type())))
	}
}

// Rename changes self's name in this group and tells everyone.
func (m *Machine) Rename(ctx context.Context, name string) error {
	name = domain.CleanName(name)
	if name == "" {
		return domain.ErrEmptyName
	}
	m.self.Name = name
	m.mergeRoster(ctx, []domain.Member{m.self})
	m.announceRoster()
	return nil
}

// BeginStart moves to DECK_PENDING. For the host it returns the fetch to run;
// everyone else just waits for START_SESSION.
func (m *Machine) BeginStart() (FetchRequest, bool, error) {
	if !m.phase.CanTransitionTo(domain.PhaseDeckPending) {
		return FetchRequest{}, false, domain.ErrInvalidPhase
	}
	m.phase = domain.PhaseDeckPending
	if !m.isHost() {
		m.log.Info("waiting for host deck", zap.String("host", m.hostID))
		return FetchRequest{}, false, nil
	}

	area := m.group.Area
	if area == "" {
		area = m.opts.DefaultArea
	}
	return FetchRequest{
		Area:  area,
		Query: m.group.DeckQuery(),
		Limit: m.group.DeckSize(m.opts.DefaultDeckSize),
	}, true, nil
}

// CompleteStart freezes the fetched deck and broadcasts it. If a deck was
// adopted from a peer in the meantime the fetched one is discarded.
func (m *Machine) CompleteStart(req FetchRequest, fetched []domain.Candidate, fetchErr error) error {
	if m.phase != domain.PhaseDeckPending {
		return nil
	}
	if fetchErr != nil || len(fetched) == 0 {
		m.phase = domain.PhaseLobby
		if fetchErr != nil {
			m.log.Warn("candidate fetch failed", zap.Error(fetchErr))
			return fmt.Errorf("%w: %v", domain.ErrNoCandidates, fetchErr)
		}
		return domain.ErrNoCandidates
	}

	deck := candidates.Backfill(fetched, m.opts.Filler, req.Limit)
	m.send(protocol.StartSession{Restaurants: deck})
	m.beginVoting(deck)
	m.log.Info("session started", zap.Int("deck", len(deck)))
	return nil
}

// Start runs BeginStart, the fetch and CompleteStart in one go.
func (m *Machine) Start(ctx context.Context) error {
	req, host, err := m.BeginStart()
	if err != nil || !host {
		return err
	}
	fetched, err := m.fetch.Fetch(ctx, req.Area, req.Query, req.Limit)
	return m.CompleteStart(req, fetched, err)
}

// Swipe records a decision on the current card.
func (m *Machine) Swipe(ctx context.Context, d domain.Decision) error {
	if m.phase != domain.PhaseVoting {
		return domain.ErrInvalidPhase
	}
	if m.cursor >= len(m.deck) {
		return domain.ErrDeckExhausted
	}
	id := m.deck[m.cursor].ID
	switch d {
	case domain.DecisionLike:
		m.likes = append(m.likes, id)
	case domain.DecisionDislike:
		m.dislikes = append(m.dislikes, id)
	default:
		return domain.ErrInvalidVote
	}
	m.cursor++

	if m.cursor < len(m.deck) {
		p := float64(m.cursor) / float64(len(m.deck))
		m.progress[m.self.ID] = p
		m.send(protocol.VoteUpdate{Status: domain.StatusVoting, Progress: p})
		return nil
	}
	return m.finish(ctx)
}

// ReturnToLobby closes the results view and clears the finished session.
func (m *Machine) ReturnToLobby() error {
	if !m.phase.CanTransitionTo(domain.PhaseLobby) {
		return domain.ErrInvalidPhase
	}
	m.resetSession()
	m.phase = domain.PhaseLobby
	return nil
}

func (m *Machine) Phase() domain.Phase { return m.phase }

func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		GroupID:   m.group.ID,
		Phase:     m.phase,
		Self:      m.self,
		HostID:    m.hostID,
		Members:   append([]domain.Member(nil), m.members...),
		Deck:      append([]domain.Candidate(nil), m.deck...),
		Cursor:    m.cursor,
		Status:    make(map[string]domain.VoteStatus, len(m.status)),
		Progress:  make(map[string]float64, len(m.progress)),
		Reports:   make(map[string]domain.VoteReport, len(m.reports)),
		Ranking:   m.ranking,
		Completed: m.completed,
	}
	for k, v := range m.status {
		s.Status[k] = v
	}
	for k, v := range m.progress {
		s.Progress[k] = v
	}
	for k, v := range m.reports {
		s.Reports[k] = v
	}
	return s
}

func (m *Machine) isHost() bool { return m.hostID == m.self.ID }

func (m *Machine) send(p protocol.Payload) {
	if err := m.sender.Send(m.group.ID, m.self.ID, p); err != nil {
		m.log.Warn("send failed", zap.String("type", string(p.Type())), zap.Error(err))
	}
}

func (m *Machine) announceRoster() {
	m.send(protocol.LobbyUpdate{Members: append([]domain.Member(nil), m.members...), HostID: m.hostID})
}

// mergeRoster unions incoming into the roster, keeps self's own name, puts
// the host first and persists the result.
func (m *Machine) mergeRoster(ctx context.Context, incoming []domain.Member) {
	merged := domain.MergeMembers(m.members, incoming)
	merged = domain.MergeMembers(merged, []domain.Member{m.self})
	merged = domain.HostFirst(merged, m.hostID)
	m.members = merged

	m.group.Members = append([]domain.Member(nil), merged...)
	if err := m.store.SaveGroup(ctx, m.group); err != nil {
		m.log.Warn("save group", zap.String("group", m.group.ID), zap.Error(err))
	}
}

func (m *Machine) adoptDeck(from string, deck []domain.Candidate) {
	if len(deck) == 0 {
		m.log.Debug("ignoring empty deck", zap.String("from", from))
		return
	}
	switch m.phase {
	case domain.PhaseVoting, domain.PhaseWaitingConvergence:
		if !domain.SameDeck(m.deck, deck) {
			m.log.Info("ignoring deck during session", zap.String("from", from))
		}
		return
	case domain.PhaseResults:
		if domain.SameDeck(m.deck, deck) {
			return
		}
	}
	if !m.phase.CanTransitionTo(domain.PhaseVoting) {
		return
	}
	m.beginVoting(deck)
	m.setStatus(from, domain.StatusVoting)
	m.log.Info("deck adopted", zap.String("from", from), zap.Int("deck", len(deck)))
}

// beginVoting freezes deck as a new session. Nothing recorded before it
// carries over.
func (m *Machine) beginVoting(deck []domain.Candidate) {
	m.resetSession()
	m.deck = append([]domain.Candidate(nil), deck...)
	m.phase = domain.PhaseVoting
	m.status[m.self.ID] = domain.StatusVoting
	m.progress[m.self.ID] = 0
	m.send(protocol.VoteUpdate{Status: domain.StatusVoting})
}

func (m *Machine) finish(ctx context.Context) error {
	report := domain.VoteReport{
		Likes:       append([]string{}, m.likes...),
		Dislikes:    append([]string{}, m.dislikes...),
		DisplayName: m.self.Name,
	}
	m.reports[m.self.ID] = report
	m.status[m.self.ID] = domain.StatusFinished
	m.progress[m.self.ID] = 1
	m.phase = domain.PhaseWaitingConvergence

	res := domain.SelectionResult{
		ID:        uuid.NewString(),
		GroupID:   m.group.ID,
		Timestamp: m.opts.Now().UnixMilli(),
		Type:      domain.ResultVote,
		Likes:     report.Likes,
	}
	var err error
	if err = m.store.SaveSelectionResult(ctx, res); err != nil {
		m.log.Warn("save selection result", zap.Error(err))
		err = fmt.Errorf("save selection result: %w", err)
	}

	// report before status so FIFO peers never converge without it
	m.send(protocol.SessionFinish{Likes: report.Likes, Dislikes: report.Dislikes, Name: report.DisplayName})
	m.send(protocol.VoteUpdate{Status: domain.StatusFinished, Progress: 1})
	m.checkConvergence()
	return err
}

// acceptsVotes reports whether vote traffic belongs to a session this device
// is part of. Anything heard in the lobby is left over from an earlier one.
func (m *Machine) acceptsVotes() bool {
	switch m.phase {
	case domain.PhaseVoting, domain.PhaseWaitingConvergence, domain.PhaseResults:
		return true
	}
	return false
}

// setStatus records a member's status. FINISHED does not go back to VOTING
// within a session.
func (m *Machine) setStatus(id string, s domain.VoteStatus) {
	if id == "" || !s.Valid() {
		return
	}
	if m.status[id] == domain.StatusFinished && s != domain.StatusFinished {
		return
	}
	m.status[id] = s
}

func (m *Machine) checkConvergence() {
	if m.phase != domain.PhaseWaitingConvergence || !m.converged() {
		return
	}
	m.phase = domain.PhaseResults
	m.completed++
	m.rank()
	m.log.Info("session converged",
		zap.String("group", m.group.ID),
		zap.Int("reports", len(m.reports)),
	)
}

func (m *Machine) converged() bool {
	if len(m.members) > 0 {
		all := true
		for _, mem := range m.members {
			if m.status[mem.ID] != domain.StatusFinished {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	if len(m.status) == 0 {
		return false
	}
	for _, s := range m.status {
		if s != domain.StatusFinished {
			return false
		}
	}
	return true
}

func (m *Machine) rank() {
	m.ranking = results.Aggregate(m.deck, m.reports, m.members, m.group.AnonymousVoting)
}

func (m *Machine) resetSession() {
	m.deck = nil
	m.cursor = 0
	m.likes = nil
	m.dislikes = nil
	m.status = make(map[string]domain.VoteStatus)
	m.progress = make(map[string]float64)
	m.reports = make(map[string]domain.VoteReport)
	m.ranking = results.Ranking{}
}
