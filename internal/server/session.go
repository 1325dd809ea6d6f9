package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playperu/avalon/internal/avalon"
)

// envelope is one intent queued for a room together with its actor.
type envelope struct {
	actor  User
	intent Intent
}

// session is the live engine for one room. A single goroutine drains the
// intent queue, so every mutation of the game is applied atomically and in
// arrival order; the snapshot is persisted after each successful mutation
// and events go out in the order their intents were applied.
type session struct {
	roomID string
	game   *avalon.Game

	intents  chan envelope
	stop     chan struct{}
	stopOnce sync.Once

	store  Store
	broker *Broker
	logger *slog.Logger
	evict  func()
}

func newSession(roomID string, game *avalon.Game, store Store, broker *Broker, logger *slog.Logger) *session {
	return &session{
		roomID:  roomID,
		game:    game,
		intents: make(chan envelope, 32),
		stop:    make(chan struct{}),
		store:   store,
		broker:  broker,
		logger:  logger,
	}
}

func (s *session) close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *session) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *session) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case env := <-s.intents:
			s.handle(ctx, env)
		}
	}
}

func (s *session) handle(ctx context.Context, env envelope) {
	var err error
	switch env.intent.Type {
	case IntentStartGame:
		err = s.startGame(ctx, env.actor)
	case IntentProposeTeam:
		err = s.proposeTeam(ctx, env.actor, env.intent.Team)
	case IntentVoteTeam:
		if env.intent.Approve == nil {
			err = fmt.Errorf("%w: vote_team requires approve", avalon.ErrIllegalMove)
		} else {
			err = s.voteTeam(ctx, env.actor, *env.intent.Approve)
		}
	case IntentVoteMission:
		if env.intent.Success == nil {
			err = fmt.Errorf("%w: vote_mission requires success", avalon.ErrIllegalMove)
		} else {
			err = s.voteMission(ctx, env.actor, *env.intent.Success)
		}
	case IntentAssassinate:
		err = s.assassinate(ctx, env.actor, env.intent.TargetID)
	case IntentGetGameState:
		err = s.sendGameState(env.actor)
	default:
		err = fmt.Errorf("unknown intent %q", env.intent.Type)
	}

	if err == nil {
		return
	}

	// A configuration error is a data-table bug, not a bad request.
	if errors.Is(err, avalon.ErrConfiguration) {
		s.logger.Error("game configuration fault",
			"room", s.roomID, "intent", env.intent.Type, "error", err)
	} else {
		s.logger.Warn("rejected intent",
			"room", s.roomID, "intent", env.intent.Type, "actor", env.actor.ID, "error", err)
	}

	// Failures go back to the requester only, never the room.
	s.broker.SendTo(s.roomID, env.actor.ID, Event{
		Type: EventError,
		Data: errorPayload{Message: err.Error()},
	})
}

// persist writes the snapshot after a successful mutation. The in-memory
// engine stays authoritative if the write fails; the error is surfaced as a
// server fault, not bounced back to the player.
func (s *session) persist(ctx context.Context) {
	if err := s.store.PutGameSnapshot(ctx, s.roomID, s.game.Snapshot()); err != nil {
		s.logger.Error("persisting game snapshot", "room", s.roomID, "error", err)
	}
}

func (s *session) startGame(ctx context.Context, actor User) error {
	room, err := s.store.GetRoom(ctx, s.roomID)
	if errors.Is(err, ErrNotFound) {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}

	if room.HostID != actor.ID {
		return errors.New("only the host can start the game")
	}
	if s.game != nil && s.game.Phase() != avalon.PhaseGameOver {
		return errors.New("game already started")
	}

	players := make([]avalon.Player, 0, len(room.Players))
	for _, p := range room.Players {
		players = append(players, avalon.Player{UserID: p.UserID, Username: p.Username})
	}

	game, err := avalon.New(players)
	if err != nil {
		return err
	}
	s.game = game

	s.persist(ctx)
	if err := s.store.SetRoomStatus(ctx, s.roomID, RoomPlaying); err != nil {
		s.logger.Error("updating room status", "room", s.roomID, "error", err)
	}

	// Each player's role must land before the public start broadcast.
	for _, p := range players {
		info, err := game.PlayerInfo(p.UserID)
		if err != nil {
			return err
		}
		s.broker.SendTo(s.roomID, p.UserID, Event{Type: EventRoleAssigned, Data: info})
	}
	s.broker.Broadcast(s.roomID, Event{
		Type: EventGameStarted,
		Data: gameStartedPayload{PublicState: game.PublicState()},
	})

	s.logger.Info("game started", "room", s.roomID, "players", len(players))
	return nil
}

// requireGame guards intents that only make sense with a live game.
func (s *session) requireGame() error {
	if s.game == nil {
		return errors.New("game not found")
	}
	return nil
}

func (s *session) proposeTeam(ctx context.Context, actor User, teamIDs []string) error {
	if err := s.requireGame(); err != nil {
		return err
	}
	if err := s.game.ProposeTeam(actor.ID, teamIDs); err != nil {
		return err
	}
	s.persist(ctx)

	public := s.game.PublicState()
	var team []avalon.Player
	if public.Proposal != nil {
		team = public.Proposal.Team
	}
	s.broker.Broadcast(s.roomID, Event{
		Type: EventTeamProposed,
		Data: teamProposedPayload{
			Leader:      avalon.Player{UserID: actor.ID, Username: actor.Username},
			Team:        team,
			PublicState: public,
		},
	})
	return nil
}

func (s *session) voteTeam(ctx context.Context, actor User, approve bool) error {
	if err := s.requireGame(); err != nil {
		return err
	}
	out, err := s.game.VoteTeam(actor.ID, approve)
	if err != nil {
		return err
	}
	s.persist(ctx)

	if !out.Resolved {
		s.broker.Broadcast(s.roomID, Event{
			Type: EventVoteProgress,
			Data: voteProgressPayload{VotesReceived: out.VotesReceived, TotalVoters: out.TotalPlayers},
		})
		return nil
	}

	s.broker.Broadcast(s.roomID, Event{
		Type: EventTeamVoteResult,
		Data: teamVoteResultPayload{
			Approved:     out.Approved,
			ApproveCount: out.ApproveCount,
			RejectCount:  out.RejectCount,
			Votes:        out.Votes,
			NextPhase:    out.NextPhase,
			GameOver:     out.GameOver,
			Winner:       out.Winner,
			PublicState:  s.game.PublicState(),
		},
	})
	if out.GameOver {
		s.finishGame(ctx)
	}
	return nil
}

func (s *session) voteMission(ctx context.Context, actor User, success bool) error {
	if err := s.requireGame(); err != nil {
		return err
	}
	out, err := s.game.VoteMission(actor.ID, success)
	if err != nil {
		return err
	}
	s.persist(ctx)

	if !out.Resolved {
		s.broker.Broadcast(s.roomID, Event{
			Type: EventVoteProgress,
			Data: voteProgressPayload{VotesReceived: out.VotesReceived, TotalVoters: out.TeamSize},
		})
		return nil
	}

	s.broker.Broadcast(s.roomID, Event{
		Type: EventMissionResult,
		Data: missionResultPayload{
			MissionResult: out.Result,
			NextPhase:     out.NextPhase,
			NextRound:     out.NextRound,
			GameOver:      out.GameOver,
			Winner:        out.Winner,
			PublicState:   s.game.PublicState(),
		},
	})
	if out.GameOver {
		s.finishGame(ctx)
	}
	return nil
}

func (s *session) assassinate(ctx context.Context, actor User, targetID string) error {
	if err := s.requireGame(); err != nil {
		return err
	}
	res, err := s.game.Assassinate(actor.ID, targetID)
	if err != nil {
		return err
	}
	s.persist(ctx)

	s.broker.Broadcast(s.roomID, Event{
		Type: EventAssassinateResult,
		Data: assassinateResultPayload{
			Hit:    res.Hit,
			Target: res.Target,
			Merlin: res.Merlin,
			Winner: res.Winner,
		},
	})
	s.finishGame(ctx)
	return nil
}

// finishGame broadcasts the full reveal, marks the room finished, and drops
// this session from the registry. The final snapshot stays in the store.
func (s *session) finishGame(ctx context.Context) {
	result, err := s.game.Result()
	if err != nil {
		s.logger.Error("reading game result", "room", s.roomID, "error", err)
		return
	}
	s.broker.Broadcast(s.roomID, Event{Type: EventGameOver, Data: result})

	if err := s.store.SetRoomStatus(ctx, s.roomID, RoomFinished); err != nil {
		s.logger.Error("updating room status", "room", s.roomID, "error", err)
	}
	s.logger.Info("game over", "room", s.roomID, "winner", result.Winner)

	if s.evict != nil {
		s.evict()
	}
}

func (s *session) sendGameState(actor User) error {
	if err := s.requireGame(); err != nil {
		return err
	}

	payload := gameStatePayload{PublicState: s.game.PublicState()}
	if info, err := s.game.PlayerInfo(actor.ID); err == nil {
		payload.PlayerInfo = &info
	}
	s.broker.SendTo(s.roomID, actor.ID, Event{Type: EventGameState, Data: payload})
	return nil
}
