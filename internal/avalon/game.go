// Package avalon implements the Avalon game engine: role assignment with
// asymmetric vision, the per-round team proposal / vote / mission state
// machine, and the end-game assassination check. A Game owns its state
// exclusively; callers are expected to serialize access per game.
package avalon

import (
	"fmt"
	"math/rand/v2"
)

// Phase is the current stage of the turn structure.
type Phase string

const (
	PhaseTeamProposal Phase = "team_proposal"
	PhaseTeamVote     Phase = "team_vote"
	PhaseMissionVote  Phase = "mission_vote"
	PhaseAssassinate  Phase = "assassinate"
	PhaseGameOver     Phase = "game_over"
)

// Player identifies a participant at game start.
type Player struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Seat is one entry of the role assignment table: a player plus the role
// dealt to them. Assigned once at game start, immutable afterwards.
type Seat struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Team     Team   `json:"team"`
}

// TeamVote is one player's vote on the proposed team.
type TeamVote struct {
	UserID  string `json:"userId"`
	Approve bool   `json:"approve"`
}

// MissionVote is one team member's mission outcome vote.
type MissionVote struct {
	UserID  string `json:"userId"`
	Success bool   `json:"success"`
}

// Proposal holds the team currently proposed by the leader, together with
// the ballots collected so far.
type Proposal struct {
	Team         []string      `json:"team"`
	Votes        []TeamVote    `json:"votes"`
	MissionVotes []MissionVote `json:"missionVotes,omitempty"`
}

// MissionResult records one resolved mission.
type MissionResult struct {
	Round     int      `json:"round"`
	Success   bool     `json:"success"`
	FailVotes int      `json:"failVotes"`
	Team      []string `json:"team"`
}

// State is the full mutable game state. It round-trips through JSON
// untouched, which is what the snapshot store relies on.
type State struct {
	Round          int             `json:"round"`
	Phase          Phase           `json:"phase"`
	LeaderIndex    int             `json:"leaderIndex"`
	ProposalCount  int             `json:"proposalCount"`
	Seats          []Seat          `json:"seats"`
	Proposal       *Proposal       `json:"proposal"`
	MissionResults []MissionResult `json:"missionResults"`
	Winner         Team            `json:"winner,omitempty"`
	AssassinTarget string          `json:"assassinTarget,omitempty"`
}

// Game is one live game instance. All mutating methods validate phase and
// actor before touching state; a rejected operation leaves state unchanged.
type Game struct {
	state State
}

// New deals roles to the given players and starts a game in round 1,
// team-proposal phase, with seat 0 as the first leader. Seat order follows
// the player order given; roles are shuffled uniformly.
func New(players []Player) (*Game, error) {
	if len(players) < 5 || len(players) > 10 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPlayerCount, len(players))
	}

	roles, err := RolesFor(len(players))
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	seats := make([]Seat, len(players))
	for i, p := range players {
		def, err := Definition(roles[i])
		if err != nil {
			return nil, err
		}
		seats[i] = Seat{
			UserID:   p.UserID,
			Username: p.Username,
			Role:     roles[i],
			Team:     def.Team,
		}
	}

	return &Game{state: State{
		Round:          1,
		Phase:          PhaseTeamProposal,
		LeaderIndex:    0,
		ProposalCount:  0,
		Seats:          seats,
		MissionResults: []MissionResult{},
	}}, nil
}

// Restore rebuilds a game from a persisted snapshot.
func Restore(state State) *Game {
	return &Game{state: state}
}

// Snapshot returns a deep copy of the current state for persistence.
func (g *Game) Snapshot() State {
	s := g.state
	s.Seats = append([]Seat(nil), g.state.Seats...)
	s.MissionResults = append([]MissionResult(nil), g.state.MissionResults...)
	if g.state.Proposal != nil {
		p := Proposal{
			Team:         append([]string(nil), g.state.Proposal.Team...),
			Votes:        append([]TeamVote(nil), g.state.Proposal.Votes...),
			MissionVotes: append([]MissionVote(nil), g.state.Proposal.MissionVotes...),
		}
		s.Proposal = &p
	}
	return s
}

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.state.Phase }

// PlayerCount returns the number of seats.
func (g *Game) PlayerCount() int { return len(g.state.Seats) }

func (g *Game) seatIndex(userID string) int {
	for i, s := range g.state.Seats {
		if s.UserID == userID {
			return i
		}
	}
	return -1
}

// ProposeTeam records the leader's proposed team and opens the team vote.
// Only the current leader may propose, the team must match the round's
// required size, and every member must be a seated player with no
// duplicates.
func (g *Game) ProposeTeam(userID string, teamIDs []string) error {
	if g.state.Phase != PhaseTeamProposal {
		return fmt.Errorf("%w: not in team proposal phase", ErrIllegalMove)
	}
	if g.state.Seats[g.state.LeaderIndex].UserID != userID {
		return fmt.Errorf("%w: you are not the current leader", ErrIllegalMove)
	}

	required, err := TeamSizeFor(len(g.state.Seats), g.state.Round)
	if err != nil {
		return err
	}
	if len(teamIDs) != required {
		return fmt.Errorf("%w: team size must be %d", ErrIllegalMove, required)
	}

	seen := make(map[string]bool, len(teamIDs))
	for _, id := range teamIDs {
		if g.seatIndex(id) < 0 {
			return fmt.Errorf("%w: %q is not in this game", ErrIllegalMove, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate team member %q", ErrIllegalMove, id)
		}
		seen[id] = true
	}

	g.state.Proposal = &Proposal{
		Team:  append([]string(nil), teamIDs...),
		Votes: []TeamVote{},
	}
	g.state.Phase = PhaseTeamVote
	return nil
}

// TeamVoteOutcome is the result of one VoteTeam call. While the ballot is
// open only the progress counters are set; once the last vote arrives the
// resolution fields are filled in and Resolved is true.
type TeamVoteOutcome struct {
	Resolved      bool
	VotesReceived int
	TotalPlayers  int

	Approved     bool
	ApproveCount int
	RejectCount  int
	Votes        []TeamVote
	NextPhase    Phase
	GameOver     bool
	Winner       Team
}

// VoteTeam records one player's approval vote on the proposed team. The
// last vote resolves the ballot: strict majority approves (a tie rejects);
// a rejection rotates the leader and, at the proposal cap, hands the game
// to the evil team.
func (g *Game) VoteTeam(userID string, approve bool) (TeamVoteOutcome, error) {
	if g.state.Phase != PhaseTeamVote {
		return TeamVoteOutcome{}, fmt.Errorf("%w: not in team vote phase", ErrIllegalMove)
	}
	if g.seatIndex(userID) < 0 {
		return TeamVoteOutcome{}, fmt.Errorf("%w: %q is not in this game", ErrUnknownParticipant, userID)
	}
	for _, v := range g.state.Proposal.Votes {
		if v.UserID == userID {
			return TeamVoteOutcome{}, fmt.Errorf("%w: you have already voted", ErrIllegalMove)
		}
	}

	g.state.Proposal.Votes = append(g.state.Proposal.Votes, TeamVote{UserID: userID, Approve: approve})

	total := len(g.state.Seats)
	if len(g.state.Proposal.Votes) < total {
		return TeamVoteOutcome{
			VotesReceived: len(g.state.Proposal.Votes),
			TotalPlayers:  total,
		}, nil
	}
	return g.resolveTeamVote(), nil
}

func (g *Game) resolveTeamVote() TeamVoteOutcome {
	total := len(g.state.Seats)
	approveCount := 0
	for _, v := range g.state.Proposal.Votes {
		if v.Approve {
			approveCount++
		}
	}

	out := TeamVoteOutcome{
		Resolved:      true,
		VotesReceived: total,
		TotalPlayers:  total,
		Approved:      approveCount > total/2,
		ApproveCount:  approveCount,
		RejectCount:   total - approveCount,
		Votes:         append([]TeamVote(nil), g.state.Proposal.Votes...),
	}

	if out.Approved {
		g.state.Phase = PhaseMissionVote
		out.NextPhase = PhaseMissionVote
		return out
	}

	g.state.ProposalCount++
	if g.state.ProposalCount >= maxProposals {
		g.state.Winner = TeamEvil
		g.state.Phase = PhaseGameOver
		out.GameOver = true
		out.Winner = TeamEvil
		out.NextPhase = PhaseGameOver
		return out
	}

	g.state.LeaderIndex = (g.state.LeaderIndex + 1) % total
	g.state.Proposal = nil
	g.state.Phase = PhaseTeamProposal
	out.NextPhase = PhaseTeamProposal
	return out
}

// MissionOutcome is the result of one VoteMission call, mirroring
// TeamVoteOutcome: progress counters while the ballot is open, the recorded
// mission result and next phase once the last team member has voted.
type MissionOutcome struct {
	Resolved      bool
	VotesReceived int
	TeamSize      int

	Result    MissionResult
	NextPhase Phase
	NextRound int
	GameOver  bool
	Winner    Team
}

// VoteMission records one team member's mission vote. Only players on the
// approved team may vote. The last vote resolves the mission against the
// round's fail threshold and either advances the round, moves to the
// assassination phase (three successes), or ends the game (three failures).
func (g *Game) VoteMission(userID string, success bool) (MissionOutcome, error) {
	if g.state.Phase != PhaseMissionVote {
		return MissionOutcome{}, fmt.Errorf("%w: not in mission vote phase", ErrIllegalMove)
	}

	onTeam := false
	for _, id := range g.state.Proposal.Team {
		if id == userID {
			onTeam = true
			break
		}
	}
	if !onTeam {
		return MissionOutcome{}, fmt.Errorf("%w: you are not on the mission team", ErrIllegalMove)
	}
	for _, v := range g.state.Proposal.MissionVotes {
		if v.UserID == userID {
			return MissionOutcome{}, fmt.Errorf("%w: you have already voted", ErrIllegalMove)
		}
	}

	g.state.Proposal.MissionVotes = append(g.state.Proposal.MissionVotes, MissionVote{UserID: userID, Success: success})

	teamSize := len(g.state.Proposal.Team)
	if len(g.state.Proposal.MissionVotes) < teamSize {
		return MissionOutcome{
			VotesReceived: len(g.state.Proposal.MissionVotes),
			TeamSize:      teamSize,
		}, nil
	}
	return g.resolveMission()
}

func (g *Game) resolveMission() (MissionOutcome, error) {
	failVotes := 0
	for _, v := range g.state.Proposal.MissionVotes {
		if !v.Success {
			failVotes++
		}
	}

	threshold, err := FailVotesFor(len(g.state.Seats), g.state.Round)
	if err != nil {
		return MissionOutcome{}, err
	}

	result := MissionResult{
		Round:     g.state.Round,
		Success:   failVotes < threshold,
		FailVotes: failVotes,
		Team:      append([]string(nil), g.state.Proposal.Team...),
	}
	g.state.MissionResults = append(g.state.MissionResults, result)

	successes, failures := 0, 0
	for _, m := range g.state.MissionResults {
		if m.Success {
			successes++
		} else {
			failures++
		}
	}

	out := MissionOutcome{
		Resolved:      true,
		VotesReceived: len(g.state.Proposal.MissionVotes),
		TeamSize:      len(g.state.Proposal.Team),
		Result:        result,
	}

	switch {
	case successes >= 3:
		g.state.Phase = PhaseAssassinate
		out.NextPhase = PhaseAssassinate
	case failures >= 3:
		g.state.Winner = TeamEvil
		g.state.Phase = PhaseGameOver
		out.GameOver = true
		out.Winner = TeamEvil
		out.NextPhase = PhaseGameOver
	default:
		g.state.Round++
		g.state.ProposalCount = 0
		g.state.LeaderIndex = (g.state.LeaderIndex + 1) % len(g.state.Seats)
		g.state.Proposal = nil
		g.state.Phase = PhaseTeamProposal
		out.NextPhase = PhaseTeamProposal
		out.NextRound = g.state.Round
	}
	return out, nil
}

// AssassinationResult is the final outcome of the assassin's pick.
type AssassinationResult struct {
	Hit    bool
	Target Player
	Merlin Player
	Winner Team
}

// Assassinate records the assassin's target and decides the game: evil wins
// if and only if the target is Merlin. Only the assassin may call this, and
// only once, since the phase leaves assassinate on success.
func (g *Game) Assassinate(userID, targetID string) (AssassinationResult, error) {
	if g.state.Phase != PhaseAssassinate {
		return AssassinationResult{}, fmt.Errorf("%w: not in assassinate phase", ErrIllegalMove)
	}

	assassinIdx, merlinIdx := -1, -1
	for i, s := range g.state.Seats {
		switch s.Role {
		case RoleAssassin:
			assassinIdx = i
		case RoleMerlin:
			merlinIdx = i
		}
	}
	if assassinIdx < 0 || g.state.Seats[assassinIdx].UserID != userID {
		return AssassinationResult{}, fmt.Errorf("%w: you are not the assassin", ErrIllegalMove)
	}

	targetIdx := g.seatIndex(targetID)
	if targetIdx < 0 {
		return AssassinationResult{}, fmt.Errorf("%w: %q is not in this game", ErrUnknownParticipant, targetID)
	}

	g.state.AssassinTarget = targetID

	merlin := g.state.Seats[merlinIdx]
	hit := merlin.UserID == targetID
	if hit {
		g.state.Winner = TeamEvil
	} else {
		g.state.Winner = TeamGood
	}
	g.state.Phase = PhaseGameOver

	target := g.state.Seats[targetIdx]
	return AssassinationResult{
		Hit:    hit,
		Target: Player{UserID: target.UserID, Username: target.Username},
		Merlin: Player{UserID: merlin.UserID, Username: merlin.Username},
		Winner: g.state.Winner,
	}, nil
}
