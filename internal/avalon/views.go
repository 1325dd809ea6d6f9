package avalon

import "fmt"

// PublicState is the projection of game state every player may see. It
// never carries role or team information.
type PublicState struct {
	Round            int             `json:"round"`
	Phase            Phase           `json:"phase"`
	Leader           Player          `json:"leader"`
	ProposalCount    int             `json:"proposalCount"`
	MaxProposals     int             `json:"maxProposals"`
	RequiredTeamSize int             `json:"requiredTeamSize"`
	MissionResults   []MissionResult `json:"missionResults"`
	Proposal         *PublicProposal `json:"proposal"`
	Winner           Team            `json:"winner,omitempty"`
	Players          []Player        `json:"players"`
}

// PublicProposal is the open proposal as seen by everyone: the team and
// ballot progress, never who voted which way until resolution.
type PublicProposal struct {
	Team          []Player `json:"team"`
	VotesReceived int      `json:"votesReceived"`
	MissionVotes  int      `json:"missionVotes"`
}

// PrivateInfo is one player's secret information: their role and the set of
// players their role is allowed to see. Visible players are identities
// only; their roles and teams stay hidden.
type PrivateInfo struct {
	Role        Role     `json:"role"`
	RoleName    string   `json:"roleName"`
	Team        Team     `json:"team"`
	Description string   `json:"description"`
	Vision      []Player `json:"vision"`
}

// RevealedSeat is one seat with its role exposed, used only after game over.
type RevealedSeat struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	RoleName string `json:"roleName"`
	Team     Team   `json:"team"`
}

// GameResult is the full end-of-game reveal.
type GameResult struct {
	Winner         Team            `json:"winner"`
	Seats          []RevealedSeat  `json:"seats"`
	MissionResults []MissionResult `json:"missionResults"`
	AssassinTarget string          `json:"assassinTarget,omitempty"`
}

func (g *Game) player(idx int) Player {
	s := g.state.Seats[idx]
	return Player{UserID: s.UserID, Username: s.Username}
}

// PublicState projects the state visible to the whole room.
func (g *Game) PublicState() PublicState {
	requiredSize := 0
	if g.state.Round >= 1 && g.state.Round <= 5 {
		if size, err := TeamSizeFor(len(g.state.Seats), g.state.Round); err == nil {
			requiredSize = size
		}
	}

	ps := PublicState{
		Round:            g.state.Round,
		Phase:            g.state.Phase,
		Leader:           g.player(g.state.LeaderIndex),
		ProposalCount:    g.state.ProposalCount,
		MaxProposals:     maxProposals,
		RequiredTeamSize: requiredSize,
		MissionResults:   append([]MissionResult{}, g.state.MissionResults...),
		Winner:           g.state.Winner,
		Players:          make([]Player, 0, len(g.state.Seats)),
	}
	for i := range g.state.Seats {
		ps.Players = append(ps.Players, g.player(i))
	}

	if g.state.Proposal != nil {
		pp := PublicProposal{
			Team:          make([]Player, 0, len(g.state.Proposal.Team)),
			VotesReceived: len(g.state.Proposal.Votes),
			MissionVotes:  len(g.state.Proposal.MissionVotes),
		}
		for _, id := range g.state.Proposal.Team {
			if idx := g.seatIndex(id); idx >= 0 {
				pp.Team = append(pp.Team, g.player(idx))
			}
		}
		ps.Proposal = &pp
	}
	return ps
}

// PlayerInfo projects one player's role and vision.
func (g *Game) PlayerInfo(userID string) (PrivateInfo, error) {
	idx := g.seatIndex(userID)
	if idx < 0 {
		return PrivateInfo{}, fmt.Errorf("%w: %q is not in this game", ErrUnknownParticipant, userID)
	}

	seat := g.state.Seats[idx]
	def, err := Definition(seat.Role)
	if err != nil {
		return PrivateInfo{}, err
	}
	vision, err := Vision(seat.Role, g.state.Seats)
	if err != nil {
		return PrivateInfo{}, err
	}

	info := PrivateInfo{
		Role:        seat.Role,
		RoleName:    def.Name,
		Team:        seat.Team,
		Description: def.Description,
		Vision:      make([]Player, 0, len(vision)),
	}
	for _, vi := range vision {
		info.Vision = append(info.Vision, g.player(vi))
	}
	return info, nil
}

// Result returns the full reveal. It is only available once the game is
// over.
func (g *Game) Result() (GameResult, error) {
	if g.state.Phase != PhaseGameOver {
		return GameResult{}, fmt.Errorf("%w: game is not over", ErrIllegalMove)
	}

	res := GameResult{
		Winner:         g.state.Winner,
		Seats:          make([]RevealedSeat, 0, len(g.state.Seats)),
		MissionResults: append([]MissionResult{}, g.state.MissionResults...),
		AssassinTarget: g.state.AssassinTarget,
	}
	for _, s := range g.state.Seats {
		def, err := Definition(s.Role)
		if err != nil {
			return GameResult{}, err
		}
		res.Seats = append(res.Seats, RevealedSeat{
			UserID:   s.UserID,
			Username: s.Username,
			Role:     s.Role,
			RoleName: def.Name,
			Team:     s.Team,
		})
	}
	return res, nil
}
