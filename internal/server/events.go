package server

import "github.com/playperu/avalon/internal/avalon"

// Event is the envelope published to room subscribers over the websocket.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Event types, matching the intent vocabulary in intents.go.
const (
	EventError             = "error"
	EventRoomUpdated       = "room_updated"
	EventRoleAssigned      = "role_assigned"
	EventGameStarted       = "game_started"
	EventTeamProposed      = "team_proposed"
	EventVoteProgress      = "vote_progress"
	EventTeamVoteResult    = "team_vote_result"
	EventMissionResult     = "mission_result"
	EventAssassinateResult = "assassinate_result"
	EventGameOver          = "game_over"
	EventGameState         = "game_state"
)

type errorPayload struct {
	Message string `json:"message"`
}

type gameStartedPayload struct {
	PublicState avalon.PublicState `json:"publicState"`
}

type teamProposedPayload struct {
	Leader      avalon.Player      `json:"leader"`
	Team        []avalon.Player    `json:"team"`
	PublicState avalon.PublicState `json:"publicState"`
}

type voteProgressPayload struct {
	VotesReceived int `json:"votesReceived"`
	TotalVoters   int `json:"totalVoters"`
}

type teamVoteResultPayload struct {
	Approved     bool               `json:"approved"`
	ApproveCount int                `json:"approveCount"`
	RejectCount  int                `json:"rejectCount"`
	Votes        []avalon.TeamVote  `json:"votes"`
	NextPhase    avalon.Phase       `json:"nextPhase"`
	GameOver     bool               `json:"gameOver"`
	Winner       avalon.Team        `json:"winner,omitempty"`
	PublicState  avalon.PublicState `json:"publicState"`
}

type missionResultPayload struct {
	MissionResult avalon.MissionResult `json:"missionResult"`
	NextPhase     avalon.Phase         `json:"nextPhase"`
	NextRound     int                  `json:"nextRound,omitempty"`
	GameOver      bool                 `json:"gameOver"`
	Winner        avalon.Team          `json:"winner,omitempty"`
	PublicState   avalon.PublicState   `json:"publicState"`
}

type assassinateResultPayload struct {
	Hit    bool          `json:"hit"`
	Target avalon.Player `json:"target"`
	Merlin avalon.Player `json:"merlin"`
	Winner avalon.Team   `json:"winner"`
}

type gameStatePayload struct {
	PublicState avalon.PublicState  `json:"publicState"`
	PlayerInfo  *avalon.PrivateInfo `json:"playerInfo,omitempty"`
}
