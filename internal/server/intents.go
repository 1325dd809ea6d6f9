package server

// Intent is one inbound game command read off a websocket. The actor and
// room are taken from the connection, never from the payload.
type Intent struct {
	Type     string   `json:"type"`
	Team     []string `json:"team,omitempty"`
	Approve  *bool    `json:"approve,omitempty"`
	Success  *bool    `json:"success,omitempty"`
	TargetID string   `json:"targetId,omitempty"`
}

// Intent types.
const (
	IntentStartGame    = "start_game"
	IntentProposeTeam  = "propose_team"
	IntentVoteTeam     = "vote_team"
	IntentVoteMission  = "vote_mission"
	IntentAssassinate  = "assassinate"
	IntentGetGameState = "get_game_state"
)
