package avalon

import "fmt"

// maxProposals is how many rejected team proposals a round tolerates before
// the evil team wins by exhaustion.
const maxProposals = 5

// missionTeamSize maps player count to the required team size per round.
var missionTeamSize = map[int][5]int{
	5:  {2, 3, 2, 3, 3},
	6:  {2, 3, 4, 3, 4},
	7:  {2, 3, 3, 4, 4},
	8:  {3, 4, 4, 5, 5},
	9:  {3, 4, 4, 5, 5},
	10: {3, 4, 4, 5, 5},
}

// missionFailVotes maps player count to how many fail votes a round needs
// for the mission to fail. Round 4 at 7+ players needs two.
var missionFailVotes = map[int][5]int{
	5:  {1, 1, 1, 1, 1},
	6:  {1, 1, 1, 1, 1},
	7:  {1, 1, 1, 2, 1},
	8:  {1, 1, 1, 2, 1},
	9:  {1, 1, 1, 2, 1},
	10: {1, 1, 1, 2, 1},
}

// TeamSizeFor returns the required mission team size for a round.
func TeamSizeFor(playerCount, round int) (int, error) {
	sizes, ok := missionTeamSize[playerCount]
	if !ok {
		return 0, fmt.Errorf("%w: no team size table for %d players", ErrConfiguration, playerCount)
	}
	if round < 1 || round > len(sizes) {
		return 0, fmt.Errorf("%w: no team size for round %d", ErrConfiguration, round)
	}
	return sizes[round-1], nil
}

// FailVotesFor returns how many fail votes make the round's mission fail.
func FailVotesFor(playerCount, round int) (int, error) {
	fails, ok := missionFailVotes[playerCount]
	if !ok {
		return 0, fmt.Errorf("%w: no fail vote table for %d players", ErrConfiguration, playerCount)
	}
	if round < 1 || round > len(fails) {
		return 0, fmt.Errorf("%w: no fail threshold for round %d", ErrConfiguration, round)
	}
	return fails[round-1], nil
}
