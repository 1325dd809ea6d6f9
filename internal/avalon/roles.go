package avalon

import "fmt"

// Role is one of the fixed Avalon role identities.
type Role string

const (
	RoleMerlin       Role = "merlin"
	RolePercival     Role = "percival"
	RoleLoyalServant Role = "loyal_servant"
	RoleMorgana      Role = "morgana"
	RoleAssassin     Role = "assassin"
	RoleMordred      Role = "mordred"
	RoleOberon       Role = "oberon"
	RoleMinion       Role = "minion"
)

// Team is a role's alignment.
type Team string

const (
	TeamGood Team = "good"
	TeamEvil Team = "evil"
)

// RoleDefinition describes a role as shown to its holder.
type RoleDefinition struct {
	Name        string `json:"name"`
	Team        Team   `json:"team"`
	Description string `json:"description"`
}

var roleDefinitions = map[Role]RoleDefinition{
	RoleMerlin: {
		Name:        "Merlin",
		Team:        TeamGood,
		Description: "Merlin knows every evil player except Mordred, but must not let the assassin discover him.",
	},
	RolePercival: {
		Name:        "Percival",
		Team:        TeamGood,
		Description: "Percival sees Merlin and Morgana, but cannot tell which is which.",
	},
	RoleLoyalServant: {
		Name:        "Loyal Servant",
		Team:        TeamGood,
		Description: "An ordinary good player with no special knowledge.",
	},
	RoleMorgana: {
		Name:        "Morgana",
		Team:        TeamEvil,
		Description: "Morgana appears as Merlin to Percival.",
	},
	RoleAssassin: {
		Name:        "Assassin",
		Team:        TeamEvil,
		Description: "If good wins three missions, the assassin gets one attempt to identify Merlin.",
	},
	RoleMordred: {
		Name:        "Mordred",
		Team:        TeamEvil,
		Description: "Mordred is hidden from Merlin.",
	},
	RoleOberon: {
		Name:        "Oberon",
		Team:        TeamEvil,
		Description: "Oberon is hidden from the other evil players and sees nobody himself.",
	},
	RoleMinion: {
		Name:        "Minion",
		Team:        TeamEvil,
		Description: "An ordinary evil player with no special knowledge.",
	},
}

// roleConfigs is the fixed multiset of roles per player count. Each list is
// exactly as long as the player count it is keyed by.
var roleConfigs = map[int][]Role{
	5: {
		RoleMerlin, RolePercival, RoleLoyalServant,
		RoleMorgana, RoleAssassin,
	},
	6: {
		RoleMerlin, RolePercival, RoleLoyalServant, RoleLoyalServant,
		RoleMorgana, RoleAssassin,
	},
	7: {
		RoleMerlin, RolePercival, RoleLoyalServant, RoleLoyalServant,
		RoleMorgana, RoleAssassin, RoleOberon,
	},
	8: {
		RoleMerlin, RolePercival, RoleLoyalServant, RoleLoyalServant, RoleLoyalServant,
		RoleMorgana, RoleAssassin, RoleMinion,
	},
	9: {
		RoleMerlin, RolePercival, RoleLoyalServant, RoleLoyalServant, RoleLoyalServant, RoleLoyalServant,
		RoleMorgana, RoleAssassin, RoleMordred,
	},
	10: {
		RoleMerlin, RolePercival, RoleLoyalServant, RoleLoyalServant, RoleLoyalServant, RoleLoyalServant,
		RoleMorgana, RoleAssassin, RoleMordred, RoleOberon,
	},
}

// Definition returns the display definition for a role.
func Definition(role Role) (RoleDefinition, error) {
	def, ok := roleDefinitions[role]
	if !ok {
		return RoleDefinition{}, fmt.Errorf("%w: unknown role %q", ErrConfiguration, role)
	}
	return def, nil
}

// RolesFor returns the fixed role multiset for the given player count.
func RolesFor(playerCount int) ([]Role, error) {
	config, ok := roleConfigs[playerCount]
	if !ok {
		return nil, fmt.Errorf("%w: no role configuration for %d players", ErrConfiguration, playerCount)
	}
	out := make([]Role, len(config))
	copy(out, config)
	return out, nil
}

// Vision returns the seat indices a holder of role may see. The rules are
// fixed: Merlin sees evil except Mordred; Percival sees Merlin and Morgana
// without telling them apart; ordinary evil sees evil except Oberon; Oberon
// and the loyal servant see nobody.
func Vision(role Role, seats []Seat) ([]int, error) {
	var vision []int

	switch role {
	case RoleMerlin:
		for i, s := range seats {
			if s.Team == TeamEvil && s.Role != RoleMordred {
				vision = append(vision, i)
			}
		}
	case RolePercival:
		for i, s := range seats {
			if s.Role == RoleMerlin || s.Role == RoleMorgana {
				vision = append(vision, i)
			}
		}
	case RoleMorgana, RoleAssassin, RoleMordred, RoleMinion:
		for i, s := range seats {
			if s.Team == TeamEvil && s.Role != RoleOberon {
				vision = append(vision, i)
			}
		}
	case RoleOberon, RoleLoyalServant:
		// No vision.
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrConfiguration, role)
	}

	return vision, nil
}
