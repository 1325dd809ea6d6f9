package avalon

import (
	"errors"
	"testing"
)

func TestRolesForMatchesPlayerCount(t *testing.T) {
	for count := 5; count <= 10; count++ {
		roles, err := RolesFor(count)
		if err != nil {
			t.Fatalf("count %d: %v", count, err)
		}
		if len(roles) != count {
			t.Errorf("count %d: config has %d roles", count, len(roles))
		}
	}
}

func TestRolesForUnknownCount(t *testing.T) {
	for _, count := range []int{4, 11, 0, -1} {
		if _, err := RolesFor(count); !errors.Is(err, ErrConfiguration) {
			t.Errorf("count %d: expected ErrConfiguration, got %v", count, err)
		}
	}
}

func TestDefinitionUnknownRole(t *testing.T) {
	if _, err := Definition(Role("jester")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestVisionUnknownRole(t *testing.T) {
	if _, err := Vision(Role("jester"), nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestTablesCoverAllCounts(t *testing.T) {
	for count := 5; count <= 10; count++ {
		for round := 1; round <= 5; round++ {
			size, err := TeamSizeFor(count, round)
			if err != nil {
				t.Fatalf("size %d/%d: %v", count, round, err)
			}
			if size < 2 || size > 5 {
				t.Errorf("size %d/%d out of range: %d", count, round, size)
			}
			fails, err := FailVotesFor(count, round)
			if err != nil {
				t.Fatalf("fails %d/%d: %v", count, round, err)
			}
			if fails != 1 && fails != 2 {
				t.Errorf("fails %d/%d out of range: %d", count, round, fails)
			}
		}
	}

	if _, err := TeamSizeFor(5, 6); !errors.Is(err, ErrConfiguration) {
		t.Errorf("round 6: expected ErrConfiguration, got %v", err)
	}
	if _, err := FailVotesFor(12, 1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("12 players: expected ErrConfiguration, got %v", err)
	}
}
