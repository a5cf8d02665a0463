package randx

import (
	"testing"

	"github.com/google/uuid"
)

func TestConnectionIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := ConnectionID()

		parsed, err := uuid.Parse(id)
		if err != nil || parsed.Version() != 4 {
			t.Fatalf("ConnectionID() = %q is not a v4 UUID (err %v)", id, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
