package chat

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"sync"
	"testing"

	"provchat/internal/app/user"
)

func profile(nick, room string) user.Profile {
	return user.Profile{Nickname: nick, Sex: user.SexOther, Room: room}
}

// assertNicknamesInSync checks that the nickname set is exactly the set of
// nicknames held by admitted profiles.
func assertNicknamesInSync(t *testing.T, r *Registry) {
	t.Helper()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.nicknames) != len(r.profiles) || len(r.order) != len(r.profiles) {
		t.Fatalf("size mismatch: %d nicknames, %d profiles, %d ordered", len(r.nicknames), len(r.profiles), len(r.order))
	}
	for id, p := range r.profiles {
		if got := r.nicknames[p.Nickname]; got != id {
			t.Fatalf("nickname %q maps to %q, want %q", p.Nickname, got, id)
		}
	}
}

func TestAdmitRejectsIncompleteProfile(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		id string
		p  user.Profile
	}{
		{"c1", user.Profile{Sex: user.SexMale, Room: "Salta"}},
		{"c1", user.Profile{Nickname: "ana", Room: "Salta"}},
		{"c1", user.Profile{Nickname: "ana", Sex: user.SexFemale}},
		{"", profile("ana", "Salta")},
	}

	for _, tc := range cases {
		if err := r.Admit(tc.id, tc.p); !errors.Is(err, ErrIncompleteProfile) {
			t.Errorf("Admit(%q, %+v) = %v, want ErrIncompleteProfile", tc.id, tc.p, err)
		}
	}

	if r.Len() != 0 || len(r.Nicknames()) != 0 {
		t.Fatal("failed admissions left state behind")
	}
}

func TestAdmitRejectsTakenNickname(t *testing.T) {
	r := NewRegistry()

	if err := r.Admit("c1", profile("ana", "Salta")); err != nil {
		t.Fatalf("first admit: %v", err)
	}

	err := r.Admit("c2", profile("ana", "Jujuy"))
	if !errors.Is(err, ErrNicknameTaken) {
		t.Fatalf("second admit = %v, want ErrNicknameTaken", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "'ana'") {
		t.Errorf("error %q should name the nickname", msg)
	}

	if _, ok := r.Profile("c2"); ok {
		t.Error("rejected connection must not be registered")
	}
	if id, _ := r.LookupByNickname("ana"); id != "c1" {
		t.Errorf("nickname owner = %q, want c1", id)
	}
	assertNicknamesInSync(t, r)
}

func TestAdmitRejectsSecondAdmissionOfConnection(t *testing.T) {
	r := NewRegistry()

	if err := r.Admit("c1", profile("ana", "Salta")); err != nil {
		t.Fatal(err)
	}
	if err := r.Admit("c1", profile("beto", "Salta")); !errors.Is(err, ErrAlreadyAdmitted) {
		t.Fatalf("got %v, want ErrAlreadyAdmitted", err)
	}
	if _, ok := r.LookupByNickname("beto"); ok {
		t.Error("nickname of a rejected admission must stay free")
	}
}

func TestNicknamesAreCaseSensitive(t *testing.T) {
	r := NewRegistry()

	if err := r.Admit("c1", profile("Ana", "Salta")); err != nil {
		t.Fatal(err)
	}
	if err := r.Admit("c2", profile("ana", "Salta")); err != nil {
		t.Fatalf("different case should be a different nickname: %v", err)
	}
}

func TestRemoveFreesNickname(t *testing.T) {
	r := NewRegistry()
	_ = r.Admit("c1", profile("ana", "Salta"))

	p, ok := r.Remove("c1")
	if !ok || p.Nickname != "ana" {
		t.Fatalf("Remove = %+v, %v", p, ok)
	}
	if _, ok := r.LookupByNickname("ana"); ok {
		t.Error("nickname still resolvable after removal")
	}

	if err := r.Admit("c2", profile("ana", "Jujuy")); err != nil {
		t.Fatalf("nickname should be free again: %v", err)
	}
	assertNicknamesInSync(t, r)
}

func TestRemoveUnknownConnection(t *testing.T) {
	r := NewRegistry()
	_ = r.Admit("c1", profile("ana", "Salta"))

	if _, ok := r.Remove("never-admitted"); ok {
		t.Fatal("Remove of an unknown connection reported success")
	}
	if r.Len() != 1 {
		t.Fatal("Remove of an unknown connection changed the registry")
	}
}

func TestMembersOfKeepsAdmissionOrder(t *testing.T) {
	r := NewRegistry()
	_ = r.Admit("a", profile("A", "X"))
	_ = r.Admit("b", profile("B", "X"))
	_ = r.Admit("c", profile("C", "Y"))

	if got := r.MembersOf("X"); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("MembersOf(X) = %v", got)
	}
	if got := r.MembersOf("Y"); !reflect.DeepEqual(got, []string{"C"}) {
		t.Errorf("MembersOf(Y) = %v", got)
	}
	if got := r.MembersOf("Z"); got == nil || len(got) != 0 {
		t.Errorf("MembersOf(Z) = %#v, want empty non-nil slice", got)
	}
	if got := r.ConnectionsIn("X"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("ConnectionsIn(X) = %v", got)
	}

	r.Remove("a")
	_ = r.Admit("d", profile("D", "X"))

	if got := r.MembersOf("X"); !reflect.DeepEqual(got, []string{"B", "D"}) {
		t.Errorf("MembersOf(X) after churn = %v", got)
	}
	if got := r.Rooms(); !reflect.DeepEqual(got, map[string]int{"X": 2, "Y": 1}) {
		t.Errorf("Rooms() = %v", got)
	}
}

func TestRandomAdmitRemoveKeepsInvariant(t *testing.T) {
	r := NewRegistry()
	rng := rand.New(rand.NewPCG(1, 2))

	nicks := []string{"ana", "beto", "caro", "dani", "eli"}
	rooms := []string{"Salta", "Jujuy"}

	for i := range 500 {
		id := fmt.Sprintf("c%d", rng.IntN(8))

		if rng.IntN(2) == 0 {
			_ = r.Admit(id, profile(nicks[rng.IntN(len(nicks))], rooms[rng.IntN(len(rooms))]))
		} else {
			r.Remove(id)
		}

		assertNicknamesInSync(t, r)

		total := 0
		for _, room := range rooms {
			total += len(r.MembersOf(room))
		}
		if total != r.Len() {
			t.Fatalf("step %d: rooms hold %d members, registry %d", i, total, r.Len())
		}
	}
}

func TestConcurrentAdmitSameNickname(t *testing.T) {
	const attempts = 64

	for round := range 20 {
		r := NewRegistry()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []string
			taken   int
		)

		start := make(chan struct{})
		for i := range attempts {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				<-start

				err := r.Admit(id, profile("same", "Salta"))

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					winners = append(winners, id)
				case errors.Is(err, ErrNicknameTaken):
					taken++
				default:
					t.Errorf("unexpected error %v", err)
				}
			}(fmt.Sprintf("c%d", i))
		}

		close(start)
		wg.Wait()

		if len(winners) != 1 || taken != attempts-1 {
			t.Fatalf("round %d: %d winners, %d rejected", round, len(winners), taken)
		}
		if id, _ := r.LookupByNickname("same"); id != winners[0] {
			t.Fatalf("round %d: nickname owned by %q, winner %q", round, id, winners[0])
		}
		assertNicknamesInSync(t, r)
	}
}
