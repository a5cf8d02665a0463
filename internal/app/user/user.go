/*
Package user holds the identity a chat participant declares at handshake time.
*/
package user

import "strings"

// Sex is the declared sex of a participant.
type Sex string

// Canonical Sex values. ParseSex maps handshake aliases onto these.
const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// sexAliases maps accepted handshake values, lowercased, to their Sex.
// The web client sends the Spanish labels.
var sexAliases = map[string]Sex{
	"male":      SexMale,
	"female":    SexFemale,
	"other":     SexOther,
	"masculino": SexMale,
	"femenino":  SexFemale,
	"otro":      SexOther,
}

// ParseSex maps a handshake value to a Sex. It reports false for empty or
// unrecognised values.
func ParseSex(raw string) (Sex, bool) {
	s, ok := sexAliases[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// Profile is what the relay knows about an admitted connection. It does not
// change for the life of the connection.
type Profile struct {
	Nickname string `json:"nickname"`
	Sex      Sex    `json:"sex"`
	Room     string `json:"room"`
}

// NewProfile builds a profile from raw handshake values, trimming the
// nickname and room. An unrecognised sex leaves Sex empty, which makes the
// profile incomplete.
func NewProfile(nickname, sex, room string) Profile {
	s, _ := ParseSex(sex)

	return Profile{
		Nickname: strings.TrimSpace(nickname),
		Sex:      s,
		Room:     strings.TrimSpace(room),
	}
}

// Complete reports whether every field is set.
func (p Profile) Complete() bool {
	return p.Nickname != "" && p.Sex != "" && p.Room != ""
}
