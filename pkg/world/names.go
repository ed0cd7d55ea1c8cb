package world

import (
	"hash/fnv"
	"strings"
)

var femaleNames = map[string]bool{
	"agnes": true, "beatrix": true, "clara": true, "edith": true,
	"greta": true, "hilda": true, "ingrid": true, "lotte": true,
	"mara": true, "nell": true, "odette": true, "petra": true,
	"runa": true, "sigrid": true, "thea": true, "ylva": true,
}

var maleNames = map[string]bool{
	"alaric": true, "bram": true, "cedric": true, "dietrich": true,
	"eamon": true, "falk": true, "gustav": true, "hagen": true,
	"ivo": true, "jorund": true, "klaus": true, "lothar": true,
	"magnus": true, "osric": true, "roderick": true, "torvald": true,
}

// DeriveGender guesses a gender from the first word of a name. Unknown
// names stay unknown; the conversation engine never depends on the guess.
func DeriveGender(name string) Gender {
	first := strings.ToLower(strings.TrimSpace(name))
	if idx := strings.IndexAny(first, " \t"); idx > 0 {
		first = first[:idx]
	}
	switch {
	case femaleNames[first]:
		return GenderFemale
	case maleNames[first]:
		return GenderMale
	default:
		return GenderUnknown
	}
}

var personalities = []Personality{
	PersonalityGruff,
	PersonalityCheerful,
	PersonalityStoic,
	PersonalitySly,
	PersonalityEarnest,
}

// PersonalityFor picks a stable personality for an actor id, so the same
// actor keeps the same voice across restarts without persisting a choice.
func PersonalityFor(actorID string) Personality {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return personalities[h.Sum32()%uint32(len(personalities))]
}
