// Package progress persists a device's GameState and VisitorStats.
//
// Records are JSON. Timestamps and date-sets are not JSON-native, so the
// encoder wraps them in a tagged object:
//
//	{"__type":"Date","value":"2026-05-04T10:00:00Z"}
//	{"__type":"Set","value":["2026-05-03","2026-05-04"]}
//
// Which fields carry which kind is declared once in a Schema. The encoder
// uses it to decide what to wrap; the decoder uses it to validate presence
// and kind of every field and to unwrap the tags before handing the payload
// to encoding/json.
package progress

import "strings"

// Kind is the JSON shape a field must have.
type Kind int

const (
	KindNumber Kind = iota
	// KindCount is a number that must not be negative.
	KindCount
	KindBool
	KindString
	KindTimestamp
	KindDateSet
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindCount:
		return "non-negative number"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindTimestamp:
		return "timestamp"
	case KindDateSet:
		return "date-set"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// tagged reports whether the kind is stored inside a {"__type":...} wrapper.
func (k Kind) tagged() bool {
	return k == KindTimestamp || k == KindDateSet
}

// Field binds a path to a kind.
//
// Paths are dot separated object keys. A segment ending in "[]" addresses
// every element of an array: "achievements[].unlockedAt".
type Field struct {
	Path     string
	Kind     Kind
	Optional bool
}

func (f Field) segments() []string {
	return strings.Split(f.Path, ".")
}

// Schema is the field-path to kind table for one record type.
type Schema struct {
	Name   string
	Fields []Field
}

// nested prefixes every field path of s with prefix.
func (s Schema) nested(prefix string) []Field {
	out := make([]Field, 0, len(s.Fields)+1)
	out = append(out, Field{Path: prefix, Kind: KindObject})
	for _, f := range s.Fields {
		f.Path = prefix + "." + f.Path
		out = append(out, f)
	}
	return out
}

// VisitorStatsSchema describes the standalone visitor stats record.
var VisitorStatsSchema = Schema{
	Name: "visitorStats",
	Fields: []Field{
		{Path: "totalVisits", Kind: KindCount},
		{Path: "firstVisit", Kind: KindTimestamp},
		{Path: "lastVisit", Kind: KindTimestamp},
		{Path: "totalTimeSpent", Kind: KindCount},
		{Path: "consecutiveVisits", Kind: KindCount},
		{Path: "currentSessionStart", Kind: KindTimestamp},
		{Path: "uniqueDaysVisited", Kind: KindDateSet},
		{Path: "returningVisitor", Kind: KindBool},
	},
}

// GameStateSchema describes the full game state record.
var GameStateSchema = Schema{
	Name: "gameState",
	Fields: append(VisitorStatsSchema.nested("visitorStats"), []Field{
		{Path: "achievements", Kind: KindArray},
		{Path: "achievements[].id", Kind: KindString},
		{Path: "achievements[].points", Kind: KindCount},
		{Path: "achievements[].isUnlocked", Kind: KindBool},
		{Path: "achievements[].unlockedAt", Kind: KindTimestamp, Optional: true},
		{Path: "achievements[].requirements", Kind: KindArray},

		{Path: "sectionProgress", Kind: KindArray},
		{Path: "sectionProgress[].sectionId", Kind: KindString},
		{Path: "sectionProgress[].visits", Kind: KindCount},
		{Path: "sectionProgress[].timeSpent", Kind: KindCount},
		{Path: "sectionProgress[].lastVisited", Kind: KindTimestamp},

		{Path: "interactionStats", Kind: KindObject},
		{Path: "interactionStats.buttonClicks", Kind: KindNumber},
		{Path: "interactionStats.linkClicks", Kind: KindNumber},
		{Path: "interactionStats.formSubmissions", Kind: KindNumber},
		{Path: "interactionStats.skillHovers", Kind: KindNumber},
		{Path: "interactionStats.projectViews", Kind: KindNumber},
		{Path: "interactionStats.scrollDepth", Kind: KindNumber},
		{Path: "interactionStats.magneticInteractions", Kind: KindNumber},
		{Path: "interactionStats.voiceCommands", Kind: KindNumber},

		{Path: "totalPoints", Kind: KindNumber},
		{Path: "level", Kind: KindNumber},
		{Path: "experiencePoints", Kind: KindNumber},
		{Path: "experienceToNextLevel", Kind: KindNumber},
		{Path: "unlockedAchievements", Kind: KindArray},
		{Path: "unlockedAchievements[]", Kind: KindString},
		{Path: "isFirstTimeUser", Kind: KindBool},
		{Path: "sessionStartTime", Kind: KindTimestamp},
	}...),
}
