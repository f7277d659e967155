// Package settings implements the lobby settings record (spec §3, §4.2):
// a fixed 21-slot typed tuple that must round-trip through the wire
// codec without loss.
package settings

import (
	"errors"
	"fmt"

	"github.com/race/lobbyserver/internal/codec"
)

// ErrSchemaMismatch is raised by FromTuple when the array isn't exactly
// 21 elements, or any slot's wire tag disagrees with the fixed schema.
var ErrSchemaMismatch = errors.New("settings: schema mismatch")

const tupleSize = 21
const gameOptionsLen = 32

// Slot indices, fixed by spec §3.
const (
	slotDisplayName = iota
	slotKindOfLobby
	slotVersionKey
	slotGameSetup
	slotRulesSet
	slotReplay
	slotLocation
	slotHumanHQInvalid
	slotAIFill
	slotMapSize
	slotTerrain
	slotSpeed
	slotMapName
	slotSeed
	slotLatitude
	slotResourceMin
	slotResourcePresence
	slotColonyClass
	slotGameOptions
	slotTeamAssignments
	slotHandicapAssignments
)

// Settings is the structured lobby settings record.
type Settings struct {
	DisplayName          string
	KindOfLobby          int8
	VersionKey           int16
	GameSetup            int16
	RulesSet             int16
	Replay               bool
	Location             int16
	HumanHQInvalid       []bool // per-slot; length == MaxPlayers
	AIFill               bool
	MapSize              int8
	Terrain              int16
	Speed                int8
	MapName              string
	Seed                 int32
	Latitude             int16
	ResourceMin          int8
	ResourcePresence     int8
	ColonyClass          int16
	GameOptions          [gameOptionsLen]bool
	TeamAssignments      map[string]int16 // key: PlayerID canonical string
	HandicapAssignments  map[string]int16
}

// MaxPlayers derives the room's capacity from the per-slot invalid-flag
// array, since that array is sized one entry per seat.
func (s Settings) MaxPlayers() int {
	return len(s.HumanHQInvalid)
}

// Defaults returns a Settings record with the given display name and
// sane defaults for everything else, matching the shape an empty new
// room is created with.
func Defaults(displayName string) Settings {
	return Settings{
		DisplayName:         displayName,
		HumanHQInvalid:      make([]bool, 10),
		MapName:             "default",
		TeamAssignments:     make(map[string]int16),
		HandicapAssignments: make(map[string]int16),
	}
}

// ToTuple renders s as the 21-element SFS_ARRAY the wire protocol
// expects (spec §4.2).
func ToTuple(s Settings) codec.Value {
	els := make([]codec.Value, tupleSize)
	els[slotDisplayName] = codec.NewString(s.DisplayName)
	els[slotKindOfLobby] = codec.NewByte(s.KindOfLobby)
	els[slotVersionKey] = codec.NewShort(s.VersionKey)
	els[slotGameSetup] = codec.NewShort(s.GameSetup)
	els[slotRulesSet] = codec.NewShort(s.RulesSet)
	els[slotReplay] = codec.NewBool(s.Replay)
	els[slotLocation] = codec.NewShort(s.Location)
	els[slotHumanHQInvalid] = codec.NewBoolArray(s.HumanHQInvalid)
	els[slotAIFill] = codec.NewBool(s.AIFill)
	els[slotMapSize] = codec.NewByte(s.MapSize)
	els[slotTerrain] = codec.NewShort(s.Terrain)
	els[slotSpeed] = codec.NewByte(s.Speed)
	els[slotMapName] = codec.NewString(s.MapName)
	els[slotSeed] = codec.NewInt(s.Seed)
	els[slotLatitude] = codec.NewShort(s.Latitude)
	els[slotResourceMin] = codec.NewByte(s.ResourceMin)
	els[slotResourcePresence] = codec.NewByte(s.ResourcePresence)
	els[slotColonyClass] = codec.NewShort(s.ColonyClass)
	els[slotGameOptions] = codec.NewBoolArray(s.GameOptions[:])
	els[slotTeamAssignments] = codec.NewSFSObject(mapToObject(s.TeamAssignments))
	els[slotHandicapAssignments] = codec.NewSFSObject(mapToObject(s.HandicapAssignments))
	return codec.NewSFSArray(els)
}

// FromTuple parses a 21-element SFS_ARRAY back into a Settings record,
// failing with ErrSchemaMismatch if the size or any slot's tag is wrong
// (spec §4.2, testable property "Schema strictness").
func FromTuple(v codec.Value) (Settings, error) {
	els, err := v.SFSArray()
	if err != nil {
		return Settings{}, fmt.Errorf("%w: not an SFS_ARRAY: %v", ErrSchemaMismatch, err)
	}
	if len(els) != tupleSize {
		return Settings{}, fmt.Errorf("%w: want %d elements, got %d", ErrSchemaMismatch, tupleSize, len(els))
	}

	var s Settings
	var perr error
	str := func(i int) string {
		v, err := els[i].String()
		if err != nil {
			perr = fmt.Errorf("%w: slot %d: %v", ErrSchemaMismatch, i, err)
		}
		return v
	}
	b := func(i int) int8 {
		v, err := els[i].Byte()
		if err != nil {
			perr = fmt.Errorf("%w: slot %d: %v", ErrSchemaMismatch, i, err)
		}
		return v
	}
	sh := func(i int) int16 {
		v, err := els[i].Short()
		if err != nil {
			perr = fmt.Errorf("%w: slot %d: %v", ErrSchemaMismatch, i, err)
		}
		return v
	}
	boolean := func(i int) bool {
		v, err := els[i].Bool()
		if err != nil {
			perr = fmt.Errorf("%w: slot %d: %v", ErrSchemaMismatch, i, err)
		}
		return v
	}
	boolArr := func(i int) []bool {
		v, err := els[i].BoolArray()
		if err != nil {
			perr = fmt.Errorf("%w: slot %d: %v", ErrSchemaMismatch, i, err)
		}
		return v
	}
	i32 := func(i int) int32 {
		v, err := els[i].Int()
		if err != nil {
			perr = fmt.Errorf("%w: slot %d: %v", ErrSchemaMismatch, i, err)
		}
		return v
	}
	obj := func(i int) *codec.Object {
		v, err := els[i].SFSObject()
		if err != nil {
			perr = fmt.Errorf("%w: slot %d: %v", ErrSchemaMismatch, i, err)
		}
		return v
	}

	s.DisplayName = str(slotDisplayName)
	s.KindOfLobby = b(slotKindOfLobby)
	s.VersionKey = sh(slotVersionKey)
	s.GameSetup = sh(slotGameSetup)
	s.RulesSet = sh(slotRulesSet)
	s.Replay = boolean(slotReplay)
	s.Location = sh(slotLocation)
	s.HumanHQInvalid = boolArr(slotHumanHQInvalid)
	s.AIFill = boolean(slotAIFill)
	s.MapSize = b(slotMapSize)
	s.Terrain = sh(slotTerrain)
	s.Speed = b(slotSpeed)
	s.MapName = str(slotMapName)
	s.Seed = i32(slotSeed)
	s.Latitude = sh(slotLatitude)
	s.ResourceMin = b(slotResourceMin)
	s.ResourcePresence = b(slotResourcePresence)
	s.ColonyClass = sh(slotColonyClass)

	gameOpts := boolArr(slotGameOptions)
	if perr == nil && len(gameOpts) != gameOptionsLen {
		perr = fmt.Errorf("%w: slot %d: want %d game options, got %d", ErrSchemaMismatch, slotGameOptions, gameOptionsLen, len(gameOpts))
	}
	if perr == nil {
		copy(s.GameOptions[:], gameOpts)
	}

	teamObj := obj(slotTeamAssignments)
	handicapObj := obj(slotHandicapAssignments)
	if perr != nil {
		return Settings{}, perr
	}

	s.TeamAssignments, perr = objectToMap(teamObj)
	if perr != nil {
		return Settings{}, perr
	}
	s.HandicapAssignments, perr = objectToMap(handicapObj)
	if perr != nil {
		return Settings{}, perr
	}

	return s, nil
}

func mapToObject(m map[string]int16) *codec.Object {
	obj := codec.NewObject()
	for k, v := range m {
		obj.Put(k, codec.NewShort(v))
	}
	return obj
}

func objectToMap(obj *codec.Object) (map[string]int16, error) {
	out := make(map[string]int16, obj.Len())
	for _, key := range obj.Keys() {
		v, _ := obj.Get(key)
		sh, err := v.Short()
		if err != nil {
			return nil, fmt.Errorf("%w: assignment %q: %v", ErrSchemaMismatch, key, err)
		}
		out[key] = sh
	}
	return out, nil
}
