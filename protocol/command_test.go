package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineEmpty(t *testing.T) {
	assert.Nil(t, ParseLine(""))
	assert.Nil(t, ParseLine("\r"))
}

func TestParseAddQuoted(t *testing.T) {
	cmd := ParseLine(`add "my song.mp3"`)

	add, ok := cmd.(CmdAdd)
	require.True(t, ok, "got %T", cmd)
	assert.Equal(t, "my song.mp3", add.URI)
	assert.Equal(t, "add", add.Name())
}

func TestParseAddUnterminatedQuote(t *testing.T) {
	cmd := ParseLine(`add "never ends`)

	inv, ok := cmd.(CmdInvalid)
	require.True(t, ok, "got %T", cmd)
	assert.Equal(t, AckArg, inv.Ack.Code)
}

func TestParseSetVol(t *testing.T) {
	for _, line := range []string{"setvol 50", `setvol "50"`, "setvol   50  "} {
		cmd := ParseLine(line)
		sv, ok := cmd.(CmdSetVol)
		require.True(t, ok, "line %q got %T", line, cmd)
		assert.Equal(t, 50, sv.Volume)
	}

	for _, line := range []string{"setvol", "setvol 50a", `setvol "50a"`, "setvol 50 60"} {
		cmd := ParseLine(line)
		inv, ok := cmd.(CmdInvalid)
		require.True(t, ok, "line %q got %T", line, cmd)
		assert.Equal(t, AckArg, inv.Ack.Code)
		assert.Equal(t, "setvol", inv.Verb)
	}
}

func TestParseUnknownVerb(t *testing.T) {
	cmd := ParseLine("frobnicate 1 2")

	inv, ok := cmd.(CmdInvalid)
	require.True(t, ok, "got %T", cmd)
	assert.Equal(t, AckUnknown, inv.Ack.Code)
	assert.Equal(t, "frobnicate", inv.Verb)
}

func TestParsePlayOptionalPos(t *testing.T) {
	cmd := ParseLine("play")
	require.IsType(t, CmdPlay{}, cmd)
	assert.Nil(t, cmd.(CmdPlay).Pos)

	cmd = ParseLine("play 3")
	require.IsType(t, CmdPlay{}, cmd)
	require.NotNil(t, cmd.(CmdPlay).Pos)
	assert.Equal(t, 3, *cmd.(CmdPlay).Pos)
}

func TestParsePause(t *testing.T) {
	cmd := ParseLine("pause")
	require.IsType(t, CmdPause{}, cmd)
	assert.Nil(t, cmd.(CmdPause).Toggle)

	cmd = ParseLine("pause 1")
	require.IsType(t, CmdPause{}, cmd)
	require.NotNil(t, cmd.(CmdPause).Toggle)
	assert.True(t, *cmd.(CmdPause).Toggle)

	cmd = ParseLine("pause 2")
	require.IsType(t, CmdInvalid{}, cmd)
}

func TestParseSeek(t *testing.T) {
	cmd := ParseLine("seek 2 125")
	require.IsType(t, CmdSeek{}, cmd)
	assert.Equal(t, 2, cmd.(CmdSeek).Pos)
	assert.Equal(t, 125*time.Second, cmd.(CmdSeek).Time)

	cmd = ParseLine("seekcur 12.5")
	require.IsType(t, CmdSeekCur{}, cmd)
	assert.Equal(t, 12.5, cmd.(CmdSeekCur).Time.Seconds())
}

func TestParseDeleteRange(t *testing.T) {
	cmd := ParseLine("delete 2:5")
	require.IsType(t, CmdDelete{}, cmd)
	assert.Equal(t, Range{Start: 2, End: 5}, cmd.(CmdDelete).Range)
}

func TestParseMove(t *testing.T) {
	cmd := ParseLine("move 1:3 0")
	require.IsType(t, CmdMove{}, cmd)
	assert.Equal(t, Range{Start: 1, End: 3}, cmd.(CmdMove).From)
	assert.Equal(t, 0, cmd.(CmdMove).To)
}

func TestParseIdle(t *testing.T) {
	cmd := ParseLine("idle")
	require.IsType(t, CmdIdle{}, cmd)
	assert.Equal(t, AllSubsystems, cmd.(CmdIdle).Subsystems)

	cmd = ParseLine("idle player mixer")
	require.IsType(t, CmdIdle{}, cmd)
	assert.Equal(t, NewSubsystemSet(SubsystemPlayer, SubsystemMixer), cmd.(CmdIdle).Subsystems)

	cmd = ParseLine("idle bogus")
	require.IsType(t, CmdInvalid{}, cmd)
	assert.Equal(t, AckUnknown, cmd.(CmdInvalid).Ack.Code)
}

func TestParseFindFilters(t *testing.T) {
	cmd := ParseLine(`find artist "Some Artist" album "Some Album"`)

	find, ok := cmd.(CmdFind)
	require.True(t, ok, "got %T", cmd)
	require.Len(t, find.Filters, 2)
	assert.Equal(t, TagFilter{Tag: TagArtist, Value: "Some Artist"}, find.Filters[0])
	assert.Equal(t, TagFilter{Tag: TagAlbum, Value: "Some Album"}, find.Filters[1])

	cmd = ParseLine(`find artist`)
	require.IsType(t, CmdInvalid{}, cmd)

	cmd = ParseLine(`find bogus value`)
	require.IsType(t, CmdInvalid{}, cmd)
}

func TestParseListWithGroups(t *testing.T) {
	cmd := ParseLine(`list album artist "Some Artist" group albumartist`)

	list, ok := cmd.(CmdList)
	require.True(t, ok, "got %T", cmd)
	assert.Equal(t, TagAlbum, list.Tag)
	require.Len(t, list.Filters, 1)
	assert.Equal(t, TagFilter{Tag: TagArtist, Value: "Some Artist"}, list.Filters[0])
	require.Len(t, list.Groups, 1)
	assert.Equal(t, TagAlbumArtist, list.Groups[0])
}

func TestParseListLegacyAlbumShorthand(t *testing.T) {
	cmd := ParseLine(`list album "Some Artist"`)

	list, ok := cmd.(CmdList)
	require.True(t, ok, "got %T", cmd)
	require.Len(t, list.Filters, 1)
	assert.Equal(t, TagFilter{Tag: TagArtist, Value: "Some Artist"}, list.Filters[0])
}

func TestParseTagTypes(t *testing.T) {
	cmd := ParseLine("tagtypes")
	require.IsType(t, CmdTagTypes{}, cmd)
	assert.Equal(t, TagTypesList, cmd.(CmdTagTypes).Op)

	cmd = ParseLine("tagtypes enable artist album")
	require.IsType(t, CmdTagTypes{}, cmd)
	assert.Equal(t, TagTypesEnable, cmd.(CmdTagTypes).Op)
	assert.True(t, cmd.(CmdTagTypes).Tags.Has(TagArtist))
	assert.True(t, cmd.(CmdTagTypes).Tags.Has(TagAlbum))

	cmd = ParseLine("tagtypes enable")
	require.IsType(t, CmdInvalid{}, cmd)
}

func TestParseListMarkers(t *testing.T) {
	assert.IsType(t, CmdListBegin{}, ParseLine("command_list_begin"))
	assert.Equal(t, CmdListBegin{OK: true}, ParseLine("command_list_ok_begin"))
	assert.IsType(t, CmdListEnd{}, ParseLine("command_list_end"))
}

func TestSubsystemSetOrder(t *testing.T) {
	set := NewSubsystemSet(SubsystemPlaylist, SubsystemMixer, SubsystemPlayer)

	// declaration order, not insertion order
	assert.Equal(t, []Subsystem{SubsystemMixer, SubsystemPlayer, SubsystemPlaylist}, set.Subsystems())
}
