package vhnotify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vhnotify/vhnotify-go/pkg/vhnotify/event"
)

const (
	accountA = "76561198000000001"
	accountB = "76561198000000002"

	lineConnectA     = "03/15/2024 18:00:00: PlayFab socket with remote ID playfab/CONNA received local Platform ID Steam_76561198000000001"
	lineConnectB     = "03/15/2024 18:00:01: PlayFab socket with remote ID playfab/CONNB received local Platform ID Steam_76561198000000002"
	lineHuginJoin    = "03/15/2024 18:00:05: Got character ObjectID from Hugin : 1001:0"
	lineHuginDeath   = "03/15/2024 18:10:00: Got character ObjectID from Hugin : 1001:0"
	lineHuginRespawn = "03/15/2024 18:10:20: Got character ObjectID from Hugin : 1002:5"
	lineTimeout      = "03/15/2024 18:20:00: ZRpc timeout detected"
	lineAbandoned    = "03/15/2024 18:20:01: Destroying abandoned non persistent zdo 1002:6 owner 1002"
	lineAbandonedX   = "03/15/2024 18:20:01: Destroying abandoned non persistent zdo 9999:1 owner 9999"
	lineTokenRefresh = "03/15/2024 18:20:02: Update PlayFab entity token"
	lineTroubleA     = "03/15/2024 18:15:00: Resume TX on playfab/CONNA"
	lineTroubleB     = "03/15/2024 18:15:01: Resume TX on playfab/CONNB"
	lineTroubleX     = "03/15/2024 18:15:02: Resume TX on playfab/GHOST"
	lineVersion      = "03/15/2024 17:59:00: Valheim version: l-0.217.46 (network version 20)"
	lineLoadWorld    = "03/15/2024 17:59:30: Load world: TestWorld"
	lineDay          = "03/15/2024 19:00:00: Time 3421.2, day:4    nextm:3600  skipspeed:1"
	lineQuit         = "03/15/2024 23:00:00: OnApplicationQuit"
	lineRaid         = "03/15/2024 20:00:00: Random event set:army_eikthyr"
)

type fakeResolver struct {
	cache   map[string]string
	remote  map[string]string
	resolve []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{cache: map[string]string{}, remote: map[string]string{}}
}

func (f *fakeResolver) Lookup(id string) (string, bool) {
	name, ok := f.cache[id]
	return name, ok
}

func (f *fakeResolver) Resolve(_ context.Context, id string) (string, bool) {
	f.resolve = append(f.resolve, id)
	if name, ok := f.cache[id]; ok {
		return name, true
	}
	name, ok := f.remote[id]
	if ok {
		f.cache[id] = name
	}
	return name, ok
}

func feed(t *testing.T, e *Engine, lines ...string) []event.Notification {
	t.Helper()
	var out []event.Notification
	for _, l := range lines {
		out = append(out, e.HandleLine(context.Background(), l)...)
	}
	return out
}

func types(ns []event.Notification) []event.Type {
	out := make([]event.Type, len(ns))
	for i, n := range ns {
		out[i] = n.Type
	}
	return out
}

func TestEngine_Scenarios(t *testing.T) {
	res := newFakeResolver()
	e := NewEngine(res, nil)
	st := e.State()

	// 1: connection with no cached name
	got := feed(t, e, lineConnectA)
	require.Len(t, got, 1)
	assert.Equal(t, event.PlayerConnecting, got[0].Type)
	assert.Equal(t, accountA, got[0].AccountID)
	assert.Equal(t, "CONNA", got[0].ConnectionID)
	assert.Empty(t, got[0].UserName)
	assert.False(t, got[0].Timestamp.IsZero())
	pending, ok := st.PendingConnect()
	require.True(t, ok)
	assert.Equal(t, accountA, pending)

	// 2: first object id completes the handshake
	got = feed(t, e, lineHuginJoin)
	require.Len(t, got, 1)
	assert.Equal(t, event.PlayerConnected, got[0].Type)
	assert.Equal(t, "Hugin", got[0].CharName)
	assert.Equal(t, accountA, got[0].AccountID)
	name, ok := st.CharName("1001")
	require.True(t, ok)
	assert.Equal(t, "Hugin", name)
	obj, ok := st.ObjectID(accountA)
	require.True(t, ok)
	assert.Equal(t, "1001", obj)
	assert.Equal(t, PlayerAlive, st.Player("Hugin"))
	_, ok = st.PendingConnect()
	assert.False(t, ok)

	// 3: the same report with no handshake pending is a death
	got = feed(t, e, lineHuginDeath)
	require.Len(t, got, 1)
	assert.Equal(t, event.PlayerDied, got[0].Type)
	assert.Equal(t, "Hugin", got[0].CharName)
	assert.Equal(t, PlayerDead, st.Player("Hugin"))

	// 4: a fresh object id for a dead character is a respawn
	got = feed(t, e, lineHuginRespawn)
	require.Len(t, got, 1)
	assert.Equal(t, event.PlayerRespawned, got[0].Type)
	assert.Equal(t, PlayerAlive, st.Player("Hugin"))

	// 5: timeout, abandoned object, token refresh
	res.cache[accountA] = "Ragnar"
	got = feed(t, e, lineTimeout, lineAbandoned, lineTokenRefresh)
	require.Len(t, got, 1)
	assert.Equal(t, event.PlayerDisconnected, got[0].Type)
	assert.Equal(t, "Hugin", got[0].CharName)
	assert.Equal(t, accountA, got[0].AccountID)
	assert.Equal(t, "Ragnar", got[0].UserName)
	assert.Equal(t, PlayerDisconnected, st.Player("Hugin"))
	assert.False(t, st.DisconnectPending())

	// 6: world load starts a new epoch
	feed(t, e, lineVersion)
	got = feed(t, e, lineLoadWorld)
	require.Len(t, got, 1)
	assert.Equal(t, event.ServerStarted, got[0].Type)
	assert.Equal(t, "TestWorld", got[0].WorldName)
	assert.Equal(t, "l-0.217.46 (network version 20)", got[0].Version)
	assert.Empty(t, st.Players())
	assert.Equal(t, "TestWorld", st.WorldName())
}

func TestEngine_ConnectResolvesName(t *testing.T) {
	res := newFakeResolver()
	res.remote[accountA] = "Ragnar"
	e := NewEngine(res, nil)

	got := feed(t, e, lineConnectA, lineHuginJoin)
	require.Len(t, got, 2)
	assert.Equal(t, "Ragnar", got[0].UserName)
	assert.Equal(t, "Ragnar", got[1].UserName)
	assert.Equal(t, []string{accountA}, res.resolve)
}

func TestEngine_ConnectUsesCacheWithoutResolve(t *testing.T) {
	res := newFakeResolver()
	res.cache[accountA] = "Ragnar"
	e := NewEngine(res, nil)

	got := feed(t, e, lineConnectA)
	require.Len(t, got, 1)
	assert.Equal(t, "Ragnar", got[0].UserName)
	assert.Empty(t, res.resolve)
}

func TestEngine_PendingConnectOverwritten(t *testing.T) {
	e := NewEngine(nil, nil)

	got := feed(t, e, lineConnectA, lineConnectB, lineHuginJoin)
	assert.Equal(t, []event.Type{event.PlayerConnecting, event.PlayerConnecting, event.PlayerConnected}, types(got))
	assert.Equal(t, accountB, got[2].AccountID)

	_, ok := e.State().ObjectID(accountA)
	assert.False(t, ok, "the overwritten handshake is dropped")
	obj, ok := e.State().ObjectID(accountB)
	require.True(t, ok)
	assert.Equal(t, "1001", obj)
}

func TestEngine_ObjectIDWithoutHandshake(t *testing.T) {
	e := NewEngine(nil, nil)

	// untracked character: death is reported, nothing is recorded
	got := feed(t, e, lineHuginDeath)
	require.Len(t, got, 1)
	assert.Equal(t, event.PlayerDied, got[0].Type)
	assert.Equal(t, "Hugin", got[0].CharName)
	assert.Equal(t, PlayerUnknown, e.State().Player("Hugin"))

	assert.Empty(t, feed(t, e, lineHuginRespawn))
	assert.Equal(t, PlayerUnknown, e.State().Player("Hugin"))
	_, ok := e.State().CharName("1001")
	assert.False(t, ok)
}

func TestEngine_RoutineObjectIDUpdate(t *testing.T) {
	e := NewEngine(nil, nil)
	feed(t, e, lineConnectA, lineHuginJoin)

	got := feed(t, e, "Got character ObjectID from Hugin : 1001:7")
	assert.Empty(t, got)
	assert.Equal(t, PlayerAlive, e.State().Player("Hugin"))
}

func TestEngine_DisconnectedIsTerminal(t *testing.T) {
	e := NewEngine(nil, nil)
	feed(t, e, lineConnectA, lineHuginJoin, lineTimeout, "Destroying abandoned non persistent zdo 1001:3", lineTokenRefresh)
	require.Equal(t, PlayerDisconnected, e.State().Player("Hugin"))

	got := feed(t, e, lineHuginDeath, lineHuginRespawn)
	assert.Empty(t, got)
	assert.Equal(t, PlayerDisconnected, e.State().Player("Hugin"))

	// a new handshake brings the character back
	got = feed(t, e, lineConnectA, "Got character ObjectID from Hugin : 2001:0")
	assert.Equal(t, []event.Type{event.PlayerConnecting, event.PlayerConnected}, types(got))
	assert.Equal(t, PlayerAlive, e.State().Player("Hugin"))
}

func TestEngine_ObjectIdentityWriteOnce(t *testing.T) {
	e := NewEngine(nil, nil)
	feed(t, e, lineConnectA, lineHuginJoin)
	feed(t, e, lineConnectB, "Got character ObjectID from Munin : 1001:0")

	name, ok := e.State().CharName("1001")
	require.True(t, ok)
	assert.Equal(t, "Hugin", name)
}

func TestEngine_DisconnectUnknown(t *testing.T) {
	e := NewEngine(nil, nil)

	got := feed(t, e, lineTimeout, lineAbandonedX, lineTokenRefresh)
	require.Len(t, got, 1)
	assert.Equal(t, event.PlayerDisconnectedUnknown, got[0].Type)
	assert.False(t, e.State().DisconnectPending())
}

func TestEngine_DisconnectWithoutAbandonedLine(t *testing.T) {
	e := NewEngine(nil, nil)

	got := feed(t, e, lineTimeout, lineTokenRefresh)
	assert.Equal(t, []event.Type{event.PlayerDisconnectedUnknown}, types(got))
}

func TestEngine_TokenRefreshWithoutDisconnect(t *testing.T) {
	e := NewEngine(nil, nil)

	assert.Empty(t, feed(t, e, lineTokenRefresh))
	assert.Empty(t, feed(t, e, lineAbandoned))
}

func TestEngine_CapturedCharacterNotDisplaced(t *testing.T) {
	e := NewEngine(nil, nil)
	feed(t, e, lineConnectA, lineHuginJoin)

	got := feed(t, e, lineTimeout, "Destroying abandoned non persistent zdo 1001:3", lineAbandonedX, lineTokenRefresh)
	require.Len(t, got, 1)
	assert.Equal(t, event.PlayerDisconnected, got[0].Type)
	assert.Equal(t, "Hugin", got[0].CharName)
	assert.Equal(t, accountA, got[0].AccountID)
}

func TestEngine_RepeatedTimeoutKeepsCapture(t *testing.T) {
	e := NewEngine(nil, nil)
	feed(t, e, lineConnectA, lineHuginJoin)

	got := feed(t, e, lineTimeout, "Destroying abandoned non persistent zdo 1001:3", lineTimeout, lineTokenRefresh)
	require.Len(t, got, 1)
	assert.Equal(t, event.PlayerDisconnected, got[0].Type)
	assert.Equal(t, "Hugin", got[0].CharName)
	assert.Equal(t, accountA, got[0].AccountID)
	assert.Equal(t, PlayerDisconnected, e.State().Player("Hugin"))
	assert.False(t, e.State().DisconnectPending())
}

func TestEngine_RepeatedTimeoutWhilePending(t *testing.T) {
	e := NewEngine(nil, nil)
	feed(t, e, lineConnectA, lineHuginJoin)

	got := feed(t, e, lineTimeout, lineTimeout, "Destroying abandoned non persistent zdo 1001:3", lineTokenRefresh)
	require.Len(t, got, 1)
	assert.Equal(t, event.PlayerDisconnected, got[0].Type)
	assert.Equal(t, "Hugin", got[0].CharName)
}

func TestEngine_NetworkTrouble(t *testing.T) {
	res := newFakeResolver()
	res.cache[accountA] = "Ragnar"
	e := NewEngine(res, nil)
	feed(t, e, lineConnectA, lineHuginJoin, lineConnectB)

	got := feed(t, e, lineTroubleA)
	require.Len(t, got, 1)
	assert.Equal(t, event.NetworkTroubleDetected, got[0].Type)
	assert.Equal(t, "Ragnar", got[0].UserName)
	assert.Equal(t, "Hugin", got[0].CharName)
	assert.Equal(t, "CONNA", got[0].ConnectionID)

	// onset is reported once per handle
	assert.Empty(t, feed(t, e, lineTroubleA))

	got = feed(t, e, lineTroubleB, lineTroubleX)
	assert.Equal(t, []event.Type{event.NetworkTroubleDetected, event.NetworkTroubleUnknown}, types(got))
	assert.Equal(t, accountB, got[0].AccountID)
	assert.Empty(t, got[0].CharName, "account B never finished its handshake")
	assert.Equal(t, "GHOST", got[1].ConnectionID)
	assert.Equal(t, []string{"CONNA", "CONNB", "GHOST"}, e.State().Troubled())

	// token refresh resolves every handle in onset order
	got = feed(t, e, lineTokenRefresh)
	assert.Equal(t, []event.Type{event.NetworkRecovered, event.NetworkRecovered, event.NetworkRecoveredUnknown}, types(got))
	assert.Equal(t, "CONNA", got[0].ConnectionID)
	assert.Equal(t, "Ragnar", got[0].UserName)
	assert.Equal(t, "GHOST", got[2].ConnectionID)
	assert.Empty(t, e.State().Troubled())

	// and the set can fill again
	got = feed(t, e, lineTroubleA)
	assert.Equal(t, []event.Type{event.NetworkTroubleDetected}, types(got))
}

func TestEngine_TokenRefreshFinalizesDisconnectAndResolvesTrouble(t *testing.T) {
	e := NewEngine(nil, nil)
	feed(t, e, lineConnectA, lineHuginJoin, lineTroubleA, lineTimeout, "Destroying abandoned non persistent zdo 1001:3")

	got := feed(t, e, lineTokenRefresh)
	assert.Equal(t, []event.Type{event.PlayerDisconnected, event.NetworkRecovered}, types(got))
}

func TestEngine_Day(t *testing.T) {
	e := NewEngine(nil, nil)

	got := feed(t, e, lineDay)
	require.Len(t, got, 1)
	assert.Equal(t, event.NewDay, got[0].Type)
	assert.Equal(t, 5, got[0].Day)
}

func TestEngine_Raid(t *testing.T) {
	e := NewEngine(nil, nil)

	got := feed(t, e, lineRaid)
	require.Len(t, got, 1)
	assert.Equal(t, event.RaidStarted, got[0].Type)
	assert.Equal(t, "army_eikthyr", got[0].EventKey)
}

func TestEngine_QuitResetsEpoch(t *testing.T) {
	e := NewEngine(nil, nil)
	feed(t, e, lineConnectA, lineHuginJoin)
	require.NotEmpty(t, e.State().Players())

	got := feed(t, e, lineQuit)
	assert.Equal(t, []event.Type{event.ServerStopped}, types(got))
	assert.Empty(t, e.State().Players())

	// identities survive the epoch
	_, ok := e.State().CharName("1001")
	assert.True(t, ok)
}

func TestEngine_ServerStartedWithoutVersion(t *testing.T) {
	e := NewEngine(nil, nil)

	got := feed(t, e, lineLoadWorld)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Version)
}

func TestEngine_IgnoresNoise(t *testing.T) {
	e := NewEngine(nil, nil)

	assert.Empty(t, feed(t, e,
		"",
		"   ",
		"\r",
		"03/15/2024 18:00:00: Connections 1 ZDOS:12034  sent:0 recv:0",
		"03/15/2024 18:00:00: Got character ObjectID from : 1:0",
	))
}

func TestEngine_CRLF(t *testing.T) {
	e := NewEngine(nil, nil)

	got := feed(t, e, lineLoadWorld+"\r")
	require.Len(t, got, 1)
	assert.Equal(t, "TestWorld", got[0].WorldName)
}
