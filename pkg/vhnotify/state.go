package vhnotify

// PlayerState is a character's lifecycle state within the current epoch.
type PlayerState int

const (
	// PlayerUnknown means the character has not connected this epoch.
	PlayerUnknown PlayerState = iota
	PlayerAlive
	PlayerDead
	PlayerDisconnected
)

func (s PlayerState) String() string {
	switch s {
	case PlayerAlive:
		return "alive"
	case PlayerDead:
		return "dead"
	case PlayerDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// connectPhase is the state of the connection handshake.
//
//	Idle             --connection line-->          AwaitingObjectID
//	AwaitingObjectID --connection line-->          AwaitingObjectID (account overwritten)
//	AwaitingObjectID --object id line-->           Idle
type connectPhase int

const (
	connectIdle connectPhase = iota
	connectAwaitingObjectID
)

type connectHandshake struct {
	phase     connectPhase
	accountID string
}

// disconnectPhase is the state of the disconnect handshake.
//
//	Idle           --timeout line-->            Pending
//	Pending        --abandoned known object-->  ObjectCaptured
//	Pending        --abandoned unknown object-> Pending (object id recorded)
//	Pending|ObjectCaptured --timeout line-->    unchanged
//	Pending|ObjectCaptured --token refresh-->   Idle
type disconnectPhase int

const (
	disconnectIdle disconnectPhase = iota
	disconnectPending
	disconnectObjectCaptured
)

type disconnectHandshake struct {
	phase    disconnectPhase
	objectID string
	charName string
}

// State holds every correlation map and pending handshake for one server
// run. It is owned by a single Engine and is not safe for concurrent use.
type State struct {
	players map[string]PlayerState // character name -> lifecycle

	objectNames  map[string]string // object id -> character name, write-once
	charAccounts map[string]string // character name -> account that connected it

	accountObjects map[string]string // account id -> current object id
	objectAccounts map[string]string // inverse of accountObjects

	accountConns map[string]string // account id -> connection handle
	connAccounts map[string]string // inverse of accountConns

	trouble      []string // connection handles in onset order
	troubleIndex map[string]struct{}

	connect    connectHandshake
	disconnect disconnectHandshake

	version   string
	worldName string
}

// NewState returns an empty session.
func NewState() *State {
	return &State{
		players:        make(map[string]PlayerState),
		objectNames:    make(map[string]string),
		charAccounts:   make(map[string]string),
		accountObjects: make(map[string]string),
		objectAccounts: make(map[string]string),
		accountConns:   make(map[string]string),
		connAccounts:   make(map[string]string),
		troubleIndex:   make(map[string]struct{}),
	}
}

// Player returns the lifecycle state of a character.
func (s *State) Player(charName string) PlayerState {
	return s.players[charName]
}

// Players returns a copy of the lifecycle map.
func (s *State) Players() map[string]PlayerState {
	out := make(map[string]PlayerState, len(s.players))
	for k, v := range s.players {
		out[k] = v
	}
	return out
}

// PendingConnect returns the account id awaiting its first object id.
func (s *State) PendingConnect() (string, bool) {
	if s.connect.phase != connectAwaitingObjectID {
		return "", false
	}
	return s.connect.accountID, true
}

// DisconnectPending reports whether a disconnect handshake is in progress.
func (s *State) DisconnectPending() bool {
	return s.disconnect.phase != disconnectIdle
}

// CharName returns the character bound to an object id.
func (s *State) CharName(objectID string) (string, bool) {
	name, ok := s.objectNames[objectID]
	return name, ok
}

// ObjectID returns the object id currently assigned to an account.
func (s *State) ObjectID(accountID string) (string, bool) {
	id, ok := s.accountObjects[accountID]
	return id, ok
}

// Version returns the last reported server version.
func (s *State) Version() string { return s.version }

// WorldName returns the last loaded world.
func (s *State) WorldName() string { return s.worldName }

// Troubled returns the connection handles currently flagged, in onset order.
func (s *State) Troubled() []string {
	return append([]string(nil), s.trouble...)
}

func (s *State) setPlayer(charName string, st PlayerState) {
	s.players[charName] = st
}

// resetEpoch clears lifecycle state at world load or quit.
func (s *State) resetEpoch() {
	s.players = make(map[string]PlayerState)
}

// bindObject records the character behind an object id. Existing ids keep
// their first name.
func (s *State) bindObject(objectID, charName string) {
	if _, ok := s.objectNames[objectID]; ok {
		return
	}
	s.objectNames[objectID] = charName
}

func (s *State) assignObject(accountID, objectID string) {
	if old, ok := s.accountObjects[accountID]; ok && s.objectAccounts[old] == accountID {
		delete(s.objectAccounts, old)
	}
	if prev, ok := s.objectAccounts[objectID]; ok && prev != accountID {
		delete(s.accountObjects, prev)
	}
	s.accountObjects[accountID] = objectID
	s.objectAccounts[objectID] = accountID
}

// rebindCharacter follows a character onto a fresh object id, as happens
// after a respawn, so later disconnects can still be attributed.
func (s *State) rebindCharacter(charName, objectID string) {
	s.bindObject(objectID, charName)
	if accountID, ok := s.charAccounts[charName]; ok {
		s.assignObject(accountID, objectID)
	}
}

func (s *State) accountByObject(objectID string) (string, bool) {
	id, ok := s.objectAccounts[objectID]
	return id, ok
}

func (s *State) assignConnection(accountID, connID string) {
	if old, ok := s.accountConns[accountID]; ok && s.connAccounts[old] == accountID {
		delete(s.connAccounts, old)
	}
	if prev, ok := s.connAccounts[connID]; ok && prev != accountID {
		delete(s.accountConns, prev)
	}
	s.accountConns[accountID] = connID
	s.connAccounts[connID] = accountID
}

func (s *State) accountByConnection(connID string) (string, bool) {
	id, ok := s.connAccounts[connID]
	return id, ok
}

// charByAccount follows account -> object id -> character name.
func (s *State) charByAccount(accountID string) string {
	objectID, ok := s.accountObjects[accountID]
	if !ok {
		return ""
	}
	return s.objectNames[objectID]
}

// flagTrouble adds a handle and reports whether it was newly added.
func (s *State) flagTrouble(connID string) bool {
	if _, ok := s.troubleIndex[connID]; ok {
		return false
	}
	s.troubleIndex[connID] = struct{}{}
	s.trouble = append(s.trouble, connID)
	return true
}

func (s *State) isTroubled(connID string) bool {
	_, ok := s.troubleIndex[connID]
	return ok
}

// drainTrouble empties the trouble set and returns what it held.
func (s *State) drainTrouble() []string {
	drained := s.trouble
	s.trouble = nil
	s.troubleIndex = make(map[string]struct{})
	return drained
}
