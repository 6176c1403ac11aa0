package vhnotify

import (
	"context"

	"github.com/vhnotify/vhnotify-go/internal/parser"
	"github.com/vhnotify/vhnotify-go/pkg/vhnotify/event"
)

func (e *Engine) onConnection(ctx context.Context, st *State, l logLine) []event.Notification {
	c, ok := parser.ParseConnection(l.text)
	if !ok {
		return nil
	}
	st.assignConnection(c.AccountID, c.ConnectionID)
	e.log.Debug("account connection observed", "account_id", c.AccountID, "conn_id", c.ConnectionID)

	name, known := e.resolver.Lookup(c.AccountID)
	if !known {
		name, _ = e.resolver.Resolve(ctx, c.AccountID)
	}

	if prev, pending := st.PendingConnect(); pending && prev != c.AccountID {
		// Single slot: the earlier handshake is dropped.
		e.log.Warn("connection handshake overwritten", "dropped_account_id", prev, "account_id", c.AccountID)
	}
	st.connect = connectHandshake{phase: connectAwaitingObjectID, accountID: c.AccountID}

	n := l.notification(event.PlayerConnecting)
	n.AccountID = c.AccountID
	n.UserName = name
	n.ConnectionID = c.ConnectionID
	return []event.Notification{n}
}

func (e *Engine) onObjectID(ctx context.Context, st *State, l logLine) []event.Notification {
	o, ok := parser.ParseObjectID(l.text)
	if !ok {
		return nil
	}

	if accountID, pending := st.PendingConnect(); pending {
		st.bindObject(o.ObjectID, o.CharName)
		st.assignObject(accountID, o.ObjectID)
		st.charAccounts[o.CharName] = accountID
		st.setPlayer(o.CharName, PlayerAlive)
		st.connect = connectHandshake{}
		e.log.Debug("connection handshake complete", "account_id", accountID, "object_id", o.ObjectID, "char", o.CharName)

		n := l.notification(event.PlayerConnected)
		n.AccountID = accountID
		n.UserName = e.userName(accountID)
		n.CharName = o.CharName
		return []event.Notification{n}
	}

	current := st.Player(o.CharName)
	switch {
	case o.Dead:
		switch current {
		case PlayerAlive:
			st.setPlayer(o.CharName, PlayerDead)
		case PlayerUnknown:
			// Joined before the log was followed; reported but not tracked.
		default:
			e.log.Debug("ignoring death report", "char", o.CharName, "state", current)
			return nil
		}
		n := l.notification(event.PlayerDied)
		n.CharName = o.CharName
		return []event.Notification{n}
	case current == PlayerDead:
		st.setPlayer(o.CharName, PlayerAlive)
		st.rebindCharacter(o.CharName, o.ObjectID)
		n := l.notification(event.PlayerRespawned)
		n.CharName = o.CharName
		return []event.Notification{n}
	case current == PlayerAlive:
		st.rebindCharacter(o.CharName, o.ObjectID)
	}
	return nil
}

func (e *Engine) onDisconnectStart(ctx context.Context, st *State, l logLine) []event.Notification {
	if st.disconnect.phase != disconnectIdle {
		// Repeated timeouts belong to the same handshake.
		return nil
	}
	st.disconnect = disconnectHandshake{phase: disconnectPending}
	e.log.Debug("disconnect handshake started")
	return nil
}

func (e *Engine) onDisconnectInfo(ctx context.Context, st *State, l logLine) []event.Notification {
	if st.disconnect.phase == disconnectIdle {
		return nil
	}
	objectID, ok := parser.ParseAbandonedObject(l.text)
	if !ok {
		return nil
	}

	if name, known := st.CharName(objectID); known {
		st.disconnect = disconnectHandshake{
			phase:    disconnectObjectCaptured,
			objectID: objectID,
			charName: name,
		}
		e.log.Debug("disconnecting character captured", "object_id", objectID, "char", name)
		return nil
	}
	// Unmapped ids are the peer's other objects; they never displace a
	// captured character.
	if st.disconnect.phase == disconnectPending {
		st.disconnect.objectID = objectID
	}
	return nil
}

func (e *Engine) onDisconnectEnd(ctx context.Context, st *State, l logLine) []event.Notification {
	if st.disconnect.phase == disconnectIdle {
		return nil
	}
	d := st.disconnect
	st.disconnect = disconnectHandshake{}
	e.log.Debug("disconnect handshake finished", "object_id", d.objectID, "char", d.charName)

	if d.charName == "" {
		return []event.Notification{l.notification(event.PlayerDisconnectedUnknown)}
	}

	n := l.notification(event.PlayerDisconnected)
	n.CharName = d.charName
	if accountID, ok := st.accountByObject(d.objectID); ok {
		n.AccountID = accountID
		n.UserName = e.userName(accountID)
	}
	switch st.Player(d.charName) {
	case PlayerAlive, PlayerDead:
		st.setPlayer(d.charName, PlayerDisconnected)
	}
	return []event.Notification{n}
}

func (e *Engine) onNetworkTrouble(ctx context.Context, st *State, l logLine) []event.Notification {
	connID, ok := parser.ParseNetworkTrouble(l.text)
	if !ok || st.isTroubled(connID) {
		return nil
	}
	n := e.troubleNotification(st, l, connID, event.NetworkTroubleDetected, event.NetworkTroubleUnknown)
	st.flagTrouble(connID)
	return []event.Notification{n}
}

func (e *Engine) onTroubleResolved(ctx context.Context, st *State, l logLine) []event.Notification {
	drained := st.drainTrouble()
	if len(drained) == 0 {
		return nil
	}
	out := make([]event.Notification, 0, len(drained))
	for _, connID := range drained {
		out = append(out, e.troubleNotification(st, l, connID, event.NetworkRecovered, event.NetworkRecoveredUnknown))
	}
	return out
}

// troubleNotification describes a connection handle by the account and
// character behind it, falling back to the unknown variant.
func (e *Engine) troubleNotification(st *State, l logLine, connID string, known, unknown event.Type) event.Notification {
	accountID, ok := st.accountByConnection(connID)
	if !ok {
		n := l.notification(unknown)
		n.ConnectionID = connID
		return n
	}
	n := l.notification(known)
	n.ConnectionID = connID
	n.AccountID = accountID
	n.UserName = e.userName(accountID)
	n.CharName = st.charByAccount(accountID)
	return n
}

func (e *Engine) onDay(ctx context.Context, st *State, l logLine) []event.Notification {
	day, ok := parser.ParseDay(l.text)
	if !ok {
		return nil
	}
	n := l.notification(event.NewDay)
	n.Day = day + 1
	return []event.Notification{n}
}

func (e *Engine) onLoadWorld(ctx context.Context, st *State, l logLine) []event.Notification {
	world, ok := parser.ParseLoadWorld(l.text)
	if !ok {
		return nil
	}
	st.worldName = world
	st.resetEpoch()
	e.log.Info("world loaded", "world", world, "version", st.version)

	n := l.notification(event.ServerStarted)
	n.WorldName = world
	n.Version = st.version
	return []event.Notification{n}
}

func (e *Engine) onApplicationQuit(ctx context.Context, st *State, l logLine) []event.Notification {
	st.resetEpoch()
	e.log.Info("server quit observed")
	return []event.Notification{l.notification(event.ServerStopped)}
}

func (e *Engine) onRandomEvent(ctx context.Context, st *State, l logLine) []event.Notification {
	key, ok := parser.ParseRandomEvent(l.text)
	if !ok {
		return nil
	}
	n := l.notification(event.RaidStarted)
	n.EventKey = key
	return []event.Notification{n}
}

func (e *Engine) onServerVersion(ctx context.Context, st *State, l logLine) []event.Notification {
	v, ok := parser.ParseVersion(l.text)
	if !ok {
		return nil
	}
	st.version = v
	e.log.Debug("server version", "version", v)
	return nil
}
