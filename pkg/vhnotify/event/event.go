// Package event defines the line kinds recognized in a Valheim server log
// and the notifications derived from them.
package event

import "time"

// Kind identifies which classifier rule matched a log line.
type Kind string

// Line kinds, in rule-table order.
const (
	ObjectID        Kind = "object_id"
	NetworkTrouble  Kind = "network_trouble"
	DisconnectStart Kind = "disconnect_start"
	DisconnectInfo  Kind = "disconnect_info"
	DisconnectEnd   Kind = "disconnect_end"
	Day             Kind = "day"
	LoadWorld       Kind = "load_world"
	ApplicationQuit Kind = "application_quit"
	RandomEvent     Kind = "random_event"
	ServerVersion   Kind = "server_version"
	TroubleResolved Kind = "trouble_resolved"
	Connection      Kind = "connection"
)

// Type identifies an outbound notification.
type Type string

// Notification types.
const (
	PlayerConnecting          Type = "player_connecting"
	PlayerConnected           Type = "player_connected"
	PlayerDied                Type = "player_died"
	PlayerRespawned           Type = "player_respawned"
	PlayerDisconnected        Type = "player_disconnected"
	PlayerDisconnectedUnknown Type = "player_disconnected_unknown"
	NetworkTroubleDetected    Type = "network_trouble"
	NetworkTroubleUnknown     Type = "network_trouble_unknown"
	NetworkRecovered          Type = "network_recovered"
	NetworkRecoveredUnknown   Type = "network_recovered_unknown"
	ServerStarted             Type = "server_started"
	ServerStopped             Type = "server_stopped"
	NewDay                    Type = "new_day"
	RaidStarted               Type = "raid_started"
)

// Notification is a single message the engine wants delivered.
//
// Empty name fields mean the value is unknown; the renderer substitutes a
// localized placeholder for them.
type Notification struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp,omitzero"`

	UserName     string `json:"user_name,omitempty"`
	AccountID    string `json:"account_id,omitempty"`
	CharName     string `json:"char_name,omitempty"`
	ConnectionID string `json:"connection_id,omitempty"`
	WorldName    string `json:"world_name,omitempty"`
	Version      string `json:"version,omitempty"`
	Day          int    `json:"day,omitempty"`
	EventKey     string `json:"event_key,omitempty"`
}
