package parser

import (
	"regexp"

	"github.com/vhnotify/vhnotify-go/pkg/vhnotify/event"
)

// Timestamp format at the start of Valheim server log lines: "03/15/2024 18:04:12: "
const timestampLayout = "01/02/2006 15:04:05"

// Rule pairs a line kind with the coarse pattern that selects it.
// The stricter field extraction happens in the Parse* functions below.
type Rule struct {
	Kind    event.Kind
	Pattern *regexp.Regexp
}

// Rules is the fixed classifier table. Order is significant: handlers for a
// line run in this order, and the token refresh line deliberately matches
// both DisconnectEnd and TroubleResolved.
var Rules = []Rule{
	{event.ObjectID, regexp.MustCompile(`(?:ZDOID|ObjectID) from`)},
	{event.NetworkTrouble, regexp.MustCompile(`Resume TX on playfab/`)},
	{event.DisconnectStart, regexp.MustCompile(`ZRpc timeout detected`)},
	{event.DisconnectInfo, regexp.MustCompile(`Destroying abandoned`)},
	{event.DisconnectEnd, tokenRefreshPattern},
	{event.Day, regexp.MustCompile(`day:`)},
	{event.LoadWorld, regexp.MustCompile(`Load world`)},
	{event.ApplicationQuit, regexp.MustCompile(`OnApplicationQuit`)},
	{event.RandomEvent, regexp.MustCompile(`Random event`)},
	{event.ServerVersion, regexp.MustCompile(`Valheim version`)},
	{event.TroubleResolved, tokenRefreshPattern},
	{event.Connection, connectionPattern},
}

var (
	// Matches: "Update PlayFab entity token"
	tokenRefreshPattern = regexp.MustCompile(`Update PlayFab entity token`)

	// Matches: "PlayFab socket with remote ID playfab/ABC123 received local Platform ID Steam_7656119..."
	// Captures: (1) connection handle, (2) account id
	connectionPattern = regexp.MustCompile(
		`PlayFab socket with remote ID playfab/([0-9a-zA-Z_]+) received local Platform ID Steam_([0-9]+)`,
	)

	// Matches: "Got character ZDOID from Hugin : -4921:1"
	// Captures: (1) character name, (2) object id, (3) trailing generation marker
	objectIDPattern = regexp.MustCompile(
		`(?:ZDOID|ObjectID) from ([^:]+) : (-?[0-9]+):(-?[0-9]+)`,
	)

	// Matches: "Resume TX on playfab/ABC123"
	// Captures: (1) connection handle
	networkTroublePattern = regexp.MustCompile(`Resume TX on playfab/([0-9a-zA-Z_]+)`)

	// Matches: "Destroying abandoned non persistent zdo 1002:6 owner 1002"
	// Captures: (1) object id
	abandonedObjectPattern = regexp.MustCompile(`Destroying abandoned non persistent zdo (-?[0-9]+):`)

	// Matches: "Time 3421.2, day:4    nextm:..."
	// Captures: (1) zero-based day counter
	dayPattern = regexp.MustCompile(`day:([0-9]+)`)

	// Captures: (1) world name
	loadWorldPattern = regexp.MustCompile(`Load world: (.+)`)

	// Captures: (1) event key, e.g. army_eikthyr
	randomEventPattern = regexp.MustCompile(`Random event set:([0-9a-zA-Z_]+)`)

	// Captures: (1) version string, untrimmed
	versionPattern = regexp.MustCompile(`Valheim version:(.+)`)

	// Leading "MM/DD/YYYY HH:MM:SS:" prefix.
	timestampPattern = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}):`)
)
