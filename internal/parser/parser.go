// Package parser classifies Valheim server log lines and extracts their fields.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vhnotify/vhnotify-go/pkg/vhnotify/event"
)

// Classify returns the kinds of every rule whose pattern matches line, in
// table order. A nil result means the line is not interesting.
func Classify(line string) []event.Kind {
	line = Normalize(line)
	if line == "" {
		return nil
	}

	var kinds []event.Kind
	for _, r := range Rules {
		if r.Pattern.MatchString(line) {
			kinds = append(kinds, r.Kind)
		}
	}
	return kinds
}

// Normalize trims the trailing CR left by CRLF logs.
func Normalize(line string) string {
	return strings.TrimRight(line, "\r")
}

// Timestamp extracts the leading log timestamp, if any.
func Timestamp(line string) (time.Time, bool) {
	match := timestampPattern.FindStringSubmatch(line)
	if match == nil {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(timestampLayout, match[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// ObjectIDLine is the payload of a character object id report.
type ObjectIDLine struct {
	CharName string
	ObjectID string
	// Dead reports the zero trailing marker the server logs when the
	// character object is torn down on death ("0:0").
	Dead bool
}

// ParseObjectID extracts an object id report.
func ParseObjectID(line string) (ObjectIDLine, bool) {
	match := objectIDPattern.FindStringSubmatch(line)
	if match == nil {
		return ObjectIDLine{}, false
	}
	name := strings.TrimSpace(match[1])
	if name == "" {
		return ObjectIDLine{}, false
	}
	return ObjectIDLine{
		CharName: name,
		ObjectID: match[2],
		Dead:     match[3] == "0",
	}, true
}

// ConnectionLine is the payload of a new PlayFab socket report.
type ConnectionLine struct {
	ConnectionID string
	AccountID    string
}

// ParseConnection extracts a connection handle and its account id.
func ParseConnection(line string) (ConnectionLine, bool) {
	match := connectionPattern.FindStringSubmatch(line)
	if match == nil {
		return ConnectionLine{}, false
	}
	return ConnectionLine{ConnectionID: match[1], AccountID: match[2]}, true
}

// ParseNetworkTrouble extracts the connection handle from a resume line.
func ParseNetworkTrouble(line string) (string, bool) {
	return firstGroup(networkTroublePattern, line)
}

// ParseAbandonedObject extracts the object id being destroyed.
func ParseAbandonedObject(line string) (string, bool) {
	return firstGroup(abandonedObjectPattern, line)
}

// ParseDay extracts the zero-based day counter.
func ParseDay(line string) (int, bool) {
	s, ok := firstGroup(dayPattern, line)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseLoadWorld extracts the world name.
func ParseLoadWorld(line string) (string, bool) {
	s, ok := firstGroup(loadWorldPattern, line)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// ParseRandomEvent extracts the random event key.
func ParseRandomEvent(line string) (string, bool) {
	return firstGroup(randomEventPattern, line)
}

// ParseVersion extracts the server version string.
func ParseVersion(line string) (string, bool) {
	s, ok := firstGroup(versionPattern, line)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func firstGroup(re *regexp.Regexp, line string) (string, bool) {
	match := re.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	return match[1], true
}
