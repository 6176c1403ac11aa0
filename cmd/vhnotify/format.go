package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/vhnotify/vhnotify-go/pkg/vhnotify/event"
)

// validFormats lists all valid output formats.
var validFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// record is the jsonl shape: the notification plus its rendered text.
type record struct {
	event.Notification
	Message string `json:"message"`
}

// OutputNotification writes a notification in the specified format.
func OutputNotification(format string, n event.Notification, msg string, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(n, msg, out)
	case "pretty":
		return OutputPretty(n, msg, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes a notification as JSON Lines format.
func OutputJSON(n event.Notification, msg string, out io.Writer) error {
	data, err := json.Marshal(record{Notification: n, Message: msg})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes the rendered message with its time and type, then
// the identifiers behind it.
func OutputPretty(n event.Notification, msg string, out io.Writer) error {
	ts := "--:--:--"
	if !n.Timestamp.IsZero() {
		ts = n.Timestamp.Format("15:04:05")
	}

	line := fmt.Sprintf("[%s] %-27s %s", ts, n.Type, msg)
	if data := formatData(fields(n)); data != "" {
		line += "  " + data
	}
	_, err := fmt.Fprintln(out, line)
	return err
}

// fields collects the non-empty identifiers of a notification.
func fields(n event.Notification) map[string]string {
	data := make(map[string]string)
	add := func(k, v string) {
		if v != "" {
			data[k] = v
		}
	}
	add("account_id", n.AccountID)
	add("char", n.CharName)
	add("conn_id", n.ConnectionID)
	add("world", n.WorldName)
	add("event", n.EventKey)
	if n.Day > 0 {
		data["day"] = strconv.Itoa(n.Day)
	}
	return data
}

// formatData formats a map as sorted key=value pairs.
// Values are quoted if they contain spaces, equals signs, quotes, or control characters.
func formatData(data map[string]string) string {
	if len(data) == 0 {
		return ""
	}

	// Sort keys for deterministic output
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(data))
	for _, k := range keys {
		parts = append(parts, k+"="+quoteIfNeeded(data[k]))
	}
	return strings.Join(parts, " ")
}

// quoteIfNeeded quotes a value if it contains special characters or control characters.
// Returns the value unchanged if no quoting is needed.
func quoteIfNeeded(v string) string {
	if v == "" {
		return `""`
	}
	for _, c := range v {
		if c == ' ' || c == '=' || c == '"' || c == '\\' || c < 0x20 || c == 0x7F {
			return strconv.Quote(v)
		}
	}
	return v
}
