// Package locale renders notifications into localized chat messages.
package locale

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/vhnotify/vhnotify-go/pkg/vhnotify/event"
)

//go:embed locales/*.yaml
var builtin embed.FS

// templateFuncs provides utility functions for message templates.
var templateFuncs = sprig.TxtFuncMap()

// supported lists the built-in catalogs; the first entry is the fallback.
var supported = []language.Tag{language.English, language.Russian}

var matcher = language.NewMatcher(supported)

// allTypes is every notification type a catalog must provide.
var allTypes = []event.Type{
	event.PlayerConnecting,
	event.PlayerConnected,
	event.PlayerDied,
	event.PlayerRespawned,
	event.PlayerDisconnected,
	event.PlayerDisconnectedUnknown,
	event.NetworkTroubleDetected,
	event.NetworkTroubleUnknown,
	event.NetworkRecovered,
	event.NetworkRecoveredUnknown,
	event.ServerStarted,
	event.ServerStopped,
	event.NewDay,
	event.RaidStarted,
}

// catalogFile is the YAML layout of a locale file.
type catalogFile struct {
	Messages     map[string]string `yaml:"messages"`
	Placeholders placeholderFile   `yaml:"placeholders"`
	Events       map[string]string `yaml:"events"`
}

type placeholderFile struct {
	UnknownUser      string `yaml:"unknown_user"`
	UnknownAccount   string `yaml:"unknown_account"`
	UnknownCharacter string `yaml:"unknown_character"`
	UnknownVersion   string `yaml:"unknown_version"`
	UnknownEvent     string `yaml:"unknown_event"`
}

// Catalog renders notifications for one language.
// It is safe for concurrent use after construction.
type Catalog struct {
	lang         language.Tag
	messages     map[event.Type]*template.Template
	unknownUser  *template.Template
	placeholders placeholderFile
	events       map[string]string
}

// view is the data passed to message templates.
type view struct {
	User         string
	AccountID    string
	Char         string
	ConnectionID string
	World        string
	Version      string
	Day          int
	Event        string
}

// Load returns the built-in catalog that best matches lang (a BCP 47 tag
// such as "ru" or "en-GB"). Unmatched languages fall back to English.
func Load(lang string) (*Catalog, error) {
	_, idx := language.MatchStrings(matcher, lang)
	tag := supported[idx]
	base, _ := tag.Base()

	data, err := builtin.ReadFile("locales/" + base.String() + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("reading built-in catalog %s: %w", base, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", base, err)
	}
	c.lang = tag
	return c, nil
}

// Parse builds a catalog from YAML data. Every notification type must have
// a message and every template must parse.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	c := &Catalog{
		lang:         language.Und,
		messages:     make(map[event.Type]*template.Template, len(allTypes)),
		placeholders: f.Placeholders,
		events:       f.Events,
	}
	for _, t := range allTypes {
		src, ok := f.Messages[string(t)]
		if !ok || strings.TrimSpace(src) == "" {
			return nil, fmt.Errorf("missing message %q", t)
		}
		tmpl, err := template.New(string(t)).Funcs(templateFuncs).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", t, err)
		}
		c.messages[t] = tmpl
	}

	tmpl, err := template.New("unknown_user").Funcs(templateFuncs).Parse(f.Placeholders.UnknownUser)
	if err != nil {
		return nil, fmt.Errorf("placeholder unknown_user: %w", err)
	}
	c.unknownUser = tmpl
	return c, nil
}

// Language returns the catalog's language tag.
func (c *Catalog) Language() language.Tag {
	return c.lang
}

// EventName returns the display string for a random event key.
func (c *Catalog) EventName(key string) string {
	if name, ok := c.events[key]; ok {
		return name
	}
	return c.placeholders.UnknownEvent
}

// Render formats a notification as a chat message.
func (c *Catalog) Render(n event.Notification) (string, error) {
	tmpl, ok := c.messages[n.Type]
	if !ok {
		return "", fmt.Errorf("no message for notification type %q", n.Type)
	}

	v := view{
		User:         n.UserName,
		AccountID:    n.AccountID,
		Char:         n.CharName,
		ConnectionID: n.ConnectionID,
		World:        n.WorldName,
		Version:      n.Version,
		Day:          n.Day,
	}
	if v.User == "" {
		if n.AccountID == "" {
			v.User = c.placeholders.UnknownAccount
		} else {
			u, err := execute(c.unknownUser, v)
			if err != nil {
				return "", err
			}
			v.User = u
		}
	}
	if v.Char == "" {
		v.Char = c.placeholders.UnknownCharacter
	}
	if v.Version == "" {
		v.Version = c.placeholders.UnknownVersion
	}
	if n.Type == event.RaidStarted {
		v.Event = c.EventName(n.EventKey)
	}

	return execute(tmpl, v)
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
