// Package channel manages the roster of monitored YouTube channels.
package channel

import (
	"sort"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/tubewatch/internal/platform/errors"
)

// Channel is the configuration for one monitored YouTube channel.
type Channel struct {
	ID            string `json:"channel_id"`
	Handle        string `json:"handle"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	HighFrequency bool   `json:"high_frequency"`
	Timezone      string `json:"timezone"`
}

// Roster holds monitored channels and resolves human aliases to channel IDs.
type Roster struct {
	mu       sync.RWMutex
	channels map[string]Channel
	aliases  map[string]string
}

// DefaultRoster returns the built-in monitored channel set.
func DefaultRoster() *Roster {
	roster := NewRoster()
	seed := []struct {
		channel Channel
		aliases []string
	}{
		{
			channel: Channel{
				ID:            "UCaIGZ2lNpryhA-p9KXr5XNw",
				Handle:        "@markets",
				Name:          "Bloomberg Markets",
				Description:   "Bloomberg Television - Global financial news",
				HighFrequency: true,
				Timezone:      "America/New_York",
			},
			aliases: []string{"markets", "bloomberg", "bloomberg markets"},
		},
		{
			channel: Channel{
				ID:            "UCUDXkpsJIdv1aKb1TCN2p0Q",
				Handle:        "@ANINewsIndia",
				Name:          "ANI News India",
				Description:   "Asian News International - Indian news coverage",
				HighFrequency: true,
				Timezone:      "Asia/Kolkata",
			},
			aliases: []string{"aninews", "aninewsindia", "ani news"},
		},
		{
			channel: Channel{
				ID:            "UCDANGgqLMuoRfpX75LP7bUQ",
				Handle:        "@testchannel",
				Name:          "Test Channel",
				Description:   "Test channel for system validation",
				HighFrequency: true,
				Timezone:      "UTC",
			},
			aliases: []string{"test"},
		},
	}
	for _, entry := range seed {
		_ = roster.Add(entry.channel, entry.aliases...)
	}
	return roster
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{
		channels: make(map[string]Channel),
		aliases:  make(map[string]string),
	}
}

func normalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

// Add registers a channel and optional lookup aliases. The channel name and
// handle always resolve as aliases.
func (r *Roster) Add(ch Channel, aliases ...string) error {
	ch.ID = strings.TrimSpace(ch.ID)
	if ch.ID == "" {
		return apperrors.New(apperrors.CodeChannelEmptyID, "channel id is required")
	}
	ch.Name = strings.TrimSpace(ch.Name)
	if ch.Name == "" {
		return apperrors.New(apperrors.CodeChannelEmptyName, "channel name is required")
	}
	if ch.Timezone == "" {
		ch.Timezone = "UTC"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.channels[ch.ID]; exists {
		return apperrors.WithMetadata(apperrors.CodeChannelExists, "channel already monitored", map[string]string{"channel_id": ch.ID})
	}
	r.channels[ch.ID] = ch

	for _, alias := range append(aliases, ch.Name, strings.TrimPrefix(ch.Handle, "@")) {
		key := normalizeAlias(alias)
		if key == "" {
			continue
		}
		r.aliases[key] = ch.ID
	}
	return nil
}

// ByID returns the channel with the given ID.
func (r *Roster) ByID(channelID string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[strings.TrimSpace(channelID)]
	return ch, ok
}

// Resolve maps a channel ID, name, handle, or alias to a channel.
func (r *Roster) Resolve(name string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trimmed := strings.TrimSpace(name)
	if ch, ok := r.channels[trimmed]; ok {
		return ch, nil
	}
	if channelID, ok := r.aliases[normalizeAlias(trimmed)]; ok {
		return r.channels[channelID], nil
	}
	return Channel{}, apperrors.WithMetadata(
		apperrors.CodeChannelUnknownAlias,
		"channel is not monitored",
		map[string]string{"channel": trimmed},
	)
}

// All returns monitored channels sorted by name.
func (r *Roster) All() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].Name < channels[j].Name })
	return channels
}

// HighFrequency returns only channels flagged as high-frequency publishers.
func (r *Roster) HighFrequency() []Channel {
	all := r.All()
	filtered := all[:0]
	for _, ch := range all {
		if ch.HighFrequency {
			filtered = append(filtered, ch)
		}
	}
	return filtered
}

// Aliases lists known alias keys, sorted, for error messages and tooling.
func (r *Roster) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.aliases))
	for key := range r.aliases {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
