package lobby

import (
	"errors"
	"strings"

	"yousef/internal/protocol"
)

const MaxNameLength = 20

var (
	ErrNameInvalid   = errors.New("NAME_INVALID: name must be 1-20 characters")
	ErrNameTaken     = errors.New("NAME_TAKEN: name already taken")
	ErrUnknownPlayer = errors.New("UNKNOWN_PLAYER: player is not in the lobby")
)

type entry struct {
	name  string
	ready bool
}

// Lobby tracks names and ready flags in join order, host first once named.
// It is not safe for concurrent use; the room serializes access.
type Lobby struct {
	host    string
	entries []entry
}

func New() *Lobby {
	return &Lobby{}
}

// ValidateName trims name and checks its length.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxNameLength {
		return "", ErrNameInvalid
	}
	return name, nil
}

func (l *Lobby) HostName() string {
	return l.host
}

// SetHost names or renames the host. The host entry always sits first.
func (l *Lobby) SetHost(name string) (string, error) {
	name, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	if name == l.host {
		return name, nil
	}
	if l.index(name) >= 0 {
		return "", ErrNameTaken
	}

	if l.host == "" {
		l.entries = append([]entry{{name: name}}, l.entries...)
	} else {
		l.entries[0].name = name
	}
	l.host = name
	return name, nil
}

// Join registers a remote player with ready=false and returns the stored name.
func (l *Lobby) Join(name string) (string, error) {
	name, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	if name == l.host || l.index(name) >= 0 {
		return "", ErrNameTaken
	}
	l.entries = append(l.entries, entry{name: name})
	return name, nil
}

// Leave removes a remote player and reports whether it was present.
func (l *Lobby) Leave(name string) bool {
	i := l.index(name)
	if i < 0 || name == l.host {
		return false
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return true
}

func (l *Lobby) ToggleReady(name string) (bool, error) {
	i := l.index(name)
	if i < 0 {
		return false, ErrUnknownPlayer
	}
	l.entries[i].ready = !l.entries[i].ready
	return l.entries[i].ready, nil
}

func (l *Lobby) ResetAll() {
	for i := range l.entries {
		l.entries[i].ready = false
	}
}

// AllReady is true iff at least one player is registered and every flag is set.
func (l *Lobby) AllReady() bool {
	if len(l.entries) == 0 {
		return false
	}
	for _, e := range l.entries {
		if !e.ready {
			return false
		}
	}
	return true
}

func (l *Lobby) Len() int {
	return len(l.entries)
}

// Names lists players in seat order: host, then remote players by join time.
func (l *Lobby) Names() []string {
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.name
	}
	return names
}

func (l *Lobby) Snapshot() protocol.LobbyUpdate {
	data := make([]protocol.LobbyPlayer, len(l.entries))
	for i, e := range l.entries {
		data[i] = protocol.LobbyPlayer{Name: e.name, IsReady: e.ready}
	}
	return protocol.LobbyUpdate{Data: data}
}

func (l *Lobby) index(name string) int {
	for i, e := range l.entries {
		if e.name == name {
			return i
		}
	}
	return -1
}
