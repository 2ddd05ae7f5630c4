package store

import (
	"chatapp-client/internal/models"
	"sync"

	"go.uber.org/zap"
)

// Action is a named state transition. Actions are only defined in this package so
// that every write to the state goes through Dispatch.
type Action interface {
	apply(st *state) []Event
}

type state struct {
	users map[string]models.User

	guilds   map[string]models.Guild
	guildIDs []string

	channels          map[string]models.Channel
	channelIDsByGuild map[string][]string

	messages            map[string]models.Message
	messageIDsByChannel map[string][]string

	members           map[models.MemberKey]models.Member
	memberKeysByGuild map[string][]models.MemberKey

	roles          map[string]models.Role
	roleIDsByGuild map[string][]string

	presence map[string]models.Status

	lastReadByChannel    map[string]string
	unreadCountByChannel map[string]int
	mentionCountByGuild  map[string]int

	hasMore         map[string]bool
	loadingMessages map[string]bool

	preferences models.Preferences
}

func newState() state {
	return state{
		users:                make(map[string]models.User),
		guilds:               make(map[string]models.Guild),
		channels:             make(map[string]models.Channel),
		channelIDsByGuild:    make(map[string][]string),
		messages:             make(map[string]models.Message),
		messageIDsByChannel:  make(map[string][]string),
		members:              make(map[models.MemberKey]models.Member),
		memberKeysByGuild:    make(map[string][]models.MemberKey),
		roles:                make(map[string]models.Role),
		roleIDsByGuild:       make(map[string][]string),
		presence:             make(map[string]models.Status),
		lastReadByChannel:    make(map[string]string),
		unreadCountByChannel: make(map[string]int),
		mentionCountByGuild:  make(map[string]int),
		hasMore:              make(map[string]bool),
		loadingMessages:      make(map[string]bool),
		preferences:          models.DefaultPreferences(),
	}
}

// Store owns the whole client state. Writes are serialized by Dispatch, reads take a
// shared lock and hand out copies.
type Store struct {
	mutex sync.RWMutex
	state state

	listenersMutex sync.RWMutex
	listeners      []func(Event)

	sugar *zap.SugaredLogger
}

func New(sugar *zap.SugaredLogger) *Store {
	return &Store{
		state: newState(),
		sugar: sugar,
	}
}

// Dispatch applies the action atomically and then notifies subscribers of the
// resulting events. Listeners run after the state lock is released so they may read
// from the store, or dispatch further actions.
func (s *Store) Dispatch(action Action) []Event {
	s.mutex.Lock()
	events := action.apply(&s.state)
	s.mutex.Unlock()

	if len(events) == 0 {
		s.sugar.Debugf("Action %T changed nothing", action)
		return nil
	}

	s.sugar.Debugf("Action %T produced %d event(s)", action, len(events))

	s.listenersMutex.RLock()
	listeners := make([]func(Event), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMutex.RUnlock()

	for _, event := range events {
		for _, listener := range listeners {
			listener(event)
		}
	}

	return events
}

func (s *Store) Subscribe(listener func(Event)) {
	s.listenersMutex.Lock()
	defer s.listenersMutex.Unlock()

	s.listeners = append(s.listeners, listener)
}

func removeString(ids []string, id string) []string {
	for i := range ids {
		if ids[i] == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func containsString(ids []string, id string) bool {
	for i := range ids {
		if ids[i] == id {
			return true
		}
	}
	return false
}
