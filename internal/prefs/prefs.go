package prefs

import (
	"chatapp-client/internal/keyValue"
	"chatapp-client/internal/models"
	"chatapp-client/internal/store"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const cacheExpiry = 15 * time.Minute

// Persister keeps the preferences of one user durable. Everything else in the store is
// rebuilt at startup, preferences are the only state that survives a restart.
type Persister struct {
	db     *sql.DB
	cache  *keyValue.Store
	store  *store.Store
	userID string
	now    func() time.Time

	mutex sync.Mutex
	dirty bool
	wake  chan struct{}

	sugar *zap.SugaredLogger
}

func New(sugar *zap.SugaredLogger, db *sql.DB, cache *keyValue.Store, st *store.Store, userID string) *Persister {
	return &Persister{
		db:     db,
		cache:  cache,
		store:  st,
		userID: userID,
		now:    time.Now,
		wake:   make(chan struct{}, 1),
		sugar:  sugar,
	}
}

func cacheKey(userID string) string {
	return fmt.Sprintf("preferences:%s", userID)
}

// Load reads the saved preferences, or the defaults when nothing was saved yet, and
// puts them into the store.
func (p *Persister) Load(ctx context.Context) (models.Preferences, error) {
	prefs, err := p.read(ctx)
	if err != nil {
		return prefs, err
	}

	p.store.Dispatch(store.SetPreferences{Preferences: prefs})
	return p.store.Preferences(), nil
}

func (p *Persister) read(ctx context.Context) (models.Preferences, error) {
	key := cacheKey(p.userID)

	data, err := p.cache.Get(ctx, key)
	if err != nil {
		p.sugar.Warnf("Couldn't read cached preferences of user [%s]: %v", p.userID, err)
		data = ""
	}

	if data == "" {
		err = p.db.QueryRowContext(ctx, "SELECT data FROM preferences WHERE user_id = ?", p.userID).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			p.sugar.Debugf("No preferences saved for user [%s], using defaults", p.userID)
			return models.DefaultPreferences(), nil
		} else if err != nil {
			return models.DefaultPreferences(), fmt.Errorf("read preferences of user %s: %w", p.userID, err)
		}

		err = p.cache.Set(ctx, key, data, cacheExpiry)
		if err != nil {
			p.sugar.Warnf("Couldn't cache preferences of user [%s]: %v", p.userID, err)
		}
	} else {
		p.sugar.Debugf("Preferences of user [%s] were found in cache", p.userID)
	}

	prefs := models.DefaultPreferences()
	err = json.Unmarshal([]byte(data), &prefs)
	if err != nil {
		return models.DefaultPreferences(), fmt.Errorf("parse preferences of user %s: %w", p.userID, err)
	}
	if prefs.LastVisitedChannelByGuild == nil {
		prefs.LastVisitedChannelByGuild = make(map[string]string)
	}
	return prefs, nil
}

func (p *Persister) Save(ctx context.Context, prefs models.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "DELETE FROM preferences WHERE user_id = ?", p.userID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO preferences (user_id, data, updated_at) VALUES (?, ?, ?)", p.userID, string(data), p.now().UnixMilli())
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	err = p.cache.Set(ctx, cacheKey(p.userID), string(data), cacheExpiry)
	if err != nil {
		p.sugar.Warnf("Couldn't cache preferences of user [%s]: %v", p.userID, err)
	}

	p.sugar.Debugf("Saved preferences of user [%s]", p.userID)
	return nil
}

// Listen queues a save for every preference change. The save writes what the store
// holds when it runs, so a burst of changes becomes one save of the newest value.
func (p *Persister) Listen(event store.Event) {
	if event.Type != store.PreferencesChanged {
		return
	}

	p.mutex.Lock()
	p.dirty = true
	p.mutex.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run writes queued preferences until ctx is done, then flushes what is left. A save
// that has started is not cut short by ctx.
func (p *Persister) Run(ctx context.Context) error {
	saveCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return p.flush(saveCtx)
		case <-p.wake:
			err := p.flush(saveCtx)
			if err != nil {
				p.sugar.Errorf("Couldn't save preferences of user [%s]: %v", p.userID, err)
			}
		}
	}
}

func (p *Persister) flush(ctx context.Context) error {
	p.mutex.Lock()
	dirty := p.dirty
	p.dirty = false
	p.mutex.Unlock()

	if !dirty {
		return nil
	}
	return p.Save(ctx, p.store.Preferences())
}
