package app

import (
	"chatapp-client/internal/config"
	"chatapp-client/internal/debounce"
	"chatapp-client/internal/handlers"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/keyValue"
	"chatapp-client/internal/models"
	"chatapp-client/internal/pagination"
	"chatapp-client/internal/prefs"
	"chatapp-client/internal/send"
	"chatapp-client/internal/session"
	"chatapp-client/internal/snowflake"
	"chatapp-client/internal/source"
	"chatapp-client/internal/store"
	"chatapp-client/internal/unread"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// how many channels fetch their newest page at the same time during Bootstrap
const bootstrapConcurrency = 4

const cacheExpiryInterval = time.Minute

// App owns one client session: the store and every component acting on it.
type App struct {
	Store      *store.Store
	Source     source.MessageSource
	Hub        *hub.Hub
	Pagination *pagination.Controller
	Send       *send.Pipeline
	Unread     *unread.Tracker
	Collapser  *debounce.SidebarCollapser
	Prefs      *prefs.Persister

	seeder  source.Seeder
	mock    *source.Mock
	cache   *keyValue.Store
	session session.Static
	cfg     models.ConfigFile

	sugar *zap.SugaredLogger
}

// New wires the components together. redisClient may be nil when the config is self
// contained and messages come from the mock source.
func New(sugar *zap.SugaredLogger, cfg models.ConfigFile, db *sql.DB, redisClient *redis.Client) (*App, error) {
	if !cfg.SelfContained && redisClient == nil {
		return nil, errors.New("a redis client is needed when not self contained")
	}

	generator, err := snowflake.New(cfg.SnowflakeWorkerID)
	if err != nil {
		return nil, err
	}

	a := &App{
		Store:   store.New(sugar),
		session: session.Static(cfg.UserID),
		cfg:     cfg,
		sugar:   sugar,
	}

	switch cfg.MessageSource {
	case config.SourceMock:
		a.mock = source.NewMock(sugar, cfg.UserID,
			source.WithLatency(time.Duration(cfg.MockMinLatencyMs)*time.Millisecond, time.Duration(cfg.MockMaxLatencyMs)*time.Millisecond),
			source.WithFailureRate(cfg.MockFailureRate),
		)
		a.Source = a.mock
		a.seeder = a.mock
	case config.SourceRedis:
		if redisClient == nil {
			return nil, errors.New("the redis message source needs a redis client")
		}
		a.Source = source.NewRedis(sugar, redisClient, cfg.UserID)
		a.seeder = source.FileSeeder{Path: cfg.SeedFile}
	default:
		return nil, fmt.Errorf("unknown message source [%s]", cfg.MessageSource)
	}

	var pubSubClient *redis.Client
	if cfg.SelfContained {
		a.cache = keyValue.NewLocal(sugar)
	} else {
		a.cache = keyValue.NewRedis(sugar, redisClient)
		pubSubClient = redisClient
	}

	a.Hub = hub.New(sugar, generator, pubSubClient)
	a.Pagination = pagination.New(sugar, a.Store, a.Source)
	a.Send = send.New(sugar, a.Store, a.Source, a.session)
	a.Unread = unread.New(sugar, a.Store, a.session)
	a.Collapser = debounce.NewSidebarCollapser(sugar, a.Store, debounce.QuietPeriod)
	a.Prefs = prefs.New(sugar, db, a.cache, a.Store, cfg.UserID)

	a.Store.Subscribe(a.Unread.Listen)
	a.Store.Subscribe(a.Prefs.Listen)
	a.Store.Subscribe(a.Hub.Listen)

	return a, nil
}

// Bootstrap loads the seed dataset and saved preferences, fetches the newest page of
// every text channel, then reopens the channel that was on screen last time.
func (a *App) Bootstrap(ctx context.Context) error {
	snapshot, err := a.seeder.Seed(ctx)
	if err != nil {
		return fmt.Errorf("couldn't seed session: %w", err)
	}

	// seed files may carry history, the redis source has to know about it to page through it
	if redisSource, ok := a.Source.(*source.Redis); ok {
		for _, msg := range snapshot.Messages {
			err := redisSource.AddMessage(ctx, msg)
			if err != nil {
				return fmt.Errorf("couldn't store seed message [%s]: %w", msg.ID, err)
			}
		}
	}

	a.Store.Dispatch(store.Load{Snapshot: snapshot})
	a.sugar.Infof("Loaded [%d] guilds, [%d] channels and [%d] users", len(snapshot.Guilds), len(snapshot.Channels), len(snapshot.Users))

	_, err = a.Prefs.Load(ctx)
	if err != nil {
		a.sugar.Warnf("Couldn't load preferences, using defaults: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bootstrapConcurrency)
	for _, channelID := range a.textChannelIDs() {
		g.Go(func() error {
			_, err := a.Pagination.LoadLatest(gctx, channelID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// the channel stays empty until someone scrolls it
				a.sugar.Warnf("Couldn't load latest messages of channel [%s]: %v", channelID, err)
			}
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		return err
	}

	guildID, channelID, ok := a.initialView()
	if ok {
		a.Unread.Viewing(guildID, channelID)
		a.sugar.Debugf("Restored view of channel [%s] in guild [%s]", channelID, guildID)
	}
	return nil
}

// initialView picks the last visited channel when it still exists, otherwise the first
// text channel of the last visited guild, otherwise of the first guild.
func (a *App) initialView() (string, string, bool) {
	guilds := a.Store.Guilds()
	if len(guilds) == 0 {
		return "", "", false
	}

	prefs := a.Store.Preferences()

	guildID := guilds[0].ID
	if _, exists := a.Store.Guild(prefs.LastVisitedGuildID); exists {
		guildID = prefs.LastVisitedGuildID
	}

	if channelID, exists := prefs.LastVisitedChannelByGuild[guildID]; exists {
		if channel, exists := a.Store.Channel(channelID); exists && channel.GuildID == guildID {
			return guildID, channelID, true
		}
	}

	for _, channel := range a.Store.Channels(guildID) {
		if channel.ChannelType == models.ChannelText {
			return guildID, channel.ID, true
		}
	}
	return "", "", false
}

func (a *App) textChannelIDs() []string {
	var channelIDs []string
	for _, guild := range a.Store.Guilds() {
		for _, channel := range a.Store.Channels(guild.ID) {
			if channel.ChannelType == models.ChannelText {
				channelIDs = append(channelIDs, channel.ID)
			}
		}
	}
	return channelIDs
}

// Run keeps the background work going until ctx is done: saving preferences, expiring
// cached keys and, with the mock source, simulating other users talking.
func (a *App) Run(ctx context.Context) error {
	defer a.Send.Wait()
	defer a.Collapser.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Prefs.Run(gctx)
	})
	g.Go(func() error {
		a.cache.RunExpiry(gctx, cacheExpiryInterval)
		return nil
	})

	if a.mock != nil && a.cfg.MockIncomingIntervalMs > 0 {
		interval := time.Duration(a.cfg.MockIncomingIntervalMs) * time.Millisecond
		g.Go(func() error {
			a.simulateIncoming(gctx, interval)
			return nil
		})
	}

	return g.Wait()
}

func (a *App) simulateIncoming(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Incoming()
		}
	}
}

// Incoming delivers one made up message from another user, as the mock backend would
// push it. It does nothing unless the mock source is in use.
func (a *App) Incoming() (models.Message, bool) {
	if a.mock == nil {
		return models.Message{}, false
	}

	userID := a.session.UserID()
	mentionName := userID
	if self, exists := a.Store.User(userID); exists && self.UserName != "" {
		mentionName = self.UserName
	}

	var senderIDs []string
	seen := make(map[string]struct{})
	for _, guild := range a.Store.Guilds() {
		for _, key := range a.Store.Directory(guild.ID).Keys {
			if _, exists := seen[key.UserID]; exists || key.UserID == userID {
				continue
			}
			seen[key.UserID] = struct{}{}
			senderIDs = append(senderIDs, key.UserID)
		}
	}

	msg, ok := a.mock.Incoming(a.textChannelIDs(), senderIDs, mentionName)
	if !ok {
		return models.Message{}, false
	}

	// someone who just talked is online
	a.Store.Dispatch(store.SetPresence{UserID: msg.SenderID, Status: models.StatusOnline})
	a.Store.Dispatch(store.UpsertMessages{Messages: []models.Message{msg}})
	return msg, true
}

// Handlers builds the presentation API on top of the session. A nil signer leaves the
// API unauthenticated.
func (a *App) Handlers(signer *session.Signer) *handlers.Handlers {
	return handlers.New(a.sugar, handlers.Deps{
		Store:      a.Store,
		Pagination: a.Pagination,
		Send:       a.Send,
		Unread:     a.Unread,
		Collapser:  a.Collapser,
		Hub:        a.Hub,
		Signer:     signer,
		UserID:     a.session.UserID(),
	})
}
