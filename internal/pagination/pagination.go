package pagination

import (
	"chatapp-client/internal/source"
	"chatapp-client/internal/store"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// PageSize is how many messages one request asks for. A shorter page means the
// channel has no older history.
const PageSize = source.DefaultPageSize

type Controller struct {
	store  *store.Store
	source source.MessageSource
	sugar  *zap.SugaredLogger
}

func New(sugar *zap.SugaredLogger, st *store.Store, src source.MessageSource) *Controller {
	return &Controller{
		store:  st,
		source: src,
		sugar:  sugar,
	}
}

// LoadOlder fetches the page of messages that precede the oldest loaded message of the
// channel. It returns false without touching the source when the channel is exhausted,
// already loading, or has nothing loaded to take a cursor from.
func (c *Controller) LoadOlder(ctx context.Context, channelID string) (bool, error) {
	begin := &store.BeginLoadOlder{ChannelID: channelID}
	c.store.Dispatch(begin)

	cursor, started := begin.Cursor()
	if !started {
		c.sugar.Debugf("Not loading older messages of channel [%s]", channelID)
		return false, nil
	}
	defer c.store.Dispatch(store.EndLoad{ChannelID: channelID})

	c.sugar.Debugf("Loading messages of channel [%s] before [%s]", channelID, cursor)

	page, err := c.source.FetchMessages(ctx, channelID, &cursor, PageSize)
	if err != nil {
		c.sugar.Warnf("Failed to load older messages of channel [%s]: %v", channelID, err)
		return true, fmt.Errorf("load older messages of channel %s: %w", channelID, err)
	}

	c.store.Dispatch(store.PrependHistory{
		ChannelID: channelID,
		Page:      page,
		HasMore:   len(page) >= PageSize,
	})

	c.sugar.Debugf("Loaded [%d] older messages of channel [%s]", len(page), channelID)
	return true, nil
}

// LoadLatest fetches the newest page of a channel that has no messages loaded yet.
func (c *Controller) LoadLatest(ctx context.Context, channelID string) (bool, error) {
	begin := &store.BeginLoadLatest{ChannelID: channelID}
	c.store.Dispatch(begin)
	if !begin.Started() {
		return false, nil
	}
	defer c.store.Dispatch(store.EndLoad{ChannelID: channelID})

	page, err := c.source.FetchMessages(ctx, channelID, nil, PageSize)
	if err != nil {
		c.sugar.Warnf("Failed to load latest messages of channel [%s]: %v", channelID, err)
		return true, fmt.Errorf("load latest messages of channel %s: %w", channelID, err)
	}

	c.store.Dispatch(store.PrependHistory{
		ChannelID: channelID,
		Page:      page,
		HasMore:   len(page) >= PageSize,
	})

	c.sugar.Debugf("Loaded [%d] latest messages of channel [%s]", len(page), channelID)
	return true, nil
}
