package hub

import (
	"bytes"
	"chatapp-client/internal/snowflake"
	"chatapp-client/internal/store"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

type Client struct {
	UserID    string
	SessionID int64
	Conn      *websocket.Conn

	send   chan string
	pubSub *redis.PubSub
	ctx    context.Context

	mutex            sync.Mutex
	currentGuildID   string
	currentChannelID string
}

// ViewRequest is what a presentation client sends when it opens a guild or channel.
type ViewRequest struct {
	GuildID   string `json:"guildId"`
	ChannelID string `json:"channelId"`
}

// Hub delivers store events to connected presentation clients. With a redis client the
// topics are redis channels, otherwise they live in a LocalPubSub.
type Hub struct {
	clientsMutex sync.RWMutex
	clients      map[int64]*Client

	local       *LocalPubSub
	redisClient *redis.Client
	snowflake   *snowflake.Generator

	sugar *zap.SugaredLogger
}

func New(sugar *zap.SugaredLogger, generator *snowflake.Generator, redisClient *redis.Client) *Hub {
	h := &Hub{
		clients:     make(map[int64]*Client),
		redisClient: redisClient,
		snowflake:   generator,
		sugar:       sugar,
	}
	if redisClient == nil {
		h.local = NewLocalPubSub()
	}
	return h
}

func (h *Hub) selfContained() bool {
	return h.redisClient == nil
}

// HandleClient upgrades the request and serves the websocket until it closes.
func (h *Hub) HandleClient(w http.ResponseWriter, r *http.Request, userID string) {
	sugar := h.sugar
	sugar.Debugf("Connecting user ID [%s] to WebSocket", userID)

	sessionID, err := h.snowflake.Generate()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sugar.Debug(err)
		return
	}
	defer conn.Close()

	clientCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &Client{
		UserID:    userID,
		SessionID: sessionID,
		Conn:      conn,
		send:      make(chan string, sendBufferSize),
		ctx:       clientCtx,
	}

	if !h.selfContained() {
		client.pubSub = h.redisClient.Subscribe(clientCtx)
		defer client.pubSub.Close()
		go h.forwardRedis(client)
	}

	h.setClient(client)
	defer h.deleteClient(client)

	err = h.subscribe(client, topicGlobal)
	if err != nil {
		sugar.Error(err)
		return
	}

	go h.writePump(client)

	conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			sugar.Debugf("Session ID [%d] disconnected: %v", sessionID, err)
			break
		}

		var view ViewRequest
		err = json.Unmarshal(data, &view)
		if err != nil {
			sugar.Debugf("Session ID [%d] sent an unreadable message: %v", sessionID, err)
			continue
		}

		err = h.View(sessionID, view.GuildID, view.ChannelID)
		if err != nil {
			sugar.Error(err)
		}
	}
}

func (h *Hub) writePump(client *Client) {
	for {
		select {
		case <-client.ctx.Done():
			return
		case message := <-client.send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := client.Conn.WriteMessage(websocket.TextMessage, []byte(message))
			if err != nil {
				h.sugar.Debug(err)
				return
			}
		}
	}
}

// forwardRedis moves messages of the redis subscriptions of a client into its send queue.
func (h *Hub) forwardRedis(client *Client) {
	messages := client.pubSub.Channel()
	for {
		select {
		case <-client.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			h.enqueue(client, msg.Payload)
		}
	}
}

func (h *Hub) enqueue(client *Client, message string) {
	select {
	case client.send <- message:
	default:
		h.sugar.Warnf("Send queue of session ID [%d] is full, dropping message", client.SessionID)
	}
}

func (h *Hub) setClient(client *Client) {
	h.sugar.Debugf("Adding user ID [%s] to clients as session ID [%d]", client.UserID, client.SessionID)
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	h.clients[client.SessionID] = client
}

func (h *Hub) deleteClient(client *Client) {
	h.sugar.Debugf("Removing session ID [%d] from clients", client.SessionID)
	h.clientsMutex.Lock()
	delete(h.clients, client.SessionID)
	h.clientsMutex.Unlock()

	if h.selfContained() {
		h.local.UnsubscribeFromAll(client.SessionID)
	}
}

func (h *Hub) GetClient(sessionID int64) (*Client, bool) {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	client, exists := h.clients[sessionID]
	return client, exists
}

func (h *Hub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	return len(h.clients)
}

func (h *Hub) subscribe(client *Client, topic string) error {
	if h.selfContained() {
		h.local.Subscribe(topic, client.SessionID)
		return nil
	}
	return client.pubSub.Subscribe(client.ctx, topic)
}

func (h *Hub) unsubscribe(client *Client, topic string) error {
	if h.selfContained() {
		h.local.Unsubscribe(topic, client.SessionID)
		return nil
	}
	return client.pubSub.Unsubscribe(client.ctx, topic)
}

// View moves the session's guild and channel subscriptions to the ones it now has open.
// An empty id leaves that subscription as it is.
func (h *Hub) View(sessionID int64, guildID string, channelID string) error {
	client, exists := h.GetClient(sessionID)
	if !exists {
		return fmt.Errorf("session ID [%d] tried to subscribe but the session isn't connected to hub", sessionID)
	}

	client.mutex.Lock()
	defer client.mutex.Unlock()

	if guildID != "" && guildID != client.currentGuildID {
		if client.currentGuildID != "" {
			err := h.unsubscribe(client, GuildTopic(client.currentGuildID))
			if err != nil {
				return err
			}
		}
		err := h.subscribe(client, GuildTopic(guildID))
		if err != nil {
			return err
		}
		client.currentGuildID = guildID
		h.sugar.Debugf("Session ID [%d] subscribed to guild [%s]", sessionID, guildID)
	}

	if channelID != "" && channelID != client.currentChannelID {
		if client.currentChannelID != "" {
			err := h.unsubscribe(client, ChannelTopic(client.currentChannelID))
			if err != nil {
				return err
			}
		}
		err := h.subscribe(client, ChannelTopic(channelID))
		if err != nil {
			return err
		}
		client.currentChannelID = channelID
		h.sugar.Debugf("Session ID [%d] subscribed to channel [%s]", sessionID, channelID)
	}

	return nil
}

// Frame encodes an event the way clients read it: the type, a newline, then JSON.
func Frame(eventType string, payload any) (string, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.Grow(len(eventType) + 1 + len(jsonBytes))
	buf.WriteString(eventType)
	buf.WriteByte('\n')
	buf.Write(jsonBytes)

	return buf.String(), nil
}

func (h *Hub) Emit(ctx context.Context, topic string, eventType string, payload any) error {
	message, err := Frame(eventType, payload)
	if err != nil {
		return err
	}

	h.sugar.Debugf("Sending [%s] to those on topic [%s]", eventType, topic)

	if !h.selfContained() {
		return h.redisClient.Publish(ctx, topic, message).Err()
	}

	for _, sessionID := range h.local.Subscribers(topic) {
		client, exists := h.GetClient(sessionID)
		if exists {
			h.enqueue(client, message)
		} else {
			h.sugar.Warnf("Session ID [%d] is supposed to be available", sessionID)
		}
	}
	return nil
}

// Listen publishes every store event to its topic.
func (h *Hub) Listen(event store.Event) {
	err := h.Emit(context.Background(), TopicOf(event), event.Type, event)
	if err != nil {
		h.sugar.Errorf("Couldn't publish [%s]: %v", event.Type, err)
	}
}
