package send

import (
	"chatapp-client/internal/models"
	"chatapp-client/internal/session"
	"chatapp-client/internal/source"
	"chatapp-client/internal/store"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
)

const MaxContentLength = 4000

var (
	ErrEmptyContent   = errors.New("message content is empty")
	ErrContentTooLong = errors.New("message content is too long")
	ErrUnknownChannel = errors.New("channel does not exist")
)

// Result is how the message source answered a send. The local copy of the message is
// never changed by it, a failed send stays visible as if it went through.
type Result struct {
	Message models.Message
	Err     error
}

func (r Result) Confirmed() bool {
	return r.Err == nil
}

type Pipeline struct {
	store   *store.Store
	source  source.MessageSource
	session session.Provider
	now     func() time.Time

	pending sync.WaitGroup

	sugar *zap.SugaredLogger
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func New(sugar *zap.SugaredLogger, st *store.Store, src source.MessageSource, sess session.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   st,
		source:  src,
		session: sess,
		now:     time.Now,
		sugar:   sugar,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SendMessage puts the message into the store right away and returns it, together with
// a channel that receives the confirmation once the message source has answered.
func (p *Pipeline) SendMessage(ctx context.Context, channelID string, content string) (models.Message, <-chan Result, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return models.Message{}, nil, ErrContentTooLong
	}
	if _, exists := p.store.Channel(channelID); !exists {
		return models.Message{}, nil, ErrUnknownChannel
	}

	nonce, err := newNonce()
	if err != nil {
		return models.Message{}, nil, err
	}

	msg := models.Message{
		ID:               uuid.NewString(),
		ChannelID:        channelID,
		SenderID:         p.session.UserID(),
		Content:          content,
		EncryptedContent: content,
		Nonce:            nonce,
		CreatedAt:        p.now().UTC(),
		Attachments:      []models.Attachment{},
	}

	p.store.Dispatch(store.UpsertMessages{Messages: []models.Message{msg}})
	p.sugar.Debugf("Message [%s] added to channel [%s] before confirmation", msg.ID, channelID)

	results := make(chan Result, 1)
	p.pending.Add(1)
	go p.confirm(context.WithoutCancel(ctx), msg, results)

	return msg, results, nil
}

func (p *Pipeline) confirm(ctx context.Context, msg models.Message, results chan<- Result) {
	defer p.pending.Done()
	defer close(results)

	confirmed, err := p.source.SendMessage(ctx, msg.ChannelID, msg.Content)
	if err != nil {
		// the message stays in the store, nothing rolls it back
		p.sugar.Warnf("Send of message [%s] to channel [%s] failed: %v", msg.ID, msg.ChannelID, err)
		results <- Result{Message: msg, Err: err}
		return
	}

	p.sugar.Debugf("Message [%s] confirmed as [%s]", msg.ID, confirmed.ID)
	results <- Result{Message: confirmed}
}

// Wait blocks until every confirmation that was started has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

func newNonce() (string, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(nonce), nil
}
