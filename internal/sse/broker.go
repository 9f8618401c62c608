package sse

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/config"
	redisclient "github.com/classroom-assistant/classroom-go/internal/redis"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	JoinCode string
	Events   chan Event
	Done     chan struct{}
}

// Broker fans classroom events out to SSE clients across server instances via Redis pub/sub.
type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool // joinCode -> set of clients
	subs    map[string]context.CancelFunc
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		subs:    make(map[string]context.CancelFunc),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(joinCode string) *Client {
	client := &Client{
		JoinCode: joinCode,
		Events:   make(chan Event, config.SSEClientBuffer),
		Done:     make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[joinCode] == nil {
		b.clients[joinCode] = make(map[*Client]bool)
		if b.redis != nil {
			subCtx, cancel := context.WithCancel(b.ctx)
			b.subs[joinCode] = cancel
			go b.subscribeToRedis(subCtx, joinCode)
		}
	}
	b.clients[joinCode][client] = true
	clientCount := len(b.clients[joinCode])
	b.mu.Unlock()

	log.Info().
		Str("joinCode", joinCode).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.JoinCode]; ok {
		if !clients[client] {
			return
		}
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.JoinCode)
			if cancel, ok := b.subs[client.JoinCode]; ok {
				cancel()
				delete(b.subs, client.JoinCode)
			}
		}

		log.Info().
			Str("joinCode", client.JoinCode).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

// Publish fans the event out through Redis, or delivers locally when the broker runs without Redis.
func (b *Broker) Publish(ctx context.Context, joinCode string, event Event) error {
	if b.redis == nil {
		b.deliver(joinCode, event)
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.BroadcastChannel(joinCode)
	return b.redis.Publish(ctx, channel, data).Err()
}

func (b *Broker) subscribeToRedis(ctx context.Context, joinCode string) {
	channel := redisclient.BroadcastChannel(joinCode)
	pubsub := b.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("joinCode", joinCode).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			if !b.deliver(joinCode, event) {
				return
			}
		}
	}
}

// deliver reports false once no client is left for the join code.
func (b *Broker) deliver(joinCode string, event Event) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	clients, ok := b.clients[joinCode]
	if !ok {
		return false
	}

	for client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("joinCode", joinCode).
				Msg("client event buffer full, dropping event")
		}
	}
	return true
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
	b.subs = make(map[string]context.CancelFunc)
}

func (b *Broker) ClientCount(joinCode string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[joinCode])
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}
