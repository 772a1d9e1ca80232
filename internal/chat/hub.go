package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// frame is one decoded-transport unit: raw bytes read from a connection.
type frame struct {
	client *Client
	data   []byte
}

// Hub is the central router. It owns the presence registry, the channel
// histories, and the shared media state; the Run loop is the only goroutine
// that touches them, which is what makes every mutation totally ordered.
type Hub struct {
	clients map[*Client]bool

	// byUser resolves an identity to its live connection for private
	// delivery. On a join collision the newest connection wins the slot;
	// the older connection stays registered and bound (see DESIGN.md).
	byUser map[string]*Client

	presence *presenceRegistry
	history  *channelStore
	media    MediaState

	register   chan *Client
	unregister chan *Client
	inbound    chan frame
	relayIn    chan []byte

	relay   *Relay // nil when no redis is configured
	metrics *Metrics
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewHub wires a hub. relay may be nil to run standalone.
func NewHub(logger *slog.Logger, metrics *Metrics, relay *Relay) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]*Client),
		presence:   newPresenceRegistry(),
		history:    newChannelStore(),
		media:      MediaState{Timestamp: time.Now().UnixMilli()},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan frame),
		relayIn:    make(chan []byte),
		relay:      relay,
		metrics:    metrics,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// PresenceCount reports how many joined identities are online. Safe from
// any goroutine; the health endpoint reads it.
func (h *Hub) PresenceCount() int64 {
	return h.presence.Count()
}

// Run services every event in one goroutine: registrations, closes, inbound
// frames, and relayed frames from other instances. Handling of one event
// completes, fan-out included, before the next begins.
func (h *Hub) Run() {
	defer close(h.done)

	if h.relay != nil {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.relay.Subscribe(h.ctx, h.relayIn)
		}()
	}

	for {
		select {
		case <-h.ctx.Done():
			h.closeClients()
			return

		case c := <-h.register:
			h.addClient(c)
			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				c.writePump()
			}()
			go func() {
				defer h.wg.Done()
				c.readPump()
			}()

		case c := <-h.unregister:
			h.removeClient(c)

		case f := <-h.inbound:
			h.handle(f.client, f.data)

		case payload := <-h.relayIn:
			h.handleRelayed(payload)
		}
	}
}

// Shutdown stops the hub, closes every client connection, and waits up to
// timeout for the pump goroutines to drain.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()

	select {
	case <-h.done:
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}

	drained := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}

// Register hands a freshly upgraded connection to the hub loop.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		c.conn.Close()
	}
}

func (h *Hub) addClient(c *Client) {
	h.clients[c] = true
	h.metrics.ConnectedClients.Set(float64(len(h.clients)))
	h.logger.Debug("client connected", slog.String("conn", c.id))
}

// removeClient is the onClose path: drop the connection, and if it had
// joined, retire its presence entry and tell everyone who is left.
func (h *Hub) removeClient(c *Client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.ConnectedClients.Set(float64(len(h.clients)))

	if c.userID == "" {
		// Never joined: nothing to announce.
		h.logger.Debug("client disconnected before join", slog.String("conn", c.id))
		return
	}

	if h.byUser[c.userID] == c {
		delete(h.byUser, c.userID)
	}

	// Best-effort nickname: a join collision may have replaced the entry
	// already, in which case the sentinel goes out instead.
	nickname := "Unknown"
	if u, ok := h.presence.remove(c.userID); ok {
		nickname = u.Nickname
	}
	h.metrics.PresentUsers.Set(float64(h.presence.Count()))

	h.fanOut(h.encode(userLeftEvent{
		Type:     EventUserLeft,
		UserID:   c.userID,
		Nickname: nickname,
	}), nil)
	h.logger.Info("user left", slog.String("user", c.userID), slog.String("nickname", nickname))
}

// handle is the single dispatch point for inbound frames. A frame that does
// not decode is logged and dropped; the connection always stays open.
func (h *Hub) handle(c *Client, data []byte) {
	ev, err := DecodeEvent(data)
	if err != nil {
		h.metrics.MalformedTotal.Inc()
		h.logger.Warn("dropping malformed frame", slog.String("conn", c.id), slog.Any("error", err))
		return
	}
	if ev == nil {
		// Unrecognized kind: deliberately a no-op.
		return
	}
	h.metrics.EventsTotal.WithLabelValues(string(ev.kind())).Inc()

	switch ev := ev.(type) {
	case *JoinEvent:
		h.handleJoin(c, ev)
	case *ChatEvent:
		h.handleChat(c, ev)
	case *MediaEvent:
		h.handleMedia(c, ev)
	case *TypingEvent:
		h.handleTyping(c, ev)
	}
}

func (h *Hub) handleJoin(c *Client, ev *JoinEvent) {
	user, ok := ParseUser(ev.User)
	if !ok {
		h.metrics.MalformedTotal.Inc()
		h.logger.Warn("join without usable profile", slog.String("conn", c.id))
		return
	}
	if c.userID != "" {
		// Identity is bound once for the life of the connection.
		h.logger.Warn("ignoring re-join", slog.String("conn", c.id), slog.String("user", c.userID))
		return
	}

	c.userID = user.ID
	h.byUser[user.ID] = c
	h.presence.upsert(user)
	h.metrics.PresentUsers.Set(float64(h.presence.Count()))

	// The joining client alone gets the full snapshot: everyone present,
	// every channel history, and the current media state.
	h.send(c, h.encode(initEvent{
		Type:         EventInit,
		Users:        h.presence.snapshot(),
		Messages:     h.history.snapshot(),
		CurrentMedia: h.media,
	}))

	h.fanOut(h.encode(userJoinedEvent{Type: EventUserJoined, User: user.Raw}), c)
	h.logger.Info("user joined", slog.String("user", user.ID), slog.String("nickname", user.Nickname))
}

func (h *Hub) handleChat(c *Client, ev *ChatEvent) {
	chatID := ev.ChatID
	if chatID == "" {
		chatID = BroadcastChannel
	}
	h.history.append(chatID, ev.Message)

	payload := h.encode(messageEvent{Type: EventMessage, ChatID: chatID, Message: ev.Message})

	if chatID == BroadcastChannel {
		// Everyone hears the broadcast channel, sender included.
		h.fanOut(payload, nil)
		h.relayPublish(payload)
		return
	}

	participants := Participants(chatID)
	if len(participants) != 2 {
		// Malformed private id: the append above stands, nobody receives,
		// and the sender gets no feedback. Counted so it is visible.
		h.metrics.UndeliverableTotal.Inc()
		h.logger.Debug("private channel resolves to no recipients", slog.String("chatId", chatID))
		return
	}
	for _, id := range participants {
		if recipient, ok := h.byUser[id]; ok {
			h.send(recipient, payload)
		}
	}
}

func (h *Hub) handleMedia(c *Client, ev *MediaEvent) {
	h.media = MediaState{
		URL:       ev.URL,
		Type:      ev.MediaType,
		Timestamp: time.Now().UnixMilli(),
		UpdatedBy: c.userID,
	}

	payload := h.encode(mediaUpdateEvent{Type: EventMediaUpdate, Media: h.media})
	h.fanOut(payload, nil)
	h.relayPublish(payload)
	h.logger.Info("media updated", slog.String("url", ev.URL), slog.String("by", c.userID))
}

func (h *Hub) handleTyping(c *Client, ev *TypingEvent) {
	h.fanOut(h.encode(typingEvent{
		Type:     EventTyping,
		UserID:   c.userID,
		ChatID:   ev.ChatID,
		IsTyping: ev.IsTyping,
	}), c)
}

// handleRelayed applies a frame that originated on another instance: the
// local stores converge on what the frame implies, then everyone connected
// here receives it.
func (h *Hub) handleRelayed(payload []byte) {
	h.metrics.RelayReceived.Inc()

	var envelope struct {
		Type    EventKind       `json:"type"`
		ChatID  string          `json:"chatId"`
		Message json.RawMessage `json:"message"`
		Media   MediaState      `json:"media"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		h.logger.Warn("dropping malformed relay frame", slog.Any("error", err))
		return
	}

	switch envelope.Type {
	case EventMessage:
		h.history.append(envelope.ChatID, envelope.Message)
	case EventMediaUpdate:
		h.media = envelope.Media
	}
	h.fanOut(payload, nil)
}

func (h *Hub) relayPublish(payload []byte) {
	if h.relay == nil {
		return
	}
	h.relay.Publish(h.ctx, payload)
	h.metrics.RelayPublished.Inc()
}

// fanOut pushes payload to every connected client except exclude.
func (h *Hub) fanOut(payload []byte, exclude *Client) {
	for client := range h.clients {
		if client == exclude {
			continue
		}
		h.send(client, payload)
	}
}

// send is strictly best-effort: a full buffer costs this one frame for this
// one recipient and nothing else. Only a transport close evicts a client.
func (h *Hub) send(c *Client, payload []byte) {
	select {
	case c.send <- payload:
		h.metrics.DeliveredTotal.Inc()
	default:
		h.metrics.DroppedTotal.Inc()
		h.logger.Debug("send buffer full, dropping frame", slog.String("conn", c.id))
	}
}

func (h *Hub) encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Outbound frames are built from values we control; this cannot
		// fail for any reachable input.
		h.logger.Error("encode failed", slog.Any("error", err))
		return nil
	}
	return data
}

// closeClients tears down every connection during shutdown. Closing the send
// channels lets the write pumps exit immediately; closing the conns unblocks
// the read pumps. Run returns right after, so nothing sends again.
func (h *Hub) closeClients() {
	h.logger.Info("closing client connections", slog.Int("count", len(h.clients)))
	for client := range h.clients {
		close(client.send)
		client.conn.Close()
	}
}
