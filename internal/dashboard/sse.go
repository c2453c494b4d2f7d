package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"EcomInsights/internal/logger"
)

// SSEServer pushes dashboard events (dataset refreshes, forced logouts) to
// connected clients. One connection per user; a reconnect replaces the old
// stream.
type SSEClient struct {
	userID   string
	writer   http.ResponseWriter
	flusher  http.Flusher
	done     chan bool
	lastPing time.Time
}

type SSEServer struct {
	mu         sync.RWMutex
	clients    map[string]*SSEClient
	pingTicker *time.Ticker
	stopCh     chan struct{}
}

var globalSSEServer *SSEServer

func NewSSEServer() *SSEServer {
	s := &SSEServer{
		clients: make(map[string]*SSEClient),
		stopCh:  make(chan struct{}),
	}
	globalSSEServer = s

	s.pingTicker = time.NewTicker(30 * time.Second)
	go s.pingClients()

	return s
}

func GetSSEServer() *SSEServer {
	return globalSSEServer
}

// HandleSSE upgrades the request to an event stream and blocks until the
// client goes away.
func (s *SSEServer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id parameter required", http.StatusBadRequest)
		return
	}

	client := &SSEClient{
		userID:   userID,
		writer:   w,
		flusher:  flusher,
		done:     make(chan bool),
		lastPing: time.Now(),
	}

	s.mu.Lock()
	if existing, exists := s.clients[userID]; exists {
		close(existing.done)
	}
	s.clients[userID] = client
	s.mu.Unlock()

	fmt.Printf("[SSE] Connected user %s from %s\n", userID, r.RemoteAddr)

	s.sendToClient(client, map[string]interface{}{
		"type":    "connected",
		"message": "SSE connection established",
		"time":    time.Now().Format(time.RFC3339),
	})

	defer func() {
		s.mu.Lock()
		if s.clients[userID] == client {
			delete(s.clients, userID)
		}
		s.mu.Unlock()
		fmt.Printf("[SSE] Disconnected user %s\n", userID)
	}()

	select {
	case <-client.done:
		return
	case <-r.Context().Done():
		return
	case <-s.stopCh:
		return
	}
}

func (s *SSEServer) sendToClient(client *SSEClient, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(client.writer, "data: %s\n\n", jsonData)
	if err != nil {
		return err
	}

	client.flusher.Flush()
	return nil
}

func (s *SSEServer) pingClients() {
	defer s.pingTicker.Stop()

	for {
		select {
		case <-s.pingTicker.C:
			s.mu.RLock()
			for userID, client := range s.clients {
				err := s.sendToClient(client, map[string]interface{}{
					"type": "ping",
					"time": time.Now().Format(time.RFC3339),
				})
				if err != nil {
					fmt.Printf("[SSE] Ping failed for user %s: %v\n", userID, err)
					go s.dropClient(userID, client)
				} else {
					client.lastPing = time.Now()
				}
			}
			s.mu.RUnlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *SSEServer) dropClient(userID string, client *SSEClient) {
	s.mu.Lock()
	if s.clients[userID] == client {
		delete(s.clients, userID)
		close(client.done)
	}
	s.mu.Unlock()
}

func (s *SSEServer) Stop() {
	close(s.stopCh)
	s.mu.Lock()
	for _, client := range s.clients {
		close(client.done)
	}
	s.clients = make(map[string]*SSEClient)
	s.mu.Unlock()
}

// Broadcast sends an event to every connected client.
func Broadcast(event map[string]interface{}) {
	if globalSSEServer == nil {
		return
	}

	globalSSEServer.mu.RLock()
	clients := make(map[string]*SSEClient, len(globalSSEServer.clients))
	for id, c := range globalSSEServer.clients {
		clients[id] = c
	}
	globalSSEServer.mu.RUnlock()

	for userID, client := range clients {
		if err := globalSSEServer.sendToClient(client, event); err != nil {
			fmt.Printf("[SSE] Broadcast failed for user %s: %v\n", userID, err)
			globalSSEServer.dropClient(userID, client)
		}
	}
}

// BroadcastDatasetRefreshed tells every connected dashboard that a new dataset
// snapshot is live and its views should be refetched.
func BroadcastDatasetRefreshed(snapshotID, source string, rows int) {
	Broadcast(map[string]interface{}{
		"type":        "dataset_refreshed",
		"snapshot_id": snapshotID,
		"source":      source,
		"rows":        rows,
		"time":        time.Now().Format(time.RFC3339),
	})
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Dataset refreshed: snapshot %s (%d rows) from %s", snapshotID, rows, source))
	}
}

// SendForceLogout tells a user their session was replaced by a login from a
// new client, then closes their stream.
func SendForceLogout(userID, reason, newIP string) {
	if globalSSEServer == nil {
		return
	}

	message := map[string]interface{}{
		"type":   "force_logout",
		"reason": reason,
		"new_ip": newIP,
		"time":   time.Now().Format(time.RFC3339),
	}

	globalSSEServer.mu.RLock()
	client, exists := globalSSEServer.clients[userID]
	globalSSEServer.mu.RUnlock()

	if !exists {
		return
	}

	if err := globalSSEServer.sendToClient(client, message); err != nil {
		fmt.Printf("[SSE] Failed to send force logout to user %s: %v\n", userID, err)
	} else if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Force logout sent via SSE to user %s (reason=%s)", userID, reason))
	}

	globalSSEServer.dropClient(userID, client)
}

// ClientCount returns the number of connected clients.
func ClientCount() int {
	if globalSSEServer == nil {
		return 0
	}

	globalSSEServer.mu.RLock()
	defer globalSSEServer.mu.RUnlock()

	return len(globalSSEServer.clients)
}
