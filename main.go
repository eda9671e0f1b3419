package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"engagepro-studio-server/modules/assets"
	"engagepro-studio-server/modules/common/config"
	redisconn "engagepro-studio-server/modules/common/redis"
	"engagepro-studio-server/modules/export"
	"engagepro-studio-server/modules/history"
	"engagepro-studio-server/modules/narration"
	"engagepro-studio-server/modules/promptlab"
	"engagepro-studio-server/modules/studio"

	"engagepro-studio-server/modules/common/gemini"
	"engagepro-studio-server/modules/common/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Dev setting, allow every origin.
		// Restrict to known domains in production.
		return true
	},
}

// A connected progress watcher
type Client struct {
	conn   *websocket.Conn
	jobID  string
	userID string
	send   chan []byte
}

// Feed relays one job's progress events to its watchers.
type Feed struct {
	jobID        string
	clients      map[string]*Client
	mutex        sync.RWMutex
	pubsub       *goredis.PubSub
	createdAt    time.Time
	lastActivity time.Time
	finished     bool
}

// FeedManager owns the per-job feeds.
type FeedManager struct {
	feeds   map[string]*Feed
	rdb     *goredis.Client
	mutex   sync.RWMutex
	metrics *ServerMetrics
}

// Server metrics
type ServerMetrics struct {
	TotalFeeds       int       `json:"totalFeeds"`
	ActiveFeeds      int       `json:"activeFeeds"`
	TotalConnections int       `json:"totalConnections"`
	StartTime        time.Time `json:"startTime"`
	mutex            sync.RWMutex
}

var feedManager *FeedManager

// getOrCreateFeed opens the feed for a job and starts relaying its
// progress channel on first use.
func (fm *FeedManager) getOrCreateFeed(jobID string) *Feed {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()

	feed, exists := fm.feeds[jobID]
	if !exists {
		now := time.Now()
		feed = &Feed{
			jobID:        jobID,
			clients:      make(map[string]*Client),
			pubsub:       fm.rdb.Subscribe(context.Background(), studio.ProgressChannel(jobID)),
			createdAt:    now,
			lastActivity: now,
		}
		fm.feeds[jobID] = feed

		go feed.relay()

		fm.metrics.mutex.Lock()
		fm.metrics.TotalFeeds++
		fm.metrics.ActiveFeeds++
		fm.metrics.mutex.Unlock()

		log.Printf("✅ Opened progress feed: %s (Total: %d, Active: %d)",
			jobID, fm.metrics.TotalFeeds, fm.metrics.ActiveFeeds)
	}

	feed.lastActivity = time.Now()
	return feed
}

// relay pumps pipeline events from Redis pub/sub to every watcher.
func (f *Feed) relay() {
	for msg := range f.pubsub.Channel() {
		f.broadcast([]byte(msg.Payload))

		// Terminal events end the relay, the feed stays readable until
		// cleanup removes it
		var event studio.ProgressEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err == nil {
			if event.Type == "completed" || event.Type == "failed" || event.Type == "cancelled" {
				f.mutex.Lock()
				f.finished = true
				f.mutex.Unlock()
				log.Printf("🏁 Feed %s reached terminal event: %s", f.jobID, event.Type)
			}
		}
	}
}

func (f *Feed) addClient(client *Client) {
	f.mutex.Lock()
	f.clients[client.userID] = client
	f.lastActivity = time.Now()
	clientCount := len(f.clients)
	f.mutex.Unlock()

	feedManager.metrics.mutex.Lock()
	feedManager.metrics.TotalConnections++
	feedManager.metrics.mutex.Unlock()

	log.Printf("👤 Client %s watching job %s (Watchers: %d, Total Connections: %d)",
		client.userID, f.jobID, clientCount, feedManager.metrics.TotalConnections)
}

func (f *Feed) removeClient(userID string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if client, exists := f.clients[userID]; exists {
		close(client.send)
		delete(f.clients, userID)
		f.lastActivity = time.Now()

		log.Printf("👋 Client %s stopped watching job %s (Remaining: %d)", userID, f.jobID, len(f.clients))
	}
}

// broadcast pushes a raw event to every watcher.
func (f *Feed) broadcast(payload []byte) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	for userID, client := range f.clients {
		select {
		case client.send <- payload:
		default:
			close(client.send)
			delete(f.clients, userID)
			log.Printf("⚠️  Dropped slow watcher %s from feed %s", userID, f.jobID)
		}
	}
}

// cleanupIdleFeeds closes feeds whose job finished and whose watchers
// are gone.
func (fm *FeedManager) cleanupIdleFeeds() {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()

	cleaned := 0
	for jobID, feed := range fm.feeds {
		feed.mutex.RLock()
		removable := feed.finished && len(feed.clients) == 0
		feed.mutex.RUnlock()

		if removable {
			feed.pubsub.Close()
			delete(fm.feeds, jobID)
			cleaned++

			fm.metrics.mutex.Lock()
			fm.metrics.ActiveFeeds--
			fm.metrics.mutex.Unlock()

			log.Printf("🧹 Closed finished feed: %s", jobID)
		}
	}

	if cleaned > 0 {
		log.Printf("🗑️  Closed %d finished feeds (Active: %d)", cleaned, fm.metrics.ActiveFeeds)
	}
}

// cleanupExpiredFeeds force-closes feeds past the retention window or
// long abandoned.
func (fm *FeedManager) cleanupExpiredFeeds() {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()

	now := time.Now()
	expiredThreshold := 24 * time.Hour
	inactiveThreshold := 2 * time.Hour

	cleaned := 0
	for jobID, feed := range fm.feeds {
		feed.mutex.RLock()
		isExpired := now.Sub(feed.createdAt) > expiredThreshold
		isInactive := now.Sub(feed.lastActivity) > inactiveThreshold && len(feed.clients) == 0
		feed.mutex.RUnlock()

		if isExpired || isInactive {
			feed.mutex.Lock()
			for userID, client := range feed.clients {
				close(client.send)
				log.Printf("🔌 Disconnecting watcher %s from expired feed %s", userID, jobID)
			}
			feed.mutex.Unlock()

			feed.pubsub.Close()
			delete(fm.feeds, jobID)
			cleaned++

			fm.metrics.mutex.Lock()
			fm.metrics.ActiveFeeds--
			fm.metrics.mutex.Unlock()

			reason := "expired"
			if isInactive {
				reason = "inactive"
			}
			log.Printf("⏰ Closed %s feed: %s (Age: %v, Inactive: %v)",
				reason, jobID, now.Sub(feed.createdAt), now.Sub(feed.lastActivity))
		}
	}

	if cleaned > 0 {
		log.Printf("🧼 Closed %d expired/inactive feeds (Active: %d)", cleaned, fm.metrics.ActiveFeeds)
	}
}

// startCleanupRoutine schedules the periodic feed cleanups.
func (fm *FeedManager) startCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			fm.cleanupIdleFeeds()
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			fm.cleanupExpiredFeeds()
		}
	}()

	log.Printf("🔄 Started feed cleanup routines (Idle: 5min, Expired: 30min)")
}

// WebSocket handler
func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	jobID := r.URL.Query().Get("job")
	userID := r.URL.Query().Get("user")

	if jobID == "" || userID == "" {
		log.Printf("Missing job or user parameter")
		conn.Close()
		return
	}

	client := &Client{
		conn:   conn,
		jobID:  jobID,
		userID: userID,
		send:   make(chan []byte, 256),
	}

	log.Printf("🔍 New WebSocket connection - Job: %s, User: %s", jobID, userID)

	feed := feedManager.getOrCreateFeed(jobID)
	feed.addClient(client)

	go client.writePump()
	go client.readPump(feed)
}

// readPump drains the connection until the watcher disconnects. The
// feed is one-way, inbound frames are ignored.
func (c *Client) readPump(feed *Feed) {
	defer func() {
		feed.removeClient(c.userID)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// CORS middleware
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Health check endpoint
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "engagepro-studio",
	})
}

// Feed info endpoint
func getFeedInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["jobId"]

	feedManager.mutex.RLock()
	feed, exists := feedManager.feeds[jobID]
	feedManager.mutex.RUnlock()

	if !exists {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Feed not found",
		})
		return
	}

	feed.mutex.RLock()
	clientCount := len(feed.clients)
	watcherIDs := make([]string, 0, len(feed.clients))
	for userID := range feed.clients {
		watcherIDs = append(watcherIDs, userID)
	}
	finished := feed.finished
	feed.mutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jobId":        jobID,
		"watcherCount": clientCount,
		"watchers":     watcherIDs,
		"finished":     finished,
		"createdAt":    feed.createdAt,
		"lastActivity": feed.lastActivity,
		"age":          time.Since(feed.createdAt).String(),
		"inactive":     time.Since(feed.lastActivity).String(),
	})
}

// Server metrics endpoint
func getMetrics(w http.ResponseWriter, r *http.Request) {
	feedManager.metrics.mutex.RLock()
	metrics := ServerMetrics{
		TotalFeeds:       feedManager.metrics.TotalFeeds,
		ActiveFeeds:      feedManager.metrics.ActiveFeeds,
		TotalConnections: feedManager.metrics.TotalConnections,
		StartTime:        feedManager.metrics.StartTime,
	}
	feedManager.metrics.mutex.RUnlock()

	uptime := time.Since(metrics.StartTime)

	feedManager.mutex.RLock()
	feedDetails := make([]map[string]interface{}, 0, len(feedManager.feeds))
	totalWatchers := 0

	for jobID, feed := range feedManager.feeds {
		feed.mutex.RLock()
		clientCount := len(feed.clients)
		totalWatchers += clientCount

		feedDetails = append(feedDetails, map[string]interface{}{
			"jobId":        jobID,
			"watcherCount": clientCount,
			"finished":     feed.finished,
			"createdAt":    feed.createdAt,
			"lastActivity": feed.lastActivity,
			"age":          time.Since(feed.createdAt).String(),
			"inactive":     time.Since(feed.lastActivity).String(),
		})
		feed.mutex.RUnlock()
	}
	feedManager.mutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"server": map[string]interface{}{
			"uptime":           uptime.String(),
			"startTime":        metrics.StartTime,
			"totalFeeds":       metrics.TotalFeeds,
			"activeFeeds":      metrics.ActiveFeeds,
			"totalConnections": metrics.TotalConnections,
			"currentWatchers":  totalWatchers,
		},
		"feeds": feedDetails,
	})
}

// Force feed cleanup (admin use)
func forceCleanupFeeds(w http.ResponseWriter, r *http.Request) {
	feedManager.cleanupIdleFeeds()
	feedManager.cleanupExpiredFeeds()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "Cleanup completed",
	})
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	rdb := redisconn.Connect(cfg)

	feedManager = &FeedManager{
		feeds: make(map[string]*Feed),
		rdb:   rdb,
		metrics: &ServerMetrics{
			StartTime: time.Now(),
		},
	}
	feedManager.startCleanupRoutine()

	// Pipeline wiring. A nil *storage.Client must never reach the
	// interface fields, the pipeline checks them against nil.
	geminiClient := gemini.NewClient(cfg)
	var shotStore studio.ShotStore
	var shotFetcher export.ShotFetcher
	if sc, err := storage.NewClient(); err != nil {
		log.Printf("⚠️  Storage offload disabled: %v", err)
	} else {
		shotStore = sc
		shotFetcher = sc
	}
	studioService := studio.NewService(geminiClient, shotStore, cfg.PacingDelay)
	narrationService := narration.NewService(geminiClient)
	historyStore := history.NewStore(rdb)

	// Queue worker (background)
	worker := studio.NewWorker(rdb, studioService, narrationService, historyStore)
	go worker.Start()

	// Router setup
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ws", handleWebSocket)
	r.HandleFunc("/feed/{jobId}", getFeedInfo).Methods("GET")
	r.HandleFunc("/metrics", getMetrics).Methods("GET")
	r.HandleFunc("/admin/cleanup", forceCleanupFeeds).Methods("POST")

	// Module routes
	assets.NewHandler().RegisterRoutes(r)
	studio.NewHandler(rdb).RegisterRoutes(r)
	narration.NewHandler(narrationService).RegisterRoutes(r)
	export.NewHandler(shotFetcher).RegisterRoutes(r)
	history.NewHandler(historyStore).RegisterRoutes(r)
	promptlab.NewHandler(promptlab.NewService(geminiClient)).RegisterRoutes(r)

	port := cfg.Port

	log.Printf("🚀 EngagePro Studio Server starting on port %s", port)
	log.Printf("📡 Progress feed: ws://localhost:%s/ws", port)
	log.Printf("❤️  Health check: http://localhost:%s/health", port)
	log.Printf("📊 Metrics: http://localhost:%s/metrics", port)
	log.Printf("🧹 Admin cleanup: http://localhost:%s/admin/cleanup", port)

	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
