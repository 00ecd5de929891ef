// Package server exposes evaluations over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/pkg/evaluator"
	"github.com/xhad/civis/pkg/logger"
	"github.com/xhad/civis/pkg/verdict"
)

var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

// Message is the envelope for both directions. Clients send
// {"type":"evaluate","content":"<url>"}; the server answers with
// status messages followed by a report or an error.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type Evaluator interface {
	EvaluateWithProgress(ctx context.Context, url string, progress evaluator.ProgressFunc) (*models.Report, error)
}

type WSServer struct {
	evaluator Evaluator
	upgrader  websocket.Upgrader
	timeout   time.Duration
	log       *logger.Logger
}

type Config struct {
	// Timeout bounds a single evaluation.
	Timeout time.Duration
	Logger  *logger.Logger
}

func NewWSServer(ev Evaluator, config Config) *WSServer {
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = logger.Discard()
	}
	return &WSServer{
		evaluator: ev,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		timeout: config.Timeout,
		log:     config.Logger,
	}
}

// Handler routes /ws and /health.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *WSServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting websocket server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// conn serialises writes; gorilla connections allow one concurrent writer.
type conn struct {
	ws  *websocket.Conn
	mu  sync.Mutex
	log *logger.Logger
}

func (c *conn) send(msgType, content string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(Message{Type: msgType, Content: content, Data: data}); err != nil {
		c.log.Warn("error sending message", "type", msgType, "error", err)
	}
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &conn{ws: ws, log: s.log.With("remote", r.RemoteAddr)}
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("error reading message", "error", err)
			}
			cancel()
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send("error", fmt.Sprintf("invalid message: %v", err), nil)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleMessage(ctx, c, msg)
		}()
	}
}

func (s *WSServer) handleMessage(ctx context.Context, c *conn, msg Message) {
	if msg.Type != "evaluate" {
		c.send("error", fmt.Sprintf("unsupported message type: %q", msg.Type), nil)
		return
	}

	url := urlRegex.FindString(msg.Content)
	if url == "" {
		c.send("error", "no URL found in message", nil)
		return
	}

	c.send("status", fmt.Sprintf("Evaluating URL: %s", url), nil)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, err := s.evaluator.EvaluateWithProgress(ctx, url, func(stage string) {
		c.send("status", stage, nil)
	})
	if err != nil {
		c.log.Warn("evaluation failed", "url", url, "error", err)
		c.send("error", fmt.Sprintf("Error: %v", err), nil)
		return
	}

	c.send("report", verdict.Render(report), report)
}
