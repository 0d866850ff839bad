package handler

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-quotes/cmd/quotes/internal/generator"
)

const maxMessageSize = 512

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// streamWebSocket sends one quote per text frame for as long as the
// connection lives. Client frames are read only to notice close.
func (h *Handler) streamWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.source.Subscribe(ctx, h.period)
	defer sub.Close()

	fw := &frameWriter{conn: conn, writeWait: h.writeWait}
	go h.readPump(conn, cancel)
	go h.pingPump(ctx, fw, cancel)
	h.writePump(fw, sub)
}

// frameWriter serializes frames from the quote and ping pumps
type frameWriter struct {
	mu        sync.Mutex
	conn      net.Conn
	writeWait time.Duration
}

func (fw *frameWriter) write(op ws.OpCode, payload []byte) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.conn.SetWriteDeadline(time.Now().Add(fw.writeWait))
	return wsutil.WriteServerMessage(fw.conn, op, payload)
}

func (fw *frameWriter) close() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.conn.SetWriteDeadline(time.Now().Add(fw.writeWait))
	fw.conn.Write(ws.CompiledClose)
}

func (h *Handler) readPump(conn net.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.pongWait))

	for {
		header, err := ws.ReadHeader(conn)
		if err != nil {
			return
		}

		if header.Length > maxMessageSize {
			h.logger.Warn("Msg too big", zap.Int64("size", header.Length))
			return
		}

		if _, err := io.CopyN(io.Discard, conn, header.Length); err != nil {
			return
		}

		switch header.OpCode {
		case ws.OpClose:
			return
		case ws.OpPong:
			conn.SetReadDeadline(time.Now().Add(h.pongWait))
		}
	}
}

func (h *Handler) writePump(fw *frameWriter, sub *generator.Subscription) {
	for {
		q, err := sub.Next()
		if err != nil {
			fw.close()
			return
		}
		b, err := json.Marshal(q)
		if err != nil {
			h.logger.Error("JSON Marshal Error", zap.Error(err))
			continue
		}
		if err := fw.write(ws.OpText, b); err != nil {
			h.logger.Debug("WebSocket write failed", zap.Error(err))
			return
		}
	}
}

func (h *Handler) pingPump(ctx context.Context, fw *frameWriter, cancel context.CancelFunc) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fw.write(ws.OpPing, nil); err != nil {
				cancel()
				return
			}
		}
	}
}
