package dashboard

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/tanknav/internal/monitoring"
)

const writeWait = 10 * time.Second

// handleWS upgrades to a websocket and pushes a telemetry snapshot
// immediately and then once per interval until the client goes away.
func (d *Dashboard) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("[dashboard] websocket upgrade failed: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			monitoring.Logf("[dashboard] warning: failed to close websocket: %v", err)
		}
	}()

	// Reads only serve to notice the peer closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if err := d.push(conn); err != nil {
			monitoring.Debugf("[dashboard] websocket write failed: %v", err)
			return
		}
		select {
		case <-ticker.C():
		case <-gone:
			return
		case <-d.quit:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (d *Dashboard) push(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(d.snapshot())
}
