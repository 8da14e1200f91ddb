package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"driverhub/internal/directory"
	"driverhub/internal/domain/geo"
	"driverhub/internal/general/contracts"
	"driverhub/internal/general/jwt"
	"driverhub/internal/general/logger"
)

const (
	streamDialTimeout  = 10 * time.Second
	streamReadLimit    = 1 << 20 // 1 MiB
	streamWriteTimeout = 5 * time.Second
	streamMaxBackoff   = 30 * time.Second
)

// Stream is the WebSocket client for the backend's driver push channel. The
// first frame after the upgrade is always the auth frame; everything after
// that is backend-to-driver state events.
type Stream struct {
	log      *logger.Logger
	wsURL    string
	driverID string
	tokens   *jwt.Manager
	dir      *directory.Directory
}

// NewStream wires a push-stream client for one driver.
func NewStream(log *logger.Logger, wsURL, driverID string, tokens *jwt.Manager, dir *directory.Directory) *Stream {
	return &Stream{
		log:      log,
		wsURL:    wsURL,
		driverID: driverID,
		tokens:   tokens,
		dir:      dir,
	}
}

// Run keeps the stream connected until ctx is cancelled, reconnecting with
// exponential backoff after any failure.
func (stream *Stream) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if err := stream.connectAndRead(ctx); err != nil {
			stream.log.Error(ctx, "ws_stream_dropped", "Driver stream disconnected", err,
				map[string]any{"retry_in": backoff.String()})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > streamMaxBackoff {
			backoff = streamMaxBackoff
		}
	}
}

// connectAndRead performs one full session: dial, authenticate, read until
// the connection drops or ctx is cancelled.
func (stream *Stream) connectAndRead(ctx context.Context) error {
	url := fmt.Sprintf("%s/drivers/%s/stream", stream.wsURL, stream.driverID)

	dialCtx, cancel := context.WithTimeout(ctx, streamDialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	conn.SetReadLimit(streamReadLimit)

	// server closes the socket if auth does not arrive as the first frame
	token, _, err := stream.tokens.IssueDriverToken(stream.driverID)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	frame, err := json.Marshal(contracts.AuthFrame{Type: contracts.WSTypeAuth, Token: token})
	if err != nil {
		return fmt.Errorf("encode auth frame: %w", err)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send auth frame: %w", err)
	}

	stream.log.Info(ctx, "ws_stream_connected", "Driver stream connected",
		map[string]any{"driver_id": stream.driverID})

	// unblock ReadMessage when ctx is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		stream.dispatch(ctx, raw)
	}
}

// dispatch routes one inbound frame by its type field. Unknown types are
// ignored so the backend can add frames without breaking older runtimes.
func (stream *Stream) dispatch(ctx context.Context, raw []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		stream.log.Debug(ctx, "ws_frame_undecodable", "Dropping undecodable stream frame",
			map[string]any{"size": len(raw)})
		return
	}

	switch head.Type {
	case contracts.WSTypeDriverLocation:
		var evt contracts.DriverStateEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			stream.log.Debug(ctx, "ws_frame_undecodable", "Dropping malformed driver state event",
				map[string]any{"error": err.Error()})
			return
		}
		state := directory.DriverState{Online: evt.Online}
		if evt.Lat != 0 || evt.Lng != 0 {
			state.Position = &geo.LatLng{Lat: evt.Lat, Lng: evt.Lng}
		}
		stream.dir.SetDriverState(state)
	default:
	}
}
