package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 10 * time.Second
	readDeadline  = 5 * time.Minute
)

// WriteTyped marshals v and sends it as a single JSON frame, with a
// bounded write deadline so a stalled client cannot wedge the relay.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse frame.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON decodes the next frame into v. The read deadline doubles as an
// idle timeout: a station that sends nothing for its duration is dropped.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	return conn.ReadJSON(v)
}
