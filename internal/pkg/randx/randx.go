/*
Package randx generates the opaque identifiers the relay hands out.
*/
package randx

import "github.com/google/uuid"

// ConnectionID returns a fresh UUID v4 string for an upgraded WebSocket connection.
func ConnectionID() string {
	return uuid.NewString()
}
