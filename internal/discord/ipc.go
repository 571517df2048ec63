package discord

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Discord IPC opcodes.
const (
	opHandshake = 0
	opFrame     = 1
	opClose     = 2
	opPing      = 3
	opPong      = 4
)

const (
	ipcVersion    = 1
	dialTimeout   = 5 * time.Second
	replyTimeout  = 5 * time.Second
	closeTimeout  = 500 * time.Millisecond
	maxFrameBytes = 64 << 10
)

// socketSubdirs are the places sandboxed Discord builds put their socket,
// relative to the runtime or temp directory.
var socketSubdirs = []string{
	"",
	"app/com.discordapp.Discord",
	".flatpak/com.discordapp.Discord/xdg-run",
	"snap.discord",
}

// socketCandidates lists every path Discord might listen on, in the order
// they are tried.
func socketCandidates() []string {
	var bases []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); dir != "" {
			bases = append(bases, dir)
		}
	}
	bases = append(bases, "/tmp")

	seen := make(map[string]bool)
	var paths []string
	for _, base := range bases {
		for _, sub := range socketSubdirs {
			for i := 0; i <= 9; i++ {
				path := filepath.Join(base, sub, fmt.Sprintf("discord-ipc-%d", i))
				if seen[path] {
					continue
				}
				seen[path] = true
				paths = append(paths, path)
			}
		}
	}
	return paths
}

func dialSocket(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: dialTimeout}
	var lastErr error
	for _, path := range socketCandidates() {
		if _, err := os.Stat(path); err != nil {
			lastErr = err
			continue
		}
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no discord socket found: %w", lastErr)
}

type ipcConn struct {
	conn net.Conn
}

// message is the envelope of every RPC command and reply.
type message struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt,omitempty"`
	Nonce string          `json:"nonce,omitempty"`
	Args  any             `json:"args,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type readyData struct {
	User struct {
		Username string `json:"username"`
	} `json:"user"`
}

// handshake identifies the application and waits for Discord's READY dispatch.
// It returns the logged in username.
func (c *ipcConn) handshake(appID string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"v":         ipcVersion,
		"client_id": appID,
	})
	if err != nil {
		return "", err
	}
	if err := c.writeFrame(opHandshake, payload); err != nil {
		return "", err
	}

	for {
		msg, err := c.readMessage()
		if err != nil {
			return "", err
		}
		if msg.Cmd == "DISPATCH" && msg.Evt == "READY" {
			var ready readyData
			_ = json.Unmarshal(msg.Data, &ready)
			return ready.User.Username, nil
		}
	}
}

// call sends a command and waits for the reply carrying the same nonce.
func (c *ipcConn) call(cmd string, args any) (*message, error) {
	req := message{Cmd: cmd, Args: args, Nonce: uuid.NewString()}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if err := c.writeFrame(opFrame, payload); err != nil {
		return nil, err
	}

	for {
		msg, err := c.readMessage()
		if err != nil {
			return nil, err
		}
		if msg.Nonce != req.Nonce {
			continue
		}
		if msg.Evt == "ERROR" {
			var rpcErr RPCError
			if err := json.Unmarshal(msg.Data, &rpcErr); err != nil {
				return nil, fmt.Errorf("unmarshal error reply: %w", err)
			}
			return nil, &rpcErr
		}
		return msg, nil
	}
}

// readMessage reads frames until a command frame arrives, answering pings
// along the way.
func (c *ipcConn) readMessage() (*message, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(replyTimeout)); err != nil {
		return nil, err
	}
	defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()

	for {
		opcode, data, err := c.readFrame()
		if err != nil {
			return nil, err
		}
		switch opcode {
		case opFrame:
			var msg message
			if err := json.Unmarshal(data, &msg); err != nil {
				return nil, fmt.Errorf("unmarshal frame: %w", err)
			}
			return &msg, nil
		case opPing:
			if err := c.writeFrame(opPong, data); err != nil {
				return nil, err
			}
		case opClose:
			var reason RPCError
			_ = json.Unmarshal(data, &reason)
			return nil, fmt.Errorf("%w: %s", ErrClosed, reason.Message)
		}
	}
}

func (c *ipcConn) close() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(closeTimeout))
	_ = c.writeFrame(opClose, []byte("{}"))
	_ = c.conn.Close()
}

// writeFrame sends a Discord IPC frame: [opcode LE u32][length LE u32][payload].
func (c *ipcConn) writeFrame(opcode uint32, payload []byte) error {
	frame := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(frame[0:4], opcode)
	binary.LittleEndian.PutUint32(frame[4:8], uint32(len(payload)))
	copy(frame[8:], payload)
	_, err := c.conn.Write(frame)
	return err
}

// readFrame reads a Discord IPC frame, allocating a buffer of the exact
// size declared in the header.
func (c *ipcConn) readFrame() (uint32, []byte, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return 0, nil, err
	}
	opcode := binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxFrameBytes {
		return 0, nil, fmt.Errorf("frame of %d bytes exceeds limit: %w", length, io.ErrUnexpectedEOF)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return 0, nil, err
	}
	return opcode, payload, nil
}
