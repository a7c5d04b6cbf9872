// Package ipc is the daemon's control plane: a unix socket speaking one
// JSON request/response pair per connection.
package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

const SocketPath = "/tmp/steve.sock"

const (
	CmdStatus = "status"
	CmdStop   = "stop"
)

type ControlMessage struct {
	Cmd string `json:"cmd"`
}

type Response struct {
	OK          bool    `json:"ok"`
	State       string  `json:"state,omitempty"`
	DailyCalls  int     `json:"daily_calls,omitempty"`
	HourlyCalls int     `json:"hourly_calls,omitempty"`
	SessionCost float64 `json:"session_cost,omitempty"`
	Detail      string  `json:"detail,omitempty"`
}

// StartServer listens in the background and invokes handler per message.
func StartServer(handler func(ControlMessage) Response) error {
	os.Remove(SocketPath)

	ln, err := net.Listen("unix", SocketPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return nil
}

func handleConn(conn net.Conn, handler func(ControlMessage) Response) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		return
	}
	resp := handler(msg)
	json.NewEncoder(conn).Encode(resp)
}

// SendCommand connects, sends one command, and waits for the reply.
func SendCommand(cmd string) (Response, error) {
	conn, err := net.Dial("unix", SocketPath)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(ControlMessage{Cmd: cmd}); err != nil {
		return Response{}, err
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
