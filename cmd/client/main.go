// Interactive console client for GoRelay.
//
// Lines typed at the prompt are sent verbatim as frames, so envelopes
// are written as raw JSON, e.g.:
//
//	{"type":"auth","username":"John"}
//	{"type":"message","message":"hi","to":2,"time":1000}
//
// Type "exit" to quit.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/gorilla/websocket"

	"github.com/NicolasHaas/gorelay/pkg/logging"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:8888/chatsocket", "server WebSocket URL")
	flag.Parse()

	// Default to "info"; override with GORELAY_LOG_LEVEL env var.
	level := "info"
	if v := os.Getenv("GORELAY_LOG_LEVEL"); v != "" {
		level = v
	}
	_ = logging.Setup(logging.Options{Level: level, Output: os.Stderr})

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to connect to server:", err)
		os.Exit(1)
	}

	// Receiver: print every frame until the server closes or echoes the
	// "exit" sentinel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(frame) == "exit" {
				return
			}
			fmt.Printf("\n%s\n> ", frame)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		select {
		case <-done:
			fmt.Println("Connection closed by server")
			_ = conn.Close()
			return
		default:
		}

		if line == "" {
			fmt.Println(`Use "exit" to close the client`)
			continue
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			fmt.Fprintln(os.Stderr, "write failed:", err)
			break
		}

		if line == "exit" {
			<-done
			break
		}
	}
	_ = conn.Close()
}
