package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	connectHost  string
	connectToken string
	connectRoom  string
	connectKind  string
)

// handshake is the first frame sent after the upgrade.
type handshake struct {
	Token    string `json:"token"`
	RoomID   string `json:"room_id"`
	RoomKind string `json:"room_kind,omitempty"`
}

// serverFrame covers every payload shape the server sends; only the fields
// of the matching type are set.
type serverFrame struct {
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Username  string          `json:"username"`
	Content   string          `json:"content"`
	Timestamp string          `json:"timestamp"`
}

// historyEntry mirrors one element of the history frame's data array.
type historyEntry struct {
	Content string `json:"content"`
	User    struct {
		Username string `json:"username"`
	} `json:"user"`
	Timestamp string `json:"timestamp"`
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Join a chat room and exchange messages from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		host := connectHost
		if !strings.Contains(host, ":") {
			host += ":8080"
		}
		u := url.URL{Scheme: "ws", Host: host, Path: "/ws/chat"}

		conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
		if err != nil {
			return fmt.Errorf("dial %s: %w", u.String(), err)
		}
		defer conn.Close()

		hello, err := json.Marshal(handshake{
			Token:    connectToken,
			RoomID:   connectRoom,
			RoomKind: connectKind,
		})
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			return fmt.Errorf("send handshake: %w", err)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					fmt.Fprintf(os.Stderr, "connection closed: %v\n", err)
					return
				}
				printFrame(data)
			}
		}()

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)

		lines := make(chan string)
		go func() {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
			close(lines)
		}()

		for {
			select {
			case <-done:
				return nil
			case <-interrupt:
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				<-done
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if line == "" {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
					return fmt.Errorf("send message: %w", err)
				}
			}
		}
	},
}

// printFrame renders one server frame for the terminal.
func printFrame(data []byte) {
	var frame serverFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		fmt.Println(string(data))
		return
	}

	switch {
	case frame.Error != "":
		fmt.Printf("! %s\n", frame.Error)
	case frame.Type == "connected":
		fmt.Printf("* connected (%s)\n", frame.Status)
	case frame.Type == "history":
		var entries []historyEntry
		if err := json.Unmarshal(frame.Data, &entries); err != nil {
			fmt.Println(string(data))
			return
		}
		for _, e := range entries {
			fmt.Printf("[%s] %s: %s\n", e.Timestamp, e.User.Username, e.Content)
		}
	case frame.Username != "":
		fmt.Printf("[%s] %s: %s\n", frame.Timestamp, frame.Username, frame.Content)
	default:
		fmt.Println(string(data))
	}
}

func init() {
	connectCmd.Flags().StringVar(&connectHost, "host", "localhost:8080", "server host:port")
	connectCmd.Flags().StringVar(&connectToken, "token", "", "bearer token from /api/auth/login")
	connectCmd.Flags().StringVar(&connectRoom, "room", "", "room record id, e.g. organization:abc")
	connectCmd.Flags().StringVar(&connectKind, "kind", "org", "room kind: org or group")
	_ = connectCmd.MarkFlagRequired("token")
	_ = connectCmd.MarkFlagRequired("room")
	rootCmd.AddCommand(connectCmd)
}
