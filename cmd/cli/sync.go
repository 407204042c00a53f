package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newSyncCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{Use: "sync", Short: "Follow live selection events"}

	var (
		addr      string
		pretty    bool
		ws        bool
		reconnect bool
	)
	listen := &cobra.Command{
		Use:   "listen",
		Short: "Print events from the TCP feed or the WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws {
				u, err := websocketURL(opts.baseURL, "/ws")
				if err != nil {
					return err
				}
				return runWebSocket(cmd.Context(), u, cmd.OutOrStdout(), cmd.ErrOrStderr())
			}
			for {
				err := runSyncTCP(cmd.Context(), addr, pretty, cmd.OutOrStdout(), cmd.ErrOrStderr())
				if !reconnect || cmd.Context().Err() != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "[sync] disconnected: %v\n", err)
				select {
				case <-cmd.Context().Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}
	listen.Flags().StringVar(&addr, "addr", "localhost:7070", "TCP feed address")
	listen.Flags().BoolVar(&pretty, "pretty", false, "indent JSON events")
	listen.Flags().BoolVar(&ws, "ws", false, "use the WebSocket endpoint instead of TCP")
	listen.Flags().BoolVar(&reconnect, "reconnect", false, "redial the TCP feed after a disconnect")

	cmd.AddCommand(listen)
	return cmd
}

func runSyncTCP(ctx context.Context, addr string, pretty bool, out, status io.Writer) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	fmt.Fprintf(status, "[sync] connected to %s\n", addr)
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		printLine(out, reader.Bytes(), pretty)
	}
	if err := reader.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	if ctx.Err() == nil {
		return io.EOF
	}
	return nil
}

func printLine(out io.Writer, line []byte, pretty bool) {
	if !pretty {
		fmt.Fprintln(out, string(line))
		return
	}
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		fmt.Fprintln(out, string(line))
		return
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Fprintln(out, string(b))
}

func runWebSocket(ctx context.Context, wsURL string, out, status io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	fmt.Fprintf(status, "[sync] connected to %s\n", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintln(out, string(msg))
	}
}
