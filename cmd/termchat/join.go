package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/termchat-dev/termchat/pkg/client"
	"github.com/termchat-dev/termchat/pkg/protocol"
)

func joinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a room as a chat participant",
		Long: `Join a room as a chat participant.

Lines typed on stdin are sent as chat; incoming chat and presence are
printed as they arrive. With --video the client also broadcasts an
animated ASCII test pattern at the configured size and rate.`,
		RunE: runJoin,
	}

	cmd.Flags().String("url", "ws://127.0.0.1:8080/ws", "Relay WebSocket URL")
	cmd.Flags().String("username", defaultUsername(), "Display name")
	cmd.Flags().Bool("video", false, "Broadcast an animated test pattern")
	cmd.Flags().Uint16("video-width", 40, "Video grid width in cells")
	cmd.Flags().Uint16("video-height", 30, "Video grid height in cells")
	cmd.Flags().Int("fps", 15, "Video frame rate")

	viper.BindPFlag("join.url", cmd.Flags().Lookup("url"))
	viper.BindPFlag("join.username", cmd.Flags().Lookup("username"))
	viper.BindPFlag("join.video", cmd.Flags().Lookup("video"))
	viper.BindPFlag("join.video_width", cmd.Flags().Lookup("video-width"))
	viper.BindPFlag("join.video_height", cmd.Flags().Lookup("video-height"))
	viper.BindPFlag("join.fps", cmd.Flags().Lookup("fps"))

	return cmd
}

func defaultUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "anonymous"
}

func runJoin(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, client.Config{
		URL:      viper.GetString("join.url"),
		Username: viper.GetString("join.username"),
	})
	if err != nil {
		return err
	}
	defer c.Close()

	if viper.GetBool("join.video") {
		c.StartVideo(
			uint16(viper.GetUint("join.video_width")),
			uint16(viper.GetUint("join.video_height")),
			viper.GetInt("join.fps"),
		)
	}

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" {
				c.Close()
				return
			}
			if err := c.SendChat(line); err != nil {
				return
			}
		}
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return nil
		case m, ok := <-c.Recv():
			if !ok {
				return nil
			}
			printMessage(m)
		}
	}
}

func printMessage(m protocol.Message) {
	switch v := m.(type) {
	case *protocol.ServerInfo:
		fmt.Printf("* connected to %s\n", v.RoomName)
		if v.NgrokURL != nil {
			fmt.Printf("* public URL: %s\n", *v.NgrokURL)
		}
	case *protocol.Chat:
		stamp := time.Unix(v.Timestamp, 0).Format("15:04:05")
		fmt.Printf("[%s] %s: %s\n", stamp, v.Username, v.Text)
	case *protocol.Join:
		fmt.Printf("* %s joined\n", v.Username)
	case *protocol.Leave:
		fmt.Printf("* %s left\n", v.ID)
	case *protocol.UserList:
		names := make([]string, len(v.Users))
		for i, u := range v.Users {
			names[i] = u.Username
		}
		fmt.Printf("* in the room: %s\n", strings.Join(names, ", "))
	case *protocol.Error:
		fmt.Printf("! server error: %s\n", v.Message)
	case *protocol.VideoFrame:
		// Rendering is out of scope for the line-mode client.
	}
}
