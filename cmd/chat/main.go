// Command chat is a terminal client for the chatwire server. It renders the
// conversation with optimistic local echo: sent messages appear immediately
// as pending and settle once the server's broadcast comes back.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/nightingale-hq/chatwire/internal/client"
)

type settings struct {
	UserID     string `env:"CHAT_USER_ID,required=true"`
	UserName   string `env:"CHAT_USER_NAME"`
	Department string `env:"CHAT_DEPARTMENT"`
	Bio        string `env:"CHAT_BIO"`
	LogLevel   string `env:"LOG_LEVEL,default=warn"`
	History    int    `env:"CHAT_HISTORY,default=20"`
}

var (
	pendingStyle = color.New(color.FgGray)
	remoteStyle  = color.New(color.FgCyan)
	noticeStyle  = color.New(color.FgYellow)
	errorStyle   = color.New(color.FgRed)
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var st settings
	if _, err := env.UnmarshalFromEnviron(&st); err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	var cfg client.Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return fmt.Errorf("reading connection settings: %w", err)
	}

	log := logs.GetLoggerFromString(st.LogLevel)

	session, err := client.NewSession(st.UserID, st.UserName, st.Department, st.Bio)
	if err != nil {
		return err
	}

	chat, err := client.New(cfg, session, consoleRenderer{}, log)
	if err != nil {
		return err
	}
	defer chat.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backfill(ctx, chat, st.History)

	go watch(chat, chat.Events(64))

	if err := chat.Connect(ctx); err != nil {
		return err
	}

	fmt.Println(noticeStyle.Render(
		fmt.Sprintf("joining as %s. /who lists who is online, /quit leaves.", session.UserID)))
	return inputLoop(ctx, chat)
}

// backfill prints the tail of the conversation that happened before we
// joined.
func backfill(ctx context.Context, chat *client.Client, limit int) {
	fetchCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	msgs, err := chat.Recent(fetchCtx, limit)
	if err != nil {
		fmt.Println(noticeStyle.Render("history unavailable: " + err.Error()))
		return
	}
	for _, msg := range msgs {
		fmt.Println(remoteStyle.Render(line(msg)))
	}
}

// watch prints connection lifecycle and presence notices. Chat messages are
// rendered by the consoleRenderer, so they never surface here.
func watch(chat *client.Client, events <-chan client.Event) {
	for evt := range events {
		switch e := evt.(type) {
		case client.Connected:
			fmt.Println(noticeStyle.Render("connected to " + e.URL))
		case client.Disconnected:
			if e.Deliberate {
				fmt.Println(noticeStyle.Render("disconnected"))
			} else {
				fmt.Println(noticeStyle.Render(fmt.Sprintf("connection lost (%d %s)", e.Code, e.Reason)))
			}
		case client.Reconnecting:
			fmt.Println(noticeStyle.Render(
				fmt.Sprintf("reconnecting in %s (attempt %d)", e.Delay, e.Attempt)))
		case client.ReconnectFailed:
			fmt.Println(errorStyle.Render(fmt.Sprintf("gave up after %d attempts", e.Attempts)))
		case client.RateLimited:
			fmt.Println(errorStyle.Render("rate limited: " + e.Notice))
		case client.LinkError:
			fmt.Println(errorStyle.Render("connection error: " + e.Err.Error()))
		case client.UserJoined:
			fmt.Println(noticeStyle.Render(
				fmt.Sprintf("%s (%d online)", e.Frame.Text, chat.OnlineCount())))
		case client.UserLeft:
			fmt.Println(noticeStyle.Render(
				fmt.Sprintf("%s (%d online)", e.Frame.Text, chat.OnlineCount())))
		}
	}
}

// inputLoop reads stdin lines and sends them until EOF, /quit or ctx
// cancellation.
func inputLoop(ctx context.Context, chat *client.Client) error {
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
		case <-ctx.Done():
			return chat.Disconnect()
		case text, ok := <-lines:
			if !ok {
				return chat.Disconnect()
			}
			switch {
			case text == "/quit":
				return chat.Disconnect()
			case text == "/who":
				fmt.Println(noticeStyle.Render(fmt.Sprintf("%d online", chat.OnlineCount())))
			case strings.TrimSpace(text) == "":
			default:
				if _, err := chat.SendText(text); err != nil {
					fmt.Println(errorStyle.Render("send failed: " + err.Error()))
				}
			}
		}
	}
}

// consoleRenderer prints the conversation to stdout. Pending lines render
// dimmed and are reprinted normally once confirmed; the terminal keeps
// both rather than editing lines in place.
type consoleRenderer struct{}

func line(msg client.Message) string {
	return fmt.Sprintf("[%s] %s: %s",
		msg.Timestamp.Local().Format("15:04:05"), msg.SenderName, msg.Text)
}

func (consoleRenderer) RenderPending(msg client.Message) {
	fmt.Println(pendingStyle.Render(line(msg) + " (sending)"))
}

func (consoleRenderer) ConfirmRender(_ string, msg client.Message) {
	fmt.Println(line(msg))
}

func (consoleRenderer) RenderRemote(msg client.Message) {
	fmt.Println(remoteStyle.Render(line(msg)))
}

func (consoleRenderer) MarkFailed(tempID string) {
	fmt.Println(errorStyle.Render("message could not be sent (" + tempID + ")"))
}
