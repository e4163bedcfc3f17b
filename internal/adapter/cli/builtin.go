package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"crontab/internal/adapter/telegram"
	"crontab/internal/console"
	"crontab/internal/platform/httpclient"
)

// Deps are the services the built-in commands need. Nil services disable the
// commands that use them (they fail when invoked).
type Deps struct {
	Logger   *slog.Logger
	Telegram telegram.Sender
	// ChatID is the default chat for telegram:send
	ChatID int64
}

// AddBuiltins registers echo, http:ping and telegram:send on root.
func AddBuiltins(root *cobra.Command, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	root.AddCommand(
		newEchoCommand(),
		newHTTPPingCommand(deps),
		newTelegramSendCommand(deps),
	)
}

func newEchoCommand() *cobra.Command {
	var (
		texts []string
		upper bool
	)
	cmd := &cobra.Command{
		Use:   "echo [words...]",
		Short: "Print words and --text values",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := OutputFrom(cmd)
			words := append(append([]string{}, args...), texts...)
			line := strings.Join(words, " ")
			if upper {
				line = strings.ToUpper(line)
			}
			out.Println(console.VerbosityNormal, line)
			out.Printf(console.VerbosityVerbose, "echo: %d words", len(words))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&texts, "text", nil, "text to print, may repeat")
	cmd.Flags().BoolVar(&upper, "upper", false, "print in upper case")
	return cmd
}

func newHTTPPingCommand(deps Deps) *cobra.Command {
	var (
		url     string
		expect  int
		retries int
		timeout time.Duration
		headers map[string]string
	)
	cmd := &cobra.Command{
		Use:   "http:ping",
		Short: "GET a URL and check the response status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := OutputFrom(cmd)
			client := httpclient.New(
				httpclient.WithLogger(deps.Logger),
				httpclient.WithTimeout(timeout),
				httpclient.WithRetries(retries, 500*time.Millisecond),
				httpclient.WithHeaders(headers),
			)

			start := time.Now()
			resp, err := client.Get(cmd.Context(), url)
			if err != nil {
				return fmt.Errorf("ping %s: %w", url, err)
			}
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			_ = resp.Body.Close()

			out.Printf(console.VerbosityNormal, "GET %s -> %d in %s", url, resp.StatusCode, time.Since(start).Round(time.Millisecond))
			if resp.StatusCode != expect {
				out.Printf(console.VerbosityNormal, "expected status %d", expect)
				return console.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "URL to request")
	cmd.Flags().IntVar(&expect, "expect-status", 200, "status that counts as success")
	cmd.Flags().IntVar(&retries, "retries", 0, "extra attempts on network errors and 5xx")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "timeout per attempt")
	cmd.Flags().StringToStringVar(&headers, "header", nil, "request header as Name=value, may repeat")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newTelegramSendCommand(deps Deps) *cobra.Command {
	var (
		chatID int64
		text   string
	)
	cmd := &cobra.Command{
		Use:   "telegram:send",
		Short: "Send a message to a Telegram chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.Telegram == nil {
				return errors.New("telegram is not configured")
			}
			if chatID == 0 {
				chatID = deps.ChatID
			}
			if chatID == 0 {
				return errors.New("--chat-id is required")
			}
			msg, err := deps.Telegram.SendMessage(cmd.Context(), &bot.SendMessageParams{ChatID: chatID, Text: text})
			if err != nil {
				return fmt.Errorf("send message: %w", err)
			}
			if msg != nil {
				OutputFrom(cmd).Printf(console.VerbosityVerbose, "sent message %d to %d", msg.ID, chatID)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat-id", 0, "chat to send to (default TELEGRAM_ALERT_CHAT_ID)")
	cmd.Flags().StringVar(&text, "text", "", "message text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
