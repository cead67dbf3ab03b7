// Command requestswatch renders the downloads and requests page in a
// terminal against a running backend.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/client/requestspage"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
)

func main() {
	var (
		configPath = flag.String("config", "cache/settings.json", "Path to backend settings.json")
		server     = flag.String("server", "", "Backend URL (defaults to the configured host and port)")
		token      = flag.String("token", "", "Access token (defaults to server.accessToken)")
		interval   = flag.Duration("interval", 0, "Poll interval (defaults to downloads.pollIntervalSeconds)")
		filterName = flag.String("filter", "all", "Initial requests tab")
	)
	flag.Parse()

	mgr := config.NewManager(*configPath)
	settings, err := mgr.Load()
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	if *server == "" {
		host := settings.Server.Host
		if host == "" || host == "0.0.0.0" {
			host = "127.0.0.1"
		}
		*server = fmt.Sprintf("http://%s:%d", host, settings.Server.Port)
	}
	if *token == "" {
		*token = settings.Server.AccessToken
	}
	if *interval <= 0 {
		*interval = settings.Downloads.PollInterval()
	}
	initial, ok := requestspage.ParseFilter(*filterName)
	if !ok {
		log.Fatalf("unknown filter %q", *filterName)
	}

	api, err := requestspage.NewHTTPClient(*server, *token, 30*time.Second)
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frames := requestspage.NewTickerFrames(100 * time.Millisecond)
	defer frames.Close()

	page := requestspage.NewPage(
		requestspage.NewCoordinator(api, nil),
		textRenderer{w: os.Stdout},
		frames,
		requestspage.WithPollInterval(*interval),
		requestspage.WithRequestsEnabled(settings.Jellyseerr.Enabled),
	)
	defer page.Close()

	page.SelectFilter(ctx, initial)
	page.Show(ctx)

	commands := make(chan string)
	go readCommands(os.Stdin, commands)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-commands:
			if !ok || cmd == "q" {
				return
			}
			handleCommand(ctx, page, cmd)
		}
	}
}

func readCommands(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- strings.ToLower(strings.TrimSpace(scanner.Text()))
	}
}

func handleCommand(ctx context.Context, page *requestspage.Page, cmd string) {
	switch cmd {
	case "":
	case "n":
		if !page.NextPage(ctx) {
			fmt.Println("already on the last page")
		}
	case "p":
		if !page.PrevPage(ctx) {
			fmt.Println("already on the first page")
		}
	case "r":
		page.Refresh(ctx)
	default:
		f, ok := requestspage.ParseFilter(cmd)
		if !ok {
			fmt.Println("commands: all pending processing coming-soon available n p r q")
			return
		}
		page.SelectFilter(ctx, f)
	}
}

type textRenderer struct {
	w io.Writer
}

func (r textRenderer) Render(v requestspage.View) {
	var b strings.Builder
	b.WriteString("\n== Active Downloads ==\n")
	if v.DownloadsMessage != "" {
		b.WriteString("  " + v.DownloadsMessage + "\n")
	}
	for _, d := range v.Downloads {
		fmt.Fprintf(&b, "  [%s] %s", d.SourceLabel, d.Title)
		if d.Subtitle != "" {
			fmt.Fprintf(&b, " - %s", d.Subtitle)
		}
		if d.EpisodeRange != "" {
			fmt.Fprintf(&b, " %s", d.EpisodeRange)
		}
		fmt.Fprintf(&b, "  %s %v%%", d.Status, d.Progress)
		if d.ETA != "" {
			fmt.Fprintf(&b, "  ETA: %s", d.ETA)
		}
		if d.Stats != "" {
			fmt.Fprintf(&b, "  %s", d.Stats)
		}
		b.WriteString("\n")
	}

	if v.RequestsEnabled {
		b.WriteString("\n== Requests ==\n  ")
		for _, tab := range v.Tabs {
			if tab.Active {
				fmt.Fprintf(&b, "[%s] ", tab.Label)
			} else {
				fmt.Fprintf(&b, " %s  ", tab.Label)
			}
		}
		b.WriteString("\n")
		if v.RequestsMessage != "" {
			b.WriteString("  " + v.RequestsMessage + "\n")
		}
		for _, req := range v.Requests {
			fmt.Fprintf(&b, "  %s", req.Title)
			if req.Year > 0 {
				fmt.Fprintf(&b, " (%d)", req.Year)
			}
			fmt.Fprintf(&b, "  %s", req.StatusLabel)
			if req.ReleaseBadge != "" {
				fmt.Fprintf(&b, "  releases %s", req.ReleaseBadge)
			}
			if req.RequestedBy != "" {
				fmt.Fprintf(&b, "  by %s", req.RequestedBy)
			}
			if req.Requested != "" {
				fmt.Fprintf(&b, " %s", req.Requested)
			}
			b.WriteString("\n")
		}
		if p := v.Pagination; p != nil {
			fmt.Fprintf(&b, "  %s", p.Label)
			if p.PrevEnabled {
				b.WriteString("  (p) prev")
			}
			if p.NextEnabled {
				b.WriteString("  (n) next")
			}
			b.WriteString("\n")
		}
	}
	io.WriteString(r.w, b.String())
}
