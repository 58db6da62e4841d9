// Command ytlive-m3u: keep an M3U playlist of YouTube live channels playable.
//
//	refresh  Resolve every channel from the channel file and rewrite the playlist
//	patch    Resolve one channel (or -all) and patch its URL line in the existing playlist
//	resolve  Print the playable URL yt-dlp resolves for a source URL
//	list     Print the entries of a playlist
//	watch    Keep the playlist fresh on a cron schedule (patch or rewrite mode)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/snapetech/ytlive-m3u/internal/catalog"
	"github.com/snapetech/ytlive-m3u/internal/config"
	"github.com/snapetech/ytlive-m3u/internal/health"
	"github.com/snapetech/ytlive-m3u/internal/httpclient"
	"github.com/snapetech/ytlive-m3u/internal/logger"
	"github.com/snapetech/ytlive-m3u/internal/playlist"
	"github.com/snapetech/ytlive-m3u/internal/updater"
)

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <refresh|patch|resolve|list|watch> [flags]\n", os.Args[0])
	fmt.Fprintf(w, "  refresh  Resolve every channel from the channel file and rewrite the playlist\n")
	fmt.Fprintf(w, "  patch    Resolve one channel and patch its URL line in the existing playlist (-all for every channel)\n")
	fmt.Fprintf(w, "  resolve  Print the playable URL for a source URL\n")
	fmt.Fprintf(w, "  list     Print the entries of a playlist\n")
	fmt.Fprintf(w, "  watch    Keep the playlist fresh on a cron schedule\n")
}

func main() {
	_ = config.LoadEnvFile(".env")
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}
	cfg := config.Load()
	log := logger.New(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON, SafeLogs: cfg.SafeLogs})
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		log.Errorf("%s: %v", os.Args[1], err)
		stop()
		os.Exit(1)
	}
}

// run executes one subcommand. Flags override the matching cfg fields.
func run(ctx context.Context, cfg *config.Config, log logger.Logger, cmd string, args []string, stdout io.Writer) error {
	switch cmd {
	case "refresh":
		fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
		playlistPath := fs.String("playlist", cfg.PlaylistPath, "Playlist to write (default: YTLIVE_PLAYLIST)")
		channels := fs.String("channels", cfg.ChannelsPath, "Channel file, .json or .yaml (default: YTLIVE_CHANNELS)")
		skipFailed := fs.Bool("skip-failed", cfg.SkipFailed, "Leave out channels that fail to resolve instead of aborting")
		verify := fs.Bool("verify", cfg.VerifyManifest, "Fetch and decode each resolved HLS manifest before writing")
		if err := fs.Parse(args); err != nil {
			return err
		}
		cfg.PlaylistPath, cfg.ChannelsPath, cfg.SkipFailed, cfg.VerifyManifest = *playlistPath, *channels, *skipFailed, *verify
		_, err := updater.New(cfg, log).Refresh(ctx)
		return err

	case "patch":
		fs := flag.NewFlagSet("patch", flag.ContinueOnError)
		playlistPath := fs.String("playlist", cfg.PlaylistPath, "Playlist to patch (default: YTLIVE_PLAYLIST)")
		channels := fs.String("channels", cfg.ChannelsPath, "Channel file used when -source is empty or with -all")
		id := fs.String("id", "", "tvg-id of the entry to patch")
		name := fs.String("name", "", "Display name of the entry to patch")
		source := fs.String("source", "", "Source (watch page) URL; looked up in the channel file by -id/-name when empty")
		all := fs.Bool("all", false, "Patch every channel in the channel file")
		verify := fs.Bool("verify", cfg.VerifyManifest, "Fetch and decode the resolved HLS manifest before patching")
		if err := fs.Parse(args); err != nil {
			return err
		}
		cfg.PlaylistPath, cfg.ChannelsPath, cfg.VerifyManifest = *playlistPath, *channels, *verify
		u := updater.New(cfg, log)
		if *all {
			return u.PatchAll(ctx)
		}
		ch, err := patchTarget(cfg.ChannelsPath, *id, *name, *source)
		if err != nil {
			return err
		}
		_, err = u.PatchOne(ctx, ch)
		return err

	case "resolve":
		fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
		verify := fs.Bool("verify", false, "Also fetch and decode the manifest and report what it is")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return errors.New("usage: resolve [-verify] <source-url>")
		}
		u := updater.New(cfg, log)
		streamURL, err := u.Resolver.Resolve(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, streamURL)
		if *verify {
			m, err := health.CheckManifest(ctx, httpclient.WithTimeout(cfg.VerifyTimeout), streamURL)
			if err != nil {
				return fmt.Errorf("manifest check: %w", err)
			}
			log.Logf("manifest ok: %s", m)
		}
		return nil

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		playlistPath := fs.String("playlist", cfg.PlaylistPath, "Playlist to read (default: YTLIVE_PLAYLIST)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		entries, err := playlist.List(*playlistPath)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TVG-ID\tTITLE\tGROUP\tURL")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Title, e.Group, e.URL)
		}
		return tw.Flush()

	case "watch":
		fs := flag.NewFlagSet("watch", flag.ContinueOnError)
		schedule := fs.String("cron", cfg.WatchCron, "Cron schedule, 5 fields or @every/@hourly (default: YTLIVE_WATCH_CRON)")
		rewrite := fs.Bool("rewrite", cfg.WatchRewrite, "Rewrite the whole playlist each run instead of patching")
		onStart := fs.Bool("on-start", cfg.WatchOnStart, "Run once immediately")
		if err := fs.Parse(args); err != nil {
			return err
		}
		cfg.WatchRewrite, cfg.WatchOnStart = *rewrite, *onStart
		return updater.New(cfg, log).Watch(ctx, *schedule)

	case "-h", "--help", "help":
		usage(stdout)
		return nil
	}
	usage(os.Stderr)
	return fmt.Errorf("unknown command %q", cmd)
}

// patchTarget builds the channel to patch. With a source URL the flags are used as given;
// without one the channel file is searched by id, then name.
func patchTarget(channelsPath, id, name, source string) (catalog.Channel, error) {
	if id == "" && name == "" {
		return catalog.Channel{}, errors.New("patch: need -id or -name (or -all)")
	}
	if source != "" {
		return catalog.Channel{ID: id, Title: name, Source: source}, nil
	}
	cat, err := catalog.Load(channelsPath)
	if err != nil {
		return catalog.Channel{}, err
	}
	key := id
	if key == "" {
		key = name
	}
	ch, err := cat.Find(key)
	if err != nil {
		return catalog.Channel{}, err
	}
	if name != "" {
		ch.Title = name
	}
	return ch, nil
}
