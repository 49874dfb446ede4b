//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/himanishpuri/SimilarTracks/pkg/models"
	"github.com/himanishpuri/SimilarTracks/pkg/similar"
	"github.com/himanishpuri/SimilarTracks/pkg/utils"
)

// tagList collects repeated --tag flags.
type tagList []string

func (t *tagList) String() string { return strings.Join(*t, ",") }

func (t *tagList) Set(v string) error {
	*t = append(*t, v)
	return nil
}

// splitArgs separates a leading positional argument from the flags that
// follow it, so both "search <url> --limit 5" and "search --limit 5 <url>" work.
func splitArgs(fs *flag.FlagSet, args []string) (string, error) {
	var positional string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if positional == "" {
		positional = fs.Arg(0)
	}
	return positional, nil
}

func describeError(err error) string {
	if errors.Is(err, similar.ErrCacheMiss) {
		return "No such cached search"
	}
	msg := similar.UserMessage(err)
	if msg == "Request failed" {
		return fmt.Sprintf("%s: %v", msg, err)
	}
	return msg
}

func searchContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.API.Timeout+10*time.Second)
}

func handleSearch(args []string) error {
	searchCmd := flag.NewFlagSet("search", flag.ExitOnError)
	limit := searchCmd.Int("limit", cfg.Ranking.DisplayLimit, "Number of tracks to show")
	tempo := searchCmd.Int("tempo", similar.NoTempoFilter, "Tempo tolerance in percent (0 = exact, 100 = off)")
	asJSON := searchCmd.Bool("json", false, "Print results as JSON")
	var tags tagList
	searchCmd.Var(&tags, "tag", "Favour tracks with this tag (repeatable)")

	trackURL, err := splitArgs(searchCmd, args)
	if err != nil {
		return err
	}
	if trackURL == "" {
		fmt.Println("Usage: similar search <track_url> [--limit <n>] [--tempo <pct>] [--tag <tag>]... [--json]")
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	ctx, cancel := searchContext()
	defer cancel()

	if !*asJSON {
		fmt.Println("🔍 Searching similar tracks...")
	}
	sess, err := svc.NewSession(ctx, trackURL, *limit)
	if err != nil {
		return err
	}

	view := sess.Dispatch(similar.SetTempoTolerance{Percent: *tempo})
	for _, t := range utils.NormalizeTags(tags) {
		view = sess.Dispatch(similar.ToggleTag{Tag: t})
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(searchOutput{
			SeedTrack: sess.Seed(),
			SeedTags:  sess.SeedTags(),
			View:      view,
		})
	}

	printSeed(os.Stdout, sess)
	printView(os.Stdout, view)
	return nil
}

type searchOutput struct {
	SeedTrack models.Track `json:"seed_track"`
	SeedTags  []string     `json:"seed_tags"`
	similar.View
}

func handleTags(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: similar tags <track_url>")
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	ctx, cancel := searchContext()
	defer cancel()

	sess, err := svc.NewSession(ctx, args[0], cfg.Ranking.DisplayLimit)
	if err != nil {
		return err
	}

	printSeed(os.Stdout, sess)
	printVocabulary(os.Stdout, sess)
	return nil
}

func handleInteractive(args []string) error {
	interactiveCmd := flag.NewFlagSet("interactive", flag.ExitOnError)
	limit := interactiveCmd.Int("limit", cfg.Ranking.DisplayLimit, "Number of tracks to show")

	trackURL, err := splitArgs(interactiveCmd, args)
	if err != nil {
		return err
	}
	if trackURL == "" {
		fmt.Println("Usage: similar interactive <track_url> [--limit <n>]")
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	ctx, cancel := searchContext()
	defer cancel()

	fmt.Println("🔍 Searching similar tracks...")
	sess, err := svc.NewSession(ctx, trackURL, *limit)
	if err != nil {
		return err
	}

	printSeed(os.Stdout, sess)
	printView(os.Stdout, sess.View())
	fmt.Println(`Type "help" for commands.`)
	return runREPL(sess, os.Stdin, os.Stdout)
}

func handleCache(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: similar cache list | delete <id> | purge [--older-than <duration>]")
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	switch args[0] {
	case "list", "ls":
		return cacheList(svc)
	case "delete", "rm":
		if len(args) < 2 {
			fmt.Println("Usage: similar cache delete <id>")
			os.Exit(1)
		}
		if !utils.IsUUID(args[1]) {
			return fmt.Errorf("invalid cache entry ID: %s", args[1])
		}
		if err := svc.DeleteCached(args[1]); err != nil {
			return err
		}
		fmt.Printf("✅ Deleted cached search %s\n", args[1])
		return nil
	case "purge":
		purgeCmd := flag.NewFlagSet("purge", flag.ExitOnError)
		olderThan := purgeCmd.Duration("older-than", 0, "Only remove entries older than this (0 = everything)")
		if err := purgeCmd.Parse(args[1:]); err != nil {
			return err
		}
		n, err := svc.PurgeCache(*olderThan)
		if err != nil {
			return err
		}
		fmt.Printf("🧹 Removed %s cached search(es)\n", humanize.Comma(n))
		return nil
	default:
		return fmt.Errorf("unknown cache command: %s", args[0])
	}
}

func cacheList(svc similar.Service) error {
	cached, err := svc.ListCached()
	if err != nil {
		return err
	}
	if len(cached) == 0 {
		fmt.Println("\n📭 No cached searches")
		return nil
	}

	total := 0
	fmt.Printf("\n📚 %d cached search(es):\n\n", len(cached))
	for i, c := range cached {
		artists := strings.Join(c.SeedArtists, ", ")
		fmt.Printf("%d. \"%s\" by %s\n", i+1, c.SeedName, artists)
		fmt.Printf("   ID: %s | %d candidates | cached %s\n", c.ID, c.Candidates, humanize.Time(c.CreatedAt))
		fmt.Printf("   %s\n\n", c.URL)
		total += c.Candidates
	}
	fmt.Printf("%s candidates in total\n", humanize.Comma(int64(total)))
	return nil
}
