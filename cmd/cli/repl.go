//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/himanishpuri/SimilarTracks/pkg/similar"
	"github.com/himanishpuri/SimilarTracks/pkg/utils"
)

type action int

const (
	actionNone action = iota
	actionCommand
	actionShow
	actionTags
	actionHelp
	actionQuit
)

// parseLine turns one REPL line into an action and, for filter changes, the
// command to dispatch. "tag #3" refers to the third vocabulary entry.
func parseLine(line string, vocab []similar.TagCount) (action, similar.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return actionNone, nil, nil
	}
	verb := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch verb {
	case "tag", "t":
		if rest == "" {
			return actionNone, nil, fmt.Errorf("usage: tag <name> | tag #<n>")
		}
		if idx, ok := strings.CutPrefix(rest, "#"); ok {
			n, err := strconv.Atoi(idx)
			if err != nil || n < 1 || n > len(vocab) {
				return actionNone, nil, fmt.Errorf("no tag #%s (have %d)", idx, len(vocab))
			}
			return actionCommand, similar.ToggleTag{Tag: vocab[n-1].Tag}, nil
		}
		tag := utils.NormalizeTag(rest)
		return actionCommand, similar.ToggleTag{Tag: tag}, nil
	case "tempo":
		n, err := intArg(rest)
		if err != nil {
			return actionNone, nil, fmt.Errorf("usage: tempo <0-100>")
		}
		return actionCommand, similar.SetTempoTolerance{Percent: n}, nil
	case "limit":
		n, err := intArg(rest)
		if err != nil || n < 1 {
			return actionNone, nil, fmt.Errorf("usage: limit <n> (n >= 1)")
		}
		return actionCommand, similar.SetDisplayLimit{Limit: n}, nil
	case "clear":
		return actionCommand, similar.ClearTags{}, nil
	case "show", "s":
		return actionShow, nil, nil
	case "tags":
		return actionTags, nil, nil
	case "help", "?":
		return actionHelp, nil, nil
	case "quit", "exit", "q":
		return actionQuit, nil, nil
	default:
		return actionNone, nil, fmt.Errorf("unknown command %q", verb)
	}
}

func intArg(s string) (int, error) {
	return strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

// runREPL reads commands from in until quit or EOF, re-rendering the view
// after every filter change.
func runREPL(sess *similar.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		act, cmd, err := parseLine(scanner.Text(), sess.Vocabulary())
		if err != nil {
			fmt.Fprintf(out, "⚠️  %v\n", err)
			continue
		}

		switch act {
		case actionCommand:
			view := sess.Dispatch(cmd)
			fmt.Fprintf(out, "✔ %s\n", cmd)
			printView(out, view)
		case actionShow:
			printView(out, sess.View())
		case actionTags:
			printVocabulary(out, sess)
		case actionHelp:
			printREPLHelp(out)
		case actionQuit:
			return nil
		}
	}
}

func printREPLHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  tag <name> | tag #<n>   Toggle a tag filter")
	fmt.Fprintln(out, "  tempo <0-100>           Tempo tolerance in percent (0 = exact, 100 = off)")
	fmt.Fprintln(out, "  limit <n>               Number of tracks to show")
	fmt.Fprintln(out, "  clear                   Deselect all tags")
	fmt.Fprintln(out, "  tags                    List available tags")
	fmt.Fprintln(out, "  show                    Show the current results")
	fmt.Fprintln(out, "  quit                    Leave")
}
