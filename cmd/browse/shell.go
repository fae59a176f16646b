package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/briangreenhill/marquee/tmdb"
)

const shellHelp = `commands:
  trending <movie|tv>
  list <movie|tv> <category>
  sliders <movie|tv>
  details <movie|tv> <id>
  search <person|movie|tv> <query...>
  refresh      refetch the last list, trending or search view
  clear        drop every cached response
  stats        show how many responses are cached
  quit
`

var errQuit = errors.New("quit")

// session keeps its views across commands, so a repeated command is served
// from cache and a new one supersedes whatever the view was loading.
type session struct {
	b       *browser
	out     io.Writer
	main    *view
	details *detailViews
}

func newShellCommand(opts *browserOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Browse interactively with a shared response cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s := &session{
				b:       b,
				out:     cmd.OutOrStdout(),
				main:    b.newView(ctx, "main"),
				details: b.newDetailViews(ctx),
			}
			defer s.main.close()
			defer s.details.close()
			return s.run(ctx, cmd.InOrStdin())
		},
	}
}

func (s *session) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for sc.Scan() {
		err := s.exec(ctx, strings.Fields(sc.Text()))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(s.out, "> ")
	}
	return sc.Err()
}

func (s *session) exec(ctx context.Context, f []string) error {
	if len(f) == 0 {
		return nil
	}
	switch f[0] {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		_, err := io.WriteString(s.out, shellHelp)
		return err
	case "stats":
		_, err := fmt.Fprintf(s.out, "%d cached responses\n", s.b.store.Len())
		return err
	case "clear":
		s.main.c.ClearCache()
		_, err := fmt.Fprintln(s.out, "cache cleared")
		return err
	case "refresh":
		key, err := s.main.c.Key()
		if err != nil {
			return err
		}
		s.main.c.ClearCacheEntry(key)
		s.main.c.Refresh()
		st, err := s.main.c.Wait(ctx)
		if err != nil {
			return err
		}
		if st.Err != nil {
			return st.Err
		}
		_, err = fmt.Fprintln(s.out, "refreshed")
		return err
	case "trending", "sliders", "search", "list", "details":
	default:
		return fmt.Errorf("unknown command %q (try help)", f[0])
	}

	if len(f) < 2 {
		return fmt.Errorf("%s: missing arguments (try help)", f[0])
	}
	switch f[0] {
	case "trending":
		kind, err := tmdb.ParseKind(f[1])
		if err != nil {
			return err
		}
		return s.b.showTrending(ctx, s.out, s.main, kind)
	case "sliders":
		kind, err := tmdb.ParseKind(f[1])
		if err != nil {
			return err
		}
		return s.b.showSliders(ctx, s.out, kind)
	case "search":
		target, err := tmdb.ParseSearchTarget(f[1])
		if err != nil {
			return err
		}
		if len(f) < 3 {
			return fmt.Errorf("search: missing query")
		}
		return s.b.showSearch(ctx, s.out, s.main, target, strings.Join(f[2:], " "))
	}

	if len(f) < 3 {
		return fmt.Errorf("%s: missing arguments (try help)", f[0])
	}
	kind, err := tmdb.ParseKind(f[1])
	if err != nil {
		return err
	}
	switch f[0] {
	case "list":
		return s.b.showList(ctx, s.out, s.main, kind, f[2])
	case "details":
		id, err := parseID(f[2])
		if err != nil {
			return err
		}
		return s.b.showDetails(ctx, s.out, s.details, kind, id)
	}
	return nil
}
