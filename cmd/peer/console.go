package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/DoyleJ11/dinedecide/internal/domain"
	"github.com/DoyleJ11/dinedecide/internal/session"
	"github.com/DoyleJ11/dinedecide/internal/store"
)

const help = `commands:
  start            start a session (host fetches the deck)
  like | nope      swipe the current card
  rename <name>    change your name in this group
  status           show lobby and vote status
  results          show the ranking
  history          show past votes in this group
  lobby            return to the lobby
  leave            leave the group and quit
  quit             exit`

type console struct {
	actor *session.Actor
	store *store.Store
	in    io.Reader
	out   io.Writer
}

func (c *console) repl(ctx context.Context) error {
	fmt.Fprintln(c.out, help)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := c.exec(ctx, line)
			if err != nil {
				fmt.Fprintln(c.out, "error:", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func (c *console) exec(ctx context.Context, line string) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch cmd {
	case "":
		return false, nil
	case "start":
		return false, c.actor.Start(ctx)
	case "like":
		return false, c.actor.Swipe(ctx, domain.DecisionLike)
	case "nope":
		return false, c.actor.Swipe(ctx, domain.DecisionDislike)
	case "rename":
		return false, c.actor.Rename(ctx, arg)
	case "lobby":
		return false, c.actor.ReturnToLobby(ctx)
	case "status":
		s, err := c.actor.State(ctx)
		if err == nil {
			c.printStatus(s)
		}
		return false, err
	case "results":
		s, err := c.actor.State(ctx)
		if err == nil {
			c.printResults(s)
		}
		return false, err
	case "history":
		return false, c.printHistory(ctx)
	case "leave":
		return true, c.actor.Leave(ctx)
	case "quit", "exit":
		return true, nil
	default:
		fmt.Fprintln(c.out, help)
		return false, nil
	}
}

// watch prints phase changes and the card on top of the deck.
func (c *console) watch(ctx context.Context, updates <-chan session.Snapshot) error {
	var last session.Snapshot
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			if s.Phase != last.Phase {
				fmt.Fprintf(c.out, "== %s\n", s.Phase)
				if s.Phase == domain.PhaseResults {
					c.printResults(s)
				}
			}
			if s.Phase == domain.PhaseVoting && (s.Cursor != last.Cursor || last.Phase != domain.PhaseVoting) && s.Cursor < len(s.Deck) {
				card := s.Deck[s.Cursor]
				fmt.Fprintf(c.out, "[%d/%d] %s  %.1f*  %d-%d  %s\n",
					s.Cursor+1, len(s.Deck), card.Name, card.Rating, card.AvgCostMin, card.AvgCostMax, strings.Join(card.FoodTypes, ", "))
			}
			if len(s.Members) != len(last.Members) && s.Phase == domain.PhaseLobby {
				c.printStatus(s)
			}
			last = s
		}
	}
}

func (c *console) printStatus(s session.Snapshot) {
	fmt.Fprintf(c.out, "group %s  phase %s\n", s.GroupID, s.Phase)
	for _, m := range s.Members {
		tag := ""
		if m.ID == s.HostID {
			tag = " (host)"
		}
		if m.ID == s.Self.ID {
			tag += " (you)"
		}
		line := fmt.Sprintf("  %s%s", m.Name, tag)
		if st, ok := s.Status[m.ID]; ok {
			line += fmt.Sprintf("  %s %3.0f%%", st, s.Progress[m.ID]*100)
		}
		fmt.Fprintln(c.out, line)
	}
}

func (c *console) printResults(s session.Snapshot) {
	if !s.Ranking.HasReports() {
		fmt.Fprintln(c.out, "no votes received")
		return
	}
	for i, e := range s.Ranking.Entries() {
		fmt.Fprintf(c.out, "%d. %s  (%d likes)\n", i+1, e.Candidate.Name, e.Likes)
		if liked, disliked, ok := s.Ranking.Voters(e.Candidate.ID); ok {
			sort.Strings(liked)
			sort.Strings(disliked)
			fmt.Fprintf(c.out, "   liked: %s  passed: %s\n", strings.Join(liked, ", "), strings.Join(disliked, ", "))
		}
	}
}

func (c *console) printHistory(ctx context.Context) error {
	s, err := c.actor.State(ctx)
	if err != nil {
		return err
	}
	res, err := c.store.LoadResults(ctx, s.GroupID)
	if err != nil {
		return err
	}
	for _, r := range res {
		fmt.Fprintf(c.out, "%s  %s  %d likes\n", time.UnixMilli(r.Timestamp).Format(time.DateTime), r.Type, len(r.Likes))
	}
	return nil
}
