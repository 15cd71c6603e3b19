package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/dinedecide/internal/candidates"
	"github.com/DoyleJ11/dinedecide/internal/config"
	"github.com/DoyleJ11/dinedecide/internal/domain"
	"github.com/DoyleJ11/dinedecide/internal/echo"
	"github.com/DoyleJ11/dinedecide/internal/engine"
	"github.com/DoyleJ11/dinedecide/internal/logging"
	"github.com/DoyleJ11/dinedecide/internal/session"
	"github.com/DoyleJ11/dinedecide/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "peer:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	flags, err := config.ParsePeerFlags(os.Args[1:], cfg)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DB.Driver, flags.DBDSN, log)
	if err != nil {
		return err
	}
	defer st.Close()

	builtin := candidates.Builtin()
	if err := st.Seed(ctx, builtin); err != nil {
		return fmt.Errorf("seed catalogue: %w", err)
	}

	self, err := st.Profile(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if flags.Name != "" {
		if self, err = st.RenameProfile(ctx, flags.Name); err != nil {
			return fmt.Errorf("rename profile: %w", err)
		}
	}
	if err := ensureGroup(ctx, st, flags, self, cfg.Peer.DefaultArea); err != nil {
		return err
	}

	bus := echo.NewBus(log)
	defer bus.Close()

	eng := engine.New(engine.Options{
		URL:              flags.RelayURL,
		ReconnectBackoff: cfg.Peer.ReconnectBackoff,
		DialTimeout:      cfg.Peer.DialTimeout,
	}, bus, log)
	defer eng.Close()
	if err := eng.Connect(ctx); err != nil {
		log.Warn("relay unavailable, running on local echo", zap.Error(err))
	}

	fetch := candidates.Chain{
		candidates.NewAreaSource(st),
		candidates.NewPool(builtin, nil),
	}
	m := session.NewMachine(self, eng, st, fetch, session.Options{
		DefaultArea:     cfg.Peer.DefaultArea,
		DefaultDeckSize: cfg.Peer.DefaultDeckSize,
		Filler:          builtin,
	}, log)
	actor := session.NewActor(ctx, m, eng, log)

	if err := actor.Enter(ctx, flags.GroupID); err != nil {
		return err
	}

	updates := make(chan session.Snapshot, 16)
	actor.Send(session.Watch{Outbox: updates})

	c := &console{actor: actor, store: st, in: os.Stdin, out: os.Stdout}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.watch(gctx, updates) })
	g.Go(func() error {
		err := c.repl(gctx)
		stop()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// ensureGroup creates the group locally when asked to and it is unknown.
// Joining an unknown id without -create falls back to a stub on entry.
func ensureGroup(ctx context.Context, st *store.Store, f config.PeerFlags, self domain.Member, area string) error {
	if f.CreateAs == "" {
		return nil
	}
	_, err := st.LoadGroup(ctx, f.GroupID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrGroupNotFound) {
		return err
	}
	_, err = st.CreateGroup(ctx, domain.Group{
		ID:              f.GroupID,
		Name:            f.CreateAs,
		Area:            area,
		AnonymousVoting: f.Anonymous,
	}, self)
	return err
}
