// Command gambit-server is the process entrypoint: it wires Config loading,
// the Knight Retreat Oracle, the Live/Archive Store split, the Session
// Manager, and the Real-Time Transport into one running server, grounded on
// herohde-morlock's cmd/morlock flag-parsing + context.Background() +
// logw.Exitf startup shape (generalized from a single UCI engine process to
// a multiplayer game server with concurrent subsystem startup).
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gambit-chess/engine/pkg/config"
	"github.com/gambit-chess/engine/pkg/eventlog"
	"github.com/gambit-chess/engine/pkg/retreat"
	"github.com/gambit-chess/engine/pkg/session"
	"github.com/gambit-chess/engine/pkg/store"
	"github.com/gambit-chess/engine/pkg/transport"
	"github.com/pkg/profile"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"golang.org/x/sync/errgroup"
)

var version = build.NewVersion(0, 1, 0)

var (
	addr        = flag.String("addr", ":8080", "HTTP/WebSocket listen address")
	archiveDir  = flag.String("archive-dir", "./gambit-archive", "Archive Store (badger) data directory")
	defaultCfg  = flag.String("default-ruleset", "standard", "Default ruleset profile for game creation")
	sessionKey  = flag.String("session-key", "", "HMAC signing key for session tokens (generated if empty)")
	sweepPeriod = flag.Duration("abandon-sweep-interval", 15*time.Minute, "Interval between Live Store abandonment sweeps")
	profileMode = flag.String("profile", "", "Enable profiling: cpu, mem, or empty to disable")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: gambit-server [options]

gambit-server runs the Gambit Chess server-authoritative game engine and
real-time session layer.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if p := startProfiling(*profileMode); p != nil {
		defer p.Stop()
	}

	cfg, err := config.Load(*defaultCfg)
	if err != nil {
		logw.Exitf(ctx, "unknown default ruleset %q: %v", *defaultCfg, err)
	}

	key := []byte(*sessionKey)
	if len(key) == 0 {
		logw.Infof(ctx, "no -session-key given; generating an ephemeral one (tokens will not survive a restart)")
		key = ephemeralKey()
	}

	// Decode the oracle, create the Live Store and open the Archive Store
	// concurrently; none of the three depends on the others finishing first (SPEC_FULL.md
	// §2: golang.org/x/sync/errgroup wired here for concurrent subsystem
	// startup).
	var (
		live    *store.LiveStore
		archive *store.ArchiveStore
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := retreat.DecodeOracle(); err != nil {
			return fmt.Errorf("decode knight retreat oracle: %w", err)
		}
		logw.Infof(gctx, "knight retreat oracle decoded")
		return nil
	})
	g.Go(func() error {
		var err error
		live, err = store.NewLiveStore()
		if err != nil {
			return fmt.Errorf("start live store: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		archive, err = store.OpenArchiveStore(*archiveDir)
		if err != nil {
			return fmt.Errorf("open archive store at %q: %w", *archiveDir, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logw.Exitf(ctx, "startup failed: %v", err)
	}
	defer archive.Close()
	defer live.Close()

	log := eventlog.New(live)
	hub := transport.NewHub(live, archive, log)
	sessions := session.NewManager(key)
	srv := transport.NewServer(hub, sessions, live, cfg, version)

	go live.RunAbandonmentSweep(ctx, *sweepPeriod, func(ctx context.Context, id string) error {
		return archiveAbandoned(ctx, archive, id)
	})

	httpSrv := &http.Server{Addr: *addr, Handler: srv.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logw.Errorf(shutdownCtx, "graceful shutdown failed: %v", err)
		}
	}()

	logw.Infof(ctx, "gambit-server %v listening on %v", version, *addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logw.Exitf(ctx, "server exited: %v", err)
	}
}

// archiveAbandoned persists a minimal ABANDONED archive entry for a game
// the Live Store lost track of (spec.md §4.7's abandonment cleanup). The
// sweep only has the game id by the time a game has TTL'd out of the Live
// Store entirely, so the entry carries only the id, the abandonment reason,
// result "none" and the time of archiving; it has no player ids, move
// history or final position.
func archiveAbandoned(ctx context.Context, archive *store.ArchiveStore, id string) error {
	return archive.Save(ctx, store.ArchiveEntry{
		GameID:  id,
		Result:  "none",
		Reason:  store.ReasonAbandoned,
		EndedAt: time.Now(),
	})
}

func startProfiling(mode string) interface{ Stop() } {
	switch mode {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."))
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."))
	default:
		return nil
	}
}

func ephemeralKey() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform CSPRNG is broken; a
		// time-seeded fallback still yields distinct keys per process.
		for i := range buf {
			buf[i] = byte(time.Now().UnixNano() >> uint(i%8*8))
		}
	}
	return buf
}
