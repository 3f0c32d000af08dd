package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chadvangaalen/sfr/internal/adapters/journal"
	"github.com/chadvangaalen/sfr/internal/adapters/render/status"
	"github.com/chadvangaalen/sfr/internal/domain"
)

// runRelay is the long-running loop: journal entries in, report batches out.
// It is the single producer for the engine; notifications from the delivery
// worker are consumed here too.
func (a *app) runRelay(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := journal.NewWatcher(a.cfg.JournalDir, a.logger)
	if err != nil {
		return err
	}
	tracker := journal.NewTracker()

	watchErr := make(chan error, 1)
	go func() { watchErr <- watcher.Run(ctx) }()

	a.printStatus(cmd)

	for {
		select {
		case entry, ok := <-watcher.Entries():
			if !ok {
				a.engine.Stop()
				err := <-watchErr
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			tracker.Update(entry)
			if tracker.Commander() == "" {
				// Nothing to report before login.
				continue
			}
			// Derivation failures are logged by the engine; the relay keeps
			// going.
			_ = a.engine.HandleJournalEntry(
				tracker.Commander(),
				false,
				tracker.System(),
				tracker.Station(),
				entry,
				tracker.State(),
			)

		case n := <-a.engine.Notifications():
			a.applyNotification(n)
			a.printStatus(cmd)
		}
	}
}

// applyNotification turns a location reply into display links, honoring the
// configured provider preference.
func (a *app) applyNotification(n domain.Notification) {
	if n.Kind != domain.NotificationLocation || n.Data == nil {
		return
	}
	systemURL, _ := n.Data[fmt.Sprintf("starsystem%sURL", a.cfg.SystemProvider)].(string)
	stationURL, _ := n.Data[fmt.Sprintf("station%sURL", a.cfg.StationProvider)].(string)
	a.engine.SetDisplayURLs(systemURL, stationURL)
}

func (a *app) printStatus(cmd *cobra.Command) {
	view, err := status.Render(status.Snapshot{
		Commander:  a.engine.Commander(),
		Health:     a.engine.Health(),
		SystemURL:  a.engine.SystemURL(),
		StationURL: a.engine.StationURL(),
		Pending:    a.engine.Pending(),
	})
	if err != nil {
		a.logger.Printf("render status: %v", err)
		return
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), view)
}
