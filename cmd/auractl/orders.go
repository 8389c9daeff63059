package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"aura-taste/internal/client"
	"aura-taste/internal/lifecycle"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List and track your orders",
	}
	cmd.AddCommand(a.ordersListCmd(), a.ordersTrackCmd())
	return cmd
}

func (a *app) ordersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show your orders, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orders, err := a.client.Orders(cmd.Context())
			if err != nil {
				return err
			}
			printOrders(a.out, orders, a.now())
			return nil
		},
	}
}

func (a *app) ordersTrackCmd() *cobra.Command {
	var (
		follow bool
		noQR   bool
	)
	cmd := &cobra.Command{
		Use:   "track <orderId>",
		Short: "Show the progress of an order and follow it live",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o, err := a.client.Order(ctx, args[0])
			if err != nil {
				return err
			}
			printSteps(a.out, *o)
			if !noQR {
				a.printQR(o.ID)
			}
			if !follow || lifecycle.Terminal(o.Status) {
				fmt.Fprintf(a.out, "%s %s\n", styles.Title.Render("Ready in"), o.Countdown.Label)
				return nil
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.follow(ctx, *o)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", true, "keep watching until the order completes")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "do not print the tracking QR code")
	return cmd
}

// follow prints status changes pushed by the server and ticks the countdown
// locally. It returns once the order completes or ctx ends.
func (a *app) follow(ctx context.Context, o client.Order) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	status := o.Status

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.client.Watch(ctx, o.ID, func(next client.Order) {
			if next.ID != o.ID {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if next.Status == status {
				return
			}
			status = next.Status
			a.lineBreak()
			printSteps(a.out, next)
			if lifecycle.Terminal(next.Status) {
				cancel()
			}
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		last := ""
		countdownOf(o).Watch(ctx, time.Second, a.now, func(s lifecycle.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			a.tick(s, &last)
		})
		return nil
	})
	err := g.Wait()
	a.lineBreak()
	return err
}

// tick renders the countdown. Terminals get an in-place update every second;
// other writers get a line per minute and the final label.
func (a *app) tick(s lifecycle.Snapshot, last *string) {
	if a.interactive {
		fmt.Fprintf(a.out, "\r%s %-12s", styles.Title.Render("Ready in"), s.Label)
		*last = s.Label
		return
	}
	if s.Label == *last {
		return
	}
	if s.Ready || s.RemainingSeconds%60 == 0 || *last == "" {
		fmt.Fprintf(a.out, "Ready in %s\n", s.Label)
		*last = s.Label
	}
}

func (a *app) lineBreak() {
	if a.interactive {
		fmt.Fprintln(a.out)
	}
}
