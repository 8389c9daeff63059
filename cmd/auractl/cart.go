package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"aura-taste/internal/cart"
	"github.com/spf13/cobra"
)

func (a *app) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the cart kept on this device",
	}
	cmd.AddCommand(
		a.cartAddCmd(),
		a.cartRemoveCmd(),
		a.cartSetCmd(),
		a.cartListCmd(),
		a.cartClearCmd(),
	)
	return cmd
}

func (a *app) cartAddCmd() *cobra.Command {
	var (
		size   string
		extras []string
		qty    int
	)
	cmd := &cobra.Command{
		Use:   "add <productId>",
		Short: "Add a product with an optional size and extras",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.client.Product(ctx, args[0])
			if err != nil {
				return fmt.Errorf("fetch product %s: %w", args[0], err)
			}
			sel, err := cart.Select(*p, size, extras, qty)
			if err != nil {
				return err
			}
			store, err := a.openCart(ctx)
			if err != nil {
				return err
			}
			return a.showCart(store.AddItem(ctx, sel))
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "size option name")
	cmd.Flags().StringSliceVar(&extras, "extra", nil, "extra option name (repeatable)")
	cmd.Flags().IntVarP(&qty, "qty", "q", 1, "quantity")
	return cmd
}

func (a *app) cartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <lineId>",
		Aliases: []string{"rm"},
		Short:   "Remove a line",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openCart(ctx)
			if err != nil {
				return err
			}
			return a.showCart(store.RemoveLine(ctx, resolveLine(store, args[0])))
		},
	}
}

func (a *app) cartSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <lineId> <quantity>",
		Short: "Set the quantity of a line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity %q: %w", args[1], err)
			}
			ctx := cmd.Context()
			store, err := a.openCart(ctx)
			if err != nil {
				return err
			}
			return a.showCart(store.SetQuantity(ctx, resolveLine(store, args[0]), q))
		},
	}
}

func (a *app) cartListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the cart",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			printCart(a.out, store.Snapshot())
			return nil
		},
	}
}

func (a *app) cartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.openCart(ctx)
			if err != nil {
				return err
			}
			return a.showCart(store.Clear(ctx))
		},
	}
}

// showCart prints snap. An unsynced write still changed the cart in memory,
// so the cart is shown and the failure reported.
func (a *app) showCart(snap cart.Snapshot, err error) error {
	if err != nil && !errors.Is(err, cart.ErrUnsynced) {
		return err
	}
	printCart(a.out, snap)
	return err
}

// resolveLine expands a unique line id prefix. Anything else is passed
// through unchanged, which the store treats as a no-op.
func resolveLine(store *cart.Store, ref string) string {
	var match string
	for _, l := range store.Lines() {
		if l.LineID == ref {
			return ref
		}
		if strings.HasPrefix(l.LineID, ref) {
			if match != "" {
				return ref
			}
			match = l.LineID
		}
	}
	if match == "" {
		return ref
	}
	return match
}
