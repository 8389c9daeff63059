package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"aura-taste/internal/cart"
	"aura-taste/internal/client"
	"aura-taste/internal/domain"
	cartsvc "aura-taste/internal/service/cart"
	"aura-taste/internal/service/checkout"
	"aura-taste/internal/tracking"
	"github.com/spf13/cobra"
)

func (a *app) checkoutCmd() *cobra.Command {
	var (
		in     checkout.Input
		method string
		noQR   bool
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order with the cart on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Method = domain.FulfillmentMethod(strings.ToLower(strings.TrimSpace(method)))
			if in.Email == "" {
				in.Email = a.cfg.Email
			}
			if a.interactive {
				a.promptMissing(&in)
			}
			o, err := a.checkout(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s\n", styles.Success.Render("Order placed:"), o.ID)
			fmt.Fprintf(a.out, "Total %s, ready in about %s\n", money(o.TotalAmountCents), o.Countdown.Label)
			if o.TrackingURL != "" {
				fmt.Fprintf(a.out, "Track it at %s\n", o.TrackingURL)
			}
			if !noQR {
				a.printQR(o.ID)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "customer name")
	f.StringVar(&in.Phone, "phone", "", "contact phone")
	f.StringVar(&in.Email, "email", "", "contact email (defaults to the logged-in email)")
	f.StringVar(&method, "method", string(domain.FulfillmentDelivery), "delivery, pickup or dine-in")
	f.StringVar(&in.Address, "address", "", "delivery address")
	f.StringVar(&in.Branch, "branch", "", "branch for pickup or dine-in")
	f.StringVar(&in.PickupTime, "pickup-time", "", "pickup time")
	f.StringVar(&in.Table, "table", "", "table number for dine-in")
	f.BoolVar(&noQR, "no-qr", false, "do not print the tracking QR code")
	return cmd
}

// errPriceChanged means the server priced the replayed cart differently from
// the device cart.
var errPriceChanged = errors.New("menu prices changed since the items were added")

// checkout replays the device cart into the server-side cart and places the
// order. Input and lines are checked before any request; the device cart is
// cleared only once the order exists.
func (a *app) checkout(ctx context.Context, in checkout.Input) (*client.Order, error) {
	store, err := a.openCart(ctx)
	if err != nil {
		return nil, err
	}
	lines := store.Lines()
	if len(lines) == 0 {
		return nil, checkout.ErrEmptyCart
	}
	for _, l := range lines {
		if l.ProductRef == cart.CustomDealRef {
			return nil, fmt.Errorf("line %s: custom deals can only be ordered from the storefront", shortID(l.LineID))
		}
	}
	in, err = checkout.Validate(in)
	if err != nil {
		return nil, err
	}

	if a.client.Token == "" && a.client.Session == "" {
		s, err := a.client.NewSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("start session: %w", err)
		}
		a.client.Session = s.Token
		a.cfg.Session = s.Token
		if err := a.saveConfig(); err != nil {
			a.logger.Printf("auractl: save session error=%v", err)
		}
	}

	if err := a.client.ClearCart(ctx); err != nil {
		return nil, fmt.Errorf("reset server cart: %w", err)
	}
	var server cart.Snapshot
	for _, l := range lines {
		server, err = a.client.AddLine(ctx, cartsvc.AddInput{
			ProductID: l.ProductRef,
			Size:      l.SelectedSize,
			Extras:    l.SelectedExtras,
			Quantity:  l.Quantity,
		})
		if err != nil {
			a.resetServerCart(ctx)
			return nil, fmt.Errorf("sync line %s: %w", shortID(l.LineID), err)
		}
	}
	if want := store.Total(); server.TotalCents != want {
		a.resetServerCart(ctx)
		return nil, fmt.Errorf("%w: cart total %s, now %s", errPriceChanged, money(want), money(server.TotalCents))
	}

	o, err := a.client.PlaceOrder(ctx, in)
	if err != nil {
		return nil, err
	}
	if _, err := store.Clear(ctx); err != nil {
		a.logger.Printf("auractl: clear cart after order=%s error=%v", o.ID, err)
	}
	return o, nil
}

// resetServerCart drops a partial replay so the server cart is not left
// half filled.
func (a *app) resetServerCart(ctx context.Context) {
	if err := a.client.ClearCart(ctx); err != nil {
		a.logger.Printf("auractl: reset server cart error=%v", err)
	}
}

func (a *app) promptMissing(in *checkout.Input) {
	r := bufio.NewReader(a.in)
	ask := func(label string, dst *string) {
		if *dst != "" {
			return
		}
		fmt.Fprintf(a.out, "%s: ", label)
		line, _ := r.ReadString('\n')
		*dst = strings.TrimSpace(line)
	}
	ask("Name", &in.Name)
	ask("Phone", &in.Phone)
	switch in.Method {
	case domain.FulfillmentDelivery:
		ask("Address", &in.Address)
	case domain.FulfillmentPickup:
		ask("Branch", &in.Branch)
		ask("Pickup time", &in.PickupTime)
	case domain.FulfillmentDineIn:
		ask("Branch", &in.Branch)
		ask("Table", &in.Table)
	}
}

func (a *app) printQR(orderID string) {
	qr, err := tracking.New(a.cfg.PublicURL).Terminal(orderID)
	if err != nil {
		a.logger.Printf("auractl: render qr order=%s error=%v", orderID, err)
		return
	}
	fmt.Fprint(a.out, qr)
}
