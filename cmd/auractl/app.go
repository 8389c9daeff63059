package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"aura-taste/internal/cart"
	"aura-taste/internal/client"
	"aura-taste/internal/kv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// app carries the state shared by every command. Tests build one directly
// and inject store and an API URL.
type app struct {
	out    io.Writer
	in     io.Reader
	logger *log.Logger

	configPath string
	apiURL     string
	cartDir    string

	cfg    Config
	client *client.Client

	// store overrides the badger cart when set.
	store   kv.Store
	closers []io.Closer
	cart    *cart.Store

	interactive bool
	now         func() time.Time
}

func newApp(out io.Writer, in io.Reader, logger *log.Logger) *app {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	a := &app{out: out, in: in, logger: logger, now: time.Now}
	if f, ok := out.(*os.File); ok {
		a.interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return a
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "auractl",
		Short:         "Order from Aura Taste in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.out)
	root.SetIn(a.in)

	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath(), "config file")
	root.PersistentFlags().StringVar(&a.apiURL, "api", "", "API base URL (overrides api_url)")
	root.PersistentFlags().StringVar(&a.cartDir, "cart-dir", "", "device cart directory (overrides cart_dir)")

	root.AddCommand(
		a.cartCmd(),
		a.checkoutCmd(),
		a.ordersCmd(),
		a.loginCmd(),
	)

	return root
}

// execute runs the command line and releases the cart store whether or not
// the command failed.
func (a *app) execute(args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (a *app) setup() error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.cartDir != "" {
		cfg.CartDir = a.cartDir
	}
	a.cfg = cfg.withDefaults()

	a.client = client.New(a.cfg.APIURL, nil)
	a.client.Token = a.cfg.Token
	a.client.Session = a.cfg.Session
	return nil
}

// openCart opens the device cart on first use.
func (a *app) openCart(ctx context.Context) (*cart.Store, error) {
	if a.cart != nil {
		return a.cart, nil
	}
	store := a.store
	if store == nil {
		b, err := kv.OpenBadger(kv.BadgerConfig{Path: a.cfg.CartDir, Logger: a.logger})
		if err != nil {
			return nil, fmt.Errorf("open cart: %w", err)
		}
		a.closers = append(a.closers, b)
		store = b
	}
	a.cart = cart.Open(ctx, store, cart.Key, a.logger)
	return a.cart, nil
}

func (a *app) close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	a.cart = nil
	return first
}

func (a *app) saveConfig() error {
	return saveConfig(a.configPath, a.cfg)
}
