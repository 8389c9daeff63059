package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in; the guest cart on the server is merged into yours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				email = a.cfg.Email
			}
			if password == "" {
				// Read from stdin so it stays out of shell history.
				line, err := bufio.NewReader(a.in).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required (--password or stdin)")
				}
				password = strings.TrimSpace(line)
			}
			if email == "" || password == "" {
				return errors.New("email and password required")
			}

			tok, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			a.cfg.Email = email
			a.cfg.Token = tok.AccessToken
			a.cfg.Session = ""
			if err := a.saveConfig(); err != nil {
				return err
			}
			name := email
			if tok.Customer != nil && tok.Customer.Name != "" {
				name = tok.Customer.Name
			}
			fmt.Fprintf(a.out, "%s %s\n", styles.Success.Render("Signed in as"), name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	return cmd
}
