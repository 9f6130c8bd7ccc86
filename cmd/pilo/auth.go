package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pilo-web/internal/application/dto"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
)

func (c *cli) newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long:  "Sign in with email and password. When --password is omitted it is read from the first line of stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			}
			creds := dto.LoginForm{Email: email, Password: password}.Credentials()
			if creds.Email == "" || creds.Password == "" {
				return errors.New("email and password are required")
			}
			res := c.store.Login(cmd.Context(), creds)
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", c.store.Snapshot().User.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) newSignupCmd() *cobra.Command {
	var form dto.SignupForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Password == "" {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				form.Password = p
			}
			reg, errs := form.Validate()
			if len(errs) > 0 {
				return fieldErrors(errs)
			}
			res := c.store.Signup(cmd.Context(), reg)
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", c.store.Snapshot().User.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "Full name")
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Account password")
	cmd.Flags().StringVar(&form.Age, "age", "", "Age in years")
	cmd.Flags().StringSliceVar(&form.Allergies, "allergy", nil, "Allergy ("+strings.Join(entity.AllergyOptions, ", ")+"), repeatable")
	cmd.Flags().StringSliceVar(&form.Preferences, "preference", nil, "Dietary preference ("+strings.Join(entity.PreferenceOptions, ", ")+"), repeatable")
	return cmd
}

func (c *cli) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.store.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			u := c.store.Snapshot().User
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Name:        %s\n", u.DisplayName())
			fmt.Fprintf(w, "Email:       %s\n", u.Email)
			if u.Age > 0 {
				fmt.Fprintf(w, "Age:         %d\n", u.Age)
			}
			fmt.Fprintf(w, "Allergies:   %s\n", orNone(u.Allergies))
			fmt.Fprintf(w, "Preferences: %s\n", orNone(u.Preferences))
			return nil
		},
	}
}

// ── helpers ──────────────────────────────────────────────────────────────────

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func fieldErrors(errs dto.FieldErrors) error {
	var b strings.Builder
	b.WriteString("invalid signup:")
	for _, field := range []string{"name", "email", "password", "age"} {
		if msg, ok := errs[field]; ok {
			fmt.Fprintf(&b, "\n  %s: %s", field, msg)
		}
	}
	return errors.New(b.String())
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
