// Command create-admin creates the first superuser account.
package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"saferoute/config"
	"saferoute/internal/database"
	"saferoute/internal/repository"
	"saferoute/internal/service"

	"github.com/spf13/cobra"
)

type options struct {
	username string
	email    string
	password string
	noInput  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a superuser unless one already exists",
		Long: "Create a superuser account. Values not given as flags fall back to\n" +
			"ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if opts.username == "" {
				opts.username = cfg.Admin.Username
			}
			if opts.email == "" {
				opts.email = cfg.Admin.Email
			}
			if opts.password == "" {
				opts.password = cfg.Admin.Password
			}
			db, err := database.NewDB(&cfg.Database)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			svc := service.NewAuthService(repository.NewUserRepository(db), nil)
			return createAdmin(cmd.OutOrStdout(), cmd.InOrStdin(), svc, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.username, "username", "", "superuser username")
	f.StringVar(&opts.email, "email", "", "superuser email")
	f.StringVar(&opts.password, "password", "", "superuser password")
	f.BoolVar(&opts.noInput, "noinput", false, "never prompt; generate a password when none is given")
	return cmd
}

func createAdmin(out io.Writer, in io.Reader, svc *service.AuthService, opts options) error {
	exists, err := svc.SuperuserExists()
	if err != nil {
		return err
	}
	if exists {
		fmt.Fprintln(out, "A superuser already exists. Skipping.")
		return nil
	}
	if opts.username == "" {
		return errors.New("a username is required")
	}

	generated := false
	if opts.password == "" {
		if opts.noInput {
			opts.password, err = randomPassword()
			if err != nil {
				return err
			}
			generated = true
		} else {
			fmt.Fprint(out, "Password: ")
			line, err := bufio.NewReader(in).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			opts.password = strings.TrimSpace(line)
			if opts.password == "" {
				return errors.New("a password is required")
			}
		}
	}

	u, err := svc.CreateSuperuser(opts.username, opts.email, opts.password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Superuser %q created.\n", u.Username)
	if generated {
		fmt.Fprintf(out, "Generated password: %s\n", opts.password)
		fmt.Fprintln(out, "Change it after your first login.")
	}
	return nil
}

func randomPassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
