package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/seacable/atlas-backend/internal/auth"
	"github.com/seacable/atlas-backend/internal/db"
	"github.com/seacable/atlas-backend/internal/logging"
	"github.com/spf13/cobra"
)

type userOptions struct {
	dsn      string
	name     string
	email    string
	password string
	role     string
}

func newUserCmd(opts *rootOptions) *cobra.Command {
	uo := &userOptions{}

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage atlas accounts",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if uo.dsn == "" {
				return errors.New("--dsn not provided and DATABASE_URL not set")
			}
			if uo.password == "" {
				uo.password = os.Getenv("ATLAS_USER_PASSWORD")
			}

			log, err := logging.New(opts.logLevel, "console")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			d, err := db.Connect(uo.dsn, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(d) }()

			if err := auth.Init(d); err != nil {
				return err
			}

			u, err := auth.Register(cmd.Context(), auth.NewGormStore(d), uo.name, uo.email, uo.password, uo.role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s <%s> role=%q id=%s\n", u.Name, u.Email, u.Role, u.UserID)
			return nil
		},
	}

	f := addCmd.Flags()
	f.StringVar(&uo.dsn, "dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	f.StringVar(&uo.name, "name", "", "display name (required)")
	f.StringVar(&uo.email, "email", "", "login email (required)")
	f.StringVar(&uo.password, "password", "", "password (default: env ATLAS_USER_PASSWORD)")
	f.StringVar(&uo.role, "role", auth.RoleAnalyst, "role: Admin, Data Scientist or Data Analyst")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("email")

	userCmd.AddCommand(addCmd)
	return userCmd
}
