package main

import (
	"fmt"
	"geoblog/internal/auth"
	"github.com/spf13/cobra"
	"time"
)

func newTokenCmd(load loadFunc) *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Manage bearer tokens",
	}
	token.AddCommand(newTokenIssueCmd(load))
	return token
}

func newTokenIssueCmd(load loadFunc) *cobra.Command {
	var (
		subject string
		teams   []string
		admin   bool
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a subject and its teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			p, err := auth.NewProvider(auth.Options{
				Secret:      cfg.Auth.JWTSecret,
				Issuer:      cfg.Auth.Issuer,
				AdminTeamID: cfg.Auth.AdminTeamID,
			})
			if err != nil {
				return err
			}

			if admin {
				teams = append(teams, p.AdminTeam())
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			tok, err := p.Issue(subject, teams, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "user id the token is issued to")
	cmd.Flags().StringSliceVar(&teams, "team", nil, "team membership (repeatable)")
	cmd.Flags().BoolVar(&admin, "admin", false, "add the configured admin team")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: auth.token_ttl)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
