package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/exo-addons/leadcapture"
	"github.com/exo-addons/leadcapture/event"
	"github.com/exo-addons/leadcapture/lead"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one lead synchronously",
	Long:  "Build a lead from the flags and the configured capture settings and POST it to the lead capture server.",
	Example: `  leadcapture send --mail jane@example.com --first-name Jane --last-name Doe
  leadcapture send --mail jane@example.com --language fr --config /etc/leadcapture/config.yaml`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().String("mail", "", "lead email address (required)")
	sendCmd.Flags().String("first-name", "", "first name")
	sendCmd.Flags().String("last-name", "", "last name")
	sendCmd.Flags().String("language", "", "preferred language")
	sendCmd.Flags().String("user", "", "user name used in logs (defaults to --mail)")
	_ = sendCmd.MarkFlagRequired("mail")
}

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Logging)

	mail, _ := cmd.Flags().GetString("mail")
	firstName, _ := cmd.Flags().GetString("first-name")
	lastName, _ := cmd.Flags().GetString("last-name")
	language, _ := cmd.Flags().GetString("language")
	userName, _ := cmd.Flags().GetString("user")
	if userName == "" {
		userName = mail
	}

	user := event.User{UserName: userName, Email: mail, FirstName: firstName, LastName: lastName}
	var profile *event.Profile
	if language != "" {
		profile = &event.Profile{UserName: userName, Attributes: map[string]string{event.LanguageAttribute: language}}
	}

	relay, err := leadcapture.New(
		leadcapture.WithConfig(cfg.Relay()),
		leadcapture.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer relay.Close()

	err = relay.SendLead(cmd.Context(), userName, lead.FromUser(user, cfg.Capture, profile))
	switch {
	case err == nil:
		fmt.Fprintf(cmd.OutOrStdout(), "lead for %s sent\n", mail)
		return nil
	case errors.Is(err, leadcapture.ErrUnauthorized):
		return fmt.Errorf("lead capture server rejected the token: %w", err)
	default:
		return err
	}
}
