package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/FranksOps/ranchwatch/internal/config"
	"github.com/FranksOps/ranchwatch/internal/detector"
	"github.com/FranksOps/ranchwatch/internal/notify"
)

func (a *app) notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification channel tools",
	}
	cmd.AddCommand(a.notifyTestCmd())
	return cmd
}

func (a *app) notifyTestCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send one test message through every configured channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			nc, err := config.LoadNotify(a.v)
			if err != nil {
				return err
			}
			channels := a.channels(nc)
			if len(channels) == 0 {
				return &config.Error{Problem: "no notification channels enabled",
					Hint: "pass --desktop-notify, --email-notify or --sms-notify with their settings"}
			}

			results := notify.NewDispatcher(a.logger, channels...).NotifyAll(cmd.Context(), notify.Message{
				Title:     detector.DefaultFacility + " Checker Test",
				Body:      message,
				ShortBody: message,
			})

			names := make([]string, 0, len(results))
			for name := range results {
				names = append(names, name)
			}
			sort.Strings(names)

			failed := 0
			for _, name := range names {
				status := "sent"
				if !results[name] {
					status = "FAILED"
					failed++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, status)
			}
			if failed > 0 {
				return errors.New("some notifications failed, check the logs")
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&message, "message", "This is a test message from the Phantom Ranch availability checker.", "message text")
	addNotifyFlags(fs)
	return cmd
}
