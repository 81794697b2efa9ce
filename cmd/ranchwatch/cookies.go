package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/FranksOps/ranchwatch/internal/config"
	"github.com/FranksOps/ranchwatch/internal/credential"
)

func (a *app) cookiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Manage the lottery session cookies",
	}
	cmd.AddCommand(a.cookiesExtractCmd())
	return cmd
}

func (a *app) cookiesExtractCmd() *cobra.Command {
	var (
		curlCommand, curlFile, output string
		save, names                   bool
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the cookie string from a captured curl command",
		Long: "Extract the -b/--cookie value from a curl command copied from the browser's\n" +
			"network panel. Reads --curl-command, --curl-file or standard input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := curlCommand
			switch {
			case text != "":
			case curlFile != "":
				data, err := os.ReadFile(curlFile)
				if err != nil {
					return &config.Error{Key: "curl-file", Problem: err.Error()}
				}
				text = string(data)
			default:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			cookies, ok := credential.ExtractFromCurl(text)
			if !ok {
				return &config.Error{Problem: credential.ErrNoCookieFlag.Error(),
					Hint: "copy the request as cURL (bash) from the browser's network panel"}
			}

			out := cmd.OutOrStdout()
			if names {
				parsed := credential.Parse(cookies)
				keys := make([]string, 0, len(parsed))
				for k := range parsed {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintln(out, k)
				}
			} else {
				fmt.Fprintln(out, cookies)
			}

			if save {
				if err := credential.WriteFile(output, cookies); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Cookies saved to %s\n", output)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&curlCommand, "curl-command", "", "curl command text")
	fs.StringVar(&curlFile, "curl-file", "", "file containing the curl command")
	fs.BoolVar(&save, "save", false, "save the cookies to --output")
	fs.StringVarP(&output, "output", "o", credential.DefaultFile, "cookie file written by --save")
	fs.BoolVar(&names, "names", false, "print only the cookie names")
	return cmd
}
