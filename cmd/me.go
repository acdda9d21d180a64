package cmd

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"zalonotify/pkg/zalo"
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Check the bot token and show the bot profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		a, err := newApp("cmd.me", false)
		if err != nil {
			return err
		}

		profile, err := a.bot.GetMe(cmd.Context(), a.store.Settings().BotToken)
		if err != nil {
			return errors.New(zalo.MessageOf(err))
		}
		printProfile(cmd.OutOrStdout(), profile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(meCmd)
}

var profileFields = []struct {
	path  string
	label string
}{
	{path: "id", label: "ID"},
	{path: "account_name", label: "Account"},
	{path: "display_name", label: "Display name"},
	{path: "account_type", label: "Type"},
	{path: "can_join_groups", label: "Can join groups"},
}

func printProfile(w io.Writer, profile json.RawMessage) {
	parsed := gjson.ParseBytes(profile)
	for _, field := range profileFields {
		value := parsed.Get(field.path)
		if !value.Exists() {
			continue
		}
		printField(w, field.label, value.String())
	}
}
