package cmd

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"zalonotify/pkg/order"
)

var renderTemplate string

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Inspect order documents and preview notifications",
}

var orderInspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List the keys an order offers as custom fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := order.LoadFile(args[0])
		if err != nil {
			return err
		}
		printFields(cmd.OutOrStdout(), order.Inspect(doc))
		return nil
	},
}

var orderRenderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render the notification message for an order without sending it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("cmd.order", false)
		if err != nil {
			return err
		}

		doc, err := order.LoadFile(args[0])
		if err != nil {
			return err
		}

		notifier, err := a.newNotifier()
		if err != nil {
			return err
		}

		settings := a.store.Settings()
		if strings.TrimSpace(renderTemplate) != "" {
			settings.MessageTemplate = renderTemplate
		}
		printMessage(cmd.OutOrStdout(), notifier.Render(settings, doc))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orderCmd)
	orderCmd.AddCommand(orderInspectCmd, orderRenderCmd)
	orderRenderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "template to use instead of the saved one")
}

func printFields(w io.Writer, fields []order.Field) {
	for _, field := range fields {
		printField(w, field.Key, field.Value)
	}
}
