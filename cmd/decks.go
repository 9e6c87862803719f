package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	deckType string
	deckTool string
)

var decksCmd = &cobra.Command{
	Use:   "decks",
	Short: "List DRC or LVS rule decks for a tool, with resolved paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, cleanup, err := loadTechnology()
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		switch deckType {
		case "drc":
			decks, err := t.GetDRCDecksForTool(deckTool)
			if err != nil {
				return err
			}
			for _, deck := range decks {
				fmt.Fprintf(out, "%s\t%s\n", deck.DeckName, deck.Path)
			}
			if text := t.AdditionalDRCText(); text != "" {
				fmt.Fprintf(out, "additional DRC text:\n%s\n", text)
			}
		case "lvs":
			decks, err := t.GetLVSDecksForTool(deckTool)
			if err != nil {
				return err
			}
			for _, deck := range decks {
				fmt.Fprintf(out, "%s\t%s\n", deck.DeckName, deck.Path)
			}
			if text := t.AdditionalLVSText(); text != "" {
				fmt.Fprintf(out, "additional LVS text:\n%s\n", text)
			}
		default:
			return fmt.Errorf("unknown deck type %q: must be drc or lvs", deckType)
		}
		return nil
	},
}

func init() {
	decksCmd.Flags().StringVar(&deckType, "type", "drc", "deck type: drc or lvs")
	decksCmd.Flags().StringVar(&deckTool, "tool", "", "tool name to select decks for (required)")
	_ = decksCmd.MarkFlagRequired("tool")
	rootCmd.AddCommand(decksCmd)
}
