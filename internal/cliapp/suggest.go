package cliapp

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [prefix]",
	Short: "List indexed terms starting with the given prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := readFlags(cmd)
		e, err := loadEngine(flags)
		if err != nil {
			return err
		}
		defer e.Shutdown()

		terms, err := e.Suggest(args[0], flags.limit)
		if err != nil {
			return err
		}
		if len(terms) == 0 {
			fmt.Printf("No indexed terms start with %q.\n", args[0])
			return nil
		}
		fmt.Println(strings.Join(terms, "\n"))
		return nil
	},
}

var correctCmd = &cobra.Command{
	Use:   "correct [query]",
	Short: "Suggest spelling corrections for a query's unmatched terms",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := readFlags(cmd)
		e, err := loadEngine(flags)
		if err != nil {
			return err
		}
		defer e.Shutdown()

		corrections, err := e.Correct(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(corrections) == 0 {
			fmt.Println("No corrections found.")
			return nil
		}
		fmt.Println(strings.Join(corrections, "\n"))
		return nil
	},
}
