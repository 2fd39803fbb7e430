package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/appengine-ltd/wildmons/internal/render"
)

var (
	showJSON   bool
	searchJSON bool
	searchMode string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available maps",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show [map]",
	Short: "Show the grass and water encounters of one map",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var searchCmd = &cobra.Command{
	Use:   "search [species]",
	Short: "Find every map where a species appears",
	Long: `Loads every map and lists the slots whose species matches.

Maps that fail to load are reported and skipped. Exits 1 when no map
contains the species.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print JSON instead of text")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print JSON instead of text")
	searchCmd.Flags().StringVar(&searchMode, "mode", "", "match mode: exact or contains (default from config)")
}

func runList(cmd *cobra.Command, args []string) error {
	a, _, err := openAtlas()
	if err != nil {
		return err
	}
	ids, err := a.List(cmd.Context())
	if err != nil {
		return err
	}
	return render.ListText(cmd.OutOrStdout(), ids)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, _, err := openAtlas()
	if err != nil {
		return err
	}
	m, err := a.LoadMap(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if showJSON {
		return writeJSON(cmd.OutOrStdout(), m)
	}
	return render.Text(cmd.OutOrStdout(), m)
}

func runSearch(cmd *cobra.Command, args []string) error {
	mode, err := matchMode(searchMode)
	if err != nil {
		return err
	}
	a, _, err := openAtlas()
	if err != nil {
		return err
	}
	res, err := a.Search(cmd.Context(), strings.Join(args, " "), mode)
	if err != nil {
		return err
	}
	if searchJSON {
		err = writeJSON(cmd.OutOrStdout(), res)
	} else {
		err = render.SearchText(cmd.OutOrStdout(), res)
	}
	if err != nil {
		return err
	}
	if !res.AnyFound {
		return errNoMatches
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
