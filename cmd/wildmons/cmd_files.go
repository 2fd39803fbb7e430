package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/appengine-ltd/wildmons/internal/render"
	"github.com/appengine-ltd/wildmons/internal/source"
)

var (
	indexOut string
	docsOut  string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Write mapIndex.json from the map files under the root directory",
	Long: `Scans <root>/<maps_dir> for map files and writes the index read by
the "index" source kind. The file is replaced atomically.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Write a Markdown page per map plus a README index",
	Args:  cobra.NoArgs,
	RunE:  runDocs,
}

func init() {
	indexCmd.Flags().StringVar(&indexOut, "out", "", "index path (default <root>/<index>)")
	docsCmd.Flags().StringVar(&docsOut, "out", filepath.Join("docs", "encounters"), "output directory")
}

func runIndex(cmd *cobra.Command, args []string) error {
	dir := filepath.Join(cfg.Source.Root, cfg.Source.MapsDir)
	files, err := source.NewDirSource(dir, cfg.Source.Extension).Files(cmd.Context())
	if err != nil {
		return err
	}
	out := indexOut
	if out == "" {
		out = filepath.Join(cfg.Source.Root, cfg.Source.Index)
	}
	if err := source.WriteIndexFile(out, files); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d maps)\n", out, len(files))
	return nil
}

func runDocs(cmd *cobra.Command, args []string) error {
	a, _, err := openAtlas()
	if err != nil {
		return err
	}
	res, err := a.LoadAll(cmd.Context())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(docsOut, 0o755); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := len(res.Failures)
	for _, f := range res.Failures {
		logger.Warn("map skipped", zap.String("map", f.MapID), zap.String("error", f.Error))
	}

	files := make([]render.DocFile, 0, len(res.Maps))
	for _, m := range res.Maps {
		doc := render.MarkdownMap(m)
		path := filepath.Join(docsOut, doc.Name)
		if err := os.WriteFile(path, []byte(doc.Content), 0o644); err != nil {
			logger.Warn("write failed", zap.String("path", path), zap.Error(err))
			failed++
			continue
		}
		files = append(files, doc)
		fmt.Fprintf(out, "wrote %s\n", path)
	}

	indexPath := filepath.Join(docsOut, "README.md")
	if err := os.WriteFile(indexPath, []byte(render.MarkdownIndex(files)), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", indexPath)
	fmt.Fprintf(out, "done wrote=%d failed=%d\n", len(files), failed)
	if failed > 0 {
		return fmt.Errorf("%d maps failed", failed)
	}
	return nil
}
