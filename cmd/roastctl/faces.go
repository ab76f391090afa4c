package main

import (
	"fmt"
	"path/filepath"

	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/ingest"
	"github.com/spf13/cobra"
)

var (
	facesFile  string
	facesReset bool
)

var facesCmd = &cobra.Command{
	Use:   "faces",
	Short: "Load face references (JSONL with image_path or embedding) into the face corpus",
	RunE:  runFaces,
}

func init() {
	facesCmd.Flags().StringVar(&facesFile, "file", "", "face corpus file (.jsonl)")
	facesCmd.Flags().BoolVar(&facesReset, "reset", false, "empty the collection first")
	_ = facesCmd.MarkFlagRequired("file")
}

func runFaces(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	lines, err := ingest.ReadFaceLines(facesFile)
	if err != nil {
		return fmt.Errorf("read faces: %w", err)
	}

	loader := ingest.NewFaceLoader(
		s.corpus.Encoder,
		s.corpus.Preparer,
		constants.RetrievalConfig.FaceDimension,
		filepath.Dir(facesFile),
		s.logger,
	)
	refs, skipped := loader.Load(ctx, lines)

	in := ingest.NewIngester(s.corpus.Faces, 0, 0, s.logger)
	if facesReset {
		if err := in.Reset(ctx); err != nil {
			return err
		}
	}

	n, err := in.IngestFaces(ctx, refs)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d faces into %s (%d skipped)\n", n, s.corpus.Faces.Name(), skipped)
	return nil
}
