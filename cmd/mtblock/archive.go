package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/mtblock/archive"
)

func newExportCmd(a *app) *cobra.Command {
	var compression string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "write every stored block to an archive",
		Long: `
Write every block of the world to an archive file, or to stdout when file is
"-". Blocks are copied as stored.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if compression != "" {
				a.cfg.Archive.Compression = compression
			}
			ct, err := a.cfg.ArchiveCompression()
			if err != nil {
				return err
			}

			w, err := a.openWorld(cmd)
			if err != nil {
				return err
			}
			defer w.Close()

			var (
				out  io.Writer = cmd.OutOrStdout()
				file *os.File
			)
			if args[0] != "-" {
				if file, err = os.Create(args[0]); err != nil {
					return err
				}
				defer file.Close()
				out = file
			}

			n, err := archive.Export(cmd.Context(), w.Store(), out, ct)
			if err != nil {
				return err
			}
			if file != nil {
				if err := file.Sync(); err != nil {
					return err
				}
			}
			a.logger.Info("export done", slog.Int("blocks", n), slog.String("compression", ct.String()))

			return nil
		},
	}
	cmd.Flags().StringVar(&compression, "compression", "", "payload compression (none, zstd, s2, lz4)")

	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "store every block of an archive",
		Long: `
Store every block of an archive file, or of stdin when file is "-". Blocks
already stored at the same positions are replaced.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.openWorld(cmd)
			if err != nil {
				return err
			}
			defer w.Close()

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			n, err := archive.Import(cmd.Context(), in, w.Store())
			if err != nil {
				return err
			}
			a.logger.Info("import done", slog.Int("blocks", n))

			return nil
		},
	}
}
