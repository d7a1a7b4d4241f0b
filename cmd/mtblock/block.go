package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/mtblock/mapblock"
)

func newListCmd(a *app) *cobra.Command {
	var count bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "list stored block positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.openWorld(cmd)
			if err != nil {
				return err
			}
			defer w.Close()

			positions, err := w.Blocks(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if count {
				fmt.Fprintln(out, len(positions))
				return nil
			}
			for _, pos := range positions {
				fmt.Fprintf(out, "%s\t%d\n", pos, pos.Int64())
			}

			return nil
		},
	}
	cmd.Flags().BoolVar(&count, "count", false, "print only the number of blocks")

	return cmd
}

// blockSummary is the YAML form printed by inspect.
type blockSummary struct {
	Position         string         `yaml:"position,omitempty"`
	Version          uint8          `yaml:"version"`
	Compression      string         `yaml:"compression"`
	Flags            *flagSummary   `yaml:"flags,omitempty"`
	LightingComplete *uint16        `yaml:"lighting_complete,omitempty"`
	Timestamp        *uint32        `yaml:"timestamp,omitempty"`
	ContentWidth     uint8          `yaml:"content_width"`
	ParamsWidth      uint8          `yaml:"params_width"`
	Nodes            []nodeCount    `yaml:"nodes"`
	NodeMetadata     []metaSummary  `yaml:"node_metadata,omitempty"`
	StaticObjects    int            `yaml:"static_objects"`
	NodeTimers       []timerSummary `yaml:"node_timers,omitempty"`
	Warnings         []string       `yaml:"warnings,omitempty"`
}

type flagSummary struct {
	Underground     bool `yaml:"underground"`
	DayNightDiffers bool `yaml:"day_night_differs"`
	LightingExpired bool `yaml:"lighting_expired"`
	Generated       bool `yaml:"generated"`
}

type nodeCount struct {
	ID    uint16 `yaml:"id"`
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

type metaSummary struct {
	Position string            `yaml:"position"`
	Vars     map[string]string `yaml:"vars,omitempty"`
	Legacy   bool              `yaml:"legacy,omitempty"`
}

type timerSummary struct {
	Position string `yaml:"position"`
	Timeout  int32  `yaml:"timeout_ms"`
	Elapsed  int32  `yaml:"elapsed_ms"`
}

func summarize(b *mapblock.Block, warnings mapblock.Warnings) blockSummary {
	s := blockSummary{
		Version:       b.Version,
		Compression:   b.WasCompressed.String(),
		ContentWidth:  b.ContentWidth,
		ParamsWidth:   b.ParamsWidth,
		StaticObjects: b.StaticObjects.Len(),
		Warnings:      warnings.Strings(),
	}

	if f, ok := b.Flags.Get(); ok {
		s.Flags = &flagSummary{
			Underground:     f.Has(mapblock.FlagUnderground),
			DayNightDiffers: f.Has(mapblock.FlagDayNightDiffers),
			LightingExpired: f.Has(mapblock.FlagLightingExpired),
			Generated:       f.Has(mapblock.FlagGenerated),
		}
	}
	if v, ok := b.LightingComplete.Get(); ok {
		s.LightingComplete = &v
	}
	if v, ok := b.Timestamp.Get(); ok {
		s.Timestamp = &v
	}

	counts := make(map[uint16]int)
	for _, v := range b.Voxels {
		counts[v.Content]++
	}
	for id, n := range counts {
		name, ok := b.ContentName(id)
		if !ok {
			name = "<unknown>"
		}
		s.Nodes = append(s.Nodes, nodeCount{ID: id, Name: name, Count: n})
	}
	sort.Slice(s.Nodes, func(i, j int) bool {
		if s.Nodes[i].Count != s.Nodes[j].Count {
			return s.Nodes[i].Count > s.Nodes[j].Count
		}
		return s.Nodes[i].ID < s.Nodes[j].ID
	})

	for _, m := range b.NodeMetadata.Items() {
		ms := metaSummary{
			Position: mapblock.PosFromIndex(int(m.Position)).String(),
			Legacy:   m.Legacy(),
		}
		if len(m.Vars) > 0 {
			ms.Vars = make(map[string]string, len(m.Vars))
			for _, v := range m.Vars {
				ms.Vars[v.Key] = string(v.Value)
			}
		}
		s.NodeMetadata = append(s.NodeMetadata, ms)
	}

	for _, t := range b.NodeTimers.Items() {
		s.NodeTimers = append(s.NodeTimers, timerSummary{
			Position: mapblock.PosFromIndex(int(t.Position)).String(),
			Timeout:  t.Timeout,
			Elapsed:  t.Elapsed,
		})
	}

	return s
}

func newInspectCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "inspect [block-pos]",
		Short: "print a decoded block as YAML",
		Long: `
Decode one block and print its header, node counts, metadata and timers as
YAML. The block is read from the world at block-pos, written as "(x,y,z)",
or from a raw blob file given with --file.
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				pos  string
				err  error
			)

			switch {
			case file != "" && len(args) == 0:
				if data, err = os.ReadFile(file); err != nil {
					return err
				}
			case file == "" && len(args) == 1:
				bp, err := mapblock.ParseBlockPos(args[0])
				if err != nil {
					return err
				}
				w, err := a.openWorld(cmd)
				if err != nil {
					return err
				}
				defer w.Close()

				if data, err = w.Store().Get(cmd.Context(), bp); err != nil {
					return fmt.Errorf("inspect block %s: %w", bp, err)
				}
				pos = bp.String()
			default:
				return errors.New("inspect needs either a block position or --file")
			}

			block, warnings, err := mapblock.Decode(data)
			if err != nil {
				return err
			}

			summary := summarize(block, warnings)
			summary.Position = pos

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(summary); err != nil {
				return err
			}

			return enc.Close()
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read a raw block blob from this file")

	return cmd
}
