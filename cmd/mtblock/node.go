package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/mtblock/mapblock"
	"github.com/arloliu/mtblock/world"
)

func newGetNodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "getnode <node-pos>",
		Short: "print the node at a world position",
		Long: `
Print the name, param1 and param2 of the node at node-pos, written as
"(x,y,z)" in world node coordinates.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := mapblock.ParseNodePos(args[0])
			if err != nil {
				return err
			}

			w, err := a.openWorld(cmd)
			if err != nil {
				return err
			}
			defer w.Close()

			node, err := w.GetNode(cmd.Context(), pos)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tparam1=%d\tparam2=%d\n", pos, node.Name, node.Param1, node.Param2)

			return nil
		},
	}
}

// editEntry is one line of a setnode --edits file.
type editEntry struct {
	Pos    string `yaml:"pos"`
	Name   string `yaml:"name"`
	Param1 uint8  `yaml:"param1"`
	Param2 uint8  `yaml:"param2"`
}

func loadEdits(path string) ([]world.Edit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []editEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse edits %s: %w", path, err)
	}

	edits := make([]world.Edit, 0, len(entries))
	for i, e := range entries {
		pos, err := mapblock.ParseNodePos(e.Pos)
		if err != nil {
			return nil, fmt.Errorf("edit %d: %w", i, err)
		}
		if e.Name == "" {
			return nil, fmt.Errorf("edit %d: missing node name", i)
		}
		edits = append(edits, world.Edit{
			Pos:  pos,
			Node: world.Node{Name: e.Name, Param1: e.Param1, Param2: e.Param2},
		})
	}

	return edits, nil
}

func newSetNodeCmd(a *app) *cobra.Command {
	var (
		param1    uint8
		param2    uint8
		editsFile string
		create    string
	)

	cmd := &cobra.Command{
		Use:   "setnode [node-pos name]",
		Short: "replace nodes in the world",
		Long: `
Replace the node at node-pos with name. With --edits, apply every edit of a
YAML list instead:

  - pos: "(0,0,0)"
    name: default:goldblock
  - pos: "(1,0,0)"
    name: default:torch
    param2: 1

Each affected block is read and written once.
`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edits []world.Edit

			switch {
			case editsFile != "" && len(args) == 0:
				var err error
				if edits, err = loadEdits(editsFile); err != nil {
					return err
				}
			case editsFile == "" && len(args) == 2:
				pos, err := mapblock.ParseNodePos(args[0])
				if err != nil {
					return err
				}
				edits = []world.Edit{{Pos: pos, Node: world.Node{Name: args[1], Param1: param1, Param2: param2}}}
			default:
				return errors.New("setnode needs either a position and a node name or --edits")
			}

			if create != "" {
				a.cfg.CreateMissing = create
			}

			w, err := a.openWorld(cmd)
			if err != nil {
				return err
			}
			defer w.Close()

			blocks, err := w.SetNodes(cmd.Context(), edits)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "set %d nodes in %d blocks\n", len(edits), blocks)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.Uint8Var(&param1, "param1", 0, "param1 of the new node")
	flags.Uint8Var(&param2, "param2", 0, "param2 of the new node")
	flags.StringVar(&editsFile, "edits", "", "YAML file listing edits")
	flags.StringVar(&create, "create-missing", "", "create missing blocks filled with this node")

	return cmd
}
