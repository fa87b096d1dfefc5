package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kylejryan/nail-studio-portal/internal/ordered"
)

// roster adapts one ranked collection to the list and move commands.
type roster struct {
	columns []column
	list    func(ctx context.Context) ([][]string, error)
	move    func(ctx context.Context, id string, dir ordered.Direction) error
}

func visibility(v bool) string {
	if v {
		return "shown"
	}
	return styleMuted.Render("hidden")
}

func rank(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func looksEditor() roster {
	e := studio.Looks.Editor
	return roster{
		columns: []column{{Header: "Order", Width: 6}, {Header: "Title", Width: 30}, {Header: "Image", Width: 8}, {Header: "State", Width: 7}, {Header: "ID"}},
		list: func(ctx context.Context) ([][]string, error) {
			items, err := e.List(ctx)
			if err != nil {
				return nil, err
			}
			rows := make([][]string, 0, len(items))
			for _, l := range items {
				rows = append(rows, []string{rank(l.Order), l.Title, string(l.Source), visibility(l.Visible()), l.ID})
			}
			return rows, nil
		},
		move: e.Move,
	}
}

func techniciansEditor() roster {
	e := studio.Technicians.Editor
	return roster{
		columns: []column{{Header: "Order", Width: 6}, {Header: "Name", Width: 24}, {Header: "Role", Width: 16}, {Header: "Photos", Width: 6}, {Header: "State", Width: 7}, {Header: "ID"}},
		list: func(ctx context.Context) ([][]string, error) {
			items, err := e.List(ctx)
			if err != nil {
				return nil, err
			}
			rows := make([][]string, 0, len(items))
			for _, t := range items {
				rows = append(rows, []string{rank(t.Order), t.Name, t.Role, strconv.Itoa(len(t.Gallery)), visibility(t.Visible()), t.ID})
			}
			return rows, nil
		},
		move: e.Move,
	}
}

// entryCmd builds the "<name> ls" and "<name> move" commands of one collection.
func entryCmd(name, short string, open func() roster) *cobra.Command {
	parent := &cobra.Command{Use: name, Short: short}

	printList := func(ctx context.Context) error {
		r := open()
		rows, err := r.list(ctx)
		if err != nil {
			fmt.Println(formatError("Failed to list " + name))
			return err
		}
		if len(rows) == 0 {
			fmt.Println(formatWarning("Nothing here yet"))
			return nil
		}
		fmt.Println(formatTitle(fmt.Sprintf("%s (%d)", name, len(rows))))
		fmt.Print(renderTable(r.columns, rows))
		return nil
	}

	parent.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every entry in display order, hidden ones included",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printList(cmd.Context())
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "move <id> <up|down>",
		Short: "Move one entry a slot up or down",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ordered.Direction(args[1])
			if err := open().move(cmd.Context(), args[0], dir); err != nil {
				fmt.Println(formatError("Move failed: " + err.Error()))
				return err
			}
			fmt.Println(formatSuccess("Moved " + args[0] + " " + string(dir)))
			return printList(cmd.Context())
		},
	})
	return parent
}
