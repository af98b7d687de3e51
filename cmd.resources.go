package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrDeleteNotConfirmed is returned when a deletion was refused or could
// not be confirmed.
var ErrDeleteNotConfirmed = errors.New("deletion not confirmed")

// stdinIsTerminal reports whether r is an interactive terminal.
var stdinIsTerminal = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// listOutput is printed by the `list` subcommands.
type listOutput struct {
	Total    int   `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Items    []any `json:"items"`
}

// newResourceCommand builds the list, get and delete subcommands of a resource.
func newResourceCommand[T any, D any](res Resource[T, D], service func(*Clients) ResourceService[T, D], opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   res.Path,
		Short: fmt.Sprintf("Query or delete %s on the library backend", res.Path),
	}

	// connect builds the client out of the configuration at run time.
	connect := func() (ResourceService[T, D], error) {
		config, err := opts.loadConfig()
		if err != nil {
			return nil, err
		}
		return service(NewClients(NewBackendHTTPClient(&config.Backend), config.Backend.BaseURL)), nil
	}

	var search string
	var page, size int
	list := &cobra.Command{
		Use:   "list",
		Short: "List " + res.Path + " with optional search and pagination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size <= 0 {
				return ErrInvalidPageSize
			}
			if page < 0 {
				return ErrInvalidPage
			}
			svc, err := connect()
			if err != nil {
				return err
			}
			items, err := svc.List(cmd.Context())
			if err != nil {
				return errors.New(NormalizeError(err).Message)
			}
			filtered := Filter(items, search, res.Fields)
			visible := Paginate(filtered, page, size)
			out := listOutput{Total: len(filtered), Page: page, PageSize: size, Items: make([]any, 0, len(visible))}
			now := NewClock(false).Now()
			for _, item := range visible {
				if res.Row != nil {
					out.Items = append(out.Items, res.Row(item, now))
					continue
				}
				out.Items = append(out.Items, item)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	list.Flags().StringVar(&search, "search", "", "case-insensitive search term")
	list.Flags().IntVar(&page, "page", 0, "zero-based page")
	list.Flags().IntVar(&size, "size", DefaultPageSize, "page size")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one of the " + res.Path,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseEntityID(args[0])
			if err != nil {
				return err
			}
			svc, err := connect()
			if err != nil {
				return err
			}
			item, err := svc.GetByID(cmd.Context(), id)
			if err != nil {
				return errors.New(NormalizeError(err).Message)
			}
			if res.Row != nil {
				return printJSON(cmd.OutOrStdout(), res.Row(item, NewClock(false).Now()))
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of the " + res.Path,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseEntityID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				if err = confirmDelete(cmd.InOrStdin(), cmd.OutOrStdout(), res.Name, id); err != nil {
					return err
				}
			}
			svc, err := connect()
			if err != nil {
				return err
			}
			if err = svc.Delete(cmd.Context(), id); err != nil {
				return errors.New(NormalizeError(err).Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted successfully.\n", res.Name)
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "delete without confirmation")

	cmd.AddCommand(list, get, del)
	return cmd
}

// confirmDelete asks for a y/N answer on interactive terminals and refuses otherwise.
func confirmDelete(in io.Reader, out io.Writer, name string, id int64) error {
	if !stdinIsTerminal(in) {
		return fmt.Errorf("%w: use --yes when not running in a terminal", ErrDeleteNotConfirmed)
	}
	fmt.Fprintf(out, "Delete %s %d? [y/N] ", strings.ToLower(name), id)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return ErrDeleteNotConfirmed
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := codec.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
