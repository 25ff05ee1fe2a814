package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/drift/internal/catalog"
	"github.com/five82/drift/internal/shelf"
)

var (
	addShelf   string
	addPick    int
	listShelf  string
	listSort   string
	exportPath string
	searchMood bool
)

// searchCmd queries the public catalog
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the book catalog",
	Long: `Search the book catalog.

With --mood the query describes a mood instead of a title, and the library
service's suggestions are printed above the catalog matches.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		if searchMood {
			advice, err := current.MoodSearch(cmd.Context(), query)
			if err != nil {
				return err
			}
			fmt.Println(advice)
			fmt.Println()
		}
		books, err := current.Search(cmd.Context(), query)
		if err != nil {
			return err
		}
		if len(books) == 0 {
			fmt.Println("No results.")
			return nil
		}
		lib := current.Library()
		tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tID\tTITLE\tAUTHORS\tSHELF")
		for i, b := range books {
			on := ""
			if loc, ok := lib.Locate(b.ExternalID); ok {
				on = string(loc.Shelf)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, b.ExternalID, b.Title, strings.Join(b.Authors, ", "), on)
		}
		return tw.Flush()
	},
}

// addCmd files a catalog result onto a shelf
var addCmd = &cobra.Command{
	Use:   "add <query>",
	Short: "Search the catalog and add a result to a shelf",
	Long: `Search the catalog and add one result to a shelf.

The first result is used unless --pick selects another (1-based, as shown
by 'drift search').`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := shelf.ParseShelf(addShelf)
		if err != nil {
			return err
		}
		books, err := current.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		b, err := pick(books, addPick)
		if err != nil {
			return err
		}
		if err := current.AddBook(cmd.Context(), b.Record(time.Now()), target); err != nil {
			return err
		}
		fmt.Printf("Added %q to %s.\n", b.Title, target.Label())
		reportNotice()
		return nil
	},
}

func pick(books []catalog.Book, n int) (catalog.Book, error) {
	if len(books) == 0 {
		return catalog.Book{}, fmt.Errorf("no catalog results")
	}
	if n < 1 || n > len(books) {
		return catalog.Book{}, fmt.Errorf("--pick %d out of range (1-%d)", n, len(books))
	}
	return books[n-1], nil
}

// moveCmd changes a book's shelf
var moveCmd = &cobra.Command{
	Use:   "move <id> <shelf>",
	Short: "Move a book to another shelf (want, current, finished)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := shelf.ParseShelf(args[1])
		if err != nil {
			return err
		}
		if err := current.MoveBook(cmd.Context(), args[0], to); err != nil {
			return err
		}
		fmt.Printf("Moved %s to %s.\n", args[0], to.Label())
		reportNotice()
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a book from its shelf",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.RemoveBook(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s.\n", args[0])
		reportNotice()
		return nil
	},
}

// listCmd prints one or all shelves
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List shelved books",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := shelf.ParseSortKey(listSort)
		if err != nil {
			return err
		}
		names := shelf.Names
		if listShelf != "" {
			n, err := shelf.ParseShelf(listShelf)
			if err != nil {
				return err
			}
			names = []shelf.Name{n}
		}

		lib := current.Library()
		tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		for _, n := range names {
			fmt.Fprintf(tw, "%s (%d)\n", n.Label(), len(lib[n]))
			for _, rec := range shelf.Sorted(lib[n], key) {
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
					rec.ExternalID, rec.Title, rec.AuthorLine(), detail(rec), syncMark(rec))
			}
		}
		return tw.Flush()
	},
}

func detail(rec shelf.BookRecord) string {
	var parts []string
	if rec.Progress != nil {
		parts = append(parts, fmt.Sprintf("%d%%", *rec.Progress))
	}
	if rec.Rating != nil {
		parts = append(parts, strings.Repeat("*", *rec.Rating))
	}
	return strings.Join(parts, " ")
}

func syncMark(rec shelf.BookRecord) string {
	if rec.Synced() {
		return "synced"
	}
	return "local"
}

var progressCmd = &cobra.Command{
	Use:   "progress <id> <percent>",
	Short: "Record reading progress for a book on the current shelf",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pct, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
		if err != nil {
			return fmt.Errorf("progress must be a whole number: %w", err)
		}
		if err := current.SetProgress(cmd.Context(), args[0], pct); err != nil {
			return err
		}
		fmt.Printf("Progress for %s set to %d%%.\n", args[0], pct)
		reportNotice()
		return nil
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate <id> [1-5]",
	Short: "Rate a book, or clear its rating when no value is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rating *int
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating must be a whole number: %w", err)
			}
			rating = &n
		}
		if err := current.SetRating(args[0], rating); err != nil {
			return err
		}
		if rating == nil {
			fmt.Printf("Cleared rating for %s.\n", args[0])
		} else {
			fmt.Printf("Rated %s %d/5.\n", args[0], *rating)
		}
		return nil
	},
}

var noteCmd = &cobra.Command{
	Use:   "note <id>",
	Short: "Ask the library service for a short note about a shelved book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		note, err := current.Note(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(note)
		// Mood tags are a bonus; the note already answered the question.
		if tags, err := current.MoodTags(cmd.Context(), args[0]); err == nil && len(tags) > 0 {
			fmt.Printf("Moods: %s\n", strings.Join(tags, ", "))
		}
		return nil
	},
}

// exportCmd writes the library in its on-disk format
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the whole library as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportPath == "" || exportPath == "-" {
			return current.Shelves.Export(os.Stdout)
		}
		f, err := os.Create(exportPath)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		if err := current.Shelves.Export(f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d books to %s.\n", current.Library().Len(), exportPath)
		return nil
	},
}

// reportNotice surfaces a failed mirror without failing the command; the
// local edit has already been saved.
func reportNotice() {
	if notice := current.SyncState().Notice; notice != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", notice)
	}
}

func init() {
	searchCmd.Flags().BoolVar(&searchMood, "mood", false, "treat the query as a mood and ask for suggestions")
	addCmd.Flags().StringVarP(&addShelf, "shelf", "s", string(shelf.Want), "shelf to add to (want, current, finished)")
	addCmd.Flags().IntVar(&addPick, "pick", 1, "which search result to add")
	listCmd.Flags().StringVarP(&listShelf, "shelf", "s", "", "only list this shelf")
	listCmd.Flags().StringVar(&listSort, "sort", string(shelf.SortAdded), "order by added, title or author")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "write to this file instead of stdout")
}
