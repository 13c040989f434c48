package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sndctl/internal/api"
	"sndctl/internal/app"
	"sndctl/internal/state"
	"sndctl/internal/upload"
)

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload an audio clip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		wait, _ := cmd.Flags().GetBool("wait")

		a, err := newApp("Upload", "file", filepath.Base(args[0]))
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", args[0], err)
		}

		file := upload.File{
			Name: filepath.Base(path),
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		}
		if err := a.Uploads.Select(file); err != nil {
			return err
		}
		if name != "" {
			a.Uploads.SetName(name)
		}

		if remaining := a.Uploads.CooldownRemaining(); remaining > 0 {
			if !wait {
				return fmt.Errorf("upload cooldown active: %ds remaining (use --wait)", remaining)
			}
			waitOutCooldown(a)
		}

		done := make(chan struct{})
		go reportProgress(a, done)
		sound, err := a.Uploads.Submit(cmd.Context())
		close(done)
		if err != nil {
			if remaining := a.Uploads.CooldownRemaining(); remaining > 0 {
				return fmt.Errorf("%w (retry in %ds)", err, remaining)
			}
			return err
		}

		fmt.Printf("\rUploaded %q (%s, %.1fs)\n", sound.Name, formatSize(sound.Size), sound.Duration)
		return nil
	},
}

// waitOutCooldown polls the derived remaining-seconds value once per
// second until the cooldown self-clears. The value is recomputed from the
// absolute expiry every tick, so a suspended process wakes up with the
// correct remainder.
func waitOutCooldown(a *app.App) {
	for {
		remaining := a.Uploads.CooldownRemaining()
		if remaining == 0 {
			fmt.Print("\r                              \r")
			return
		}
		fmt.Printf("\rCooldown: %ds remaining ", remaining)
		time.Sleep(time.Second)
	}
}

// reportProgress prints upload progress until done is closed.
func reportProgress(a *app.App, done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if a.Uploads.State() == upload.StateSubmitting {
				fmt.Printf("\rUploading... %3d%%", a.Uploads.Progress())
			}
		}
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your sounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		search, _ := cmd.Flags().GetString("search")

		a, err := newApp("ListSounds")
		if err != nil {
			return err
		}
		defer a.Close()

		if limit > 0 {
			a.Library.SetLimit(limit)
		}
		a.Library.SetPage(page)
		if search != "" {
			a.Library.SetSearch(search)
			a.Library.FlushSearch()
		}

		listing, err := a.Library.Listing(cmd.Context())
		if err != nil {
			return err
		}
		return printListing(a, listing)
	},
}

func printListing(a *app.App, listing *api.SoundListing) error {
	if listing.Count == 0 {
		fmt.Println("No sounds found.")
	} else {
		mode, err := a.State.ViewPreference()
		if err != nil {
			return err
		}
		if mode == state.ViewGrid {
			for i, s := range listing.Sounds {
				fmt.Printf("%-24s", truncate(s.Name, 22))
				if (i+1)%3 == 0 {
					fmt.Println()
				}
			}
			if listing.Count%3 != 0 {
				fmt.Println()
			}
		} else {
			for i, s := range listing.Sounds {
				fmt.Printf("%2d  %-32s  %6.1fs  %8s  %s\n",
					(listing.Page-1)*listing.Limit+i+1,
					s.Name,
					s.Duration,
					formatSize(s.Size),
					s.CreatedAt.Format("2006-01-02 15:04"),
				)
			}
		}
	}

	fmt.Printf("\nPage %d/%d - %d/%d sounds used\n",
		listing.Page, max(listing.TotalPages, 1), listing.TotalCount, listing.MaxSounds)
	return nil
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the library interactively",
	Long: `Browse the library interactively.

Commands: n (next page), p (previous page), g N (go to page N),
/TEXT (search), / (clear search), d N (delete item N), r N NAME
(rename item N), enter (refresh), q (quit).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Browse")
		if err != nil {
			return err
		}
		defer a.Close()

		return runBrowser(cmd.Context(), a, os.Stdin)
	},
}

func runBrowser(ctx context.Context, a *app.App, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		listing, err := a.Library.Listing(ctx)
		if err != nil {
			return err
		}
		if err := printListing(a, listing); err != nil {
			return err
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "q":
			return nil
		case line == "":
			a.Library.Invalidate()
		case line == "n":
			if a.Library.Page() < listing.TotalPages {
				a.Library.SetPage(a.Library.Page() + 1)
			}
		case line == "p":
			a.Library.SetPage(a.Library.Page() - 1)
		case strings.HasPrefix(line, "g "):
			n, err := strconv.Atoi(strings.TrimSpace(line[2:]))
			if err != nil {
				fmt.Println("usage: g N")
				continue
			}
			a.Library.SetPage(n)
		case strings.HasPrefix(line, "/"):
			a.Library.SetSearch(strings.TrimSpace(line[1:]))
			a.Library.FlushSearch()
		case strings.HasPrefix(line, "d "):
			sound, ok := pickSound(listing, strings.TrimSpace(line[2:]))
			if !ok {
				fmt.Println("usage: d N")
				continue
			}
			if err := a.Library.Delete(ctx, sound.ID); err != nil {
				fmt.Printf("delete failed: %v\n", err)
			}
		case strings.HasPrefix(line, "r "):
			fields := strings.SplitN(strings.TrimSpace(line[2:]), " ", 2)
			if len(fields) != 2 {
				fmt.Println("usage: r N NAME")
				continue
			}
			sound, ok := pickSound(listing, fields[0])
			if !ok {
				fmt.Println("usage: r N NAME")
				continue
			}
			if err := a.Library.Rename(ctx, sound, fields[1]); err != nil {
				fmt.Printf("rename failed: %v\n", err)
			}
		default:
			fmt.Println("commands: n, p, g N, /TEXT, d N, r N NAME, q")
		}
	}
}

// pickSound resolves a 1-based ordinal (as printed by the listing) to a
// sound on the current page.
func pickSound(listing *api.SoundListing, ordinal string) (*api.Sound, bool) {
	n, err := strconv.Atoi(ordinal)
	if err != nil {
		return nil, false
	}
	n -= (listing.Page - 1) * listing.Limit
	if n < 1 || n > len(listing.Sounds) {
		return nil, false
	}
	return &listing.Sounds[n-1], true
}

var renameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a sound",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RenameSound", "sound", args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		sound, err := findSound(cmd.Context(), a, args[0])
		if err != nil {
			return err
		}
		if err := a.Library.Rename(cmd.Context(), sound, args[1]); err != nil {
			return err
		}
		fmt.Println("Renamed.")
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a sound",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteSound", "sound", args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Library.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

var playCmd = &cobra.Command{
	Use:   "play ID",
	Short: "Print the playback URL for a sound",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Play")
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println(a.Client.SoundStreamURL(args[0]))
		return nil
	},
}

var viewCmd = &cobra.Command{
	Use:   "view [list|grid]",
	Short: "Show or set the listing display mode",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ViewPreference")
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			mode, err := a.State.ViewPreference()
			if err != nil {
				return err
			}
			fmt.Println(mode)
			return nil
		}
		if err := a.State.SetViewPreference(args[0]); err != nil {
			return err
		}
		fmt.Printf("Display mode set to %s.\n", args[0])
		return nil
	},
}

// findSound locates a sound by ID by walking the listing pages. The
// collection is bounded by the per-user quota, so this stays cheap.
func findSound(ctx context.Context, a *app.App, id string) (*api.Sound, error) {
	for page := 1; ; page++ {
		a.Library.SetPage(page)
		listing, err := a.Library.Listing(ctx)
		if err != nil {
			return nil, err
		}
		for i := range listing.Sounds {
			if listing.Sounds[i].ID == id {
				return &listing.Sounds[i], nil
			}
		}
		if page >= listing.TotalPages {
			return nil, fmt.Errorf("no sound with id %s", id)
		}
	}
}

func formatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "~"
}
