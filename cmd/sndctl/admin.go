package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sndctl/internal/admin"
	"sndctl/internal/api"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator operations",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the user directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		search, _ := cmd.Flags().GetString("search")
		sortBy, _ := cmd.Flags().GetString("sort")
		order, _ := cmd.Flags().GetString("order")
		filter, _ := cmd.Flags().GetString("filter")

		a, err := newApp("ListUsers")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Users.SetFilter(filter); err != nil {
			return err
		}
		if sortBy != "" {
			if err := a.Users.SetSort(sortBy, order); err != nil {
				return err
			}
		}
		if search != "" {
			a.Users.SetSearch(search)
			a.Users.FlushSearch()
		}
		a.Users.SetPage(page)

		listing, err := a.Users.Listing(cmd.Context())
		if err != nil {
			return err
		}

		if listing.Count == 0 {
			fmt.Println("No users found.")
			return nil
		}
		for _, u := range listing.Users {
			flags := ""
			if u.IsAdmin {
				flags += " [admin]"
			}
			if u.IsBanned {
				flags += " [banned]"
			}
			fmt.Printf("%-36s  %-24s  %3d sounds  %s%s\n",
				u.ID, u.Username, u.SoundCount, u.CreatedAt.Format("2006-01-02"), flags)
		}
		fmt.Printf("\nPage %d/%d\n", listing.Page, max(listing.TotalPages, 1))
		return nil
	},
}

// userFlagCmd builds the ban/unban/promote/demote commands, which differ
// only in the flag they set.
func userFlagCmd(use, short, operation string, banned, value bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(operation, "user", args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			var user *api.AdminUser
			if banned {
				user, err = a.Users.SetBanned(cmd.Context(), args[0], value)
			} else {
				user, err = a.Users.SetAdmin(cmd.Context(), args[0], value)
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s: admin=%v banned=%v\n", user.Username, user.IsAdmin, user.IsBanned)
			return nil
		},
	}
}

var (
	banCmd     = userFlagCmd("ban", "Ban a user", "BanUser", true, true)
	unbanCmd   = userFlagCmd("unban", "Unban a user", "UnbanUser", true, false)
	promoteCmd = userFlagCmd("promote", "Grant admin rights", "PromoteUser", false, true)
	demoteCmd  = userFlagCmd("demote", "Revoke admin rights", "DemoteUser", false, false)
)

var adminDeleteUserCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a user and all their sounds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteUser", "user", args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Users.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("User deleted (%d sound(s) removed).\n", result.DeletedSoundsCount)
		return nil
	},
}

var adminDeleteSoundCmd = &cobra.Command{
	Use:   "rm-sound ID",
	Short: "Delete any user's sound",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AdminDeleteSound", "sound", args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Users.DeleteSound(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

var adminSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the global limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetSettings")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Settings.Get(cmd.Context())
		if err != nil {
			return err
		}
		printSettings(s)
		return nil
	},
}

var adminSettingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the global limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UpdateSettings")
		if err != nil {
			return err
		}
		defer a.Close()

		current, err := a.Settings.Get(cmd.Context())
		if err != nil {
			return err
		}
		next := *current

		if cmd.Flags().Changed("max-sounds") {
			next.MaxSoundsPerUser, _ = cmd.Flags().GetInt("max-sounds")
		}
		if cmd.Flags().Changed("max-file-size") {
			next.MaxFileSize, _ = cmd.Flags().GetInt64("max-file-size")
		}
		if cmd.Flags().Changed("max-duration") {
			next.MaxDuration, _ = cmd.Flags().GetInt("max-duration")
		}
		if cmd.Flags().Changed("cooldown") {
			next.CooldownSeconds, _ = cmd.Flags().GetInt("cooldown")
		}
		if cmd.Flags().Changed("toggle-format") {
			format, _ := cmd.Flags().GetString("toggle-format")
			next.AllowedFormats = admin.ToggleFormat(next.AllowedFormats, format)
		}

		updated, err := a.Settings.Update(cmd.Context(), next)
		if err != nil {
			return err
		}
		printSettings(updated)
		return nil
	},
}

func printSettings(s *api.Settings) {
	fmt.Printf("Max sounds per user: %d\n", s.MaxSoundsPerUser)
	fmt.Printf("Max file size:       %d bytes\n", s.MaxFileSize)
	fmt.Printf("Max duration:        %ds\n", s.MaxDuration)
	fmt.Printf("Cooldown:            %ds\n", s.CooldownSeconds)
	fmt.Printf("Allowed formats:     %s\n", strings.Join(s.AllowedFormats, ", "))
}

func init() {
	adminUsersCmd.Flags().IntP("page", "p", 1, "Page number")
	adminUsersCmd.Flags().StringP("search", "q", "", "Search text")
	adminUsersCmd.Flags().String("sort", "", "Sort column (username, createdAt, soundCount)")
	adminUsersCmd.Flags().String("order", "asc", "Sort order (asc, desc)")
	adminUsersCmd.Flags().String("filter", admin.FilterAll, "Filter (all, admins, banned)")

	adminSettingsSetCmd.Flags().Int("max-sounds", 0, "Per-user sound quota")
	adminSettingsSetCmd.Flags().Int64("max-file-size", 0, "Maximum file size in bytes")
	adminSettingsSetCmd.Flags().Int("max-duration", 0, "Maximum duration in seconds")
	adminSettingsSetCmd.Flags().Int("cooldown", 0, "Upload cooldown in seconds")
	adminSettingsSetCmd.Flags().String("toggle-format", "", "Toggle an allowed MIME format")
	adminSettingsCmd.AddCommand(adminSettingsSetCmd)

	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(banCmd)
	adminCmd.AddCommand(unbanCmd)
	adminCmd.AddCommand(promoteCmd)
	adminCmd.AddCommand(demoteCmd)
	adminCmd.AddCommand(adminDeleteUserCmd)
	adminCmd.AddCommand(adminDeleteSoundCmd)
	adminCmd.AddCommand(adminSettingsCmd)
}
