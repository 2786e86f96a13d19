package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dukerupert/pagequest/internal/engagement"
	"github.com/dukerupert/pagequest/internal/store"
)

func init() {
	achievementAddCmd.Flags().StringVar(&achievementDesc, "description", "", "Description shown to readers")
	achievementAddCmd.Flags().StringVar(&achievementIcon, "icon", "🏅", "Icon")
	achievementCmd.AddCommand(achievementListCmd, achievementAddCmd)
	rootCmd.AddCommand(achievementCmd)
}

var (
	achievementDesc string
	achievementIcon string
)

var achievementCmd = &cobra.Command{
	Use:   "achievement",
	Short: "Manage the achievement catalog",
}

var achievementListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the achievement catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := store.New(a.db).Achievements.List()
		if err != nil {
			return err
		}
		fmt.Printf("%-4s  %-20s  %-18s  %s\n", "ID", "NAME", "TYPE", "REQUIREMENT")
		for _, ach := range list {
			fmt.Printf("%-4d  %-20s  %-18s  %d\n", ach.ID, ach.Name, ach.Type, ach.Requirement)
		}
		return nil
	},
}

var achievementAddCmd = &cobra.Command{
	Use:   "add NAME TYPE REQUIREMENT",
	Short: "Add an achievement (TYPE: TOTAL_MINUTES, STREAK, BOOKS_READ, SESSION_DURATION)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := engagement.ParseKind(args[1])
		if err != nil {
			return err
		}
		req, err := strconv.Atoi(args[2])
		if err != nil || req < 1 {
			return fmt.Errorf("requirement must be a positive integer, got %q", args[2])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ach, err := store.New(a.db).Achievements.Create(args[0], achievementDesc, achievementIcon, req, string(kind))
		if err != nil {
			return err
		}
		fmt.Printf("Added %q (#%d)\n", ach.Name, ach.ID)
		return nil
	},
}
