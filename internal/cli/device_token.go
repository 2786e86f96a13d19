package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

func init() {
	deviceTokenCmd.AddCommand(deviceTokenIssueCmd, deviceTokenRevokeCmd, deviceTokenListCmd)
	rootCmd.AddCommand(deviceTokenCmd)
}

var deviceTokenCmd = &cobra.Command{
	Use:   "device-token",
	Short: "Manage reading device tokens",
}

var deviceTokenIssueCmd = &cobra.Command{
	Use:   "issue CHILD_USERNAME DEVICE_NAME",
	Short: "Issue a token for a child's reading device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st := store.New(a.db)
		child, err := lookupChild(st, args[0])
		if err != nil {
			return err
		}

		tok, raw, err := st.DeviceTokens.Create(child.ID, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Device:  %s (%s)\n", tok.Name, tok.PublicID)
		fmt.Printf("Token:   %s\n", raw)
		fmt.Println("The token is shown only once.")
		return nil
	},
}

var deviceTokenRevokeCmd = &cobra.Command{
	Use:   "revoke DEVICE_ID",
	Short: "Revoke a device token by its public ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := uuid.Parse(args[0]); err != nil {
			return fmt.Errorf("invalid device id %q: %w", args[0], err)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ok, err := store.New(a.db).DeviceTokens.Revoke(args[0], time.Now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no active device %s", args[0])
		}
		fmt.Printf("Revoked %s\n", args[0])
		return nil
	},
}

var deviceTokenListCmd = &cobra.Command{
	Use:   "list CHILD_USERNAME",
	Short: "List a child's device tokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st := store.New(a.db)
		child, err := lookupChild(st, args[0])
		if err != nil {
			return err
		}
		tokens, err := st.DeviceTokens.ListByChild(child.ID)
		if err != nil {
			return err
		}
		if len(tokens) == 0 {
			fmt.Println("No device tokens.")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-20s  %s\n", "ID", "NAME", "LAST USED", "STATUS")
		for _, t := range tokens {
			lastUsed := "never"
			if t.LastUsedAt != nil {
				lastUsed = t.LastUsedAt.Local().Format("2006-01-02 15:04")
			}
			status := "active"
			if t.RevokedAt != nil {
				status = "revoked"
			}
			fmt.Printf("%-36s  %-20s  %-20s  %s\n", t.PublicID, t.Name, lastUsed, status)
		}
		return nil
	},
}

func lookupChild(st *store.Stores, username string) (*model.User, error) {
	u, err := st.Users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Role != model.RoleChild {
		return nil, fmt.Errorf("no child account %q", username)
	}
	return u, nil
}
