// Package scan implements the one-shot CLI scan command.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/datastore"
	"github.com/semai/wildscan-go/internal/runtime"
	"github.com/semai/wildscan-go/internal/scanner"
)

// cliUserEmail identifies the implicit local user for command line scans.
const cliUserEmail = "cli@wildscan.local"

// Command returns the scan subcommand, which runs the pipeline once for a
// photo on disk and prints the result as JSON.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		userID  string
		city    string
		country string
	)

	cmd := &cobra.Command{
		Use:   "scan [photo]",
		Short: "Identify a wildlife photo and record the scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), settings, args[0], userID, city, country)
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "User to credit (defaults to the local CLI user)")
	cmd.Flags().StringVar(&city, "city", "", "Override the scan location city")
	cmd.Flags().StringVar(&country, "country", "", "Override the scan location country")
	return cmd
}

func runScan(ctx context.Context, settings *conf.Settings, path, userID, city, country string) error {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	stack, err := runtime.Build(ctx, settings)
	if err != nil {
		return err
	}
	defer stack.Close()

	if userID == "" {
		userID, err = cliUser(stack.DS)
		if err != nil {
			return err
		}
	}

	req := &scanner.Request{
		UserID:    userID,
		Filename:  filepath.Base(path),
		ImageData: imageData,
	}
	if city != "" {
		req.Location = &scanner.Location{City: city, Country: country}
	}

	result, err := stack.Scanner.Process(ctx, req)
	if err != nil {
		return err
	}

	if stack.Notifier != nil {
		stack.Notifier.PublishScan(ctx, result)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// cliUser returns the local CLI user's ID, creating the user on first use.
func cliUser(ds datastore.Interface) (string, error) {
	user, err := ds.GetUserByEmail(cliUserEmail)
	if err != nil {
		return "", err
	}
	if user == nil {
		user = &datastore.User{Email: cliUserEmail, FirstName: "Local", LastName: "Scanner"}
		if err := ds.SaveUser(user); err != nil {
			return "", err
		}
	}
	return user.ID, nil
}
