package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"equipdata/client"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultAPIURL = "http://localhost:8080/api"

func main() {
	rootCmd := &cobra.Command{
		Use:   "equipctl",
		Short: "Desktop client for the equipment data service",
		Long: `equipctl talks to the equipment data backend: sign in, upload CSV/XLSX
readings, and browse your upload history.

The API base URL is taken from EQUIPDATA_API_URL (default ` + defaultAPIURL + `).
Credentials are stored in ~/.equipdata/credentials.json and refreshed
automatically when the access token expires.`,
	}

	rootCmd.AddCommand(
		newLoginCmd(),
		newSignupCmd(),
		newUploadCmd(),
		newHistoryCmd(),
		newWhoamiCmd(),
		newLogoutCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAPI() (*client.API, error) {
	baseURL := os.Getenv("EQUIPDATA_API_URL")
	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot locate home directory: %w", err)
	}

	store := client.NewFileTokenStore(filepath.Join(home, ".equipdata", "credentials.json"))
	session := client.NewSessionManager(baseURL, store)
	return client.NewAPI(session), nil
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store a token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPI()
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = readPassword("Password: "); err != nil {
					return err
				}
			}

			user, err := api.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			fmt.Printf("Logged in as %s\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

func newSignupCmd() *cobra.Command {
	var username, password, email string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPI()
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = readPassword("Password: "); err != nil {
					return err
				}
			}

			user, err := api.Signup(cmd.Context(), username, password, email)
			if err != nil {
				return err
			}

			fmt.Printf("Account created, logged in as %s\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&email, "email", "", "contact email (optional)")
	cmd.MarkFlagRequired("username")

	return cmd
}

func newUploadCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a CSV or XLSX readings file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPI()
			if err != nil {
				return err
			}

			record, err := api.Upload(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(record)
			}

			fmt.Printf("Uploaded %s: %d rows, avg flow rate %.2f, avg pressure %.2f\n",
				record.Name, record.TotalRows, record.AvgFlowRate, record.AvgPressure)
			for category, count := range record.Distribution {
				fmt.Printf("  %s: %d\n", category, count)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw record as JSON")

	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your uploads, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPI()
			if err != nil {
				return err
			}

			page, err := api.History(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(page)
			}

			fmt.Printf("%d uploads total (showing %d from offset %d)\n", page.Count, len(page.Results), page.Offset)
			for _, record := range page.Results {
				fmt.Printf("  #%d %s  %s  %d rows\n",
					record.ID, record.UploadedAt.Time().Format("2006-01-02 15:04"), record.Name, record.TotalRows)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw page as JSON")

	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPI()
			if err != nil {
				return err
			}

			user := api.Session().User()
			if user == nil || !api.Session().IsAuthenticated() {
				fmt.Println("Not logged in")
				return nil
			}

			fmt.Printf("%s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPI()
			if err != nil {
				return err
			}

			if err := api.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
