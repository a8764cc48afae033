package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/pratik-mahalle/leafdoctor/pkg/client"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRegisterCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthWhoamiCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var identifier, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with username or email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if identifier == "" {
				identifier = promptInput("Username or email: ")
			}
			if password == "" {
				password = promptPassword("Password: ")
			}

			ctx := cmd.Context()
			resp, err := apiClient.Login(ctx, identifier, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := saveSession(resp); err != nil {
				return err
			}

			name := identifier
			if resp.User != nil && resp.User.Username != "" {
				name = resp.User.Username
			}
			fmt.Printf("Logged in as %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&identifier, "user", "u", "", "username or email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func newAuthRegisterCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = promptInput("Username: ")
			}
			if email == "" {
				email = promptInput("Email: ")
			}
			if password == "" {
				password = promptPassword("Password: ")
				confirm := promptPassword("Confirm password: ")
				if password != confirm {
					return fmt.Errorf("passwords do not match")
				}
			}

			ctx := cmd.Context()
			resp, err := apiClient.Register(ctx, client.RegisterRequest{
				Username: username,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			if err := saveSession(resp); err != nil {
				return err
			}

			fmt.Printf("Account created. Logged in as %s\n", username)
			fmt.Println("Run 'leafdoctor trial start' to begin your free trial.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The server call only clears cookies; a failure does not block local logout
			_ = apiClient.Logout(cmd.Context())

			viper.Set("auth.token", "")
			viper.Set("auth.refresh_token", "")
			viper.Set("auth.username", "")

			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to clear credentials: %w", err)
			}

			fmt.Println("Logged out successfully")
			return nil
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show current user info",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, err := apiClient.GetCurrentUser(ctx)
			if err != nil {
				return fmt.Errorf("failed to get user info: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(user)
			}

			fmt.Printf("Username:   %s\n", user.Username)
			fmt.Printf("Email:      %s\n", user.Email)
			fmt.Printf("Plan:       %s\n", user.Plan())
			if user.TrialStatus.DaysLeft != nil {
				fmt.Printf("Trial:      %d days left\n", *user.TrialStatus.DaysLeft)
			}
			if user.PremiumUntil != nil {
				fmt.Printf("Premium:    until %s\n", user.PremiumUntil.Format("2006-01-02"))
			}
			fmt.Printf("Diagnoses:  %d\n", user.DiagnosisCount)
			fmt.Printf("ID:         %d\n", user.ID)
			return nil
		},
	}
}

func saveSession(resp *client.LoginResponse) error {
	viper.Set("auth.token", resp.Token)
	if resp.RefreshToken != "" {
		viper.Set("auth.refresh_token", resp.RefreshToken)
	}
	if resp.User != nil {
		viper.Set("auth.username", resp.User.Username)
	}

	if err := writeConfig(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func promptInput(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func promptPassword(prompt string) string {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(password)
}
