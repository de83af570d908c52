// Command registrarctl is the operator CLI for a running registrar
// instance. It talks to the HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	adminKey  string
)

func main() {
	root := &cobra.Command{
		Use:           "registrarctl",
		Short:         "Operator CLI for the registrar service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("REGISTRAR_URL", "http://localhost:8080"), "base URL of the registrar service")
	root.PersistentFlags().StringVar(&adminKey, "admin-key", os.Getenv("ADMIN_API_KEY"), "admin API key for operator endpoints")

	root.AddCommand(statusCmd(), accountsCmd(), switchCmd(), sweepCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <external-id>",
		Short: "Show the registration status of a chat identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				ExternalID   string `json:"external_id"`
				Registered   bool   `json:"registered"`
				DisplayName  string `json:"display_name"`
				ActiveEmail  string `json:"active_email"`
				AccountCount int    `json:"account_count"`
			}
			if err := call("GET", "/v1/identities/"+args[0]+"/status", nil, &out); err != nil {
				return err
			}
			if !out.Registered {
				fmt.Printf("%s: not registered\n", out.ExternalID)
				return nil
			}
			fmt.Printf("%s: registered, %d account(s), active %s\n", out.ExternalID, out.AccountCount, out.ActiveEmail)
			return nil
		},
	}
}

func accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts <external-id>",
		Short: "List the linked accounts of a chat identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Accounts []struct {
					Position      int       `json:"position"`
					ProviderEmail string    `json:"provider_email"`
					LinkedAt      time.Time `json:"linked_at"`
					IsActive      bool      `json:"is_active"`
				} `json:"accounts"`
			}
			if err := call("GET", "/v1/identities/"+args[0]+"/accounts", nil, &out); err != nil {
				return err
			}
			for _, a := range out.Accounts {
				marker := " "
				if a.IsActive {
					marker = "*"
				}
				fmt.Printf("%s %d. %s (linked %s)\n", marker, a.Position, a.ProviderEmail, a.LinkedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func switchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <external-id> <position>",
		Short: "Switch the active account by its 1-based position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("position must be a number: %q", args[1])
			}
			body, _ := json.Marshal(map[string]int{"position": pos})
			var out struct {
				Switched struct {
					Position      int    `json:"position"`
					ProviderEmail string `json:"provider_email"`
				} `json:"switched"`
			}
			if err := call("POST", "/v1/identities/"+args[0]+"/active", body, &out); err != nil {
				return err
			}
			fmt.Printf("active account is now %d. %s\n", out.Switched.Position, out.Switched.ProviderEmail)
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired handshake sessions now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Deleted int `json:"deleted"`
			}
			if err := call("POST", "/v1/admin/sessions/sweep", nil, &out); err != nil {
				return err
			}
			fmt.Printf("deleted %d expired session(s)\n", out.Deleted)
			return nil
		},
	}
}

func call(method, path string, body []byte, out any) error {
	req, err := http.NewRequest(method, strings.TrimRight(serverURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if adminKey != "" {
		req.Header.Set("X-Admin-Key", adminKey)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Detail  string `json:"detail"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Code != "" {
			if apiErr.Detail != "" {
				return fmt.Errorf("%s: %s (%s)", apiErr.Code, apiErr.Message, apiErr.Detail)
			}
			return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
