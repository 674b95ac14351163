package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pubproxy/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored pubproxy API key",
	Long: `Manage the pubproxy API key securely.

The key is stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variable PUBPROXY_API_KEY (read-only fallback)

Never share your key or credential files!`,
}

// authSetCmd represents the auth set command
var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the pubproxy API key securely",
	Long: `Store the pubproxy API key in the system keychain or an encrypted file.

You will be prompted for the key; input is not echoed. Get a key at
http://pubproxy.com/#premium.`,
	Args: cobra.NoArgs,
	RunE: runAuthSet,
}

// authShowCmd represents the auth show command
var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show whether an API key is stored",
	Long:  `Show whether an API key is stored, with most of the key masked.`,
	Args:  cobra.NoArgs,
	RunE:  runAuthShow,
}

// authRmCmd represents the auth rm command
var authRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE:  runAuthRm,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authShowCmd)
	authCmd.AddCommand(authRmCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	fmt.Fprint(os.Stderr, "API key: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}

	key := strings.TrimSpace(string(raw))
	if key == "" {
		return fmt.Errorf("no key entered")
	}

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	if err := manager.Store(&auth.Credential{Name: auth.DefaultName, Key: key}); err != nil {
		return err
	}

	fmt.Println("API key stored")
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	cred, err := manager.Retrieve(auth.DefaultName)
	if err != nil {
		fmt.Println("No API key stored")
		return nil
	}

	fmt.Printf("API key: %s (stored %s)\n", maskKey(cred.Key), cred.LastModified.Format("2006-01-02"))
	return nil
}

func runAuthRm(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	if err := manager.Delete(auth.DefaultName); err != nil {
		return err
	}

	fmt.Println("API key removed")
	return nil
}

// maskKey hides all but the edges of a key
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
