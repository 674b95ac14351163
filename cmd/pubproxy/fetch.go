package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pubproxy/pkg/auth"
	"pubproxy/pkg/config"
	"pubproxy/pkg/logger"
	"pubproxy/pkg/pubproxy"
)

var (
	// Fetch command flags
	fetchAmount       int
	fetchLevel        string
	fetchProtocol     string
	fetchCountries    []string
	fetchNotCountries []string
	fetchLastChecked  int
	fetchPort         int
	fetchSpeed        int
	fetchAPIKey       string
	fetchAllowReuse   bool
	fetchJSON         bool

	// Capability flags; only forwarded when explicitly set
	fetchCookies   bool
	fetchGoogle    bool
	fetchHTTPS     bool
	fetchPost      bool
	fetchReferer   bool
	fetchUserAgent bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch proxies matching the given filters",
	Long: `Fetch proxies from the pubproxy.com API and print them one per line
in ip:port form.

Without an API key, requests are paced one per second and fetch five
proxies each; an API key (via --api-key, a stored credential, or the
PUBPROXY_API_KEY environment variable) removes the delay and fetches
twenty per request.`,
	Example: `  # One elite HTTP proxy
  pubproxy fetch --level elite --protocol http

  # Ten SOCKS5 proxies outside the US, as JSON
  pubproxy fetch -n 10 --protocol socks5 --not-country US --json

  # Proxies checked within the last 10 minutes that support HTTPS
  pubproxy fetch -n 3 --last-checked 10 --https`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVarP(&fetchAmount, "amount", "n", 1, "number of proxies to fetch")
	fetchCmd.Flags().StringVar(&fetchLevel, "level", "", "anonymity level (anonymous, elite)")
	fetchCmd.Flags().StringVar(&fetchProtocol, "protocol", "", "proxy protocol (http, socks4, socks5)")
	fetchCmd.Flags().StringSliceVar(&fetchCountries, "country", nil, "only these 2-letter country codes")
	fetchCmd.Flags().StringSliceVar(&fetchNotCountries, "not-country", nil, "exclude these 2-letter country codes")
	fetchCmd.Flags().IntVar(&fetchLastChecked, "last-checked", 0, "checked within the last N minutes (1-1000)")
	fetchCmd.Flags().IntVar(&fetchPort, "port", 0, "require this exact port")
	fetchCmd.Flags().IntVar(&fetchSpeed, "speed", 0, "connects within N seconds (1-60)")
	fetchCmd.Flags().StringVar(&fetchAPIKey, "api-key", "", "pubproxy API key")
	fetchCmd.Flags().BoolVar(&fetchAllowReuse, "allow-reuse", false, "allow proxies to be returned more than once")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print proxies as a JSON array")

	fetchCmd.Flags().BoolVar(&fetchCookies, "cookies", false, "require cookie support")
	fetchCmd.Flags().BoolVar(&fetchGoogle, "google", false, "require google.com reachability")
	fetchCmd.Flags().BoolVar(&fetchHTTPS, "https", false, "require HTTPS support")
	fetchCmd.Flags().BoolVar(&fetchPost, "post", false, "require POST support")
	fetchCmd.Flags().BoolVar(&fetchReferer, "referer", false, "require referer support")
	fetchCmd.Flags().BoolVar(&fetchUserAgent, "user-agent", false, "require user-agent forwarding")
}

func runFetch(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"api-key":   fetchAPIKey,
		"level":     fetchLevel,
		"protocol":  fetchProtocol,
		"log-level": logLevel,
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	opts := optionsFromConfig(cfg)
	applyFetchFlags(cmd, &opts)

	// No explicit key anywhere: fall back to a stored credential. The
	// Fetcher itself still consults PUBPROXY_API_KEY last.
	if opts.APIKey == "" {
		if manager, err := auth.NewManager(); err == nil {
			opts.APIKey = manager.ResolveKey()
		}
	}

	fetcher, err := pubproxy.New(opts)
	if err != nil {
		return err
	}

	log.InfoWithFields("fetching proxies", map[string]interface{}{
		"amount": fetchAmount,
	})

	start := time.Now()
	proxies, err := fetcher.GetProxies(fetchAmount)
	if err != nil {
		return err
	}

	log.InfoWithFields("fetch completed", map[string]interface{}{
		"amount":   len(proxies),
		"duration": time.Since(start),
	})

	if fetchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(proxies)
	}

	for _, p := range proxies {
		fmt.Println(p)
	}
	return nil
}

// optionsFromConfig seeds fetch options from the loaded configuration
func optionsFromConfig(cfg *config.Config) pubproxy.Options {
	return pubproxy.Options{
		APIKey:        cfg.API.Key,
		Level:         pubproxy.Level(cfg.Fetch.Level),
		Protocol:      pubproxy.Protocol(cfg.Fetch.Protocol),
		Countries:     cfg.Fetch.Countries,
		NotCountries:  cfg.Fetch.NotCountries,
		LastChecked:   cfg.Fetch.LastChecked,
		Port:          cfg.Fetch.Port,
		TimeToConnect: cfg.Fetch.TimeToConnect,
		AllowReuse:    cfg.Fetch.AllowReuse,
		Timeout:       cfg.API.Timeout,
	}
}

// applyFetchFlags overrides options with explicitly set command flags.
// The capability flags are tri-state in the API, so they are only
// forwarded when the user actually passed them.
func applyFetchFlags(cmd *cobra.Command, opts *pubproxy.Options) {
	if len(fetchCountries) > 0 {
		opts.Countries = fetchCountries
	}
	if len(fetchNotCountries) > 0 {
		opts.NotCountries = fetchNotCountries
	}
	if fetchLastChecked > 0 {
		opts.LastChecked = fetchLastChecked
	}
	if fetchPort > 0 {
		opts.Port = fetchPort
	}
	if fetchSpeed > 0 {
		opts.TimeToConnect = fetchSpeed
	}
	if fetchAllowReuse {
		opts.AllowReuse = true
	}

	for name, target := range map[string]**bool{
		"cookies":    &opts.Cookies,
		"google":     &opts.Google,
		"https":      &opts.HTTPS,
		"post":       &opts.Post,
		"referer":    &opts.Referer,
		"user-agent": &opts.UserAgent,
	} {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetBool(name)
			*target = pubproxy.Bool(v)
		}
	}
}
