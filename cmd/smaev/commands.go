package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/smaev/internal/config"
	"github.com/muurk/smaev/internal/discovery"
	"github.com/muurk/smaev/internal/evcharger"
	"github.com/muurk/smaev/internal/ui"
)

// Connection command flags
var (
	chargerURL     string
	deviceKey      string
	username       string
	password       string
	timeoutSeconds int
	outputFormat   string
	scanTimeout    int
	watchInterval  int
	nickname       string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&chargerURL, "url", "", "Charger base URL or host (skips registry lookup)")
	rootCmd.PersistentFlags().StringVar(&deviceKey, "device", "", "Registered charger (serial or nickname)")
	rootCmd.PersistentFlags().StringVar(&username, "user", "", "Login username")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Login password (prompted when omitted)")
	rootCmd.PersistentFlags().IntVar(&timeoutSeconds, "timeout", 10, "HTTP request timeout in seconds")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(measurementsCmd)
	rootCmd.AddCommand(parametersCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(setModeCmd)
	rootCmd.AddCommand(watchCmd)
}

// scanCmd discovers chargers on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for SMA EV Chargers on the network",
	Long: `Scan for SMA EV Chargers using mDNS/DNS-SD discovery.

This command listens for mDNS broadcasts and displays all discovered
chargers with their serial numbers and addresses.`,
	Example: `  # Scan for 10 seconds (default)
  smaev scan

  # Quick 3-second scan
  smaev scan --scan-timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for SMA EV Chargers (timeout: %ds)...\n\n", scanTimeout)

	chargers, err := discovery.ScanForChargers(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(chargers) == 0 {
		fmt.Println("No chargers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the charger is powered on and connected to your network")
		fmt.Println("  - Verify your computer is on the same network segment")
		fmt.Println("  - Try increasing --scan-timeout for slower networks")
		fmt.Println("  - Use --url to specify the address manually if discovery fails")
		return nil
	}

	fmt.Printf("Found %d charger(s):\n\n", len(chargers))
	for i, charger := range chargers {
		fmt.Printf("%d. %s\n", i+1, charger.Hostname)
		fmt.Printf("   Serial:  %s\n", charger.Serial)
		fmt.Printf("   Address: %s:%d\n", charger.IP, charger.Port)
		fmt.Println()
	}

	fmt.Println("Use 'smaev remember <serial> --url <address>' to register a charger")
	fmt.Println("Use 'smaev info --url <address> --user <name>' to read device info")

	return nil
}

// rememberCmd stores a charger in the registry
var rememberCmd = &cobra.Command{
	Use:   "remember <serial>",
	Short: "Store a charger in the local registry",
	Long: `Store a charger's address, username and nickname in the local registry
so later commands can address it with --device <serial|nickname>.

Passwords are never stored; they are prompted when needed.`,
	Example: `  smaev remember 3014001234 --url 192.168.1.50 --user admin --nickname garage`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRemember,
}

func init() {
	rememberCmd.Flags().StringVar(&nickname, "nickname", "", "User-friendly name for the charger")
}

func runRemember(cmd *cobra.Command, args []string) error {
	serial := args[0]
	if chargerURL == "" {
		return fmt.Errorf("--url is required to register a charger")
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	entry := registry.EnsureCharger(serial)
	entry.URL = evcharger.NormalizeBaseURL(chargerURL)
	entry.LastSeen = time.Now()
	if username != "" {
		entry.Username = username
	}
	if nickname != "" {
		entry.Nickname = nickname
	}
	if registry.Preferences.DefaultCharger == "" {
		registry.Preferences.DefaultCharger = serial
	}

	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}

	fmt.Printf("Registered charger %s at %s\n", serial, entry.URL)
	return nil
}

// infoCmd displays the charger's nameplate information
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show charger device information",
	Long: `Read the charger's nameplate parameters and display name, serial
number, model, manufacturer and firmware version.`,
	Example: `  smaev info --url 192.168.1.50 --user admin
  smaev info --device garage --format json`,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := client.DeviceInfo()
	if err != nil {
		return fmt.Errorf("failed to read device info: %w", err)
	}

	switch outputFormat {
	case "compact":
		fmt.Println(evcharger.FormatDeviceInfoCompact(info))
	case "json":
		return printJSON(info)
	default:
		fmt.Print(evcharger.FormatDeviceInfo(info))
	}
	return nil
}

// measurementsCmd displays the live measurement snapshot
var measurementsCmd = &cobra.Command{
	Use:   "measurements",
	Short: "Show the live measurement snapshot",
	Example: `  smaev measurements --device garage
  smaev measurements --device garage --format json`,
	RunE: runMeasurements,
}

func runMeasurements(cmd *cobra.Command, args []string) error {
	client, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	records, err := client.Measurements()
	if err != nil {
		return fmt.Errorf("failed to read measurements: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(records)
	}
	fmt.Print(evcharger.FormatMeasurements(records))
	return nil
}

// parametersCmd displays the parameter snapshot
var parametersCmd = &cobra.Command{
	Use:   "parameters",
	Short: "Show the parameter snapshot",
	Long: `Read the charger's parameter snapshot. Editable parameters are
marked with an asterisk in the detailed output.`,
	Example: `  smaev parameters --device garage`,
	RunE:    runParameters,
}

func runParameters(cmd *cobra.Command, args []string) error {
	client, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	components, err := client.Parameters()
	if err != nil {
		return fmt.Errorf("failed to read parameters: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(components)
	}
	fmt.Print(evcharger.FormatParameters(components))
	return nil
}

// getCmd reads a single channel
var getCmd = &cobra.Command{
	Use:   "get <channel-id>",
	Short: "Read a single channel",
	Long: `Read a single channel by id. Parameter channels are searched first,
then measurement channels.`,
	Example: `  smaev get Parameter.Chrg.ActChaMod --device garage
  smaev get Measurement.ChaSess.WhIn --device garage`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	channelID := args[0]
	client, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if strings.HasPrefix(channelID, "Measurement.") {
		records, err := client.Measurements()
		if err != nil {
			return err
		}
		values, err := evcharger.GetMeasurementsChannel(records, channelID, evcharger.SelfComponentID)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return printJSON(values)
		}
		for _, sample := range values {
			fmt.Printf("%v  %s\n", sample.Value, sample.Time)
		}
		return nil
	}

	components, err := client.Parameters()
	if err != nil {
		return err
	}
	channel, err := evcharger.GetParametersChannel(components, channelID, evcharger.SelfComponentID)
	if err != nil {
		return err
	}
	if outputFormat == "json" {
		return printJSON(channel)
	}
	fmt.Printf("%s  (state %s, editable %v, %s)\n",
		channel.Value, channel.State, channel.Editable, channel.Timestamp)
	return nil
}

// setCmd writes a single parameter
var setCmd = &cobra.Command{
	Use:   "set <channel-id> <value>",
	Short: "Write a single parameter channel",
	Example: `  smaev set Parameter.Chrg.ActChaMod 4719 --device garage`,
	Args:    cobra.ExactArgs(2),
	RunE:    runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	channelID, value := args[0], args[1]
	client, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SetParameter(value, channelID, evcharger.SelfComponentID); err != nil {
		return fmt.Errorf("failed to set %s: %w", channelID, err)
	}
	fmt.Printf("Set %s = %s\n", channelID, value)
	return nil
}

// setModeCmd writes the active charge mode
var setModeCmd = &cobra.Command{
	Use:   "set-mode <mode>",
	Short: "Set the active charge mode",
	Long: `Set the active charge mode. Accepts the mode names fast, optimized,
planned and stop, or a raw parameter value.`,
	Example: `  smaev set-mode optimized --device garage`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSetMode,
}

func runSetMode(cmd *cobra.Command, args []string) error {
	mode := args[0]
	if value, ok := evcharger.ChargeModeValue(mode); ok {
		mode = value
	}

	client, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SetChargeMode(mode); err != nil {
		return fmt.Errorf("failed to set charge mode: %w", err)
	}
	fmt.Printf("Charge mode set to %s\n", evcharger.ChargeModeName(mode))
	return nil
}

// watchCmd shows the live measurements dashboard
var watchCmd = &cobra.Command{
	Use:   "watch [channel-id...]",
	Short: "Watch live measurements on a dashboard",
	Long: `Poll the charger's measurement snapshot on a fixed interval and show
the latest value of each channel on a live dashboard. Channel ids given
as arguments restrict the display to those channels.`,
	Example: `  smaev watch --device garage
  smaev watch Measurement.ChaSess.WhIn --device garage --interval 2`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchInterval, "interval", 5, "Poll interval in seconds")
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	return ui.RunWatch(client, time.Duration(watchInterval)*time.Second, args)
}

// openClient resolves the target charger, prompts for missing credentials
// and opens a session.
func openClient() (*evcharger.Client, error) {
	url, user, err := resolveTarget()
	if err != nil {
		return nil, err
	}

	pass := password
	if pass == "" {
		pass, err = promptPassword(fmt.Sprintf("Password for %s at %s: ", user, url))
		if err != nil {
			return nil, err
		}
	}

	client := evcharger.NewClient(url, user, pass)
	client.SetTimeout(time.Duration(timeoutSeconds) * time.Second)

	if err := client.Open(); err != nil {
		return nil, fmt.Errorf("failed to open charger session: %w", err)
	}
	return client, nil
}

// resolveTarget determines the charger URL and username from flags and the
// registry: --url wins, then --device, then the registry's default charger.
func resolveTarget() (url, user string, err error) {
	if chargerURL != "" {
		if username == "" {
			return "", "", fmt.Errorf("--user is required with --url")
		}
		return chargerURL, username, nil
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return "", "", fmt.Errorf("failed to load registry: %w", err)
	}

	key := deviceKey
	if key == "" {
		key = registry.Preferences.DefaultCharger
	}
	if key == "" {
		return "", "", fmt.Errorf("no charger specified: use --url or --device, or register one with 'smaev remember'")
	}

	serial, entry := registry.FindCharger(key)
	if entry == nil {
		return "", "", fmt.Errorf("charger %q is not registered (try 'smaev scan' and 'smaev remember')", key)
	}
	if entry.URL == "" {
		return "", "", fmt.Errorf("charger %s has no stored URL", serial)
	}

	user = username
	if user == "" {
		user = entry.Username
	}
	if user == "" {
		return "", "", fmt.Errorf("no username for charger %s: pass --user or store one with 'smaev remember'", serial)
	}

	return entry.URL, user, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// printJSON writes a value as indented JSON to stdout.
func printJSON(value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
