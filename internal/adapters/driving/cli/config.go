package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

var (
	configForce       bool
	configInteractive bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the ccdarank configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file",
	Long: `Writes the effective configuration (defaults plus any flag or
environment overrides) to the configuration file. Use --interactive to be
prompted for the main settings.`,
	Args:        cobra.NoArgs,
	RunE:        runConfigInit,
	Annotations: map[string]string{annotationNoServices: "true"},
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show the effective configuration",
	Args:        cobra.NoArgs,
	RunE:        runConfigShow,
	Annotations: map[string]string{annotationNoServices: "true"},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configInitCmd.Flags().BoolVarP(&configInteractive, "interactive", "i", false, "prompt for settings")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errNotConfigured("config")
	}
	if configStore.Exists() && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configStore.Path())
	}

	out := cfg
	if configInteractive {
		if err := runConfigWizard(cmd, bufio.NewReader(cmd.InOrStdin()), &out); err != nil {
			return err
		}
	}
	if err := out.Validate(); err != nil {
		return err
	}
	if err := configStore.Save(out); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Success.Render("Configuration written to " + configStore.Path()))
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	data, err := toml.Marshal(redacted(cfg))
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}

	st := newStyles(cmd.OutOrStdout())
	source := "defaults"
	if configStore != nil && configStore.Exists() {
		source = configStore.Path()
	}
	cmd.Println(st.Muted.Render("# effective configuration (" + source + ")"))
	cmd.Print(string(data))
	return nil
}

// redacted hides credentials before display.
func redacted(c domain.Config) domain.Config {
	c.Search.Password = maskSecret(c.Search.Password)
	if c.TimeSeries.DSN != "" {
		if u, err := url.Parse(c.TimeSeries.DSN); err == nil && u.User != nil {
			c.TimeSeries.DSN = u.Redacted()
		}
	}
	return c
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

// runConfigWizard prompts for the settings most installations change.
func runConfigWizard(cmd *cobra.Command, reader *bufio.Reader, c *domain.Config) error {
	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Title.Render("ccdarank configuration"))
	cmd.Println()

	c.Corpus.Dir = prompt(cmd, reader, "Corpus directory", c.Corpus.Dir)
	c.Scoring.CheckpointDir = prompt(cmd, reader, "Checkpoint directory", c.Scoring.CheckpointDir)

	backends := []string{domain.CheckpointBackendJSON, domain.CheckpointBackendSQLite}
	cmd.Println("Checkpoint backend:")
	for i, b := range backends {
		cmd.Printf("  [%d] %s\n", i+1, b)
	}
	cmd.Print("Select [1]: ")
	c.Scoring.CheckpointBackend = backends[parseChoice(readLine(reader), len(backends), 1)-1]

	batch := prompt(cmd, reader, "Batch size", strconv.Itoa(c.Scoring.BatchSize))
	if n, err := strconv.Atoi(batch); err == nil && n > 0 {
		c.Scoring.BatchSize = n
	}

	cmd.Println()
	cmd.Println(st.Label.Render("Patient matching (leave blank to skip)"))
	addresses := prompt(cmd, reader, "Search addresses (comma separated)", strings.Join(c.Search.Addresses, ","))
	c.Search.Addresses = splitList(addresses)
	c.Search.Username = prompt(cmd, reader, "Search username", c.Search.Username)
	if c.Search.Username != "" {
		cmd.Print("Search password: ")
		c.Search.Password = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
	}
	c.TimeSeries.DSN = prompt(cmd, reader, "Time series DSN", c.TimeSeries.DSN)

	cmd.Println()
	cmd.Println(st.Label.Render("Exports"))
	blobs := []string{domain.BlobBackendFilesystem, domain.BlobBackendS3}
	cmd.Println("Upload target:")
	for i, b := range blobs {
		cmd.Printf("  [%d] %s\n", i+1, b)
	}
	cmd.Print("Select [1]: ")
	c.Blob.Backend = blobs[parseChoice(readLine(reader), len(blobs), 1)-1]
	if c.Blob.Backend == domain.BlobBackendS3 {
		c.Blob.Bucket = prompt(cmd, reader, "S3 bucket", c.Blob.Bucket)
		c.Blob.Region = prompt(cmd, reader, "S3 region", c.Blob.Region)
	} else {
		c.Blob.Dir = prompt(cmd, reader, "Upload directory", c.Blob.Dir)
	}
	cmd.Println()

	if c.Corpus.Dir == "" {
		return errors.New("corpus directory is required")
	}
	return nil
}

// prompt asks for a value, keeping current on empty input.
func prompt(cmd *cobra.Command, reader *bufio.Reader, label, current string) string {
	if current != "" {
		cmd.Printf("%s [%s]: ", label, current)
	} else {
		cmd.Printf("%s: ", label)
	}
	if input := readLine(reader); input != "" {
		return input
	}
	return current
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}
