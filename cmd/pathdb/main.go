package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"pathdb-go/internal/app"
	"pathdb-go/internal/config"
	"pathdb-go/internal/encryption"
	"pathdb-go/internal/pathdb"
	"pathdb-go/internal/tablestore"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "put", "export").
func newApp(operation string) (*app.App, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return cfg, nil
}

// promptPassphrase reads a passphrase from the terminal without echo.
func promptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

var rootCmd = &cobra.Command{
	Use:   "pathdb",
	Short: "Path-addressed file store",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			source = uuid.New().String()
		}

		cfg := config.NewConfig(source, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Source:   %s\n", source)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Source:   %s\n", cfg.Store.Source)
		fmt.Printf("Table:    %s\n", cfg.Store.Table)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		return nil
	},
}

// key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage encryption keys",
}

var keyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return fmt.Errorf("creating encryptor: %w", err)
		}

		if enc.IsConfigured() {
			return fmt.Errorf("key material already exists; refusing to overwrite")
		}

		pass, err := promptPassphrase("Passphrase for private key: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := enc.Setup(pass); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Println("Key pair generated.")
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the backing database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		store, err := tablestore.NewStoreFromConfig(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer store.Close()

		if err := store.Migrate(); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}

		fmt.Println("Database is up to date.")
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check schema migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		store, err := tablestore.NewStoreFromConfig(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer store.Close()

		if err := store.CheckMigrations(); err != nil {
			fmt.Printf("Schema out of date: %v\n", err)
			return nil
		}

		fmt.Println("Schema is current.")
		return nil
	},
}

// put command
var putCmd = &cobra.Command{
	Use:   "put PATH [CONTENT]",
	Short: "Store content at a virtual path",
	Long:  "Store content at a virtual path. With no CONTENT argument, content is read from stdin.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var content string
		if len(args) == 2 {
			content = args[1]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			content = string(data)
		}

		a, err := newApp("put")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Put(args[0], content); err != nil {
			return fmt.Errorf("storing %s: %w", args[0], err)
		}

		fmt.Printf("Stored %s (%d bytes)\n", args[0], len(content))
		return nil
	},
}

// cat command
var catCmd = &cobra.Command{
	Use:   "cat PATH",
	Short: "Print the content stored at a virtual path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("cat")
		if err != nil {
			return err
		}
		defer a.Close()

		content, err := a.Cat(args[0])
		if err != nil {
			return err
		}

		fmt.Print(content)
		return nil
	},
}

// ls command
var lsCmd = &cobra.Command{
	Use:   "ls DIR",
	Short: "List files under a virtual directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exts, _ := cmd.Flags().GetStringSlice("ext")
		match, _ := cmd.Flags().GetString("match")

		a, err := newApp("ls")
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.List(args[0], pathdb.SelectOptions{
			Extensions: exts,
			FileMatch:  match,
		})
		if err != nil {
			return err
		}

		if len(files) == 0 {
			fmt.Println("No files found.")
			return nil
		}

		names := make([]string, 0, len(files))
		for _, f := range files {
			name, _ := f[pathdb.ColFileName].(string)
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm PATH",
	Short: "Delete the file at a virtual path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		a, err := newApp("rm")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Remove(args[0], force); err != nil {
			return fmt.Errorf("deleting %s: %w", args[0], err)
		}

		if force {
			fmt.Printf("Deleted %s permanently\n", args[0])
		} else {
			fmt.Printf("Trashed %s\n", args[0])
		}
		return nil
	},
}

// mv command
var mvCmd = &cobra.Command{
	Use:   "mv OLD NEW",
	Short: "Rename a file within its virtual directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("mv")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Move(args[0], args[1]); err != nil {
			return fmt.Errorf("renaming: %w", err)
		}

		fmt.Printf("Renamed %s -> %s\n", args[0], args[1])
		return nil
	},
}

// paths command
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List all paths with their availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("paths")
		if err != nil {
			return err
		}
		defer a.Close()

		paths, err := a.Paths()
		if err != nil {
			return err
		}

		if len(paths) == 0 {
			fmt.Println("No paths found.")
			return nil
		}

		keys := make([]string, 0, len(paths))
		for p := range paths {
			keys = append(keys, p)
		}
		sort.Strings(keys)

		for _, p := range keys {
			marker := " "
			if !paths[p] {
				marker = "D"
			}
			fmt.Printf("%s %s\n", marker, p)
		}
		return nil
	},
}

// load command
var loadCmd = &cobra.Command{
	Use:   "load LOCAL_DIR DIR",
	Short: "Load a local directory into the store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("load")
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.Load(args[0], args[1])
		if err != nil {
			return fmt.Errorf("loading: %w", err)
		}

		fmt.Printf("Loaded %d file(s) into %s\n", count, args[1])
		return nil
	},
}

// dump command
var dumpCmd = &cobra.Command{
	Use:   "dump DIR LOCAL_DIR",
	Short: "Write a virtual directory to the local filesystem",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("dump")
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.Dump(args[0], args[1])
		if err != nil {
			return fmt.Errorf("dumping: %w", err)
		}

		fmt.Printf("Wrote %d file(s) to %s\n", count, args[1])
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an encrypted snapshot of the source to the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("export")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Export()
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}

		fmt.Printf("Snapshot ID: %s\n", id)
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import SNAPSHOT_ID",
	Short: "Import a snapshot from the vault into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, err := promptPassphrase("Passphrase for private key: ")
		if err != nil {
			return err
		}

		a, err := newApp("import")
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.Import(args[0], pass)
		if err != nil {
			return fmt.Errorf("importing: %w", err)
		}

		fmt.Printf("Imported %d file(s)\n", count)
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().String("source", "", "Source identifier (default: generated UUID)")
	configCmd.AddCommand(configListCmd)

	// key subcommands
	keyCmd.AddCommand(keyInitCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().StringSlice("ext", nil, "Only include files with these extensions")
	lsCmd.Flags().String("match", "", "Shell glob applied to file basenames")
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().BoolP("force", "f", false, "Delete permanently instead of trashing")
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
