package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"multinet/pkg/auth"
)

// options holds the persistent flags shared by every subcommand
type options struct {
	server  string
	token   string
	timeout time.Duration
}

func (o *options) client() *client {
	return newClient(o.server, o.token, o.timeout)
}

// newRootCmd builds the command tree; all output goes to cmd.OutOrStdout
func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "multinetctl",
		Short:         "Manage multinet workspaces, tables and graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr("MULTINET_SERVER", "http://localhost:8080"), "multinet server base URL")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("MULTINET_TOKEN"), "bearer token for mutating requests")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "request timeout")

	rootCmd.AddCommand(
		newWorkspaceCmd(opts),
		newUploadCmd(opts),
		newGraphCmd(opts),
		newTokenCmd(),
	)
	return rootCmd
}

func newWorkspaceCmd(opts *options) *cobra.Command {
	workspaceCmd := &cobra.Command{
		Use:   "workspace",
		Short: "Create, delete and list workspaces",
	}

	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := opts.client().createWorkspace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a workspace and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := opts.client().deleteWorkspace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := opts.client().listWorkspaces(cmd.Context())
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), names)
		},
	}

	var tableType string
	tablesCmd := &cobra.Command{
		Use:   "tables NAME",
		Short: "List the tables of a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := opts.client().listTables(cmd.Context(), args[0], tableType)
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), names)
		},
	}
	tablesCmd.Flags().StringVar(&tableType, "type", "", "filter by table type (all, node or edge)")

	workspaceCmd.AddCommand(createCmd, deleteCmd, listCmd, tablesCmd)
	return workspaceCmd
}

func newUploadCmd(opts *options) *cobra.Command {
	var workspace, table string

	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload table data into a workspace",
	}
	uploadCmd.PersistentFlags().StringVar(&workspace, "workspace", "", "target workspace")
	uploadCmd.PersistentFlags().StringVar(&table, "table", "", "table name, or prefix for nested JSON (defaults to the file name)")
	_ = uploadCmd.MarkPersistentFlagRequired("workspace")

	run := func(kind, contentType string) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			name := table
			if name == "" {
				name = fileBase(args[0])
			}
			out, err := opts.client().upload(cmd.Context(), kind, workspace, name, contentType, data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		}
	}

	nestedCmd := &cobra.Command{
		Use:   "nested-json FILE",
		Short: "Flatten a nested JSON tree into node and edge tables",
		Args:  cobra.ExactArgs(1),
		RunE:  run("nested_json", "application/json"),
	}
	csvCmd := &cobra.Command{
		Use:   "csv FILE",
		Short: "Upload a CSV file as a node or edge table",
		Args:  cobra.ExactArgs(1),
		RunE:  run("csv", "text/csv"),
	}

	uploadCmd.AddCommand(nestedCmd, csvCmd)
	return uploadCmd
}

func newGraphCmd(opts *options) *cobra.Command {
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Create and list graphs",
	}

	var workspace, name, edgeTable string
	var nodeTables []string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a graph from node tables and an edge table",
		Long: `Create a graph after checking that every edge references an existing node.

Example:
  multinetctl graph create --workspace ws --name tree \
    --node-table tree_internal_nodes --node-table tree_leaf_nodes \
    --edge-table tree_edges`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := opts.client().createGraph(cmd.Context(), workspace, name, nodeTables, edgeTable)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	createCmd.Flags().StringVar(&workspace, "workspace", "", "workspace holding the tables")
	createCmd.Flags().StringVar(&name, "name", "", "graph name")
	createCmd.Flags().StringSliceVar(&nodeTables, "node-table", nil, "node table (repeatable)")
	createCmd.Flags().StringVar(&edgeTable, "edge-table", "", "edge table")
	for _, f := range []string{"workspace", "name", "node-table", "edge-table"} {
		_ = createCmd.MarkFlagRequired(f)
	}

	listCmd := &cobra.Command{
		Use:   "list WORKSPACE",
		Short: "List the graphs of a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := opts.client().listGraphs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), names)
		},
	}

	graphCmd.AddCommand(createCmd, listCmd)
	return graphCmd
}

func newTokenCmd() *cobra.Command {
	var secret, issuer string
	var expiry time.Duration
	var roles []string

	tokenCmd := &cobra.Command{
		Use:   "token SUBJECT",
		Short: "Sign a bearer token with the server's shared secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.GenerateToken(auth.JWTConfig{
				SecretKey: secret,
				Issuer:    issuer,
				Expiry:    expiry,
			}, args[0], roles...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	tokenCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
	tokenCmd.Flags().StringVar(&issuer, "issuer", envOr("JWT_ISSUER", "multinet"), "token issuer")
	tokenCmd.Flags().DurationVar(&expiry, "expiry", 24*time.Hour, "token lifetime")
	tokenCmd.Flags().StringSliceVar(&roles, "role", nil, "role claim (repeatable)")
	return tokenCmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLines(w io.Writer, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// fileBase is the table name implied by a file path
func fileBase(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
