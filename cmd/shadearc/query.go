package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jchantrell/shadearc/internal/database"
)

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Query the catalog database directly from command line",
	Long: `Query executes SQL against the archive catalog, lists available tables,
shows table schemas, or finds every archive holding an entry with a given
digest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		listTables, err := cmd.Flags().GetBool("tables")
		if err != nil {
			return fmt.Errorf("failed to get tables flag: %w", err)
		}
		schemaTable, err := cmd.Flags().GetString("schema")
		if err != nil {
			return fmt.Errorf("failed to get schema flag: %w", err)
		}
		digest, err := cmd.Flags().GetString("digest")
		if err != nil {
			return fmt.Errorf("failed to get digest flag: %w", err)
		}

		slog.Debug("Query parameters",
			"database", cfg.Database,
			"list-tables", listTables,
			"schema", schemaTable,
			"digest", digest)

		db, err := database.NewDatabase(ctx, database.DefaultDatabaseOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if listTables {
			tables, err := db.Tables(ctx)
			if err != nil {
				return err
			}
			fmt.Println("Available tables:")
			for _, name := range tables {
				fmt.Printf("  %s\n", name)
			}
			return nil
		}

		if schemaTable != "" {
			columns, err := db.TableSchema(ctx, schemaTable)
			if err != nil {
				return err
			}

			fmt.Printf("Schema for table '%s':\n", schemaTable)
			fmt.Printf("%-20s %-15s %-10s %-10s %-10s\n", "Column", "Type", "NotNull", "Default", "Primary")
			fmt.Println(strings.Repeat("-", 69))
			for _, c := range columns {
				defaultStr := "NULL"
				if c.Default != nil {
					defaultStr = *c.Default
				}
				fmt.Printf("%-20s %-15s %-10s %-10s %-10s\n",
					c.Name, c.Type, yesNo(c.NotNull), defaultStr, yesNo(c.PrimaryKey))
			}
			return nil
		}

		if digest != "" {
			locations, err := db.FindDigest(ctx, digest)
			if err != nil {
				return err
			}
			if len(locations) == 0 {
				fmt.Println("No cataloged entry has that digest")
				return nil
			}
			for _, loc := range locations {
				fmt.Printf("%s\t%d\t%s\n", loc.Path, loc.Index, loc.Name)
			}
			return nil
		}

		if len(args) > 0 {
			return runQuery(cmd, db, args[0])
		}

		return fmt.Errorf("no query provided, use --tables to list tables or --schema <table> to show schema")
	},
}

func runQuery(cmd *cobra.Command, db *database.Database, query string) error {
	slog.Debug("Executing SQL query", "query", query)

	rows, err := db.Query(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("getting column names: %w", err)
	}

	fmt.Println(strings.Join(columns, "\t"))
	separators := make([]string, len(columns))
	for i, col := range columns {
		separators[i] = strings.Repeat("-", len(col))
	}
	fmt.Println(strings.Join(separators, "\t"))

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}

		fields := make([]string, len(values))
		for i, val := range values {
			switch v := val.(type) {
			case nil:
				fields[i] = "NULL"
			case []byte:
				fields[i] = string(v)
			default:
				fields[i] = fmt.Sprint(v)
			}
		}
		fmt.Println(strings.Join(fields, "\t"))
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("tables", false, "List available tables")
	queryCmd.Flags().String("schema", "", "Show schema for specified table")
	queryCmd.Flags().String("digest", "", "Find entries whose decoded data has this digest")
}
