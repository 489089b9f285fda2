// Package main provides the QuillGraph CLI entry point.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/quillgraph/pkg/cypher"
	"github.com/orneryd/quillgraph/pkg/graph"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "quillgraph",
		Short: "QuillGraph - an in-memory property graph with a Cypher-subset query language",
		Long: `QuillGraph holds a directed, labeled property graph in memory and
runs a Cypher-subset query language against it: MATCH, WHERE, CREATE,
SET, DELETE, and RETURN.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quillgraph v%s\n", version)
		},
	})

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run Cypher-subset statements against a graph file",
		RunE:  runQuery,
	}
	runCmd.Flags().String("graph", "", "path to a graph JSON file (required)")
	runCmd.Flags().String("query", "", "the statement text to run")
	runCmd.Flags().String("query-file", "", "path to a file with one statement per non-blank line")
	runCmd.Flags().String("options", "", "path to a YAML QueryOptions profile")
	runCmd.Flags().String("save", "", "path to write the graph back to after a mutating statement")
	_ = runCmd.MarkFlagRequired("graph")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	graphPath, _ := cmd.Flags().GetString("graph")
	query, _ := cmd.Flags().GetString("query")
	queryFile, _ := cmd.Flags().GetString("query-file")
	optionsPath, _ := cmd.Flags().GetString("options")
	savePath, _ := cmd.Flags().GetString("save")

	var statements []string
	switch {
	case queryFile != "":
		text, err := os.ReadFile(queryFile)
		if err != nil {
			return fmt.Errorf("reading query file: %w", err)
		}
		statements = splitStatements(string(text))
	case query != "":
		statements = []string{query}
	default:
		return fmt.Errorf("one of --query or --query-file is required")
	}

	g, err := loadGraph(graphPath)
	if err != nil {
		return err
	}

	opts, err := loadOptions(optionsPath)
	if err != nil {
		return err
	}

	for _, stmt := range statements {
		result := cypher.ExecuteQuery(g, stmt, opts)
		if result.Error != nil {
			return fmt.Errorf("query failed: %w", result.Error)
		}
		printResult(result)
	}

	if savePath != "" {
		if err := saveGraph(g, savePath); err != nil {
			return fmt.Errorf("saving graph: %w", err)
		}
	}
	return nil
}

// splitStatements breaks a query-file's contents into one statement per
// non-blank line, run in order against the same graph.
func splitStatements(text string) []string {
	var statements []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		statements = append(statements, line)
	}
	return statements
}

func loadGraph(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return graph.New(), nil
		}
		return nil, fmt.Errorf("reading graph file: %w", err)
	}
	g, err := graph.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing graph file: %w", err)
	}
	return g, nil
}

func saveGraph(g *graph.Graph, path string) error {
	data, err := g.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func loadOptions(path string) (cypher.QueryOptions, error) {
	opts := cypher.DefaultQueryOptions()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing options file: %w", err)
	}
	return opts, nil
}

func printResult(r *cypher.GraphQueryResult) {
	fmt.Printf("matches: %d\n", r.MatchCount)
	if r.Query != nil {
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, strings.Join(r.Query.Columns, "\t"))
		for _, row := range r.Query.Rows {
			fmt.Fprintln(w, formatRow(row))
		}
		w.Flush()
	}
	if len(r.Actions) > 0 {
		fmt.Printf("writes: %d (%dms)\n", r.Stats.WriteOperations, r.Stats.ExecutionTimeMs)
	}
}

func formatRow(row []cypher.Cell) string {
	values := make([]string, len(row))
	for i, cell := range row {
		values[i] = fmt.Sprintf("%v", cell.Value)
	}
	return strings.Join(values, "\t")
}
