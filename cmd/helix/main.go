// Command helix is the HelixDB interactive REPL: it preloads a .hx
// schema+query source, optionally a .hxdata snapshot, and lets the
// operator invoke any QUERY declared in the source by name.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ritamzico/helixdb/internal/exec"
	"github.com/ritamzico/helixdb/internal/frontend"
	"github.com/ritamzico/helixdb/internal/ir"
	"github.com/ritamzico/helixdb/internal/lang"
	"github.com/ritamzico/helixdb/internal/result"
	"github.com/ritamzico/helixdb/internal/schema"
	"github.com/ritamzico/helixdb/internal/sema"
	"github.com/ritamzico/helixdb/internal/serialization"
	"github.com/ritamzico/helixdb/internal/store/memstore"
	"github.com/ritamzico/helixdb/internal/vectorstore/flat"
)

const helpText = `helix interactive REPL

Commands:
  list                       Show every QUERY declared in the loaded source
  run <query> <jsonParams>   Invoke a query, e.g. run findUser {"name":"ada"}
  save <path>                Write the current graph+vector state to a .hxdata file
  help                       Show this help message
  exit / quit                Exit the REPL

Any other input is treated as "run" shorthand: "<query> <jsonParams>".
`

func main() {
	root := &cobra.Command{
		Use:   "helix",
		Short: "HelixDB interactive REPL",
		RunE:  runRepl,
	}
	root.Flags().String("source", "", "path to a .hx schema+query source file (required)")
	root.Flags().String("data", "", "path to a .hxdata snapshot to preload")
	root.Flags().StringSlice("vector", nil, "vector type registration NAME:DIM:METRIC, repeatable")
	root.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.MarkFlagRequired("source")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRepl(cmd *cobra.Command, args []string) error {
	sourcePath, _ := cmd.Flags().GetString("source")
	dataPath, _ := cmd.Flags().GetString("data")
	vectorSpecs, _ := cmd.Flags().GetStringSlice("vector")
	logLevel, _ := cmd.Flags().GetString("log-level")

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(logLevel); err == nil {
		log.SetLevel(lvl)
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading source %s: %w", sourcePath, err)
	}
	file, err := lang.Parse(sourcePath, string(src))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", sourcePath, err)
	}
	reg, err := schema.BuildRegistry(file)
	if err != nil {
		return fmt.Errorf("building schema: %w", err)
	}

	plans, diags := sema.Analyze(file, reg)
	if diags.HasErrors() {
		return fmt.Errorf("semantic analysis failed:\n%s", diags.Error())
	}
	byName := make(map[string]*ir.Plan, len(plans))
	for _, p := range plans {
		byName[p.Name] = p
	}

	vec := flat.New()
	if err := frontend.RegisterVectorTypes(vec, vectorSpecs); err != nil {
		return err
	}

	var graph *memstore.Store
	if dataPath != "" {
		g, v, err := serialization.LoadJSON(dataPath, reg)
		if err != nil {
			return fmt.Errorf("loading %s: %w", dataPath, err)
		}
		graph = g
		vec = v
	} else {
		graph = memstore.New(reg)
	}

	ex := exec.New(graph, vec, reg, log)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("helix — HelixDB interactive REPL")
	fmt.Printf("loaded %s (%d queries)\n", sourcePath, len(byName))
	fmt.Println(`Type "help" for available commands.`)
	fmt.Println()

	for {
		fmt.Print("helix> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "exit", "quit":
			return nil

		case "help":
			fmt.Print(helpText)

		case "list":
			if len(byName) == 0 {
				fmt.Println("(no queries declared)")
			}
			for name, p := range byName {
				fmt.Printf("  %s(%d params)\n", name, len(p.Params))
			}

		case "save":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: save <path>")
				continue
			}
			snap := serialization.Snapshot{Graph: graph, Vector: vec}
			if err := serialization.SaveJSON(snap, strings.TrimSpace(parts[1])); err != nil {
				fmt.Fprintf(os.Stderr, "save error: %v\n", err)
				continue
			}
			fmt.Printf("saved to %s\n", strings.TrimSpace(parts[1]))

		case "run":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: run <query> <jsonParams>")
				continue
			}
			runQuery(ex, byName, parts[1])

		default:
			runQuery(ex, byName, line)
		}
	}
	return nil
}

func runQuery(ex *exec.Executor, byName map[string]*ir.Plan, input string) {
	name, rawParams, _ := strings.Cut(input, " ")
	plan, ok := byName[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "no query named %q\n", name)
		return
	}
	params, err := frontend.ParseParams(rawParams)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid params: %v\n", err)
		return
	}

	results, err := ex.Execute(context.Background(), plan, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query error: %v\n", err)
		return
	}

	rows := make([]result.Row, len(results))
	for i, r := range results {
		rows[i] = result.NewRow(r.Name, r.Values)
	}
	qr := result.NewQueryResult(rows)
	b, err := json.MarshalIndent(qr, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal error: %v\n", err)
		return
	}
	fmt.Println(string(b))
}
