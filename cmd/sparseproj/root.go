package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	projector "github.com/cloudxsgmbh/sparse-projector"
)

const schemaEnv = "SPARSEPROJ_SCHEMA"

// app is the state shared by all commands of one run.
type app struct {
	out        io.Writer
	registry   *projector.Registry
	schemaPath string
	verbose    bool
	logJSON    bool
	lenient    bool
	log        projector.Logger
	builtin    map[string]bool // built-in DynamoDB operations in the registry
}

// newRootCmd builds the command tree. The schema has to be known before
// cobra parses flags, because every operation gets its own flags; it is
// taken from --schema in args or from $SPARSEPROJ_SCHEMA.
func newRootCmd(args []string, out io.Writer) (*cobra.Command, error) {
	a := &app{out: out, schemaPath: schemaFromArgs(args)}
	if a.schemaPath == "" {
		a.schemaPath = os.Getenv(schemaEnv)
	}
	if err := a.loadRegistry(); err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:           "sparseproj",
		Short:         "Build nested service requests from flags and send them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.log = projector.NewLogger(projector.LogOptions{
				Verbose:    a.verbose,
				JSONFormat: a.logJSON,
				Output:     cmd.ErrOrStderr(),
			})
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.schemaPath, "schema", "s", a.schemaPath, "Path to a YAML or JSON schema file (or $"+schemaEnv+")")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Log trace and data lines")
	pf.BoolVar(&a.logJSON, "log-json", false, "Log as JSON")
	pf.BoolVar(&a.lenient, "lenient", false, "Ignore inputs the schema does not know instead of failing")
	root.SetOut(out)

	root.AddCommand(a.operationsCmd())

	project := &cobra.Command{
		Use:   "project",
		Short: "Print the request an operation would send, without sending it",
	}
	invoke := &cobra.Command{
		Use:   "invoke",
		Short: "Send an operation's request and print the selected response",
	}
	for _, name := range a.registry.Operations() {
		schema, err := a.registry.Operation(name)
		if err != nil {
			return nil, err
		}
		p, err := a.operationCmd(schema, false)
		if err != nil {
			return nil, err
		}
		i, err := a.operationCmd(schema, true)
		if err != nil {
			return nil, err
		}
		project.AddCommand(p)
		invoke.AddCommand(i)
	}
	root.AddCommand(project, invoke)
	return root, nil
}

// loadRegistry registers the user schema, then the built-in DynamoDB
// operations the user schema does not declare itself.
func (a *app) loadRegistry() error {
	var defs []*projector.SchemaDef
	declared := map[string]bool{}
	if a.schemaPath != "" {
		def, err := projector.ReadSchemaFile(a.schemaPath)
		if err != nil {
			return err
		}
		for _, op := range def.Operations {
			if op != nil {
				declared[op.Name] = true
			}
		}
		defs = append(defs, def)
	}

	dynamo := projector.DynamoSchema()
	ops := dynamo.Operations[:0]
	a.builtin = map[string]bool{}
	for _, op := range dynamo.Operations {
		if !declared[op.Name] {
			ops = append(ops, op)
			a.builtin[op.Name] = true
		}
	}
	dynamo.Operations = ops
	defs = append(defs, dynamo)

	reg, err := projector.NewRegistry(defs...)
	if err != nil {
		return err
	}
	a.registry = reg
	return nil
}

func (a *app) operationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List the operations known to the loaded schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range a.registry.Operations() {
				schema, err := a.registry.Operation(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d inputs\n", name, len(schema.Leaves()))
			}
			return nil
		},
	}
}

func (a *app) mode() projector.Mode {
	if a.lenient {
		return projector.Lenient
	}
	return projector.Strict
}

// schemaFromArgs finds the value of --schema/-s without full flag parsing.
func schemaFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		for _, name := range []string{"--schema", "-s"} {
			if arg == name && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(arg, name+"="); ok {
				return v
			}
		}
	}
	return ""
}
