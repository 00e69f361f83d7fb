package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	projector "github.com/cloudxsgmbh/sparse-projector"
	"github.com/cloudxsgmbh/sparse-projector/internal/flagbind"
)

const defaultRegion = "us-east-1"

type opFlags struct {
	output       string
	inputFile    string
	selection    string
	transport    string
	endpoint     string
	region       string
	targetPrefix string
}

// operationCmd builds the command for one operation. With send unset it
// only projects and prints the request.
func (a *app) operationCmd(schema *projector.Schema, send bool) (*cobra.Command, error) {
	o := &opFlags{}
	cmd := &cobra.Command{
		Use:   schema.Name(),
		Short: schema.Help(),
		Args:  cobra.NoArgs,
	}
	fs := cmd.Flags()
	fs.StringVarP(&o.output, "output", "o", "json", "Output format: json, yaml, cbor or go")
	fs.StringVar(&o.inputFile, "input-file", "", "YAML or JSON file of input values; flags take precedence")
	if send {
		fs.StringVar(&o.selection, "select", "*", `What to print: "*" (whole response), "^Input" (echo an input) or a path such as "DataSource.Arn"`)
		fs.StringVar(&o.transport, "transport", "", "Transport: dynamodb, http or echo (default dynamodb for DynamoDB operations, http otherwise)")
		fs.StringVar(&o.endpoint, "endpoint", "", "Service endpoint URL")
		fs.StringVar(&o.region, "region", "", "AWS region (default $AWS_REGION or "+defaultRegion+")")
		fs.StringVar(&o.targetPrefix, "target-prefix", "", "X-Amz-Target prefix for the http transport")
	}
	binder, err := flagbind.Bind(fs, schema)
	if err != nil {
		return nil, projector.NewError(err.Error(), projector.WithCode(projector.ErrSchemaViolation))
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		inputs, err := binder.Inputs(cmd.Flags())
		if err != nil {
			return projector.NewError(err.Error(), projector.WithCode(projector.ErrArgument))
		}
		if o.inputFile != "" {
			fromFile, err := readInputFile(o.inputFile)
			if err != nil {
				return err
			}
			inputs = fromFile.Merge(inputs)
		}

		var transport projector.Transport = projector.EchoTransport{}
		sel := projector.Selection{}
		if send {
			if transport, err = a.transport(schema.Name(), o); err != nil {
				return err
			}
			if sel, err = projector.ParseSelection(o.selection); err != nil {
				return err
			}
		}

		client, err := projector.NewClient(projector.ClientParams{
			Registry:  a.registry,
			Transport: transport,
			Logger:    a.log,
			Mode:      a.mode(),
		})
		if err != nil {
			return err
		}
		res, err := client.Invoke(cmd.Context(), schema.Name(), inputs, sel)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), o.output, res.Output)
	}
	return cmd, nil
}

func (a *app) transport(operation string, o *opFlags) (projector.Transport, error) {
	name := o.transport
	if name == "" {
		name = "http"
		if a.isDynamoOperation(operation) {
			name = "dynamodb"
		}
	}
	switch name {
	case "echo":
		return projector.EchoTransport{}, nil
	case "dynamodb":
		return projector.DynamoTransport{Client: dynamoClient(o.region, o.endpoint)}, nil
	case "http":
		if o.endpoint == "" {
			return nil, projector.NewError("--endpoint is required for the http transport",
				projector.WithCode(projector.ErrArgument))
		}
		return projector.HTTPTransport{Endpoint: o.endpoint, TargetPrefix: o.targetPrefix}, nil
	}
	return nil, projector.NewError(fmt.Sprintf("unknown transport %q", name), projector.WithCode(projector.ErrArgument))
}

func (a *app) isDynamoOperation(name string) bool {
	return a.builtin[name]
}

// dynamoClient builds a client from static environment credentials. Retries
// are disabled: one invocation is one call.
func dynamoClient(region, endpoint string) *dynamodb.Client {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = defaultRegion
	}
	options := dynamodb.Options{
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			}, nil
		}),
		Retryer: aws.NopRetryer{},
		Region:  region,
	}
	if endpoint != "" {
		options.BaseEndpoint = aws.String(endpoint)
	}
	return dynamodb.New(options)
}

// readInputFile loads explicit inputs; every key present in the file counts
// as set, including keys whose value is null.
func readInputFile(path string) (projector.Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, projector.NewError(fmt.Sprintf("failed to parse input file %s", path),
			projector.WithCode(projector.ErrArgument), projector.WithCause(err))
	}
	return projector.InputsOf(values), nil
}
