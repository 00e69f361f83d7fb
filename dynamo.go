/*
Package projector – DynamoDB transport.

Projected requests for the item operations are decoded into AWS SDK v2
input structs; responses come back as generic maps for selection.
*/
package projector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoClient is the subset of the AWS DynamoDB client used by
// DynamoTransport. Test doubles satisfy it as well.
type DynamoClient interface {
	GetItem(ctx context.Context, params *ddb.GetItemInput, optFns ...func(*ddb.Options)) (*ddb.GetItemOutput, error)
	PutItem(ctx context.Context, params *ddb.PutItemInput, optFns ...func(*ddb.Options)) (*ddb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *ddb.DeleteItemInput, optFns ...func(*ddb.Options)) (*ddb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *ddb.UpdateItemInput, optFns ...func(*ddb.Options)) (*ddb.UpdateItemOutput, error)
}

// dynamoSchema describes the requests DynamoTransport understands.
const dynamoSchema = `
version: "1"
name: dynamodb
operations:
  - name: PutItem
    help: Create or replace an item.
    request:
      - {name: TableName, type: string, required: true}
      - {name: Item, type: map, required: true}
      - {name: ConditionExpression, type: string, input: Condition}
      - {name: ExpressionAttributeNames, type: map, input: Names}
      - {name: ExpressionAttributeValues, type: map, input: Values}
      - {name: ReturnValues, type: string, enum: [NONE, ALL_OLD]}
  - name: GetItem
    help: Read one item by key.
    request:
      - {name: TableName, type: string, required: true}
      - {name: Key, type: map, required: true}
      - {name: ConsistentRead, type: boolean}
      - {name: ProjectionExpression, type: string, input: Projection}
      - {name: ExpressionAttributeNames, type: map, input: Names}
  - name: DeleteItem
    help: Delete one item by key.
    request:
      - {name: TableName, type: string, required: true}
      - {name: Key, type: map, required: true}
      - {name: ConditionExpression, type: string, input: Condition}
      - {name: ExpressionAttributeNames, type: map, input: Names}
      - {name: ExpressionAttributeValues, type: map, input: Values}
      - {name: ReturnValues, type: string, enum: [NONE, ALL_OLD]}
  - name: UpdateItem
    help: Update attributes of one item.
    request:
      - {name: TableName, type: string, required: true}
      - {name: Key, type: map, required: true}
      - {name: UpdateExpression, type: string, input: Update}
      - {name: ConditionExpression, type: string, input: Condition}
      - {name: ExpressionAttributeNames, type: map, input: Names}
      - {name: ExpressionAttributeValues, type: map, input: Values}
      - {name: ReturnValues, type: string, enum: [NONE, ALL_OLD, UPDATED_OLD, ALL_NEW, UPDATED_NEW]}
`

// DynamoSchema returns the schema of the operations DynamoTransport serves.
func DynamoSchema() *SchemaDef {
	def, err := ParseSchema([]byte(dynamoSchema))
	if err != nil {
		panic("projector: built-in dynamodb schema: " + err.Error())
	}
	return def
}

// DynamoTransport sends projected requests to DynamoDB.
type DynamoTransport struct {
	Client DynamoClient
}

func (t DynamoTransport) Invoke(ctx context.Context, operation string, req Request) (any, error) {
	if t.Client == nil {
		return nil, argError("DynamoTransport has no client configured")
	}
	switch operation {
	case "GetItem":
		input, err := buildGetInput(req)
		if err != nil {
			return nil, err
		}
		out, err := t.Client.GetItem(ctx, input)
		if err != nil {
			return nil, err
		}
		return wrapItem("Item", out.Item)

	case "PutItem":
		input, err := buildPutInput(req)
		if err != nil {
			return nil, err
		}
		out, err := t.Client.PutItem(ctx, input)
		if err != nil {
			return nil, err
		}
		return wrapItem("Attributes", out.Attributes)

	case "DeleteItem":
		input, err := buildDeleteInput(req)
		if err != nil {
			return nil, err
		}
		out, err := t.Client.DeleteItem(ctx, input)
		if err != nil {
			return nil, err
		}
		return wrapItem("Attributes", out.Attributes)

	case "UpdateItem":
		input, err := buildUpdateInput(req)
		if err != nil {
			return nil, err
		}
		out, err := t.Client.UpdateItem(ctx, input)
		if err != nil {
			return nil, err
		}
		return wrapItem("Attributes", out.Attributes)
	}
	return nil, argError(fmt.Sprintf("DynamoTransport: unknown operation %q", operation))
}

func wrapItem(key string, av map[string]types.AttributeValue) (map[string]any, error) {
	if av == nil {
		return map[string]any{}, nil
	}
	var item map[string]any
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, err
	}
	return map[string]any{key: item}, nil
}

func buildGetInput(req Request) (*ddb.GetItemInput, error) {
	input := &ddb.GetItemInput{}
	if tn, ok := req["TableName"].(string); ok {
		input.TableName = aws.String(tn)
	}
	key, err := marshalAttributes(req, "Key")
	if err != nil {
		return nil, err
	}
	input.Key = key
	if cr, ok := req["ConsistentRead"].(bool); ok {
		input.ConsistentRead = aws.Bool(cr)
	}
	if pe, ok := req["ProjectionExpression"].(string); ok {
		input.ProjectionExpression = aws.String(pe)
	}
	if input.ExpressionAttributeNames, err = attributeNames(req); err != nil {
		return nil, err
	}
	return input, nil
}

func buildPutInput(req Request) (*ddb.PutItemInput, error) {
	input := &ddb.PutItemInput{}
	if tn, ok := req["TableName"].(string); ok {
		input.TableName = aws.String(tn)
	}
	var err error
	if input.Item, err = marshalAttributes(req, "Item"); err != nil {
		return nil, err
	}
	if ce, ok := req["ConditionExpression"].(string); ok {
		input.ConditionExpression = aws.String(ce)
	}
	if input.ExpressionAttributeNames, err = attributeNames(req); err != nil {
		return nil, err
	}
	if input.ExpressionAttributeValues, err = marshalAttributes(req, "ExpressionAttributeValues"); err != nil {
		return nil, err
	}
	if rv, ok := req["ReturnValues"].(string); ok {
		input.ReturnValues = types.ReturnValue(rv)
	}
	return input, nil
}

func buildDeleteInput(req Request) (*ddb.DeleteItemInput, error) {
	input := &ddb.DeleteItemInput{}
	if tn, ok := req["TableName"].(string); ok {
		input.TableName = aws.String(tn)
	}
	var err error
	if input.Key, err = marshalAttributes(req, "Key"); err != nil {
		return nil, err
	}
	if ce, ok := req["ConditionExpression"].(string); ok {
		input.ConditionExpression = aws.String(ce)
	}
	if input.ExpressionAttributeNames, err = attributeNames(req); err != nil {
		return nil, err
	}
	if input.ExpressionAttributeValues, err = marshalAttributes(req, "ExpressionAttributeValues"); err != nil {
		return nil, err
	}
	if rv, ok := req["ReturnValues"].(string); ok {
		input.ReturnValues = types.ReturnValue(rv)
	}
	return input, nil
}

func buildUpdateInput(req Request) (*ddb.UpdateItemInput, error) {
	input := &ddb.UpdateItemInput{}
	if tn, ok := req["TableName"].(string); ok {
		input.TableName = aws.String(tn)
	}
	var err error
	if input.Key, err = marshalAttributes(req, "Key"); err != nil {
		return nil, err
	}
	if ue, ok := req["UpdateExpression"].(string); ok {
		input.UpdateExpression = aws.String(ue)
	}
	if ce, ok := req["ConditionExpression"].(string); ok {
		input.ConditionExpression = aws.String(ce)
	}
	if input.ExpressionAttributeNames, err = attributeNames(req); err != nil {
		return nil, err
	}
	if input.ExpressionAttributeValues, err = marshalAttributes(req, "ExpressionAttributeValues"); err != nil {
		return nil, err
	}
	if rv, ok := req["ReturnValues"].(string); ok {
		input.ReturnValues = types.ReturnValue(rv)
	}
	return input, nil
}

// marshalAttributes converts the map under key into DynamoDB attribute values.
// A missing key yields nil so the SDK omits the member.
func marshalAttributes(req Request, key string) (map[string]types.AttributeValue, error) {
	v, ok := req[key]
	if !ok || v == nil {
		return nil, nil
	}
	av, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, NewError(fmt.Sprintf("cannot marshal %s", key), WithCode(ErrArgument), WithCause(err))
	}
	return av, nil
}

func attributeNames(req Request) (map[string]string, error) {
	switch names := req["ExpressionAttributeNames"].(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return names, nil
	case map[string]any:
		out := make(map[string]string, len(names))
		for k, v := range names {
			s, ok := v.(string)
			if !ok {
				return nil, argError(fmt.Sprintf("ExpressionAttributeNames[%q] is %T, not a string", k, v))
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, argError(fmt.Sprintf("ExpressionAttributeNames is %T", names))
	}
}
