// Package config reads the Lambda environment once at cold start.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"dental-order-agent/internal/integrations/paramstore"
)

const (
	StoreS3       = "s3"
	StoreDynamoDB = "dynamodb"
)

// LookupFunc has the shape of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Resolver expands "ssm:<name>" references. *paramstore.Client satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, v string) (string, error)
}

// MissingError reports a required variable that is unset or empty.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("config: required environment variable %s is not set", e.Key)
}

// OrderAction configures the Bedrock action group Lambda.
type OrderAction struct {
	Region string
	Bucket string
	Store  string
	Table  string
}

// ChatResolver configures the AppSync resolver Lambda.
type ChatResolver struct {
	Region          string
	GraphQLEndpoint string
	AgentID         string
	AgentAliasID    string
	EnableTrace     bool
}

type env struct {
	ctx      context.Context
	lookup   LookupFunc
	resolver Resolver
}

func newEnv(ctx context.Context, lookup LookupFunc, resolver Resolver) env {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return env{ctx: ctx, lookup: lookup, resolver: resolver}
}

// optional returns the first non-empty value among keys, resolving SSM
// references.
func (e env) optional(keys ...string) (string, error) {
	for _, key := range keys {
		v, ok := e.lookup(key)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		if !paramstore.IsReference(v) {
			return v, nil
		}
		if e.resolver == nil {
			return "", fmt.Errorf("config: %s references SSM but no parameter store is configured", key)
		}
		resolved, err := e.resolver.Resolve(e.ctx, v)
		if err != nil {
			return "", fmt.Errorf("config: resolve %s: %w", key, err)
		}
		return strings.TrimSpace(resolved), nil
	}
	return "", nil
}

func (e env) required(keys ...string) (string, error) {
	v, err := e.optional(keys...)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", &MissingError{Key: keys[0]}
	}
	return v, nil
}

// LoadOrderAction reads the order action configuration. The bucket defaults
// to data-bucket-<account>-<region>.
func LoadOrderAction(ctx context.Context, lookup LookupFunc, resolver Resolver) (OrderAction, error) {
	e := newEnv(ctx, lookup, resolver)
	var cfg OrderAction
	var err error

	if cfg.Region, err = e.required("AWS_REGION"); err != nil {
		return OrderAction{}, err
	}
	if cfg.Store, err = e.optional("ORDER_STORE"); err != nil {
		return OrderAction{}, err
	}
	cfg.Store = strings.ToLower(cfg.Store)
	if cfg.Store == "" {
		cfg.Store = StoreS3
	}

	switch cfg.Store {
	case StoreS3:
		if cfg.Bucket, err = e.optional("ORDER_BUCKET"); err != nil {
			return OrderAction{}, err
		}
		if cfg.Bucket == "" {
			account, err := e.required("ACCOUNT_ID")
			if err != nil {
				return OrderAction{}, err
			}
			cfg.Bucket = BucketName(account, cfg.Region)
		}
	case StoreDynamoDB:
		if cfg.Table, err = e.required("ORDER_TABLE"); err != nil {
			return OrderAction{}, err
		}
	default:
		return OrderAction{}, fmt.Errorf("config: unknown ORDER_STORE %q", cfg.Store)
	}
	return cfg, nil
}

// LoadChatResolver reads the chat resolver configuration.
func LoadChatResolver(ctx context.Context, lookup LookupFunc, resolver Resolver) (ChatResolver, error) {
	e := newEnv(ctx, lookup, resolver)
	var cfg ChatResolver
	var err error

	if cfg.Region, err = e.required("AWS_REGION"); err != nil {
		return ChatResolver{}, err
	}
	if cfg.GraphQLEndpoint, err = e.required("graphql_endpoint", "GRAPHQL_ENDPOINT"); err != nil {
		return ChatResolver{}, err
	}
	if cfg.AgentID, err = e.required("AGENT_ID"); err != nil {
		return ChatResolver{}, err
	}
	if cfg.AgentAliasID, err = e.required("AGENT_ALIAS_ID"); err != nil {
		return ChatResolver{}, err
	}
	trace, err := e.optional("AGENT_ENABLE_TRACE")
	if err != nil {
		return ChatResolver{}, err
	}
	if trace != "" {
		if cfg.EnableTrace, err = strconv.ParseBool(trace); err != nil {
			return ChatResolver{}, fmt.Errorf("config: AGENT_ENABLE_TRACE: %w", err)
		}
	}
	return cfg, nil
}

// BucketName derives the shared data bucket name for an account and region.
func BucketName(account, region string) string {
	return "data-bucket-" + account + "-" + region
}

// IsMissing reports whether err was caused by an unset required variable.
func IsMissing(err error) bool {
	var m *MissingError
	return errors.As(err, &m)
}
