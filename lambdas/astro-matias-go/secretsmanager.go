package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used by the skill.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// WebhookSecret represents webhook settings retrieved from Secrets Manager
type WebhookSecret struct {
	WebhookURL   string `json:"webhookUrl"`
	WebhookToken string `json:"webhookToken"`
}

// NewSecretsManagerClient builds a Secrets Manager client for the region encoded in secretArn.
func NewSecretsManagerClient(ctx context.Context, logger *Logger, secretArn string) (SecretsManagerAPI, error) {
	region, err := extractRegionFromSecretArn(secretArn)
	if err != nil {
		return nil, fmt.Errorf("failed to extract region from secret ARN: %w", err)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Errorf("Failed to load AWS config: %v", err)
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// GetWebhookSecret fetches webhook settings from AWS Secrets Manager.
// The secret should be a JSON object with webhookUrl and/or webhookToken fields.
func GetWebhookSecret(ctx context.Context, logger *Logger, client SecretsManagerAPI, secretArn string) (*WebhookSecret, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretArn),
	})
	if err != nil {
		logger.Errorf("Failed to retrieve secret from Secrets Manager: %v", err)
		return nil, fmt.Errorf("failed to retrieve secret from Secrets Manager: %w", err)
	}

	if result.SecretString == nil {
		return nil, fmt.Errorf("secret value is empty or not a string")
	}

	var secret WebhookSecret
	if err := json.Unmarshal([]byte(*result.SecretString), &secret); err != nil {
		logger.Errorf("Failed to parse secret JSON: %v", err)
		return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
	}

	secret.WebhookURL = strings.TrimSpace(secret.WebhookURL)
	secret.WebhookToken = strings.TrimSpace(secret.WebhookToken)
	if secret.WebhookURL == "" && secret.WebhookToken == "" {
		return nil, fmt.Errorf("secret must contain webhookUrl or webhookToken as a non-empty string")
	}

	logger.Debugf("Successfully retrieved webhook settings from Secrets Manager")
	return &secret, nil
}

// ApplyWebhookSecret overrides the webhook settings in cfg with those found in secret.
func ApplyWebhookSecret(cfg *Config, secret *WebhookSecret) error {
	if secret.WebhookURL != "" {
		cfg.WebhookURL = secret.WebhookURL
	}
	if secret.WebhookToken != "" {
		cfg.WebhookToken = secret.WebhookToken
	}
	return cfg.Validate()
}

// extractRegionFromSecretArn extracts AWS region from Secrets Manager ARN
// Format: arn:aws:secretsmanager:REGION:ACCOUNT:secret:NAME
func extractRegionFromSecretArn(arn string) (string, error) {
	parts := strings.Split(arn, ":")
	if len(parts) < 4 || parts[0] != "arn" || parts[1] != "aws" || parts[2] != "secretsmanager" || parts[3] == "" {
		return "", fmt.Errorf("invalid Secrets Manager ARN format: %s", arn)
	}
	return parts[3], nil
}
