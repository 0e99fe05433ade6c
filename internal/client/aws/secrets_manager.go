package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/tokenforge/tokenforge-api/internal/logger"
)

// SecretsManagerClient wraps the AWS Secrets Manager client.
type SecretsManagerClient struct {
	svc *secretsmanager.Client
	cfg aws.Config
}

// NewSecretsManagerClient creates and initializes a new Secrets Manager client.
// It uses the default AWS configuration chain (environment variables, shared config, IAM role).
func NewSecretsManagerClient(ctx context.Context) (*SecretsManagerClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return &SecretsManagerClient{
		svc: secretsmanager.NewFromConfig(cfg),
		cfg: cfg,
	}, nil
}

// GetSecretString fetches a secret string from Secrets Manager using an ARN held in
// secretArnEnvVar. If the ARN variable is unset or the fetch fails, it falls back to
// reading the value directly from fallbackEnvVar. Secrets stored as a JSON object with
// a single key are unwrapped to that key's value; anything else is returned verbatim.
func (c *SecretsManagerClient) GetSecretString(ctx context.Context, secretArnEnvVar string, fallbackEnvVar string) (string, error) {
	secretArn := os.Getenv(secretArnEnvVar)

	if secretArn != "" {
		logger.Debug("Fetching secret from Secrets Manager",
			zap.String("arnEnvVar", secretArnEnvVar),
			zap.String("secretArn", secretArn))
		input := &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretArn),
		}

		result, err := c.svc.GetSecretValue(ctx, input)
		if err == nil && result.SecretString != nil && *result.SecretString != "" {
			fetchedSecretString := *result.SecretString

			var secretJSON map[string]string
			jsonErr := json.Unmarshal([]byte(fetchedSecretString), &secretJSON)
			if jsonErr == nil && len(secretJSON) == 1 {
				for key, value := range secretJSON {
					logger.Info("Fetched secret from Secrets Manager (single-key JSON)",
						zap.String("secretArn", secretArn),
						zap.String("jsonKey", key),
					)
					return value, nil
				}
			}

			logger.Info("Fetched secret from Secrets Manager", zap.String("secretArn", secretArn))
			return fetchedSecretString, nil
		}

		logger.Warn("Failed to retrieve secret from Secrets Manager, falling back to env var",
			zap.String("secretArnEnvVar", secretArnEnvVar),
			zap.String("fallbackEnvVar", fallbackEnvVar),
			zap.Error(err),
		)
	}

	secretValue := os.Getenv(fallbackEnvVar)
	if secretValue != "" {
		logger.Debug("Using secret value from environment variable", zap.String("envVar", fallbackEnvVar))
		return secretValue, nil
	}

	return "", fmt.Errorf("secret not found using ARN env var '%s' or direct env var '%s'", secretArnEnvVar, fallbackEnvVar)
}
