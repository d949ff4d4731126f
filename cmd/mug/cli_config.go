package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/minhyannv/mug/pkg/mug"
)

// parseCLIConfig loads .env and reads the runtime knobs from the environment.
func parseCLIConfig() mug.Options {
	_ = godotenv.Load()
	return optionsFromEnv(os.Getenv)
}

func optionsFromEnv(getenv func(string) string) mug.Options {
	opts := mug.DefaultOptions()
	opts.Dir = getenv("MUG_HOME")
	if path := strings.TrimSpace(getenv("MUG_AWS_CREDENTIALS_FILE")); path != "" {
		opts.SharedCredentialsPath = path
	}
	if model := strings.TrimSpace(getenv("OPENAI_MODEL")); model != "" {
		opts.Model = model
	}
	opts.BaseURL = getenv("OPENAI_BASE_URL")
	opts.Stream = envBool(getenv("MUG_STREAM"))
	opts.Verbose = envBool(getenv("MUG_VERBOSE"))
	opts.Region = getenv("AWS_REGION")
	opts.Endpoint = getenv("MUG_S3_ENDPOINT")
	return mug.Normalize(opts)
}

func envBool(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}
