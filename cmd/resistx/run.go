package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/resistx/platform/pkg/client"
	"github.com/resistx/platform/pkg/common/config"
	"github.com/resistx/platform/pkg/common/database"
	"github.com/resistx/platform/pkg/common/logger"
	"github.com/resistx/platform/pkg/common/models"
	"github.com/resistx/platform/pkg/encoder"
	"github.com/resistx/platform/pkg/faults"
	"github.com/resistx/platform/pkg/identity"
	"github.com/resistx/platform/pkg/report"
	"github.com/resistx/platform/pkg/schema"
	"github.com/resistx/platform/pkg/workflow"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	var renderer report.Renderer
	switch output {
	case "text":
		renderer = styledRenderer{}
	case "json":
		renderer = report.JSONRenderer{Indent: true}
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	obs, err := loadObservations()
	if err != nil {
		return err
	}

	verifier, closeVerifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeVerifier()

	api := newClient(cfg)
	session := workflow.NewSession(verifier, api)

	if password == "" {
		password = os.Getenv("RESISTX_PASSWORD")
	}
	if err := session.Login(ctx, username, password); err != nil {
		return err
	}
	logger.Log.WithField("username", username).Debug("Logged in")

	if preflight {
		if err := api.CheckSchema(ctx); err != nil {
			return err
		}
	}

	if _, err := session.Submit(ctx, obs); err != nil {
		return err
	}
	r, err := session.Report(time.Now())
	if err != nil {
		return err
	}
	if err := renderer.Render(cmd.OutOrStdout(), r); err != nil {
		return err
	}
	return session.Logout()
}

func runEncode(cmd *cobra.Command, _ []string) error {
	obs, err := loadObservations()
	if err != nil {
		return err
	}
	record, err := encoder.Encode(obs)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	if compare {
		if err := newClient(config.Load()).CheckSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("Service schema matches "+schema.Version))
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(models.SchemaResponse{Version: schema.Version, Fields: schema.Fields()})
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	secret := ""
	if len(args) == 1 {
		secret = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		secret = strings.TrimRight(line, "\r\n")
	}
	hash, err := identity.HashPassword(secret)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func newClient(cfg *config.Config) *client.Client {
	base := apiURL
	if base == "" {
		base = cfg.PredictionAPIURL
	}
	return client.New(base, cfg.PredictionTimeout, nil)
}

func newVerifier(ctx context.Context, cfg *config.Config) (identity.Verifier, func(), error) {
	switch cfg.CredentialsBackend {
	case config.CredentialsBackendFile:
		v, err := identity.LoadFileVerifier(cfg.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return v, func() {}, nil
	case config.CredentialsBackendRedis:
		rdb, err := database.NewRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return identity.NewRedisVerifier(rdb, cfg.RedisCredentialsKey), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown credentials backend %q", cfg.CredentialsBackend)
	}
}

// loadObservations returns the flag values, or the form file's when --form
// is set.
func loadObservations() (encoder.Observations, error) {
	if formPath == "" {
		return observations, nil
	}
	data, err := os.ReadFile(formPath)
	if err != nil {
		return encoder.Observations{}, fmt.Errorf("read form: %w", err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return encoder.Observations{}, fmt.Errorf("parse form: %w", err)
	}
	if raw == nil {
		return encoder.Observations{}, errors.New("form file is empty")
	}
	values, err := formValues(raw)
	if err != nil {
		return encoder.Observations{}, err
	}
	return encoder.ObservationsFromForm(values)
}

// formValues flattens a parsed form file. Numbers must be integers, as on
// the wire; floats such as 1e2 or 45.0 are rejected rather than truncated.
func formValues(raw map[string]interface{}) (map[string]string, error) {
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			values[k] = v
		case int:
			values[k] = strconv.Itoa(v)
		default:
			return nil, faults.Encoding(k, "value must be a label or an integer, got %v", v)
		}
	}
	return values, nil
}
