package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/morphgrid/internal/app"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Output is everything the app wrote: any log lines first, then the
	// final grid rendering.
	Output string
	Err    error
	App    *app.App
}

// RunModelTest provides a standardized harness for running a model from
// source with a fixed seed and quiet logging.
func RunModelTest(t *testing.T, model string) *HarnessResult {
	t.Helper()
	return RunModelTestWithConfig(context.Background(), t, model, app.Config{Seed: 1})
}

// RunModelTestWithConfig provides a standardized harness for running a model
// with a caller-supplied context and configuration. The harness fills in the
// model path; empty log settings default to quiet text logging so the output
// holds only the grid.
func RunModelTestWithConfig(ctx context.Context, t *testing.T, model string, cfg app.Config) *HarnessResult {
	t.Helper()

	// 1. Write the model source to a temporary file.
	cfg.ModelPath = filepath.Join(t.TempDir(), "model.hcl")
	require.NoError(t, os.WriteFile(cfg.ModelPath, []byte(model), 0644))

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}
	config, err := app.NewConfig(cfg)
	require.NoError(t, err)

	buffer := &SafeBuffer{}

	// 2. Construct the app, converting a startup panic into a regular error.
	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				if os.Getenv("MGRID_TEST_LOGS") == "true" {
					t.Logf("--- HARNESS RECOVERED PANIC ---\n%q", fmt.Sprintf("%v", r))
				}
				panicErr = r
			}
		}()
		testApp = app.NewApp(buffer, config)
	}()

	if panicErr != nil {
		return &HarnessResult{
			Output: buffer.String(),
			Err:    fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	// 3. Run the model to completion.
	runErr := testApp.Run(ctx)

	if os.Getenv("MGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Output for %s ---\n%s", t.Name(), buffer.String())
	}

	return &HarnessResult{
		Output: buffer.String(),
		Err:    runErr,
		App:    testApp,
	}
}
