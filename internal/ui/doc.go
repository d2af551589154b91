// Package ui renders the output of the non-interactive ledsetup-cfg
// commands.
//
// Unlike the wizard, these components print once and exit:
//
//   - Header: command banner with the controller and other parameters
//   - Steps: checklist of the requests a command makes
//   - Result: success, warning or failure box with troubleshooting hints
//   - RenderPayload: request or response JSON for --verbose and --dry-run
//   - Confirm: typed confirmation before a change that may cut the
//     controller off
//
// Runner ties the first three together:
//
//	r := ui.NewRunner(ui.RunnerConfig{
//	    Title:   "LED strip test",
//	    Command: "ledsetup-cfg test-strip",
//	    Params:  []ui.Param{{Key: "Controller", Value: client.BaseURL}},
//	    Steps:   []string{"Sending test pattern"},
//	})
//	err := r.Run(ctx, func(ctx context.Context, step ui.StepFunc) ([]ui.Param, error) {
//	    step(1, ui.StepRunning, "")
//	    if err := client.TestStrip(ctx, params); err != nil {
//	        step(1, ui.StepFailed, "")
//	        return nil, err
//	    }
//	    step(1, ui.StepComplete, "")
//	    return nil, nil
//	})
//
// Logging stays silent unless --log-level or LEDSETUP_LOG_LEVEL asks for
// it, so the curated output is not interleaved with log lines.
package ui
