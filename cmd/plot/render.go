package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planfold/plotd/internal/model"
	"github.com/planfold/plotd/internal/render"
	"github.com/planfold/plotd/internal/view"
)

var renderCmd = &cobra.Command{
	Use:     "render <diagram-type> <target>",
	Short:   "Generate a diagram and render it locally",
	GroupID: "diagrams",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := model.DiagramKind(args[0])
		if !kind.IsValid() {
			return fmt.Errorf("unknown diagram type %q", args[0])
		}
		target := args[1]

		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("output")
		params, _ := cmd.Flags().GetStringToString("param")
		width, _ := cmd.Flags().GetFloat64("width")
		height, _ := cmd.Flags().GetFloat64("height")
		seed, _ := cmd.Flags().GetInt64("seed")

		if format != "svg" && format != "json" {
			return fmt.Errorf("unsupported render format %q (svg or json)", format)
		}

		session := view.NewSession(diagramClient, render.Options{Width: width, Height: height, Seed: seed})
		state := session.Load(context.Background(), &model.DiagramRequest{
			Kind:       kind,
			Target:     target,
			Format:     model.FormatJSON,
			Parameters: params,
		})
		if state.Status == view.StatusError {
			return renderErrorWithRemedy(state.Err)
		}
		if state.Report != nil {
			printDropped(state.Report.Dropped)
		}

		var out []byte
		if format == "svg" {
			out = state.Scene.SVG()
		} else {
			out = append(state.Response.Data, '\n')
		}

		if outPath != "" {
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Printf("wrote %s\n", outPath)
			return nil
		}
		_, err := os.Stdout.Write(out)
		return err
	},
}

// renderErrorWithRemedy maps a backend error onto a user-facing message plus
// the suggested recovery action.
func renderErrorWithRemedy(err error) error {
	var be *model.BackendError
	if !errors.As(err, &be) {
		return err
	}
	switch be.Remediation() {
	case model.RemediationSettings:
		return fmt.Errorf("%s (check the backend configuration)", be.Message)
	case model.RemediationRetry:
		return fmt.Errorf("%s (try again)", be.Message)
	case model.RemediationRetryAndReport:
		return fmt.Errorf("%s (try again; report if it persists)", be.Message)
	default:
		return err
	}
}

func init() {
	renderCmd.Flags().String("format", "svg", "output format (svg or json)")
	renderCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	renderCmd.Flags().StringToString("param", nil, "filter parameters (key=value)")
	renderCmd.Flags().Float64("width", render.DefaultWidth, "viewport width")
	renderCmd.Flags().Float64("height", render.DefaultHeight, "viewport height")
	renderCmd.Flags().Int64("seed", 0, "layout seed (0 = random)")
}
